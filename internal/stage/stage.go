// Package stage applies one batched inference function over a record set and
// merges the results back onto the records by position.
package stage

import (
	"context"

	"comment-insights-go/internal/batch"
	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/types"
)

const (
	NameSentiment = "sentiment"
	NameTopic     = "topic"
)

// InferFunc classifies texts and returns exactly one result per text, in order.
type InferFunc func(ctx context.Context, texts []string) ([]types.Classification, error)

// Stage is one pass of batched inference. Assign stores a result on a record.
type Stage struct {
	Name   string
	Infer  InferFunc
	Assign func(rec *types.CanonicalRecord, c types.Classification)
}

// Sentiment returns a stage that populates CanonicalRecord.Sentiment.
func Sentiment(infer InferFunc) Stage {
	return Stage{
		Name:  NameSentiment,
		Infer: infer,
		Assign: func(rec *types.CanonicalRecord, c types.Classification) {
			rec.Sentiment = &c
		},
	}
}

// Topic returns a stage that populates CanonicalRecord.Topic.
func Topic(infer InferFunc) Stage {
	return Stage{
		Name:  NameTopic,
		Infer: infer,
		Assign: func(rec *types.CanonicalRecord, c types.Classification) {
			rec.Topic = &c
		},
	}
}

// Apply enriches records in place, one inference call per batch. It stops at the
// first failing batch: batches before it stay merged, the failing batch and all
// later ones are left untouched.
func (s Stage) Apply(ctx context.Context, records []types.CanonicalRecord, batchSize int) error {
	if batchSize <= 0 {
		return errors.NewInvalidRequest("batch size must be positive")
	}

	i := 0
	for chunk := range batch.Batches(records, batchSize) {
		if err := ctx.Err(); err != nil {
			return errors.NewInference(s.Name, i, err)
		}

		texts := make([]string, len(chunk))
		for j := range chunk {
			texts[j] = chunk[j].Text
		}

		results, err := s.Infer(ctx, texts)
		if err != nil {
			return errors.NewInference(s.Name, i, err)
		}
		if len(results) != len(chunk) {
			return errors.NewCountMismatch(s.Name, i, len(chunk), len(results))
		}

		for j := range chunk {
			s.Assign(&chunk[j], results[j])
		}
		i++
	}
	return nil
}
