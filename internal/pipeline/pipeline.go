// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/batch"
	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/inference"
	"comment-insights-go/internal/normalize"
	"comment-insights-go/internal/stage"
	"comment-insights-go/internal/types"
)

// Options are shared by both stages of one run.
type Options struct {
	BatchSize  int
	Categories []string
}

// Validate checks the batch size and the topic category set.
func (o Options) Validate() error {
	if o.BatchSize <= 0 {
		return errors.NewInvalidRequest(fmt.Sprintf("batch size must be positive, got %d", o.BatchSize))
	}
	if len(o.Categories) == 0 {
		return errors.NewInvalidRequest("at least one topic category is required")
	}
	seen := make(map[string]bool, len(o.Categories))
	for _, c := range o.Categories {
		if strings.TrimSpace(c) == "" {
			return errors.NewInvalidRequest("topic categories must not be blank")
		}
		if seen[c] {
			return errors.NewInvalidRequest(fmt.Sprintf("duplicate topic category %q", c))
		}
		seen[c] = true
	}
	return nil
}

// Result is the outcome of a full run.
type Result struct {
	Records []types.CanonicalRecord `json:"records"`
	Dropped int                     `json:"dropped"`
}

// Pipeline composes normalization with the sentiment and topic stages.
type Pipeline struct {
	sentiment inference.SentimentModel
	topic     inference.TopicModel
	log       *logrus.Entry
}

func New(sentiment inference.SentimentModel, topic inference.TopicModel, log *logrus.Entry) *Pipeline {
	return &Pipeline{
		sentiment: sentiment,
		topic:     topic,
		log:       log.WithField("component", "pipeline"),
	}
}

// Normalize converts raws to canonical records, dropping those without text.
func (p *Pipeline) Normalize(raws []types.RawRecord) ([]types.CanonicalRecord, int) {
	records, dropped := normalize.All(raws)
	if dropped > 0 {
		p.log.WithFields(logrus.Fields{"dropped": dropped, "kept": len(records)}).Warn("dropped comments without text")
	}
	return records, dropped
}

// Classify runs sentiment then topic over a copy of records. The input slice is
// never modified; on error no partially enriched set is returned.
func (p *Pipeline) Classify(ctx context.Context, records []types.CanonicalRecord, opts Options) ([]types.CanonicalRecord, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewEmptyInput("analyze")
	}

	work := slices.Clone(records)
	for _, s := range []stage.Stage{
		stage.Sentiment(p.sentimentInfer(opts.BatchSize)),
		stage.Topic(p.topicInfer(opts.BatchSize, opts.Categories)),
	} {
		log := p.log.WithFields(logrus.Fields{
			"stage":   s.Name,
			"records": len(work),
			"batches": batch.Count(len(work), opts.BatchSize),
		})
		log.Info("stage started")
		start := time.Now()
		if err := s.Apply(ctx, work, opts.BatchSize); err != nil {
			log.WithError(err).Error("stage failed")
			return nil, err
		}
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("stage finished")
	}
	return work, nil
}

// Run normalizes raws and classifies the survivors.
func (p *Pipeline) Run(ctx context.Context, raws []types.RawRecord, opts Options) (Result, error) {
	records, dropped := p.Normalize(raws)
	enriched, err := p.Classify(ctx, records, opts)
	if err != nil {
		return Result{Dropped: dropped}, err
	}
	return Result{Records: enriched, Dropped: dropped}, nil
}

func (p *Pipeline) sentimentInfer(batchSize int) stage.InferFunc {
	return func(ctx context.Context, texts []string) ([]types.Classification, error) {
		res, err := p.sentiment.Sentiment(ctx, texts, batchSize)
		if err != nil {
			return nil, err
		}
		out := make([]types.Classification, len(res))
		for i, r := range res {
			out[i] = types.Classification{Label: r.Label, Score: r.Score}
		}
		return out, nil
	}
}

func (p *Pipeline) topicInfer(batchSize int, categories []string) stage.InferFunc {
	return func(ctx context.Context, texts []string) ([]types.Classification, error) {
		res, err := p.topic.ZeroShot(ctx, texts, categories, batchSize)
		if err != nil {
			return nil, err
		}
		out := make([]types.Classification, len(res))
		for i, r := range res {
			label, score, ok := r.Top()
			if !ok {
				return nil, fmt.Errorf("topic result %d has no ranked labels", i)
			}
			out[i] = types.Classification{Label: label, Score: score}
		}
		return out, nil
	}
}
