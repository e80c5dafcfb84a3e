// Package inference holds the sentiment and zero-shot topic model handles.
// Handles are built once at startup and shared by every pipeline run.
package inference

import (
	"context"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
)

type SentimentResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TopicResult holds candidate labels ranked best first, with parallel scores.
type TopicResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Top returns the best ranked label and score. ok is false when the result is
// empty or its labels and scores disagree in length.
func (r TopicResult) Top() (string, float64, bool) {
	if len(r.Labels) == 0 || len(r.Labels) != len(r.Scores) {
		return "", 0, false
	}
	return r.Labels[0], r.Scores[0], true
}

// SentimentModel classifies polarity. Results are returned in input order.
type SentimentModel interface {
	Sentiment(ctx context.Context, texts []string, batchSize int) ([]SentimentResult, error)
}

// TopicModel ranks the given categories for each text. Results are returned in input order.
type TopicModel interface {
	ZeroShot(ctx context.Context, texts []string, categories []string, batchSize int) ([]TopicResult, error)
}

// Models bundles both handles.
type Models struct {
	Sentiment SentimentModel
	Topic     TopicModel
}

// New builds the model handles described by cfg.
func New(cfg config.InferenceConfig, log *logrus.Entry) Models {
	if cfg.Mock {
		log.Info("mock inference mode ON - using deterministic keyword models")
		m := NewMock()
		return Models{Sentiment: m, Topic: m}
	}
	c := NewClient(cfg, log)
	return Models{Sentiment: c, Topic: c}
}
