package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
)

// Client calls a hosted inference service for both models.
type Client struct {
	sentimentURL   string
	sentimentModel string
	topicURL       string
	topicModel     string
	apiKey         string
	maxRetryTime   time.Duration
	http           *http.Client
	log            *logrus.Entry
}

var _ SentimentModel = (*Client)(nil)
var _ TopicModel = (*Client)(nil)

func NewClient(cfg config.InferenceConfig, log *logrus.Entry) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		sentimentURL:   cfg.SentimentURL,
		sentimentModel: cfg.SentimentModel,
		topicURL:       cfg.TopicURL,
		topicModel:     cfg.TopicModel,
		apiKey:         cfg.APIKey,
		maxRetryTime:   2 * timeout,
		http:           &http.Client{Timeout: timeout},
		log:            log.WithField("component", "inference-client"),
	}
}

type sentimentRequest struct {
	Model     string   `json:"model,omitempty"`
	Inputs    []string `json:"inputs"`
	BatchSize int      `json:"batch_size"`
}

type topicRequest struct {
	Model           string   `json:"model,omitempty"`
	Inputs          []string `json:"inputs"`
	CandidateLabels []string `json:"candidate_labels"`
	BatchSize       int      `json:"batch_size"`
}

// Sentiment posts texts to the sentiment endpoint.
func (c *Client) Sentiment(ctx context.Context, texts []string, batchSize int) ([]SentimentResult, error) {
	req := sentimentRequest{Model: c.sentimentModel, Inputs: texts, BatchSize: batchSize}
	var out []SentimentResult
	if err := c.post(ctx, c.sentimentURL, req, &out); err != nil {
		return nil, fmt.Errorf("sentiment inference: %w", err)
	}
	return out, nil
}

// ZeroShot posts texts and candidate categories to the topic endpoint.
func (c *Client) ZeroShot(ctx context.Context, texts []string, categories []string, batchSize int) ([]TopicResult, error) {
	req := topicRequest{Model: c.topicModel, Inputs: texts, CandidateLabels: categories, BatchSize: batchSize}
	var out []TopicResult
	if err := c.post(ctx, c.topicURL, req, &out); err != nil {
		return nil, fmt.Errorf("topic inference: %w", err)
	}
	return out, nil
}

// post sends payload as JSON with retry/backoff. 5xx and transport errors are
// retried, 4xx and undecodable bodies are not.
func (c *Client) post(ctx context.Context, endpoint string, payload any, target any) error {
	if endpoint == "" {
		return fmt.Errorf("inference endpoint not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).WithField("attempt", attempt).Warn("inference request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("inference server error %d: %s", resp.StatusCode, string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("inference request rejected %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("decode inference response: %w", err)
			return backoff.Permanent(lastErr)
		}
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	c.log.WithFields(logrus.Fields{"endpoint": endpoint, "attempts": attempt}).Debug("inference call complete")
	return nil
}
