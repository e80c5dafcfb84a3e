package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/logger"
)

func testClient(sentimentURL, topicURL string) *Client {
	return NewClient(config.InferenceConfig{
		SentimentURL:   sentimentURL,
		SentimentModel: "test-sentiment",
		TopicURL:       topicURL,
		TopicModel:     "test-topic",
		APIKey:         "secret",
		Timeout:        time.Second,
	}, logger.Discard().Entry)
}

func TestClient_Sentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req sentimentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-sentiment", req.Model)
		assert.Equal(t, 16, req.BatchSize)

		out := make([]SentimentResult, len(req.Inputs))
		for i, in := range req.Inputs {
			out[i] = SentimentResult{Label: "positive:" + in, Score: 0.9}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, "").Sentiment(context.Background(), []string{"a", "b"}, 16)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "positive:a", got[0].Label)
	assert.Equal(t, "positive:b", got[1].Label)
}

func TestClient_ZeroShot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req topicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Spam", "Praise"}, req.CandidateLabels)

		out := make([]TopicResult, len(req.Inputs))
		for i := range req.Inputs {
			out[i] = TopicResult{Labels: []string{"Praise", "Spam"}, Scores: []float64{0.8, 0.2}}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	got, err := testClient("", srv.URL).ZeroShot(context.Background(), []string{"x"}, []string{"Spam", "Praise"}, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	label, score, ok := got[0].Top()
	require.True(t, ok)
	assert.Equal(t, "Praise", label)
	assert.Equal(t, 0.8, score)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]SentimentResult{{Label: "negative", Score: 0.7}})
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, "").Sentiment(context.Background(), []string{"x"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "negative", got[0].Label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, "").Sentiment(context.Background(), []string{"x"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_MissingEndpoint(t *testing.T) {
	_, err := testClient("", "").ZeroShot(context.Background(), []string{"x"}, []string{"A"}, 1)
	assert.Error(t, err)
}

func TestTopicResult_Top(t *testing.T) {
	_, _, ok := TopicResult{}.Top()
	assert.False(t, ok)

	_, _, ok = TopicResult{Labels: []string{"A"}, Scores: nil}.Top()
	assert.False(t, ok)

	label, score, ok := TopicResult{Labels: []string{"A", "B"}, Scores: []float64{0.6, 0.4}}.Top()
	assert.True(t, ok)
	assert.Equal(t, "A", label)
	assert.Equal(t, 0.6, score)
}

func TestMock_SentimentDeterministic(t *testing.T) {
	m := NewMock()
	texts := []string{"Harika bir video, teşekkürler", "This is the worst, so boring", "Saat kaçta?"}

	first, err := m.Sentiment(context.Background(), texts, 16)
	require.NoError(t, err)
	second, err := m.Sentiment(context.Background(), texts, 16)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "positive", first[0].Label)
	assert.Equal(t, "negative", first[1].Label)
	assert.Equal(t, "neutral", first[2].Label)
}

func TestMock_ZeroShotRanksMentionedCategory(t *testing.T) {
	m := NewMock()
	cats := []string{"Spam", "Sorular", "Teşekkür"}

	got, err := m.ZeroShot(context.Background(), []string{"this is spam, click my link", "nothing special"}, cats, 16)
	require.NoError(t, err)
	require.Len(t, got, 2)

	label, _, ok := got[0].Top()
	require.True(t, ok)
	assert.Equal(t, "Spam", label)

	sum := 0.0
	for _, s := range got[1].Scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.ElementsMatch(t, cats, got[1].Labels)
}

func TestNew_MockMode(t *testing.T) {
	models := New(config.InferenceConfig{Mock: true}, logger.Discard().Entry)
	_, ok := models.Sentiment.(*Mock)
	assert.True(t, ok)

	models = New(config.InferenceConfig{SentimentURL: "http://x", TopicURL: "http://y"}, logger.Discard().Entry)
	_, ok = models.Topic.(*Client)
	assert.True(t, ok)
}
