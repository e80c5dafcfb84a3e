package stage

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/types"
)

func makeRecords(n int) []types.CanonicalRecord {
	recs := make([]types.CanonicalRecord, n)
	for i := range recs {
		recs[i] = types.CanonicalRecord{
			Index: i + 1,
			ID:    fmt.Sprintf("c%d", i+1),
			Text:  fmt.Sprintf("text-of-c%d", i+1),
		}
	}
	return recs
}

// echoInfer tags each result with the text it was produced for.
func echoInfer(calls *int) InferFunc {
	return func(_ context.Context, texts []string) ([]types.Classification, error) {
		*calls++
		out := make([]types.Classification, len(texts))
		for i, t := range texts {
			out[i] = types.Classification{Label: "label:" + t, Score: float64(len(t))}
		}
		return out, nil
	}
}

func TestApply_RoundTripMerge(t *testing.T) {
	recs := makeRecords(10)
	calls := 0

	err := Sentiment(echoInfer(&calls)).Apply(context.Background(), recs, 4)
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	for _, r := range recs {
		require.NotNil(t, r.Sentiment, "record %s", r.ID)
		assert.Equal(t, "label:text-of-"+r.ID, r.Sentiment.Label)
		assert.Nil(t, r.Topic)
	}
}

func TestApply_TopicPopulatesOnlyTopic(t *testing.T) {
	recs := makeRecords(3)
	calls := 0

	require.NoError(t, Topic(echoInfer(&calls)).Apply(context.Background(), recs, 16))

	assert.Equal(t, 1, calls)
	for _, r := range recs {
		assert.Nil(t, r.Sentiment)
		require.NotNil(t, r.Topic)
		assert.Equal(t, "label:text-of-"+r.ID, r.Topic.Label)
	}
}

func TestApply_TextUnchanged(t *testing.T) {
	recs := makeRecords(5)
	calls := 0
	require.NoError(t, Sentiment(echoInfer(&calls)).Apply(context.Background(), recs, 2))
	for i, r := range recs {
		assert.Equal(t, fmt.Sprintf("text-of-c%d", i+1), r.Text)
		assert.Equal(t, i+1, r.Index)
	}
}

func TestApply_CountMismatch(t *testing.T) {
	recs := makeRecords(6)
	calls := 0
	infer := func(ctx context.Context, texts []string) ([]types.Classification, error) {
		calls++
		out, _ := echoInfer(new(int))(ctx, texts)
		if calls == 2 {
			return out[:len(out)-1], nil
		}
		return out, nil
	}

	err := Sentiment(infer).Apply(context.Background(), recs, 2)

	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrCountMismatch))
	pErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, 1, pErr.Details["batch"])
	assert.Equal(t, 2, pErr.Details["want"])
	assert.Equal(t, 1, pErr.Details["got"])

	// batch 0 merged, the failing batch and the unattempted one are untouched
	assert.NotNil(t, recs[0].Sentiment)
	assert.NotNil(t, recs[1].Sentiment)
	for _, r := range recs[2:] {
		assert.Nil(t, r.Sentiment, "record %s", r.ID)
	}
	assert.Equal(t, 2, calls)
}

func TestApply_TooManyResults(t *testing.T) {
	recs := makeRecords(2)
	infer := func(_ context.Context, texts []string) ([]types.Classification, error) {
		return make([]types.Classification, len(texts)+1), nil
	}

	err := Topic(infer).Apply(context.Background(), recs, 4)

	require.True(t, errors.Is(err, errors.ErrCountMismatch))
	assert.Nil(t, recs[0].Topic)
	assert.Nil(t, recs[1].Topic)
}

func TestApply_InferenceError(t *testing.T) {
	recs := makeRecords(4)
	cause := stderrors.New("model unavailable")
	infer := func(context.Context, []string) ([]types.Classification, error) {
		return nil, cause
	}

	err := Sentiment(infer).Apply(context.Background(), recs, 2)

	require.True(t, errors.Is(err, errors.ErrInference))
	assert.ErrorIs(t, err, cause)
	for _, r := range recs {
		assert.Nil(t, r.Sentiment)
	}
}

func TestApply_EmptyRecords(t *testing.T) {
	calls := 0
	require.NoError(t, Sentiment(echoInfer(&calls)).Apply(context.Background(), nil, 4))
	assert.Zero(t, calls)
}

func TestApply_InvalidBatchSize(t *testing.T) {
	calls := 0
	err := Sentiment(echoInfer(&calls)).Apply(context.Background(), makeRecords(1), 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Zero(t, calls)
}

func TestApply_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	err := Sentiment(echoInfer(&calls)).Apply(ctx, makeRecords(3), 2)

	assert.True(t, errors.Is(err, errors.ErrInference))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
