package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"COMMENTS_CONFIG", "PORT", "ENVIRONMENT", "LOG_LEVEL", "BATCH_SIZE", "TOPIC_CATEGORIES",
	"SUPPLIER_URL", "SUPPLIER_LANGUAGE", "USE_MOCK_SUPPLIER", "SENTIMENT_URL", "SENTIMENT_MODEL",
	"TOPIC_URL", "TOPIC_MODEL", "INFERENCE_API_KEY", "INFERENCE_TIMEOUT", "USE_MOCK_INFERENCE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 16, cfg.Pipeline.BatchSize)
	assert.Equal(t, DefaultCategories, cfg.Pipeline.Categories)
	assert.Equal(t, "en", cfg.Supplier.Language)
	assert.Equal(t, defaultSentimentModel, cfg.Inference.SentimentModel)
	assert.Equal(t, defaultTopicModel, cfg.Inference.TopicModel)
	assert.False(t, cfg.Inference.Mock)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "comments.yaml")
	content := `
port: "9090"
pipeline:
  batchSize: 8
  categories: [Praise, Complaint]
supplier:
  url: http://supplier.local
inference:
  sentimentUrl: http://infer.local/sentiment
  topicUrl: http://infer.local/topic
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("COMMENTS_CONFIG", path)
	t.Setenv("BATCH_SIZE", "32")
	t.Setenv("USE_MOCK_INFERENCE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 32, cfg.Pipeline.BatchSize)
	assert.Equal(t, []string{"Praise", "Complaint"}, cfg.Pipeline.Categories)
	assert.Equal(t, "http://supplier.local", cfg.Supplier.URL)
	assert.Equal(t, "http://infer.local/topic", cfg.Inference.TopicURL)
	assert.Equal(t, 5*time.Second, cfg.Inference.Timeout)
	assert.True(t, cfg.Inference.Mock)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMENTS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadBatchSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("BATCH_SIZE", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CategoriesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOPIC_CATEGORIES", " Spam, Praise ,,Question ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Spam", "Praise", "Question"}, cfg.Pipeline.Categories)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier.url")
	assert.Contains(t, err.Error(), "sentimentUrl")

	cfg.Supplier.Mock = true
	cfg.Inference.Mock = true
	assert.NoError(t, cfg.Validate())

	cfg.Pipeline.BatchSize = 0
	cfg.Pipeline.Categories = nil
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batchSize")
	assert.Contains(t, err.Error(), "categories")
}
