package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "COMMENTS_CONFIG"

	defaultBatchSize      = 16
	defaultSentimentModel = "savasy/bert-base-turkish-sentiment-cased"
	defaultTopicModel     = "joeddav/xlm-roberta-large-xnli"
)

// DefaultCategories is the zero-shot candidate label set used when none is configured.
var DefaultCategories = []string{
	"Geri Bildirim",
	"Öneri",
	"Şikayet",
	"Spam",
	"Teşekkür",
	"Eleştiri",
	"Sorular",
	"Genel Tartışma",
}

// Config holds settings shared by the API server and the CLI.
type Config struct {
	Port        string          `yaml:"port"`
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"logLevel"`
	Pipeline    PipelineConfig  `yaml:"pipeline"`
	Supplier    SupplierConfig  `yaml:"supplier"`
	Inference   InferenceConfig `yaml:"inference"`
}

// PipelineConfig is the batch size shared by both stages and the topic label set.
type PipelineConfig struct {
	BatchSize  int      `yaml:"batchSize"`
	Categories []string `yaml:"categories"`
}

// SupplierConfig points at the comment download service.
type SupplierConfig struct {
	URL      string        `yaml:"url"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
	Mock     bool          `yaml:"mock"`
}

// InferenceConfig describes the sentiment and zero-shot classification endpoints.
type InferenceConfig struct {
	SentimentURL   string        `yaml:"sentimentUrl"`
	SentimentModel string        `yaml:"sentimentModel"`
	TopicURL       string        `yaml:"topicUrl"`
	TopicModel     string        `yaml:"topicModel"`
	APIKey         string        `yaml:"apiKey"`
	Timeout        time.Duration `yaml:"timeout"`
	Mock           bool          `yaml:"mock"`
}

// Load applies defaults, then the YAML file named by COMMENTS_CONFIG (if any),
// then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:        "8080",
		Environment: "local",
		LogLevel:    "info",
		Pipeline: PipelineConfig{
			BatchSize:  defaultBatchSize,
			Categories: append([]string(nil), DefaultCategories...),
		},
		Supplier: SupplierConfig{
			Language: "en",
			Timeout:  30 * time.Second,
		},
		Inference: InferenceConfig{
			SentimentModel: defaultSentimentModel,
			TopicModel:     defaultTopicModel,
			Timeout:        60 * time.Second,
		},
	}
}

func loadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func merge(base, override Config) Config {
	if override.Port != "" {
		base.Port = override.Port
	}
	if override.Environment != "" {
		base.Environment = override.Environment
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}

	if override.Pipeline.BatchSize != 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}
	if len(override.Pipeline.Categories) > 0 {
		base.Pipeline.Categories = override.Pipeline.Categories
	}

	if override.Supplier.URL != "" {
		base.Supplier.URL = override.Supplier.URL
	}
	if override.Supplier.Language != "" {
		base.Supplier.Language = override.Supplier.Language
	}
	if override.Supplier.Timeout != 0 {
		base.Supplier.Timeout = override.Supplier.Timeout
	}
	base.Supplier.Mock = base.Supplier.Mock || override.Supplier.Mock

	if override.Inference.SentimentURL != "" {
		base.Inference.SentimentURL = override.Inference.SentimentURL
	}
	if override.Inference.SentimentModel != "" {
		base.Inference.SentimentModel = override.Inference.SentimentModel
	}
	if override.Inference.TopicURL != "" {
		base.Inference.TopicURL = override.Inference.TopicURL
	}
	if override.Inference.TopicModel != "" {
		base.Inference.TopicModel = override.Inference.TopicModel
	}
	if override.Inference.APIKey != "" {
		base.Inference.APIKey = override.Inference.APIKey
	}
	if override.Inference.Timeout != 0 {
		base.Inference.Timeout = override.Inference.Timeout
	}
	base.Inference.Mock = base.Inference.Mock || override.Inference.Mock

	return base
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Port, "PORT")
	setString(&c.Environment, "ENVIRONMENT")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("BATCH_SIZE: %w", err)
		}
		c.Pipeline.BatchSize = n
	}
	if v := os.Getenv("TOPIC_CATEGORIES"); v != "" {
		c.Pipeline.Categories = SplitList(v)
	}

	setString(&c.Supplier.URL, "SUPPLIER_URL")
	setString(&c.Supplier.Language, "SUPPLIER_LANGUAGE")
	if v := os.Getenv("USE_MOCK_SUPPLIER"); v != "" {
		c.Supplier.Mock = v == "true"
	}

	setString(&c.Inference.SentimentURL, "SENTIMENT_URL")
	setString(&c.Inference.SentimentModel, "SENTIMENT_MODEL")
	setString(&c.Inference.TopicURL, "TOPIC_URL")
	setString(&c.Inference.TopicModel, "TOPIC_MODEL")
	setString(&c.Inference.APIKey, "INFERENCE_API_KEY")
	if v := os.Getenv("INFERENCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("INFERENCE_TIMEOUT: %w", err)
		}
		c.Inference.Timeout = d
	}
	if v := os.Getenv("USE_MOCK_INFERENCE"); v != "" {
		c.Inference.Mock = v == "true"
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports configuration that would make the pipeline unusable.
func (c Config) Validate() error {
	var errs []error
	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.batchSize must be positive, got %d", c.Pipeline.BatchSize))
	}
	if len(c.Pipeline.Categories) == 0 {
		errs = append(errs, errors.New("pipeline.categories must not be empty"))
	}
	if !c.Supplier.Mock && c.Supplier.URL == "" {
		errs = append(errs, errors.New("supplier.url is required unless USE_MOCK_SUPPLIER=true"))
	}
	if !c.Inference.Mock {
		if c.Inference.SentimentURL == "" {
			errs = append(errs, errors.New("inference.sentimentUrl is required unless USE_MOCK_INFERENCE=true"))
		}
		if c.Inference.TopicURL == "" {
			errs = append(errs, errors.New("inference.topicUrl is required unless USE_MOCK_INFERENCE=true"))
		}
	}
	return errors.Join(errs...)
}
