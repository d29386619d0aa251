// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"BEIRKIT_HOST" yaml:"host"`
	Port int    `envconfig:"BEIRKIT_PORT" yaml:"port"`

	// Dataset configuration
	Dataset DatasetConfig `yaml:"dataset"`

	// Encoder configuration
	Encoder EncoderConfig `yaml:"encoder"`

	// Evaluation configuration
	Eval EvalConfig `yaml:"eval"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// DatasetConfig holds dataset layout settings.
type DatasetConfig struct {
	Dir   string `envconfig:"BEIRKIT_DATASET_DIR" yaml:"dir"`
	Split string `envconfig:"BEIRKIT_DATASET_SPLIT" yaml:"split"`
}

// EncoderConfig holds text encoder settings.
type EncoderConfig struct {
	Name      string `envconfig:"BEIRKIT_ENCODER" yaml:"name"`
	Dim       int    `envconfig:"BEIRKIT_ENCODER_DIM" yaml:"dim"`
	BatchSize int    `envconfig:"BEIRKIT_ENCODER_BATCH_SIZE" yaml:"batch_size"`
}

// EvalConfig holds retrieval evaluation settings.
type EvalConfig struct {
	KValues       []int  `envconfig:"BEIRKIT_EVAL_K_VALUES" yaml:"k_values"`
	ScoreFunction string `envconfig:"BEIRKIT_EVAL_SCORE_FUNCTION" yaml:"score_function"`
	TopK          int    `envconfig:"BEIRKIT_EVAL_TOP_K" yaml:"top_k"`
	Workers       int    `envconfig:"BEIRKIT_EVAL_WORKERS" yaml:"workers"`
	Searcher      string `envconfig:"BEIRKIT_EVAL_SEARCHER" yaml:"searcher"` // exact or qdrant
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Type     string `envconfig:"BEIRKIT_CACHE_TYPE" yaml:"type"`
	Size     int    `envconfig:"BEIRKIT_CACHE_SIZE" yaml:"size"`
	TTL      int    `envconfig:"BEIRKIT_CACHE_TTL" yaml:"ttl"` // seconds, 0 = no expiry
	RedisURL string `envconfig:"BEIRKIT_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type          string `envconfig:"BEIRKIT_BUS_TYPE" yaml:"type"`
	KafkaBrokers  string `envconfig:"BEIRKIT_KAFKA_BROKERS" yaml:"kafka_brokers"`
	ConsumerGroup string `envconfig:"BEIRKIT_KAFKA_GROUP" yaml:"consumer_group"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host             string `envconfig:"QDRANT_HOST" yaml:"host"`
	Port             int    `envconfig:"QDRANT_PORT" yaml:"port"`
	APIKey           string `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	UseTLS           bool   `envconfig:"QDRANT_USE_TLS" yaml:"use_tls"`
	CollectionPrefix string `envconfig:"QDRANT_COLLECTION_PREFIX" yaml:"collection_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"BEIRKIT_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"BEIRKIT_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit int `envconfig:"BEIRKIT_RATE_LIMIT" yaml:"rate_limit"` // req/sec per client, 0 = disabled
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Dataset = DatasetConfig{
		Dir:   filepath.Join("beir", "datasets", "toy_dataset"),
		Split: "test",
	}

	cfg.Encoder = EncoderConfig{
		Name:      "hashing",
		Dim:       256,
		BatchSize: 32,
	}

	cfg.Eval = EvalConfig{
		KValues:       []int{1, 3, 5, 10},
		ScoreFunction: "cos_sim",
		TopK:          100,
		Workers:       4,
		Searcher:      "exact",
	}

	cfg.Cache = CacheConfig{
		Type:     "memory",
		Size:     10000,
		TTL:      0,
		RedisURL: "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type:          "memory",
		ConsumerGroup: "beirkit",
	}

	cfg.Qdrant = QdrantConfig{
		Host:             "localhost",
		Port:             6334,
		CollectionPrefix: "beirkit_",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit: 0,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Dataset.Split == "" {
		errs = append(errs, "dataset split cannot be empty")
	}

	if c.Encoder.Dim < 1 {
		errs = append(errs, "encoder dim must be positive")
	}

	if c.Encoder.BatchSize < 1 {
		errs = append(errs, "encoder batch_size must be positive")
	}

	validScoreFns := map[string]bool{"cos_sim": true, "dot": true}
	if !validScoreFns[c.Eval.ScoreFunction] {
		errs = append(errs, fmt.Sprintf("invalid score function: %s (must be cos_sim or dot)", c.Eval.ScoreFunction))
	}

	if c.Eval.TopK < 1 {
		errs = append(errs, "eval top_k must be positive")
	}

	validSearchers := map[string]bool{"exact": true, "qdrant": true}
	if !validSearchers[c.Eval.Searcher] {
		errs = append(errs, fmt.Sprintf("invalid searcher: %s (must be exact or qdrant)", c.Eval.Searcher))
	}

	for _, k := range c.Eval.KValues {
		if k < 1 {
			errs = append(errs, fmt.Sprintf("invalid k value: %d", k))
			break
		}
	}

	validCacheTypes := map[string]bool{"memory": true, "redis": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be memory or redis)", c.Cache.Type))
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		errs = append(errs, "kafka_brokers required when bus type is kafka")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaBrokerList returns the configured Kafka brokers as a slice.
func (c *BusConfig) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
