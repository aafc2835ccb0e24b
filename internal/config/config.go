// Package config provides configuration management for the topicmatch
// resolver. Settings are loaded from an optional YAML file and overridden by
// environment variables with the TOPICMATCH_ prefix; every option has a
// sensible default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for a resolver run.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Resolver  ResolverConfig  `yaml:"resolver"`
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	// Engine selects the storage backend: sqlite or postgres (default: sqlite).
	Engine string `yaml:"engine"`

	// DSN is the database connection string. For sqlite this is the file
	// path (default: ./data/topicmatch.db); for postgres a connection URL.
	DSN string `yaml:"dsn"`
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: ollama, openai or none
	// (default: ollama). "none" runs every batch degraded to the
	// non-embedding strategies.
	Provider string `yaml:"provider"`

	// BaseURL overrides the provider API base URL.
	BaseURL string `yaml:"base_url"`

	// Model is the embedding model name (provider-specific default).
	Model string `yaml:"model"`

	// APIKey authenticates hosted providers.
	APIKey string `yaml:"api_key"`

	// BatchSize is the number of terms per provider call (default: 64).
	BatchSize int `yaml:"batch_size"`

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond limits outbound provider calls (default: 4).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ResolverConfig contains matching and creation policy knobs.
type ResolverConfig struct {
	// FuzzyThreshold is the minimum trigram similarity for fuzzy and
	// fuzzy_keyword acceptance (default: 0.85).
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// EmbeddingThreshold is the minimum cosine similarity for embedding
	// acceptance (default: 0.72).
	EmbeddingThreshold float64 `yaml:"embedding_threshold"`

	// NewEntityRankThreshold is the maximum candidate rank eligible for
	// automatic entity creation (default: 500).
	NewEntityRankThreshold int `yaml:"new_entity_rank_threshold"`

	// ForceReprocess re-resolves terms that already have a resolution
	// record (default: false).
	ForceReprocess bool `yaml:"force_reprocess"`

	// SkipUnmatched treats previously unmatched terms as already resolved,
	// suppressing re-matching as the catalog grows (default: false).
	SkipUnmatched bool `yaml:"skip_unmatched"`
}

// LoadConfig loads configuration from environment variables on top of
// built-in defaults.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	applyEnv(cfg)
	return cfg, cfg.validate()
}

// LoadConfigFromFile reads a YAML config file, then applies environment
// variable overrides on top of it.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, cfg.validate()
}

func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine: "sqlite",
			DSN:    "./data/topicmatch.db",
		},
		Embedding: EmbeddingConfig{
			Provider:          "ollama",
			BatchSize:         64,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 4,
		},
		Resolver: ResolverConfig{
			FuzzyThreshold:         0.85,
			EmbeddingThreshold:     0.72,
			NewEntityRankThreshold: 500,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Storage.Engine = getEnv("TOPICMATCH_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DSN = getEnv("TOPICMATCH_STORAGE_DSN", cfg.Storage.DSN)

	cfg.Embedding.Provider = getEnv("TOPICMATCH_EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.BaseURL = getEnv("TOPICMATCH_EMBEDDING_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.Model = getEnv("TOPICMATCH_EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.APIKey = getEnv("TOPICMATCH_EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.BatchSize = getEnvInt("TOPICMATCH_EMBEDDING_BATCH_SIZE", cfg.Embedding.BatchSize)

	cfg.Resolver.FuzzyThreshold = getEnvFloat("TOPICMATCH_FUZZY_THRESHOLD", cfg.Resolver.FuzzyThreshold)
	cfg.Resolver.EmbeddingThreshold = getEnvFloat("TOPICMATCH_EMBEDDING_THRESHOLD", cfg.Resolver.EmbeddingThreshold)
	cfg.Resolver.NewEntityRankThreshold = getEnvInt("TOPICMATCH_NEW_ENTITY_RANK_THRESHOLD", cfg.Resolver.NewEntityRankThreshold)
	cfg.Resolver.ForceReprocess = getEnvBool("TOPICMATCH_FORCE_REPROCESS", cfg.Resolver.ForceReprocess)
	cfg.Resolver.SkipUnmatched = getEnvBool("TOPICMATCH_SKIP_UNMATCHED", cfg.Resolver.SkipUnmatched)
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported storage engine %q", c.Storage.Engine)
	}

	switch c.Embedding.Provider {
	case "ollama", "openai", "none", "":
	default:
		return fmt.Errorf("config: unsupported embedding provider %q", c.Embedding.Provider)
	}

	if c.Resolver.FuzzyThreshold < 0 || c.Resolver.FuzzyThreshold > 1 {
		return fmt.Errorf("config: fuzzy_threshold %f out of range [0,1]", c.Resolver.FuzzyThreshold)
	}
	if c.Resolver.EmbeddingThreshold < 0 || c.Resolver.EmbeddingThreshold > 1 {
		return fmt.Errorf("config: embedding_threshold %f out of range [0,1]", c.Resolver.EmbeddingThreshold)
	}
	if c.Resolver.NewEntityRankThreshold < 0 {
		return fmt.Errorf("config: new_entity_rank_threshold must be non-negative")
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("config: embedding batch_size must be positive")
	}

	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
