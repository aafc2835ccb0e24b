package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Storage.Engine != "sqlite" {
		t.Errorf("expected default engine sqlite, got %q", cfg.Storage.Engine)
	}
	if cfg.Resolver.FuzzyThreshold != 0.85 {
		t.Errorf("expected fuzzy threshold 0.85, got %f", cfg.Resolver.FuzzyThreshold)
	}
	if cfg.Resolver.EmbeddingThreshold != 0.72 {
		t.Errorf("expected embedding threshold 0.72, got %f", cfg.Resolver.EmbeddingThreshold)
	}
	if cfg.Resolver.NewEntityRankThreshold != 500 {
		t.Errorf("expected rank threshold 500, got %d", cfg.Resolver.NewEntityRankThreshold)
	}
	if cfg.Embedding.BatchSize != 64 {
		t.Errorf("expected batch size 64, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Resolver.SkipUnmatched {
		t.Error("unmatched terms should be re-attempted by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TOPICMATCH_STORAGE_ENGINE", "postgres")
	t.Setenv("TOPICMATCH_FUZZY_THRESHOLD", "0.9")
	t.Setenv("TOPICMATCH_NEW_ENTITY_RANK_THRESHOLD", "250")
	t.Setenv("TOPICMATCH_FORCE_REPROCESS", "yes")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Storage.Engine != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.Storage.Engine)
	}
	if cfg.Resolver.FuzzyThreshold != 0.9 {
		t.Errorf("expected 0.9, got %f", cfg.Resolver.FuzzyThreshold)
	}
	if cfg.Resolver.NewEntityRankThreshold != 250 {
		t.Errorf("expected 250, got %d", cfg.Resolver.NewEntityRankThreshold)
	}
	if !cfg.Resolver.ForceReprocess {
		t.Error("expected force reprocess to be enabled")
	}
}

func TestLoadConfig_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("TOPICMATCH_EMBEDDING_BATCH_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Embedding.BatchSize != 64 {
		t.Errorf("expected fallback to default 64, got %d", cfg.Embedding.BatchSize)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topicmatch.yaml")
	content := []byte(`
storage:
  engine: postgres
  dsn: postgres://localhost/topicmatch?sslmode=disable
embedding:
  provider: openai
  model: text-embedding-3-small
  batch_size: 32
resolver:
  fuzzy_threshold: 0.8
  new_entity_rank_threshold: 100
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}

	if cfg.Storage.Engine != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.Storage.Engine)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected openai, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.BatchSize != 32 {
		t.Errorf("expected batch size 32, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Resolver.FuzzyThreshold != 0.8 {
		t.Errorf("expected 0.8, got %f", cfg.Resolver.FuzzyThreshold)
	}
	// Unset values keep their defaults.
	if cfg.Resolver.EmbeddingThreshold != 0.72 {
		t.Errorf("expected default 0.72, got %f", cfg.Resolver.EmbeddingThreshold)
	}
}

func TestLoadConfigFromFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topicmatch.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  engine: postgres\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOPICMATCH_STORAGE_ENGINE", "sqlite")

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}
	if cfg.Storage.Engine != "sqlite" {
		t.Errorf("env override lost: got %q", cfg.Storage.Engine)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("bad engine", func(t *testing.T) {
		t.Setenv("TOPICMATCH_STORAGE_ENGINE", "cassandra")
		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for unsupported engine")
		}
	})

	t.Run("bad provider", func(t *testing.T) {
		t.Setenv("TOPICMATCH_EMBEDDING_PROVIDER", "teapot")
		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for unsupported provider")
		}
	})

	t.Run("threshold out of range", func(t *testing.T) {
		t.Setenv("TOPICMATCH_FUZZY_THRESHOLD", "1.5")
		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for out-of-range threshold")
		}
	})
}
