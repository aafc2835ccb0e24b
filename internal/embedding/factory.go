package embedding

import (
	"fmt"

	"github.com/scrypster/topicmatch/internal/config"
)

// NewProvider creates the appropriate embedding provider for the given
// configuration. Returns (nil, nil) for provider "none": the resolver treats
// a nil provider as a permanently degraded run where the embedding strategy
// never fires.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			BaseURL:           cfg.BaseURL,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}
