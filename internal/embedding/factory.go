package embedding

import (
	"fmt"
	"os"

	"github.com/hyperjump/tanya/internal/config"
)

// New creates the embedder selected by cfg.Provider, wrapped in an LRU cache.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case "hash", "":
		inner = NewHashEmbedder(cfg.Dimensions)
	case "openai":
		e, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     os.Getenv(cfg.APIKeyEnv),
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hash, openai)", cfg.Provider)
	}
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(inner, cfg.CacheSize), nil
	}
	return inner, nil
}
