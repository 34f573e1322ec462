package config

import (
	"errors"
	"fmt"

	"github.com/hyperjump/tanya/internal/models"
)

// Validate checks settings that would otherwise fail at query time. It returns every
// problem found, joined; each one is a *models.ConfigError.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...interface{}) {
		errs = append(errs, &models.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if c.Chunking.Size <= 0 {
		bad("chunking.size", "must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		bad("chunking.overlap", "must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		bad("chunking.overlap", "must be less than chunking.size (%d >= %d)", c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Embedding.Dimensions <= 0 {
		bad("embedding.dimensions", "must be positive")
	}
	switch c.Embedding.Provider {
	case "hash", "openai":
	default:
		bad("embedding.provider", "unknown provider %q (supported: hash, openai)", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "extractive", "openai", "azure":
	default:
		bad("llm.provider", "unknown provider %q (supported: extractive, openai, azure)", c.LLM.Provider)
	}
	if c.LLM.Provider == "azure" && c.LLM.BaseURL == "" {
		bad("llm.base_url", "azure provider needs an endpoint (AZURE_OPENAI_ENDPOINT)")
	}
	switch c.Sessions.Backend {
	case "memory", "sqlite":
	default:
		bad("sessions.backend", "unknown backend %q (supported: memory, sqlite)", c.Sessions.Backend)
	}
	if c.Retrieval.DefaultK <= 0 {
		bad("retrieval.default_k", "must be positive")
	}
	maxK := c.Retrieval.MaxKOrDefault()
	if maxK < 0 {
		bad("retrieval.max_k", "must not be negative, got %d", maxK)
	}
	if maxK > 0 && c.Retrieval.DefaultK > maxK {
		bad("retrieval.default_k", "exceeds retrieval.max_k (%d > %d)", c.Retrieval.DefaultK, maxK)
	}
	conf := c.Dialogue.Confidence.Table()
	for field, v := range map[string]float64{
		"grounded":      conf.Grounded,
		"weak":          conf.Weak,
		"clarification": conf.Clarification,
	} {
		if v < 0 || v > 1 {
			bad("dialogue.confidence."+field, "must be within [0,1], got %v", v)
		}
	}
	return errors.Join(errs...)
}
