package llm

import (
	"fmt"
	"os"

	"github.com/hyperjump/tanya/internal/config"
)

// New creates the language model selected by cfg.Provider.
func New(cfg *config.LLMConfig) (LanguageModel, error) {
	switch cfg.Provider {
	case "extractive", "":
		return Extractive{}, nil
	case "openai", "azure":
		return NewOpenAIModel(OpenAIConfig{
			APIKey:      os.Getenv(cfg.APIKeyEnv),
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Azure:       cfg.Provider == "azure",
			APIVersion:  cfg.APIVersion,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: extractive, openai, azure)", cfg.Provider)
	}
}
