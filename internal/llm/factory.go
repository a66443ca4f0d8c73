package llm

import (
	"context"
	"fmt"

	"taskseek/internal/config"
	"taskseek/internal/logging"
)

// NewProvider wires a Provider from configuration.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	logging.Boot("Creating LLM provider: %s (model=%s)", cfg.LLM.Provider, cfg.LLM.Model)

	switch cfg.LLM.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		}), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
