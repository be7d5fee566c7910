package generation

import (
	"fmt"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/infrastructure/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// newModel creates a langchaingo model client for the configured provider.
// The concrete model name is selected per call from the requested speed.
func newModel(cfg config.GenerationConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama":
		model, err := ollama.New(
			ollama.WithModel(cfg.BalancedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return model, nil

	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.BalancedModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return model, nil

	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.BalancedModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}

// modelForSpeed maps a speed setting to the configured model name
func modelForSpeed(cfg config.GenerationConfig, speed answering.ModelSpeed) string {
	switch speed {
	case answering.ModelSpeedFast:
		return cfg.FastModel
	case answering.ModelSpeedQuality:
		return cfg.QualityModel
	default:
		return cfg.BalancedModel
	}
}
