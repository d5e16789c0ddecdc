package providers

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Factory struct {
	logger *zap.Logger
}

func NewFactory(logger *zap.Logger) ProviderFactory {
	return &Factory{
		logger: logger,
	}
}

func (f *Factory) CreateProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai", "openrouter":
		// OpenRouter speaks the OpenAI wire format; only the base URL differs.
		return NewOpenAIProvider(config, f.logger)
	case "gemini":
		return NewGeminiProvider(config, f.logger)
	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: openai, openrouter, gemini)", config.Provider)
	}
}

func (f *Factory) GetSupportedProviders() []string {
	return []string{"openai", "openrouter", "gemini"}
}
