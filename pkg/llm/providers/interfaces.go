package providers

import (
	"context"
	"time"
)

// CompletionResult is the normalized provider response: the generated text
// plus the usage split the session accounting needs.
type CompletionResult struct {
	Text           string `json:"text"`
	PromptTokens   int    `json:"prompt_tokens"`
	ResponseTokens int    `json:"response_tokens"`
}

// Provider is the contract every completion backend implements.
type Provider interface {
	// GetName returns the provider identifier.
	GetName() string

	// GetChatCompletion generates a response for a windowed conversation.
	// An empty deployment falls back to the configured model.
	GetChatCompletion(ctx context.Context, sessionID, conversation, deployment string) (*CompletionResult, error)

	// GetCompletion generates a response for a bare prompt with no
	// conversation context, for single-shot tasks.
	GetCompletion(ctx context.Context, sessionID, prompt, deployment string) (*CompletionResult, error)

	// Summarize condenses a prompt into a short session label.
	Summarize(ctx context.Context, sessionID, prompt string) (string, error)

	// GetSupportedModels returns the models this provider can serve.
	GetSupportedModels() []string

	// ValidateConfig checks the provider configuration.
	ValidateConfig() error
}

// Config is the shared configuration for all providers.
type Config struct {
	Provider              string        `mapstructure:"provider"` // "openai", "gemini"
	BaseURL               string        `mapstructure:"base_url"`
	APIKey                string        `mapstructure:"api_key"`
	Model                 string        `mapstructure:"model"`
	Timeout               time.Duration `mapstructure:"timeout"`
	MaxResponseTokens     int           `mapstructure:"max_response_tokens"`
	MaxConversationTokens int           `mapstructure:"max_conversation_tokens"`
}

// ProviderFactory creates providers.
type ProviderFactory interface {
	CreateProvider(config Config) (Provider, error)
	GetSupportedProviders() []string
}
