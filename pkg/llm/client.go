package llm

import (
	"context"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/pkg/llm/providers"

	"go.uber.org/zap"
)

// CompletionResult re-exports the provider result type.
type CompletionResult = providers.CompletionResult

// Client wraps a provider with logging and the configured limits.
type Client struct {
	provider              providers.Provider
	defaultDeployment     string
	maxConversationTokens int
	logger                *zap.Logger
}

// NewClientWithProvider creates a client around an initialized provider.
func NewClientWithProvider(provider providers.Provider, defaultDeployment string, maxConversationTokens int, logger *zap.Logger) *Client {
	return &Client{
		provider:              provider,
		defaultDeployment:     defaultDeployment,
		maxConversationTokens: maxConversationTokens,
		logger:                logger,
	}
}

func (c *Client) GetChatCompletion(ctx context.Context, sessionID, conversation, deployment string) (*CompletionResult, error) {
	c.logger.Debug("Executing chat completion",
		zap.String("provider", c.provider.GetName()),
		zap.String("session_id", sessionID),
		zap.Int("conversation_length", len(conversation)),
	)

	return c.provider.GetChatCompletion(ctx, sessionID, conversation, deployment)
}

func (c *Client) GetCompletion(ctx context.Context, sessionID, prompt, deployment string) (*CompletionResult, error) {
	c.logger.Debug("Executing completion without history",
		zap.String("provider", c.provider.GetName()),
		zap.String("session_id", sessionID),
	)

	return c.provider.GetCompletion(ctx, sessionID, prompt, deployment)
}

func (c *Client) Summarize(ctx context.Context, sessionID, prompt string) (string, error) {
	c.logger.Debug("Executing summarization",
		zap.String("provider", c.provider.GetName()),
		zap.String("session_id", sessionID),
	)

	return c.provider.Summarize(ctx, sessionID, prompt)
}

func (c *Client) DefaultDeployment() string {
	return c.defaultDeployment
}

func (c *Client) MaxConversationTokens() int {
	return c.maxConversationTokens
}

// GetProviderName returns the name of the underlying provider.
func (c *Client) GetProviderName() string {
	return c.provider.GetName()
}

// GetSupportedModels returns the models of the underlying provider.
func (c *Client) GetSupportedModels() []string {
	return c.provider.GetSupportedModels()
}

// EstimateTokens counts tokens locally, without a provider round trip.
func EstimateTokens(text string) int {
	return providers.EstimateTokens(text)
}
