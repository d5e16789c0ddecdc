package llm

import (
	"context"
)

// CompletionClient is the completion-provider contract the chat service
// consumes: generation plus the configured limits the orchestrator needs for
// windowing and model selection.
type CompletionClient interface {
	GetChatCompletion(ctx context.Context, sessionID, conversation, deployment string) (*CompletionResult, error)
	GetCompletion(ctx context.Context, sessionID, prompt, deployment string) (*CompletionResult, error)
	Summarize(ctx context.Context, sessionID, prompt string) (string, error)

	// DefaultDeployment returns the model used when a request carries no
	// deployment override.
	DefaultDeployment() string

	// MaxConversationTokens returns the conversation window budget.
	MaxConversationTokens() int
}

// Verify interface implementation
var _ CompletionClient = (*Client)(nil)
