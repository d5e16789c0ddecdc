package window

import (
	"strings"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"

	"go.uber.org/zap"
)

// Builder assembles the token-bounded conversation string submitted as
// context with a completion request. Truncation is recency-biased: traversal
// runs newest to oldest and stops at the first message that would push the
// running total past the budget, so the latest turns always survive a tight
// budget at the cost of older context.
type Builder struct {
	maxTokens int
	logger    *zap.Logger
}

func NewBuilder(maxTokens int, logger *zap.Logger) *Builder {
	return &Builder{
		maxTokens: maxTokens,
		logger:    logger.With(zap.String("component", "window_builder")),
	}
}

// MaxTokens returns the configured conversation budget.
func (b *Builder) MaxTokens() int {
	return b.maxTokens
}

// Build returns the included message texts in chronological order joined with
// newlines. A message whose token count is still pending contributes zero, so
// it never trips the cutoff; callers that depend on the cutoff must make sure
// earlier counts have resolved.
func (b *Builder) Build(messages []models.Message) string {
	if len(messages) == 0 {
		return ""
	}

	// Newest-first, stop before the budget would be exceeded.
	included := make([]string, 0, len(messages))
	total := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := messages[i].Tokens.OrZero()
		if total+cost > b.maxTokens {
			break
		}
		total += cost
		included = append(included, messages[i].Text)
	}

	// Back to chronological order.
	for i, j := 0, len(included)-1; i < j; i, j = i+1, j-1 {
		included[i], included[j] = included[j], included[i]
	}

	b.logger.Debug("Conversation window built",
		zap.Int("total_messages", len(messages)),
		zap.Int("included_messages", len(included)),
		zap.Int("window_tokens", total),
		zap.Int("max_tokens", b.maxTokens),
	)

	return strings.Join(included, "\n")
}
