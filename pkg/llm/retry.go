package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RetryableErrors   []error
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableErrors: []error{
			ErrRateLimited,
		},
	}
}

// GetChatCompletionWithRetry retries transient provider failures with
// exponential backoff. The chat service never calls this — it propagates
// upstream failures unchanged and leaves retry policy to the caller.
func (c *Client) GetChatCompletionWithRetry(ctx context.Context, sessionID, conversation, deployment string, retryConfig RetryConfig) (*CompletionResult, error) {
	var lastErr error

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(retryConfig.InitialDelay) * math.Pow(retryConfig.BackoffMultiplier, float64(attempt-1)))
			if delay > retryConfig.MaxDelay {
				delay = retryConfig.MaxDelay
			}

			c.logger.Info("Retrying completion request",
				zap.String("session_id", sessionID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.GetChatCompletion(ctx, sessionID, conversation, deployment)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryableError(err, retryConfig.RetryableErrors) {
			break
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", retryConfig.MaxRetries+1, lastErr)
}

func isRetryableError(err error, retryableErrors []error) bool {
	for _, retryableErr := range retryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}
	return false
}
