package chat

import (
	"errors"
	"strings"
)

// Validation failures are raised before any cache mutation or I/O.
var (
	ErrEmptySessionID   = errors.New("session ID cannot be empty")
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrEmptySessionName = errors.New("session name cannot be empty")
	ErrEmptyModelID     = errors.New("model ID cannot be empty")
	ErrPromptTooLong    = errors.New("prompt is too long")
	ErrInvalidSessionID = errors.New("invalid session ID format")

	// ErrSessionNotFound is returned when an operation references a session
	// that is not present in the cache.
	ErrSessionNotFound = errors.New("session not found")
)

const (
	MaxPromptLength    = 10000
	MaxSessionIDLength = 100
)

func ValidateCompletionRequest(req CompletionRequest) error {
	if err := validateSessionID(req.SessionID); err != nil {
		return err
	}

	if strings.TrimSpace(req.UserID) == "" {
		return ErrEmptyUserID
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return ErrEmptyPrompt
	}

	if len(req.Prompt) > MaxPromptLength {
		return ErrPromptTooLong
	}

	return nil
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrEmptySessionID
	}

	if len(sessionID) > MaxSessionIDLength {
		return ErrInvalidSessionID
	}

	return nil
}
