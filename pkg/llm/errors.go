package llm

import "errors"

var (
	ErrAPIKeyNotSet    = errors.New("API key is not set")
	ErrInvalidModel    = errors.New("invalid model specified")
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrContextCanceled = errors.New("context was canceled")
	ErrRateLimited     = errors.New("rate limited by API")
)
