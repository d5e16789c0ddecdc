package providers

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens counts the tokens in a piece of text locally. Used when a
// provider response carries no usage block, and available to callers that
// want to size a prompt before sending it. Falls back to a bytes/4 heuristic
// if the encoding cannot be loaded.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err == nil {
			encoding = enc
		}
	})

	if encoding == nil {
		return len(text) / 4
	}

	return len(encoding.Encode(text, nil, nil))
}
