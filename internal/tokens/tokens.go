// Package tokens provides token-budget truncation for prompt assembly.
// This package is internal and should not be imported by external projects.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Rough fallback ratio when the BPE vocabulary is unavailable
// (e.g. offline environments where tiktoken cannot load its files).
const runesPerToken = 4

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			enc = e
		}
	})
	return enc
}

// Count returns the number of tokens in text. Falls back to a rune
// estimate when the encoding is unavailable.
func Count(text string) int {
	if e := encoding(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	runes := len([]rune(text))
	return (runes + runesPerToken - 1) / runesPerToken
}

// Truncate cuts text to at most maxTokens tokens. A non-positive
// budget returns the text unchanged.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}
	if e := encoding(); e != nil {
		ids := e.Encode(text, nil, nil)
		if len(ids) <= maxTokens {
			return text
		}
		return e.Decode(ids[:maxTokens])
	}
	runes := []rune(text)
	limit := maxTokens * runesPerToken
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
