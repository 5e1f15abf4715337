// Package deepseek provides the adapter for DeepSeek's OpenAI-compatible API.
// It is the openai adapter pointed at DeepSeek's endpoint under its own name.
package deepseek

import (
	"github.com/lesstokens/lesstokens-go/internal/provider/openai"
)

// DefaultBaseURL is DeepSeek's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.deepseek.com"

// New creates a DeepSeek adapter. An empty baseURL falls back to the official
// endpoint.
func New(apiKey, baseURL string) *openai.Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return openai.New("deepseek", apiKey, baseURL)
}
