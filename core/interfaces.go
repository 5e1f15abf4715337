package core

import "context"

// Provider is the normalized capability interface over one LLM backend.
// Implementations hide the backend's message format, option naming and
// streaming event shape behind this contract.
type Provider interface {
	// Chat sends a chat completion request and returns the full response.
	Chat(ctx context.Context, messages []ChatMessage, config LLMConfig) (*LLMResponse, error)

	// ChatStream sends a streaming chat completion request. The returned
	// channel yields zero or more non-terminal chunks followed by exactly one
	// terminal chunk (Done=true), then closes. The stream is finite and not
	// restartable. Cancelling ctx stops production and releases the underlying
	// network stream.
	ChatStream(ctx context.Context, messages []ChatMessage, config LLMConfig) (<-chan StreamChunk, error)

	// Name returns the provider identifier.
	Name() string
}
