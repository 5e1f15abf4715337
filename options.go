package lesstokens

import (
	"context"
	"time"

	"github.com/lesstokens/lesstokens-go/core"
)

// Config configures an SDK instance.
type Config struct {
	// APIKey is the LessTokens API key. Required.
	APIKey string

	// Provider is the LLM provider name: openai, anthropic, google or
	// deepseek. Case-insensitive. Required.
	Provider string

	// BaseURL overrides the LessTokens API endpoint. Optional.
	BaseURL string

	// Timeout bounds each compression call at the transport layer.
	// Defaults to 30 seconds; must not be negative.
	Timeout time.Duration

	// Cache is an optional compression result cache (see NewRedisCache).
	Cache CompressionCache
}

// CompressionCache stores compression results between requests. A nil Get
// result with a nil error is a miss; cache errors never fail a request.
type CompressionCache interface {
	Get(ctx context.Context, prompt string, options *core.CompressionOptions) (*core.CompressedPrompt, error)
	Set(ctx context.Context, prompt string, options *core.CompressionOptions, result *core.CompressedPrompt) error
}

// ProcessOptions configures one ProcessPrompt or ProcessPromptStream call.
type ProcessOptions struct {
	// Prompt is the text to compress and send. Required, 1 to 1,000,000
	// characters.
	Prompt string

	// LLMConfig carries the provider API key, model and tuning options.
	// Required.
	LLMConfig core.LLMConfig

	// CompressionOptions tunes the compression call. Optional.
	CompressionOptions *core.CompressionOptions

	// MessageRole overrides the role of the new message. Defaults to "user".
	MessageRole string

	// MessageContent overrides the content of the new message. When empty,
	// the compressed prompt text is sent.
	MessageContent string

	// MessageContentFunc derives the content of the new message from the
	// compression result. Takes precedence over MessageContent.
	MessageContentFunc func(*core.CompressedPrompt) string

	// Messages holds prior conversation turns. They are sent before the new
	// message, in order.
	Messages []core.ChatMessage
}

// newMessage resolves the role and content of the message appended after any
// prior conversation turns.
func (o *ProcessOptions) newMessage(compressed *core.CompressedPrompt) core.ChatMessage {
	role := o.MessageRole
	if role == "" {
		role = core.RoleUser
	}

	content := compressed.Compressed
	switch {
	case o.MessageContentFunc != nil:
		content = o.MessageContentFunc(compressed)
	case o.MessageContent != "":
		content = o.MessageContent
	}

	return core.ChatMessage{Role: role, Content: content}
}
