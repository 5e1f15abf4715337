// Package core holds the domain types shared between the SDK facade, the
// compression gateway and the provider adapters, along with the provider
// capability interface and the error taxonomy.
package core

import "math"

// Message roles understood by every provider adapter. Providers that use
// different labels remap these before transmission.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single chat message. Order within a conversation
// is semantically significant and is passed to providers unchanged.
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for one request. The compression-derived
// fields (CompressedTokens, SavingsPercent) are populated only by the SDK after
// merging; the provider-derived fields come verbatim from the adapter.
type TokenUsage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalTokens      int      `json:"total_tokens"`
	CompressedTokens *int     `json:"compressed_tokens,omitempty"`
	SavingsPercent   *float64 `json:"savings_percent,omitempty"`
}

// ResponseMetadata carries auxiliary response information.
// CompressionRatio is set only by the SDK.
type ResponseMetadata struct {
	Model            string   `json:"model,omitempty"`
	Provider         string   `json:"provider,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"` // ISO 8601
	CompressionRatio *float64 `json:"compression_ratio,omitempty"`
}

// LLMResponse is the unified single-shot response shape.
type LLMResponse struct {
	Content  string            `json:"content"`
	Usage    TokenUsage        `json:"usage"`
	Metadata *ResponseMetadata `json:"metadata,omitempty"`
}

// StreamChunk represents a single streaming response chunk. Content chunks
// have Done=false and no usage. Exactly one terminal chunk per stream has
// Done=true; after SDK post-processing the terminal chunk always carries a
// usage value. Err is set when the stream fails mid-flight; no further chunks
// follow an errored chunk.
type StreamChunk struct {
	Content string      `json:"content"`
	Done    bool        `json:"done"`
	Usage   *TokenUsage `json:"usage,omitempty"`
	Err     error       `json:"-"`
}

// CompressedPrompt is the result of one compression call. Immutable once
// returned; owned by the caller that receives it.
type CompressedPrompt struct {
	Compressed       string  `json:"compressed"`
	OriginalTokens   int     `json:"original_tokens"`
	CompressedTokens int     `json:"compressed_tokens"`
	SavingsPercent   float64 `json:"savings_percent"` // 0-100, 2 decimals
	Ratio            float64 `json:"ratio"`
}

// CompressionOptions configures one compression call. Pointer fields
// distinguish "unset" from a zero value: unset fields are never sent.
type CompressionOptions struct {
	TargetRatio     *float64 `json:"target_ratio,omitempty"` // 0.0-1.0
	PreserveContext *bool    `json:"preserve_context,omitempty"`
	Aggressive      *bool    `json:"aggressive,omitempty"`
}

// LLMConfig configures the LLM call for a single request. Options carries
// provider tuning parameters under their wire names, in either snake_case or
// camelCase (snake_case wins when both are present); keys the adapter does not
// recognize are forwarded to the backend verbatim.
type LLMConfig struct {
	APIKey  string         `json:"api_key"`
	Model   string         `json:"model"`
	Options map[string]any `json:"options,omitempty"`
}

// SavingsPercent derives the percentage token reduction from token counts.
// Always computed locally, never trusted from an upstream field. Rounded to
// two decimal places; zero when originalTokens is not positive.
func SavingsPercent(originalTokens, compressedTokens int) float64 {
	if originalTokens <= 0 {
		return 0
	}
	savings := (float64(originalTokens) - float64(compressedTokens)) / float64(originalTokens) * 100
	return math.Round(savings*100) / 100
}
