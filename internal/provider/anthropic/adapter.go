// Package anthropic provides the adapter for the Anthropic Messages API using
// the official SDK. Anthropic has no system message role in the messages
// array, so system messages are remapped to user messages before
// transmission; usage only becomes available once the event stream finishes.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/observability"
	"github.com/lesstokens/lesstokens-go/internal/provider/opts"
)

const providerName = "anthropic"

// defaultMaxTokens applies when the caller sets no max_tokens; the Messages
// API requires the field.
const defaultMaxTokens = 1024

// Adapter implements core.Provider over the Anthropic Messages API.
type Adapter struct {
	client anthropic.Client
}

// New creates an Anthropic adapter. baseURL is optional.
func New(apiKey, baseURL string) *Adapter {
	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	return &Adapter{client: anthropic.NewClient(clientOpts...)}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return providerName
}

// Chat sends a chat completion request and returns the full response.
func (a *Adapter) Chat(ctx context.Context, messages []core.ChatMessage, config core.LLMConfig) (*core.LLMResponse, error) {
	params, requestOpts := a.buildParams(messages, config)

	logger := observability.FromContext(ctx)
	logger.Debug("calling messages API")

	message, err := a.client.Messages.New(ctx, params, requestOpts...)
	if err != nil {
		return nil, a.wrapError(err)
	}

	content, found := firstTextBlock(message.Content)
	if !found {
		return nil, core.NewError(core.KindLLMAPIError, "No response from anthropic")
	}

	inputTokens := int(message.Usage.InputTokens)
	outputTokens := int(message.Usage.OutputTokens)

	logger.Debug("messages API call succeeded",
		observability.Int("input_tokens", inputTokens),
		observability.Int("output_tokens", outputTokens),
	)

	return &core.LLMResponse{
		Content: content,
		Usage: core.TokenUsage{
			PromptTokens:     inputTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      inputTokens + outputTokens,
		},
		Metadata: &core.ResponseMetadata{
			Model:     string(message.Model),
			Provider:  providerName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// ChatStream sends a streaming chat completion request. Text deltas are
// forwarded as they arrive; usage is taken from the accumulated final message
// once the event stream ends, so the terminal chunk carries it whenever the
// backend supplied one.
func (a *Adapter) ChatStream(ctx context.Context, messages []core.ChatMessage, config core.LLMConfig) (<-chan core.StreamChunk, error) {
	params, requestOpts := a.buildParams(messages, config)

	logger := observability.FromContext(ctx)
	logger.Debug("calling streaming messages API")

	stream := a.client.Messages.NewStreaming(ctx, params, requestOpts...)

	chunks := make(chan core.StreamChunk)

	go func() {
		defer close(chunks)
		defer stream.Close()

		accumulated := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()
			// Accumulation failures don't invalidate deltas already
			// forwarded; they only cost us the usage summary.
			_ = accumulated.Accumulate(event)

			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				deltaVariant, ok := eventVariant.Delta.AsAny().(anthropic.TextDelta)
				if !ok || deltaVariant.Text == "" {
					continue
				}
				select {
				case chunks <- core.StreamChunk{Content: deltaVariant.Text}:
				case <-ctx.Done():
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case chunks <- core.StreamChunk{Err: a.wrapError(err)}:
			case <-ctx.Done():
			}
			return
		}

		var usage *core.TokenUsage
		if accumulated.Usage.InputTokens > 0 || accumulated.Usage.OutputTokens > 0 {
			inputTokens := int(accumulated.Usage.InputTokens)
			outputTokens := int(accumulated.Usage.OutputTokens)
			usage = &core.TokenUsage{
				PromptTokens:     inputTokens,
				CompletionTokens: outputTokens,
				TotalTokens:      inputTokens + outputTokens,
			}
		}

		select {
		case chunks <- core.StreamChunk{Done: true, Usage: usage}:
		case <-ctx.Done():
		}
	}()

	return chunks, nil
}

// buildParams converts messages and the normalized option set to SDK
// parameters. Unconsumed caller options ride along verbatim as JSON fields.
func (a *Adapter) buildParams(messages []core.ChatMessage, config core.LLMConfig) (anthropic.MessageNewParams, []option.RequestOption) {
	sdkMessages := make([]anthropic.MessageParam, len(messages))
	for i, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == core.RoleAssistant {
			sdkMessages[i] = anthropic.NewAssistantMessage(block)
		} else {
			// System messages become user messages: the Messages API has no
			// system role in the conversation array.
			sdkMessages[i] = anthropic.NewUserMessage(block)
		}
	}

	normalized := opts.Normalize(config.Options)

	maxTokens := int64(defaultMaxTokens)
	if normalized.MaxTokens != nil {
		maxTokens = *normalized.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(config.Model),
		MaxTokens: maxTokens,
		Messages:  sdkMessages,
	}

	if normalized.Temperature != nil {
		params.Temperature = anthropic.Float(*normalized.Temperature)
	}
	if normalized.TopP != nil {
		params.TopP = anthropic.Float(*normalized.TopP)
	}
	if normalized.TopK != nil {
		params.TopK = anthropic.Int(*normalized.TopK)
	}
	if len(normalized.Stop) > 0 {
		params.StopSequences = normalized.Stop
	}

	var requestOpts []option.RequestOption
	for key, value := range normalized.Rest {
		requestOpts = append(requestOpts, option.WithJSONSet(key, value))
	}

	return params, requestOpts
}

// firstTextBlock returns the first non-empty text content block.
func firstTextBlock(blocks []anthropic.ContentBlockUnion) (string, bool) {
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			return block.Text, true
		}
	}
	return "", false
}

// wrapError translates SDK failures to the error taxonomy. Errors that
// already carry a domain kind pass through unchanged.
func (a *Adapter) wrapError(err error) error {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return core.NewErrorWithStatus(
			core.KindLLMAPIError,
			fmt.Sprintf("anthropic API error: %s", apiErr.Error()),
			apiErr.StatusCode,
			nil,
		)
	}

	return core.NewError(core.KindLLMAPIError, fmt.Sprintf("anthropic API error: %v", err))
}
