// Package openai provides the adapter for the OpenAI Chat Completions API
// using the official SDK. It also backs any OpenAI-compatible backend reached
// through a custom base URL: resellers construct it with their own name and
// endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/observability"
	"github.com/lesstokens/lesstokens-go/internal/provider/opts"
)

// Adapter implements core.Provider over the OpenAI Chat Completions API.
type Adapter struct {
	client openai.Client
	name   string
}

// New creates an OpenAI-compatible adapter. The name identifies the backend
// in metadata and error messages; baseURL is optional.
func New(name, apiKey, baseURL string) *Adapter {
	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &Adapter{
		client: openai.NewClient(clientOpts...),
		name:   name,
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return a.name
}

// Chat sends a chat completion request and returns the full response.
func (a *Adapter) Chat(ctx context.Context, messages []core.ChatMessage, config core.LLMConfig) (*core.LLMResponse, error) {
	params, requestOpts := a.buildParams(messages, config)

	logger := observability.FromContext(ctx)
	logger.Debug("calling chat completions API")

	resp, err := a.client.Chat.Completions.New(ctx, params, requestOpts...)
	if err != nil {
		return nil, a.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, core.NewError(core.KindLLMAPIError, fmt.Sprintf("No response from %s", a.name))
	}

	logger.Debug("chat completions API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return &core.LLMResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: core.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Metadata: &core.ResponseMetadata{
			Model:     string(resp.Model),
			Provider:  a.name,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// ChatStream sends a streaming chat completion request. Usage arrives in a
// summary chunk after the last delta (requested via include_usage); the
// terminal chunk is emitted once the upstream stream ends, with usage when the
// summary supplied it.
func (a *Adapter) ChatStream(ctx context.Context, messages []core.ChatMessage, config core.LLMConfig) (<-chan core.StreamChunk, error) {
	params, requestOpts := a.buildParams(messages, config)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling streaming chat completions API")

	stream := a.client.Chat.Completions.NewStreaming(ctx, params, requestOpts...)

	chunks := make(chan core.StreamChunk)

	go func() {
		defer close(chunks)
		defer stream.Close()

		var usage *core.TokenUsage

		for stream.Next() {
			chunk := stream.Current()

			if chunk.Usage.TotalTokens > 0 || chunk.Usage.PromptTokens > 0 {
				usage = &core.TokenUsage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:      int(chunk.Usage.TotalTokens),
				}
			}

			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			select {
			case chunks <- core.StreamChunk{Content: delta}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case chunks <- core.StreamChunk{Err: a.wrapError(err)}:
			case <-ctx.Done():
			}
			return
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
func (a *Adapter) buildParams(messages []core.ChatMessage, config core.LLMConfig) (openai.ChatCompletionNewParams, []option.RequestOption) {
	sdkMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			sdkMessages[i] = openai.SystemMessage(msg.Content)
		case core.RoleAssistant:
			sdkMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			sdkMessages[i] = openai.UserMessage(msg.Content)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(config.Model),
		Messages: sdkMessages,
	}

	normalized := opts.Normalize(config.Options)
	if normalized.Temperature != nil {
		params.Temperature = openai.Float(*normalized.Temperature)
	}
	if normalized.MaxTokens != nil {
		params.MaxTokens = openai.Int(*normalized.MaxTokens)
	}
	if normalized.TopP != nil {
		params.TopP = openai.Float(*normalized.TopP)
	}
	if normalized.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*normalized.FrequencyPenalty)
	}
	if normalized.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*normalized.PresencePenalty)
	}
	if len(normalized.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: normalized.Stop,
		}
	}

	var requestOpts []option.RequestOption
	for key, value := range normalized.Rest {
		requestOpts = append(requestOpts, option.WithJSONSet(key, value))
	}

	return params, requestOpts
}

// wrapError translates SDK failures to the error taxonomy. Errors that
// already carry a domain kind pass through unchanged.
func (a *Adapter) wrapError(err error) error {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return core.NewErrorWithStatus(
			core.KindLLMAPIError,
			fmt.Sprintf("%s API error: %s", a.name, apiErr.Error()),
			apiErr.StatusCode,
			nil,
		)
	}

	return core.NewError(core.KindLLMAPIError, fmt.Sprintf("%s API error: %v", a.name, err))
}
