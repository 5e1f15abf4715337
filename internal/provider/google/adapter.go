// Package google provides the adapter for the Gemini generateContent API.
// The API speaks its own content shape: "model" instead of "assistant", part
// lists instead of plain content strings, and tuning options nested under
// generationConfig. Requests are built directly so that caller options the
// adapter does not consume can be forwarded inside generationConfig verbatim.
package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/observability"
	"github.com/lesstokens/lesstokens-go/internal/provider/opts"
)

const providerName = "google"

// Adapter implements core.Provider over the Gemini API.
type Adapter struct {
	client *Client
}

// New creates a Google adapter. baseURL is optional.
func New(apiKey, baseURL string) *Adapter {
	return &Adapter{client: NewClient(apiKey, baseURL)}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return providerName
}

// Chat sends a chat completion request and returns the full response.
func (a *Adapter) Chat(ctx context.Context, messages []core.ChatMessage, config core.LLMConfig) (*core.LLMResponse, error) {
	request := buildRequest(messages, config)

	logger := observability.FromContext(ctx)
	logger.Debug("calling generateContent API")

	resp, err := a.client.GenerateContent(ctx, config.Model, request)
	if err != nil {
		return nil, wrapError(err)
	}

	content, found := firstCandidateText(resp)
	if !found {
		return nil, core.NewError(core.KindLLMAPIError, "No response from google")
	}

	promptTokens := resp.UsageMetadata.PromptTokenCount
	completionTokens := resp.UsageMetadata.CandidatesTokenCount

	logger.Debug("generateContent API call succeeded",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return &core.LLMResponse{
		Content: content,
		Usage: core.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		Metadata: &core.ResponseMetadata{
			Model:     config.Model,
			Provider:  providerName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// ChatStream sends a streaming chat completion request. Gemini streams one
// generateContent response per SSE event; the last event's usageMetadata is
// carried into the terminal chunk.
func (a *Adapter) ChatStream(ctx context.Context, messages []core.ChatMessage, config core.LLMConfig) (<-chan core.StreamChunk, error) {
	request := buildRequest(messages, config)

	logger := observability.FromContext(ctx)
	logger.Debug("calling streaming generateContent API")

	events, err := a.client.StreamGenerateContent(ctx, config.Model, request)
	if err != nil {
		return nil, wrapError(err)
	}

	chunks := make(chan core.StreamChunk)

	go func() {
		defer close(chunks)

		var usage *core.TokenUsage

		for event := range events {
			if event.Err != nil {
				select {
				case chunks <- core.StreamChunk{Err: wrapError(event.Err)}:
				case <-ctx.Done():
				}
				return
			}

			if event.Response.UsageMetadata.TotalTokenCount > 0 {
				promptTokens := event.Response.UsageMetadata.PromptTokenCount
				completionTokens := event.Response.UsageMetadata.CandidatesTokenCount
				usage = &core.TokenUsage{
					PromptTokens:     promptTokens,
					CompletionTokens: completionTokens,
					TotalTokens:      promptTokens + completionTokens,
				}
			}

			text, found := firstCandidateText(event.Response)
			if !found || text == "" {
				continue
			}

			select {
			case chunks <- core.StreamChunk{Content: text}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case chunks <- core.StreamChunk{Done: true, Usage: usage}:
		case <-ctx.Done():
		}
	}()

	return chunks, nil
}

// buildRequest converts messages and options to the Gemini wire shape.
// Gemini labels the model's own turn "model" and lacks a system role in
// contents, so assistant maps to model and everything else to user.
func buildRequest(messages []core.ChatMessage, config core.LLMConfig) *GenerateContentRequest {
	contents := make([]Content, len(messages))
	for i, msg := range messages {
		role := "user"
		if msg.Role == core.RoleAssistant {
			role = "model"
		}
		contents[i] = Content{
			Role:  role,
			Parts: []Part{{Text: msg.Content}},
		}
	}

	normalized := opts.Normalize(config.Options)

	generationConfig := make(map[string]any)
	if normalized.Temperature != nil {
		generationConfig["temperature"] = *normalized.Temperature
	}
	if normalized.MaxTokens != nil {
		generationConfig["maxOutputTokens"] = *normalized.MaxTokens
	}
	if normalized.TopP != nil {
		generationConfig["topP"] = *normalized.TopP
	}
	if normalized.TopK != nil {
		generationConfig["topK"] = *normalized.TopK
	}
	if len(normalized.Stop) > 0 {
		generationConfig["stopSequences"] = normalized.Stop
	}
	for key, value := range normalized.Rest {
		generationConfig[key] = value
	}

	return &GenerateContentRequest{
		Contents:         contents,
		GenerationConfig: generationConfig,
	}
}

// firstCandidateText returns the first non-empty text part of the first
// candidate.
func firstCandidateText(resp *GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, true
		}
	}
	// A candidate with no text still counts as a response; extraction of
	// nothing is distinct from having no candidates at all.
	return "", true
}

// wrapError translates client failures to the error taxonomy. Errors that
// already carry a domain kind pass through unchanged.
func wrapError(err error) error {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return core.NewError(core.KindLLMAPIError, fmt.Sprintf("google API error: %v", err))
}
