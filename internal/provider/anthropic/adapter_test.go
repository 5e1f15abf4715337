package anthropic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/provider/anthropic"
)

func messageBody(text string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-sonnet-4-20250514",
		"content":     []any{map[string]any{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 11, "output_tokens": 6},
	}
}

func TestAdapter_Chat(t *testing.T) {
	t.Run("should remap system messages and default max_tokens", func(t *testing.T) {
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/messages", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(messageBody("hello back"))
		}))
		defer server.Close()

		adapter := anthropic.New("ak-1", server.URL)
		messages := []core.ChatMessage{
			{Role: core.RoleSystem, Content: "be brief"},
			{Role: core.RoleAssistant, Content: "earlier answer"},
			{Role: core.RoleUser, Content: "hello"},
		}
		config := core.LLMConfig{APIKey: "ak-1", Model: "claude-sonnet-4-20250514"}

		response, err := adapter.Chat(context.Background(), messages, config)
		require.NoError(t, err)

		require.Equal(t, float64(1024), gotBody["max_tokens"])

		sent := gotBody["messages"].([]any)
		require.Len(t, sent, 3)
		require.Equal(t, "user", sent[0].(map[string]any)["role"]) // system folds into user
		require.Equal(t, "assistant", sent[1].(map[string]any)["role"])
		require.Equal(t, "user", sent[2].(map[string]any)["role"])

		require.Equal(t, "hello back", response.Content)
		require.Equal(t, 11, response.Usage.PromptTokens)
		require.Equal(t, 6, response.Usage.CompletionTokens)
		require.Equal(t, 17, response.Usage.TotalTokens)
		require.Equal(t, "anthropic", response.Metadata.Provider)
	})

	t.Run("should honor caller max_tokens and tuning options", func(t *testing.T) {
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(messageBody("ok"))
		}))
		defer server.Close()

		adapter := anthropic.New("ak-1", server.URL)
		config := core.LLMConfig{
			APIKey: "ak-1",
			Model:  "claude-sonnet-4-20250514",
			Options: map[string]any{
				"max_tokens":  2048,
				"temperature": 0.3,
				"top_k":       5,
			},
		}

		_, err := adapter.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, config)
		require.NoError(t, err)

		require.Equal(t, float64(2048), gotBody["max_tokens"])
		require.Equal(t, 0.3, gotBody["temperature"])
		require.Equal(t, float64(5), gotBody["top_k"])
	})

	t.Run("should fail when the message has no text block", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			body := messageBody("")
			body["content"] = []any{}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		}))
		defer server.Close()

		adapter := anthropic.New("ak-1", server.URL)
		_, err := adapter.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "claude-sonnet-4-20250514"})

		require.True(t, core.IsKind(err, core.KindLLMAPIError))
		require.Contains(t, err.Error(), "No response from anthropic")
	})

	t.Run("should translate API errors and keep the status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "Number of requests too high"}}`)
		}))
		defer server.Close()

		adapter := anthropic.New("ak-1", server.URL)
		_, err := adapter.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "claude-sonnet-4-20250514"})

		require.True(t, core.IsKind(err, core.KindLLMAPIError))

		var domainErr *core.Error
		require.ErrorAs(t, err, &domainErr)
		require.Equal(t, http.StatusTooManyRequests, domainErr.StatusCode)
	})
}

func TestAdapter_ChatStream(t *testing.T) {
	t.Run("should forward text deltas and report accumulated usage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")

			events := []struct{ name, data string }{
				{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514","content":[],"stop_reason":null,"usage":{"input_tokens":10,"output_tokens":1}}}`},
				{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
				{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`},
				{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`},
				{"content_block_stop", `{"type":"content_block_stop","index":0}`},
				{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`},
				{"message_stop", `{"type":"message_stop"}`},
			}
			for _, event := range events {
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.name, event.data)
			}
		}))
		defer server.Close()

		adapter := anthropic.New("ak-1", server.URL)
		stream, err := adapter.ChatStream(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "claude-sonnet-4-20250514"})
		require.NoError(t, err)

		var content strings.Builder
		var terminal *core.StreamChunk

		for chunk := range stream {
			require.NoError(t, chunk.Err)
			content.WriteString(chunk.Content)
			if chunk.Done {
				c := chunk
				terminal = &c
			}
		}

		require.Equal(t, "Hello", content.String())
		require.NotNil(t, terminal)
		require.NotNil(t, terminal.Usage)
		require.Equal(t, 10, terminal.Usage.PromptTokens)
		require.Equal(t, 2, terminal.Usage.CompletionTokens)
		require.Equal(t, 12, terminal.Usage.TotalTokens)
	})
}
