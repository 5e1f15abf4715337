package google_test

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
	"github.com/lesstokens/lesstokens-go/internal/provider/google"
)

func chatResponse(text string, promptTokens, completionTokens int) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     promptTokens,
			"candidatesTokenCount": completionTokens,
			"totalTokenCount":      promptTokens + completionTokens,
		},
	}
}

func TestAdapter_Chat(t *testing.T) {
	t.Run("should map roles and options to the wire format", func(t *testing.T) {
		var gotBody map[string]any
		var gotPath, gotAPIKey string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAPIKey = r.Header.Get("x-goog-api-key")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_ = json.NewEncoder(w).Encode(chatResponse("hi", 12, 3))
		}))
		defer server.Close()

		adapter := google.New("g-key", server.URL)
		messages := []core.ChatMessage{
			{Role: core.RoleSystem, Content: "be brief"},
			{Role: core.RoleUser, Content: "hello"},
			{Role: core.RoleAssistant, Content: "hey"},
		}
		config := core.LLMConfig{
			APIKey: "g-key",
			Model:  "gemini-2.0-flash",
			Options: map[string]any{
				"temperature":     0.4,
				"max_tokens":      64,
				"top_k":           20,
				"candidate_count": 2, // unknown key, forwarded verbatim
			},
		}

		response, err := adapter.Chat(context.Background(), messages, config)
		require.NoError(t, err)

		require.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
		require.Equal(t, "g-key", gotAPIKey)

		contents := gotBody["contents"].([]any)
		require.Len(t, contents, 3)
		require.Equal(t, "user", contents[0].(map[string]any)["role"]) // system folds into user
		require.Equal(t, "user", contents[1].(map[string]any)["role"])
		require.Equal(t, "model", contents[2].(map[string]any)["role"])

		generationConfig := gotBody["generationConfig"].(map[string]any)
		require.Equal(t, 0.4, generationConfig["temperature"])
		require.Equal(t, float64(64), generationConfig["maxOutputTokens"])
		require.Equal(t, float64(20), generationConfig["topK"])
		require.Equal(t, float64(2), generationConfig["candidate_count"])

		require.Equal(t, "hi", response.Content)
		require.Equal(t, 12, response.Usage.PromptTokens)
		require.Equal(t, 3, response.Usage.CompletionTokens)
		require.Equal(t, 15, response.Usage.TotalTokens)
		require.Equal(t, "google", response.Metadata.Provider)
		require.Equal(t, "gemini-2.0-flash", response.Metadata.Model)
	})

	t.Run("should fail when no candidates come back", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
		}))
		defer server.Close()

		adapter := google.New("g-key", server.URL)
		_, err := adapter.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "gemini-2.0-flash"})

		require.True(t, core.IsKind(err, core.KindLLMAPIError))
		require.Contains(t, err.Error(), "No response from google")
	})

	t.Run("should surface API errors with their status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error": {"message": "quota exceeded"}}`)
		}))
		defer server.Close()

		adapter := google.New("g-key", server.URL)
		_, err := adapter.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "gemini-2.0-flash"})

		require.True(t, core.IsKind(err, core.KindLLMAPIError))

		var domainErr *core.Error
		require.ErrorAs(t, err, &domainErr)
		require.Equal(t, http.StatusTooManyRequests, domainErr.StatusCode)
		require.Contains(t, domainErr.Message, "quota exceeded")
	})
}

func TestAdapter_ChatStream(t *testing.T) {
	t.Run("should forward deltas and close with a terminal chunk", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Contains(t, r.URL.RawQuery, "alt=sse")
			w.Header().Set("Content-Type", "text/event-stream")

			for _, payload := range []map[string]any{
				chatResponse("Hel", 0, 0),
				chatResponse("lo", 10, 2),
			} {
				data, _ := json.Marshal(payload)
				fmt.Fprintf(w, "data: %s\n\n", data)
			}
		}))
		defer server.Close()

		adapter := google.New("g-key", server.URL)
		stream, err := adapter.ChatStream(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "gemini-2.0-flash"})
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

	t.Run("should end with an error chunk on malformed events", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {not json}\n\n")
		}))
		defer server.Close()

		adapter := google.New("g-key", server.URL)
		stream, err := adapter.ChatStream(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "gemini-2.0-flash"})
		require.NoError(t, err)

		var streamErr error
		for chunk := range stream {
			if chunk.Err != nil {
				streamErr = chunk.Err
			}
		}

		require.Error(t, streamErr)
		require.True(t, core.IsKind(streamErr, core.KindLLMAPIError))
	})
}
