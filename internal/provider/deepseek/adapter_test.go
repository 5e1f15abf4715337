package deepseek_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/provider/deepseek"
)

func TestNew(t *testing.T) {
	t.Run("should identify itself as deepseek", func(t *testing.T) {
		require.Equal(t, "deepseek", deepseek.New("sk-1", "").Name())
	})

	t.Run("should honor a custom base URL", func(t *testing.T) {
		var gotModel string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			gotModel, _ = body["model"].(string)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"model":  "deepseek-chat",
				"choices": []any{
					map[string]any{
						"index":         0,
						"message":       map[string]any{"role": "assistant", "content": "hi"},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
			})
		}))
		defer server.Close()

		provider := deepseek.New("sk-1", server.URL)
		response, err := provider.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}}, core.LLMConfig{Model: "deepseek-chat"})

		require.NoError(t, err)
		require.Equal(t, "deepseek-chat", gotModel)
		require.Equal(t, "hi", response.Content)
		require.Equal(t, "deepseek", response.Metadata.Provider)
	})
}
