package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lesstokens/lesstokens-go/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		os.Clearenv()

		cfg, err := config.Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.Empty(t, cfg.LessTokens.APIKey)
		require.Equal(t, "openai", cfg.LessTokens.Provider)
		require.Equal(t, "https://lesstokens.hive-hub.ai", cfg.LessTokens.BaseURL)
		require.Equal(t, 30000, cfg.LessTokens.TimeoutMs)
		require.Empty(t, cfg.Redis.Addr)
		require.Equal(t, 3600, cfg.Redis.CacheTTLSec)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		t.Setenv("LESSTOKENS_API_KEY", "lt-test-key")
		t.Setenv("LESSTOKENS_PROVIDER", "anthropic")
		t.Setenv("LESSTOKENS_BASE_URL", "https://staging.lesstokens.dev")
		t.Setenv("LESSTOKENS_TIMEOUT_MS", "5000")
		t.Setenv("LLM_API_KEY", "sk-test-key")
		t.Setenv("LLM_MODEL", "claude-sonnet-4-20250514")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("REDIS_DB", "2")

		cfg, err := config.Load()
		require.NoError(t, err)

		require.Equal(t, "lt-test-key", cfg.LessTokens.APIKey)
		require.Equal(t, "anthropic", cfg.LessTokens.Provider)
		require.Equal(t, "https://staging.lesstokens.dev", cfg.LessTokens.BaseURL)
		require.Equal(t, 5000, cfg.LessTokens.TimeoutMs)
		require.Equal(t, "sk-test-key", cfg.LLM.APIKey)
		require.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, 2, cfg.Redis.DB)
	})
}
