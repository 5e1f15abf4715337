package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/retry"
)

func fastConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 4 * time.Millisecond
	return cfg
}

func TestDo(t *testing.T) {
	t.Run("should return the first successful result", func(t *testing.T) {
		calls := 0
		result, err := retry.Do(context.Background(), fastConfig(), func(_ context.Context) (string, error) {
			calls++
			return "ok", nil
		})

		require.NoError(t, err)
		require.Equal(t, "ok", result)
		require.Equal(t, 1, calls)
	})

	t.Run("should retry retryable failures up to MaxRetries extra attempts", func(t *testing.T) {
		calls := 0
		_, err := retry.Do(context.Background(), fastConfig(), func(_ context.Context) (string, error) {
			calls++
			return "", core.NewError(core.KindNetworkError, "connection reset")
		})

		require.Error(t, err)
		require.True(t, core.IsKind(err, core.KindNetworkError))
		require.Equal(t, 4, calls) // initial attempt plus three retries
	})

	t.Run("should recover when a later attempt succeeds", func(t *testing.T) {
		calls := 0
		result, err := retry.Do(context.Background(), fastConfig(), func(_ context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, core.NewError(core.KindTimeout, "timed out")
			}
			return 42, nil
		})

		require.NoError(t, err)
		require.Equal(t, 42, result)
		require.Equal(t, 3, calls)
	})

	t.Run("should not retry non-retryable kinds", func(t *testing.T) {
		calls := 0
		_, err := retry.Do(context.Background(), fastConfig(), func(_ context.Context) (string, error) {
			calls++
			return "", core.NewError(core.KindInvalidAPIKey, "bad key")
		})

		require.True(t, core.IsKind(err, core.KindInvalidAPIKey))
		require.Equal(t, 1, calls)
	})

	t.Run("should not retry errors without a domain kind", func(t *testing.T) {
		calls := 0
		_, err := retry.Do(context.Background(), fastConfig(), func(_ context.Context) (string, error) {
			calls++
			return "", context.DeadlineExceeded
		})

		require.Error(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("should stop waiting when the context is cancelled", func(t *testing.T) {
		cfg := fastConfig()
		cfg.InitialDelay = time.Minute
		cfg.MaxDelay = time.Minute

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := retry.Do(ctx, cfg, func(_ context.Context) (string, error) {
				calls++
				return "", core.NewError(core.KindRateLimit, "slow down")
			})
			require.True(t, core.IsKind(err, core.KindRateLimit))
		}()

		// Let the first attempt fail and enter the backoff wait.
		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("retry loop did not abort after cancellation")
		}
		require.Equal(t, 1, calls)
	})
}

func TestDelay(t *testing.T) {
	t.Run("should follow the capped exponential schedule", func(t *testing.T) {
		cfg := retry.DefaultConfig()
		cfg.MaxRetries = 5

		want := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			10 * time.Second,
			10 * time.Second,
		}
		for attempt, expected := range want {
			require.Equal(t, expected, retry.Delay(attempt, cfg), "attempt %d", attempt)
		}
	})

	t.Run("should cap overflowing shifts at MaxDelay", func(t *testing.T) {
		cfg := retry.DefaultConfig()

		require.Equal(t, cfg.MaxDelay, retry.Delay(63, cfg))
	})
}
