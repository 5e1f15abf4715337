// Package retry provides a generic exponential-backoff retry executor with
// error-class filtering. Only errors whose domain kind is in the configured
// retryable set are retried; everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/lesstokens/lesstokens-go/core"
)

// Config controls one retry loop. Constructed once per call site and not
// mutated across attempts.
type Config struct {
	MaxRetries     int           // additional attempts after the first
	InitialDelay   time.Duration // delay before the first retry
	MaxDelay       time.Duration // hard cap on backoff growth
	RetryableKinds []core.Kind
}

// DefaultConfig matches the compression gateway's retry contract.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		RetryableKinds: []core.Kind{
			core.KindTimeout,
			core.KindNetworkError,
			core.KindRateLimit,
		},
	}
}

// Delay computes the backoff before retrying a failed attempt. Growth is
// purely exponential with a hard cap: no jitter, deterministic for testing.
func Delay(attempt int, cfg Config) time.Duration {
	delay := cfg.InitialDelay << attempt
	// Guard the shift against overflow for large attempt counts.
	if delay > cfg.MaxDelay || delay < cfg.InitialDelay {
		return cfg.MaxDelay
	}
	return delay
}

// Do executes op with retries. Attempt indices run 0..MaxRetries inclusive.
// A failure whose kind is outside RetryableKinds, or a failure on the final
// attempt, propagates unchanged. Between attempts the caller suspends for the
// backoff delay; cancelling ctx aborts the wait and returns the last error.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= cfg.MaxRetries || !isRetryable(err, cfg) {
			return zero, err
		}

		if waitErr := wait(ctx, Delay(attempt, cfg)); waitErr != nil {
			return zero, lastErr
		}
	}

	// Unreachable in correct use: the loop either returns a result or the
	// last error. Fail loudly rather than return a silent zero value.
	if lastErr != nil {
		return zero, lastErr
	}
	return zero, errors.New("retry: loop exited without a result or an error")
}

func isRetryable(err error, cfg Config) bool {
	kind, ok := core.KindOf(err)
	if !ok {
		return false
	}
	for _, k := range cfg.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
