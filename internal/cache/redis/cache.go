// Package redis provides a Redis-backed cache for compression results, so
// that repeated compression of an identical prompt skips the network call.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lesstokens/lesstokens-go/core"
	"github.com/lesstokens/lesstokens-go/internal/observability"
)

const (
	keyPrefix  = "lesstokens:compress:"
	defaultTTL = 1 * time.Hour
)

// Cache stores CompressedPrompt values in Redis keyed by a digest of the
// prompt and its compression options.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a compression cache. A non-positive ttl falls back to one
// hour.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get retrieves a cached compression result. A missing entry returns
// (nil, nil); only transport failures return an error.
func (c *Cache) Get(ctx context.Context, prompt string, options *core.CompressionOptions) (*core.CompressedPrompt, error) {
	key := buildKey(prompt, options)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var result core.CompressedPrompt
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry behaves as a miss; the fresh result overwrites it.
		observability.FromContext(ctx).Warn("dropping corrupt compression cache entry",
			observability.String("key", key),
			observability.Error(err))
		return nil, nil
	}

	return &result, nil
}

// Set stores a compression result with the configured TTL.
func (c *Cache) Set(ctx context.Context, prompt string, options *core.CompressionOptions, result *core.CompressedPrompt) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, buildKey(prompt, options), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// buildKey digests the prompt together with its options: the same text
// compressed with different settings must not share an entry.
func buildKey(prompt string, options *core.CompressionOptions) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	if options != nil {
		optBytes, _ := json.Marshal(options)
		h.Write(optBytes)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
