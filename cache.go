package lesstokens

import (
	"time"

	goredis "github.com/redis/go-redis/v9"

	rediscache "github.com/lesstokens/lesstokens-go/internal/cache/redis"
)

// NewRedisCache creates a Redis-backed compression cache for Config.Cache.
// Entries expire after ttl; a non-positive ttl falls back to one hour.
func NewRedisCache(client *goredis.Client, ttl time.Duration) CompressionCache {
	return rediscache.NewCache(client, ttl)
}
