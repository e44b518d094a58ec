package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores catalog reads in Redis as JSON. A nil client disables it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache with ttl, defaulting to one minute.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

// Invalidate drops keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// readThrough serves key from the cache or from load, filling the cache on a
// miss. Cache failures are logged and never fail the read.
func readThrough[T any](ctx context.Context, c *Cache, logger zerolog.Logger, key string, load func(context.Context) (T, error)) (T, error) {
	if c.enabled() {
		data, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			logger.Warn().Str("key", key).Msg("discarding undecodable catalog cache entry")
		case !errors.Is(err, redis.Nil):
			logger.Warn().Err(err).Str("key", key).Msg("catalog cache read")
		}
	}

	v, err := load(ctx)
	if err != nil || !c.enabled() {
		return v, err
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("catalog cache write")
	}
	return v, nil
}
