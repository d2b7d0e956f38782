// Package cache provides TTL caches for raw provider payloads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache stores byte payloads with an expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// Remember returns the cached value for key, or calls load and stores its result.
// The second return value reports a cache hit. Cache errors are logged and
// treated as a miss so that a broken backend never blocks an analysis.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if c != nil {
		b, ok, err := c.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		case ok:
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, true, nil
			}
			log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		}
	}

	v, err := load(ctx)
	if err != nil {
		return zero, false, err
	}
	if c != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return v, false, fmt.Errorf("encode cache entry %s: %w", key, err)
		}
		if err := c.Set(ctx, key, b, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return v, false, nil
}

// Key joins a namespace and ticker into a cache key.
func Key(namespace, symbol string) string {
	return "stockcheck:" + namespace + ":" + symbol
}
