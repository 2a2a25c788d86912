// Package cache is a small key/value cache for read-mostly listings.
//
// Values are stored JSON-encoded so the in-memory and Redis backends behave
// the same way: a cached value is always a copy, never a shared pointer.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Keys shared by the services that read and invalidate them.
const (
	KeyStores   = "stores:list"
	KeyProducts = "products:list"
)

// Cache is implemented by Memory and Redis.
type Cache interface {
	// Get decodes the cached value into dest and reports whether the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// New picks the backend from config. A Redis backend needs a client.
func New(cfg *config.Config, rdb *redis.Client, logger *zerolog.Logger) (Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		if rdb == nil {
			return nil, fmt.Errorf("cache backend redis requires a redis client")
		}
		logger.Info().Str("backend", "redis").Msg("cache initialized")
		return NewRedis(rdb, "storeops:"), nil
	default:
		logger.Info().Str("backend", "memory").Msg("cache initialized")
		return NewMemory(time.Minute), nil
	}
}

// GetOrLoad returns the cached value for key, calling load and caching its
// result on a miss. Cache failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var out T
	if c != nil {
		if ok, err := c.Get(ctx, key, &out); err == nil && ok {
			return out, nil
		}
	}

	out, err := load()
	if err != nil {
		return out, err
	}

	if c != nil {
		_ = c.Set(ctx, key, out, ttl)
	}
	return out, nil
}

func encode(value any) ([]byte, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding cache value: %w", err)
	}
	return b, nil
}

func decode(b []byte, dest any) error {
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("decoding cache value: %w", err)
	}
	return nil
}
