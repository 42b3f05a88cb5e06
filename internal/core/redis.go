// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/persona-advice/internal/config"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{Client: client}, nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

// Cache is a JSON cache-aside over redis. A nil client disables caching.
type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// Remember loads key into dest, or calls fetch to fill dest and stores it.
// Cache failures are logged and never fail the request.
func (c *Cache) Remember(
	ctx context.Context,
	key string,
	ttl time.Duration,
	dest any,
	fetch func() error,
) error {
	if c == nil || c.client == nil {
		return fetch()
	}

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Warn("cache read failed", "key", key, "error", err)
	}

	if err := fetch(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil //nolint:nilerr // value already fetched
	}

	if err := c.client.Set(ctx, c.key(key), payload, ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}

	return nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}

	if err := c.client.Del(ctx, full...).Err(); err != nil {
		slog.Warn("cache invalidate failed", "keys", full, "error", err)
	}
}
