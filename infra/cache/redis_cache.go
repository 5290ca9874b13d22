package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/gamewallet/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// RedisCache backs pkg/cache.Cache with a shared Redis instance, used for
// API-key lookups and the fixed-window rate limiter counters so that
// multiple partner-facing instances agree on the same state.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (r *RedisCache) key(key string) string { return r.prefix + key }

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("cache get failed", "key", key, "error", err)
		return nil, false, cache.ErrCacheUnavailable
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		r.logger.Error("cache set failed", "key", key, "error", err)
		return cache.ErrCacheUnavailable
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("cache delete failed", "key", key, "error", err)
		return cache.ErrCacheUnavailable
	}
	return nil
}

// Incr uses INCR and, only when that INCR created the key (result 1), a
// best-effort EXPIRE, so a fresh key gets exactly one TTL window and
// later incrementers never reset its countdown.
func (r *RedisCache) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := r.key(key)
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		r.logger.Error("cache incr failed", "key", key, "error", err)
		return 0, cache.ErrCacheUnavailable
	}
	if n == 1 {
		r.client.Expire(ctx, k, window)
	}
	return n, nil
}

var _ cache.Cache = (*RedisCache)(nil)
