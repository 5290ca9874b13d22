// Package cache defines the best-effort caching contract shared by the
// wallet engine's balance reads and the auth pipeline's rate limiter.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable signals a transient backend outage. Callers must
// treat it as a cache miss, never as a request failure: correctness never
// depends on cache state.
var ErrCacheUnavailable = errors.New("cache: backend unavailable")

// Cache is a generic TTL key-value store plus a fixed-window counter used
// for rate limiting. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Incr increments key by 1, creating it with the given window as its
	// expiry if absent, and returns the post-increment count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
