package auth

import (
	"context"
	"testing"
	"time"

	memcache "github.com/amirasaad/gamewallet/infra/cache"
	"github.com/amirasaad/gamewallet/pkg/cache"
	"github.com/amirasaad/gamewallet/pkg/config"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewRateLimiter(memcache.NewMemoryCache(), config.RateLimit{DefaultRequestsPerMinute: 3, Window: time.Minute}, testLogger())
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(context.Background(), "acme", "wallet"))
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	limiter := NewRateLimiter(memcache.NewMemoryCache(), config.RateLimit{DefaultRequestsPerMinute: 2, Window: time.Minute}, testLogger())
	require.NoError(t, limiter.Allow(context.Background(), "acme", "wallet"))
	require.NoError(t, limiter.Allow(context.Background(), "acme", "wallet"))
	require.ErrorIs(t, limiter.Allow(context.Background(), "acme", "wallet"), domain.ErrRateLimited)
}

func TestRateLimiter_ScopedPerPartnerAndEndpoint(t *testing.T) {
	limiter := NewRateLimiter(memcache.NewMemoryCache(), config.RateLimit{DefaultRequestsPerMinute: 1, Window: time.Minute}, testLogger())
	require.NoError(t, limiter.Allow(context.Background(), "acme", "wallet"))
	require.NoError(t, limiter.Allow(context.Background(), "acme", "reports"), "a different endpoint class has its own counter")
	require.NoError(t, limiter.Allow(context.Background(), "other-partner", "wallet"), "a different partner has its own counter")
	require.ErrorIs(t, limiter.Allow(context.Background(), "acme", "wallet"), domain.ErrRateLimited)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, cache.ErrCacheUnavailable }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return cache.ErrCacheUnavailable
}
func (brokenCache) Delete(context.Context, string) error { return cache.ErrCacheUnavailable }
func (brokenCache) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, cache.ErrCacheUnavailable
}

func TestRateLimiter_CacheOutageFailsOpen(t *testing.T) {
	limiter := NewRateLimiter(brokenCache{}, config.RateLimit{DefaultRequestsPerMinute: 1, Window: time.Minute}, testLogger())
	require.NoError(t, limiter.Allow(context.Background(), "acme", "wallet"))
	require.NoError(t, limiter.Allow(context.Background(), "acme", "wallet"))
}
