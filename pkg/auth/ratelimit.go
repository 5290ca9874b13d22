package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/gamewallet/pkg/cache"
	"github.com/amirasaad/gamewallet/pkg/config"
	"github.com/amirasaad/gamewallet/pkg/domain"
)

// RateLimiter enforces the partner-scoped request cap named in §6's
// Configuration list. It is intentionally fail-open: per §5, a cache
// outage disables rate limiting rather than rejecting or stalling
// requests, since correctness must never depend on the limiter.
type RateLimiter struct {
	cache   cache.Cache
	limit   int64
	window  time.Duration
	logger  *slog.Logger
}

func NewRateLimiter(c cache.Cache, cfg config.RateLimit, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		cache:  c,
		limit:  int64(cfg.DefaultRequestsPerMinute),
		window: cfg.Window,
		logger: logger,
	}
}

// Allow increments the counter for (partnerCode, endpointClass) and
// reports domain.ErrRateLimited once the window's count exceeds the
// configured cap. A cache error is logged and treated as allowed.
func (r *RateLimiter) Allow(ctx context.Context, partnerCode, endpointClass string) error {
	count, err := r.cache.Incr(ctx, rateLimitKey(partnerCode, endpointClass), r.window)
	if err != nil {
		if errors.Is(err, cache.ErrCacheUnavailable) {
			r.logger.Warn("auth: rate limiter cache unavailable, failing open", "error", err)
			return nil
		}
		r.logger.Warn("auth: rate limiter error, failing open", "error", err)
		return nil
	}
	if count > r.limit {
		return domain.ErrRateLimited
	}
	return nil
}

func rateLimitKey(partnerCode, endpointClass string) string {
	return "ratelimit:" + partnerCode + ":" + endpointClass
}
