package webapi

import (
	"context"
	"net"
	"time"

	"github.com/amirasaad/gamewallet/pkg/auth"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/gofiber/fiber/v2"
)

const identityLocalsKey = "gamewallet.identity"

// AuthMiddleware runs the §4.3 pipeline ahead of every non-excluded
// route and attaches the resulting Identity to the request's fiber
// locals so handlers never repeat the lookup (§4.3 step 8).
func AuthMiddleware(pipeline *auth.Pipeline, limiter *auth.RateLimiter, endpointClass func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pipeline.IsExcluded(c.Path()) {
			return c.Next()
		}

		clientIP := net.ParseIP(c.IP())
		identity, err := pipeline.Authenticate(c.Context(), c.Get("X-API-Key"), clientIP)
		if err != nil {
			return fail(c, err, "")
		}

		if err := limiter.Allow(c.Context(), identity.Partner.Code, endpointClass(c)); err != nil {
			return fail(c, err, "")
		}

		c.Locals(identityLocalsKey, identity)
		return c.Next()
	}
}

func identityFromLocals(c *fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals(identityLocalsKey).(*auth.Identity)
	return identity
}

// requirePermission enforces §4.3 step 6 for the handler's operation and
// returns a context carrying the inbound request's deadline (§5: every
// suspension point inherits the request's deadline). Callers must defer
// the returned cancel to release it promptly.
func requirePermission(c *fiber.Ctx, pipeline *auth.Pipeline, permission string, deadline time.Duration) (context.Context, context.CancelFunc, *auth.Identity, error) {
	identity := identityFromLocals(c)
	if identity == nil {
		return nil, nil, nil, domain.ErrUnauthenticated
	}
	if err := pipeline.RequirePermission(identity, permission); err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(c.Context(), deadline)
	return ctx, cancel, identity, nil
}
