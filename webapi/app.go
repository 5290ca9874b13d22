package webapi

import (
	"strings"
	"time"

	"github.com/amirasaad/gamewallet/pkg/auth"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/amirasaad/gamewallet/pkg/wallet"
	"github.com/gofiber/fiber/v2"
)

// NewApp wires the §6 wallet endpoints behind the §4.3 auth pipeline and
// rate limiter. Everything else named out of scope by §1 — CORS, CSRF,
// partner admin CRUD, report export, static assets — is the caller's
// concern; this only builds the routes the core spec actually owns.
func NewApp(
	engine *wallet.Engine,
	pipeline *auth.Pipeline,
	limiter *auth.RateLimiter,
	partners repository.PartnerRepository,
	transactions repository.TransactionRepository,
	operationDeadline time.Duration,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "gamewallet",
		ErrorHandler: errorHandler,
	})

	handlers := NewWalletHandlers(engine, pipeline, partners, transactions, operationDeadline)

	app.Use(AuthMiddleware(pipeline, limiter, endpointClassOf))

	grp := app.Group("/wallet/:player")
	grp.Get("/balance", handlers.Balance)
	grp.Post("/deposit", handlers.Deposit)
	grp.Post("/withdraw", handlers.Withdraw)
	grp.Post("/bet", handlers.Bet)
	grp.Post("/win", handlers.Win)
	grp.Post("/rollback", handlers.Rollback)

	return app
}

// endpointClassOf buckets a request onto a rate-limit class by its
// mutating verb, per §5's per-(partner, endpoint-class) window.
func endpointClassOf(c *fiber.Ctx) string {
	parts := strings.Split(strings.Trim(c.Path(), "/"), "/")
	if len(parts) < 3 {
		return "wallet:other"
	}
	return "wallet:" + parts[2]
}

func errorHandler(c *fiber.Ctx, err error) error {
	return fail(c, err, "")
}
