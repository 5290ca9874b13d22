// Package webapi is the thin HTTP surface described in §6: handlers that
// map authenticated requests onto wallet and AML operations. Per §1 it
// is a narrow collaborator, not the subject of this spec — routing,
// CORS/CSRF, partner admin CRUD, and report generation live elsewhere.
// What's here is exactly the §6 contract and the §7 error taxonomy.
package webapi

import (
	"errors"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/gofiber/fiber/v2"
)

// taxonomy maps each typed error from pkg/domain/errors.go to its HTTP
// status and wire code (§7). Unknown errors fall through to internal.
var taxonomy = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrUnauthenticated, "unauthenticated", fiber.StatusUnauthorized},
	{domain.ErrIPNotAllowed, "ip-not-allowed", fiber.StatusForbidden},
	{domain.ErrPermissionDenied, "permission-denied", fiber.StatusForbidden},
	{domain.ErrRateLimited, "rate-limited", fiber.StatusTooManyRequests},
	{domain.ErrNotFound, "not-found", fiber.StatusNotFound},
	{domain.ErrInvalidAmount, "invalid-amount", fiber.StatusUnprocessableEntity},
	{domain.ErrCurrencyMismatch, "currency-mismatch", fiber.StatusUnprocessableEntity},
	{domain.ErrInsufficientFunds, "insufficient-funds", fiber.StatusUnprocessableEntity},
	{domain.ErrIdempotencyConflict, "idempotency-conflict", fiber.StatusConflict},
	{domain.ErrAlreadyRolledBack, "already-rolled-back", fiber.StatusConflict},
	{domain.ErrWalletLocked, "wallet-locked", fiber.StatusLocked},
	{domain.ErrDeadlineExceeded, "deadline-exceeded", fiber.StatusGatewayTimeout},
	{domain.ErrDependencyUnavailable, "dependency-unavailable", fiber.StatusServiceUnavailable},
}

// envelope is the success response shape from §6: every 2xx body wraps
// its payload the same way.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorBody is the failure shape from §6, carrying the §7 taxonomy code
// and a trace id operators can correlate against logs.
type errorBody struct {
	Success bool      `json:"success"`
	Error   errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	TraceID string         `json:"trace_id,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func ok(c *fiber.Ctx, data any, message string) error {
	return c.Status(fiber.StatusOK).JSON(envelope{Success: true, Data: data, Message: message})
}

// fail maps err through the §7 taxonomy and writes the error envelope.
// traceID lets the partner correlate an "internal" response with the
// operator's own logs without leaking which internal failure occurred.
func fail(c *fiber.Ctx, err error, traceID string) error {
	for _, t := range taxonomy {
		if errors.Is(err, t.err) {
			return c.Status(t.status).JSON(errorBody{
				Success: false,
				Error:   errorInfo{Code: t.code, Message: t.err.Error()},
			})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
		Success: false,
		Error:   errorInfo{Code: "internal", Message: "an unexpected error occurred", TraceID: traceID},
	})
}
