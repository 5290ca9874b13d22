package domain

import "errors"

// Sentinel errors returned by the wallet engine, auth pipeline, and AML
// analyzer. The taxonomy table in webapi/errors.go maps each of these to
// an HTTP status and code; nothing outside that mapping layer should inspect error
// strings.
var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrIPNotAllowed          = errors.New("ip-not-allowed")
	ErrPermissionDenied      = errors.New("permission-denied")
	ErrRateLimited           = errors.New("rate-limited")
	ErrNotFound              = errors.New("not-found")
	ErrInvalidAmount         = errors.New("invalid-amount")
	ErrCurrencyMismatch      = errors.New("currency-mismatch")
	ErrInsufficientFunds     = errors.New("insufficient-funds")
	ErrIdempotencyConflict   = errors.New("idempotency-conflict")
	ErrAlreadyRolledBack     = errors.New("already-rolled-back")
	ErrWalletLocked          = errors.New("wallet-locked")
	ErrDeadlineExceeded      = errors.New("deadline-exceeded")
	ErrDependencyUnavailable = errors.New("dependency-unavailable")
	ErrInternal              = errors.New("internal")
)
