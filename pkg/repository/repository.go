// Package repository defines the minimal data-access contracts the
// wallet engine and AML analyzer need (§4.2). Every mutating method runs
// inside a transactional scope opened by the caller through UnitOfWork;
// no repository here starts its own outermost transaction.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository reads and mutates wallet rows. A wallet is unique per
// (player, partner); currency is a fixed attribute recorded at creation,
// not part of the lookup key.
type WalletRepository interface {
	// FindForUpdate acquires a row lock on the wallet matching (player,
	// partner), blocking until it is free. Used by every mutation.
	FindForUpdate(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error)
	// FindByPlayerPartner reads the wallet matching (player, partner)
	// without taking a row lock. Used for plain balance reads that must
	// not contend with concurrent mutations.
	FindByPlayerPartner(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error)
	Create(ctx context.Context, wallet domain.Wallet) error
	UpdateBalance(ctx context.Context, walletID uuid.UUID, newBalance decimal.Decimal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
}

// TransactionRepository reads and appends transaction rows. Transactions
// are append-only; UpdateStatus is the one allowed post-write mutation,
// used to mark an original transaction canceled on rollback.
type TransactionRepository interface {
	FindByReference(ctx context.Context, partnerID uuid.UUID, referenceID string) (*domain.Transaction, error)
	Insert(ctx context.Context, tx domain.Transaction) error
	ListByPlayer(ctx context.Context, playerID string, since time.Time, limit int) ([]domain.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error
}

// PartnerRepository resolves a partner by its primary key.
type PartnerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error)
}

// ApiKeyRepository resolves and updates API-key records.
type ApiKeyRepository interface {
	FindByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AMLRepository backs the risk-profile and alert lifecycle.
type AMLRepository interface {
	GetOrCreateProfile(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.AMLRiskProfile, error)
	UpdateProfile(ctx context.Context, profile domain.AMLRiskProfile) error
	InsertAlert(ctx context.Context, alert domain.AMLAlert) error
}

// DeadLetterRepository is the single durable sink for both event-bus
// queue overflow and AML bounded-retry exhaustion (SPEC_FULL supplemented
// feature 4), so operators have one place to look for undelivered work.
// It satisfies eventbus.DeadLetterSink directly.
type DeadLetterRepository interface {
	eventbus.DeadLetterSink
	List(ctx context.Context, limit int) ([]DeadLetterEntry, error)
}

// DeadLetterEntry is a persisted record of an event the system could not
// deliver or process.
type DeadLetterEntry struct {
	ID        uuid.UUID
	Reason    string
	EventType string
	Key       string
	CreatedAt time.Time
}
