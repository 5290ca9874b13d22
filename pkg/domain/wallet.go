package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the ledger for one (player, partner) pair. It is created
// lazily on first-sight and never deleted; Currency is fixed at creation
// and immutable thereafter, but is not itself part of the lookup key —
// a request naming a different currency for an existing wallet is a
// currency mismatch, not a second wallet.
type Wallet struct {
	ID        uuid.UUID
	PlayerID  string
	PartnerID uuid.UUID
	Currency  string
	Balance   decimal.Decimal
	Active    bool
	Locked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWallet returns a freshly created, zero-balance, active wallet.
func NewWallet(playerID string, partnerID uuid.UUID, currencyCode string) Wallet {
	now := time.Now().UTC()
	return Wallet{
		ID:        uuid.New(),
		PlayerID:  playerID,
		PartnerID: partnerID,
		Currency:  currencyCode,
		Balance:   decimal.Zero,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
