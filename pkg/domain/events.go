package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventWalletTransactionCreated = "wallet.transaction.created"
	EventAMLAlertCreated          = "aml.alert.created"
)

// WalletTransactionCreated is published once a wallet mutation commits
// (§4.4.6). Key returns the player-id so the AML analyzer sees every
// player's events in commit order.
type WalletTransactionCreated struct {
	TransactionID   uuid.UUID
	WalletID        uuid.UUID
	PlayerID        string
	PartnerID       uuid.UUID
	TransactionType TransactionType
	Currency        string
	Amount          decimal.Decimal
	UpdatedBalance  decimal.Decimal
	GameID          *string
	GameSessionID   *string
	OccurredAt      time.Time
}

func (e WalletTransactionCreated) Type() string { return EventWalletTransactionCreated }
func (e WalletTransactionCreated) Key() string   { return e.PlayerID }

// AMLAlertCreated is published whenever the analyzer crosses one of the
// §4.6.3 thresholds.
type AMLAlertCreated struct {
	Alert      AMLAlert
	OccurredAt time.Time
}

func (e AMLAlertCreated) Type() string { return EventAMLAlertCreated }
func (e AMLAlertCreated) Key() string   { return e.Alert.PlayerID }
