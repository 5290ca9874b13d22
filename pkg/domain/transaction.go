package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the tagged variant a small dispatch table switches
// on instead of any runtime type introspection (§9).
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionBet        TransactionType = "bet"
	TransactionWin        TransactionType = "win"
	TransactionRefund     TransactionType = "refund"
	TransactionRollback   TransactionType = "rollback"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionCommission TransactionType = "commission"
	TransactionBonus      TransactionType = "bonus"
)

// Credit reports whether this type increases a wallet's balance.
func (t TransactionType) Credit() bool {
	switch t {
	case TransactionDeposit, TransactionWin, TransactionRefund, TransactionBonus:
		return true
	default:
		return false
	}
}

// TransactionStatus models the state machine of §4.4.7:
// (none) -> Pending -> Completed, Pending -> Failed, Completed -> Canceled.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCanceled  TransactionStatus = "canceled"
)

// Transaction is the append-only audit record behind a wallet mutation.
// Amount is held encrypted at rest (pkg/crypto.AmountCipher); EncAmount
// is the ciphertext blob, PlainAmount only ever lives in memory for the
// duration of one operation.
type Transaction struct {
	ID                   uuid.UUID
	ReferenceID          string
	WalletID             uuid.UUID
	PartnerID            uuid.UUID
	PlayerID             string
	Type                 TransactionType
	EncAmount            string
	PlainAmount          decimal.Decimal
	Currency             string
	Status               TransactionStatus
	OriginalBalance       decimal.Decimal
	UpdatedBalance        decimal.Decimal
	OriginalTransactionID *uuid.UUID
	GameID                *string
	GameSessionID         *string
	Metadata              map[string]string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Matches reports whether a replayed request is identical to the stored
// transaction for idempotency purposes (§4.4.2). Type is checked first,
// matching original_source's discriminate-by-type-before-amount order.
func (t Transaction) Matches(txType TransactionType, playerID string, amount decimal.Decimal, currencyCode string) bool {
	if t.Type != txType {
		return false
	}
	if t.PlayerID != playerID {
		return false
	}
	if t.Currency != currencyCode {
		return false
	}
	return t.PlainAmount.Equal(amount)
}
