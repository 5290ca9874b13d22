// Package gormrepo is the gorm-backed implementation of the
// pkg/repository interfaces, following the teacher's DTO-mapping
// convention: a persistence-only model per entity plus explicit
// to/from-domain conversion, so gorm tags never leak into pkg/domain.
package gormrepo

import (
	"time"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type walletModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PlayerID        string          `gorm:"index:idx_wallet_player_partner,unique"`
	PartnerID       uuid.UUID       `gorm:"type:uuid;index:idx_wallet_player_partner,unique"`
	Currency        string
	Balance         decimal.Decimal `gorm:"type:numeric"`
	Active          bool
	Locked          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (walletModel) TableName() string { return "wallets" }

func walletFromDomain(w domain.Wallet) walletModel {
	return walletModel{
		ID: w.ID, PlayerID: w.PlayerID, PartnerID: w.PartnerID, Currency: w.Currency,
		Balance: w.Balance, Active: w.Active, Locked: w.Locked,
		CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt,
	}
}

func (m walletModel) toDomain() domain.Wallet {
	return domain.Wallet{
		ID: m.ID, PlayerID: m.PlayerID, PartnerID: m.PartnerID, Currency: m.Currency,
		Balance: m.Balance, Active: m.Active, Locked: m.Locked,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

type transactionModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferenceID           string    `gorm:"index:idx_tx_partner_reference,unique"`
	WalletID              uuid.UUID `gorm:"type:uuid;index:idx_tx_wallet_created"`
	PartnerID             uuid.UUID `gorm:"type:uuid;index:idx_tx_partner_reference,unique"`
	PlayerID              string    `gorm:"index:idx_tx_player_created"`
	Type                  string
	EncAmount             string
	Currency              string
	Status                string
	OriginalBalance       decimal.Decimal `gorm:"type:numeric"`
	UpdatedBalance        decimal.Decimal `gorm:"type:numeric"`
	OriginalTransactionID *uuid.UUID      `gorm:"type:uuid"`
	GameID                *string
	GameSessionID         *string
	Metadata              string
	CreatedAt             time.Time `gorm:"index:idx_tx_wallet_created;index:idx_tx_player_created"`
	UpdatedAt             time.Time
}

func (transactionModel) TableName() string { return "transactions" }

type apiKeyModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PartnerID   uuid.UUID `gorm:"type:uuid;index"`
	KeyHash     string    `gorm:"uniqueIndex"`
	VerifyHash  string
	Permissions string
	Active      bool
	ExpiresAt   *time.Time
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}

func (apiKeyModel) TableName() string { return "api_keys" }

type partnerModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code        string    `gorm:"uniqueIndex"`
	Status      string
	AllowedCIDR string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (partnerModel) TableName() string { return "partners" }

type amlProfileModel struct {
	PlayerID         string    `gorm:"primaryKey;index:idx_aml_player_partner,unique"`
	PartnerID        uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_aml_player_partner,unique"`
	RiskScore        float64
	RiskLevel        string
	Deposit7dSum     float64
	Deposit7dCount   int
	Withdraw7dSum    float64
	Withdraw7dCount  int
	Deposit30dSum    float64
	Deposit30dCount  int
	Withdraw30dSum   float64
	Withdraw30dCount int
	LastFactors      string
	LastCalculatedAt time.Time
}

func (amlProfileModel) TableName() string { return "aml_risk_profiles" }

type amlAlertModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlayerID       string    `gorm:"index"`
	PartnerID      uuid.UUID `gorm:"type:uuid;index"`
	TransactionID  *uuid.UUID `gorm:"type:uuid"`
	Type           string
	Severity       string
	Status         string
	ScoreAtAlert   float64
	FactorsAtAlert string
	ReportRequired bool
	CreatedAt      time.Time
}

func (amlAlertModel) TableName() string { return "aml_alerts" }

type deadLetterModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Reason    string
	EventType string
	EventKey  string
	CreatedAt time.Time
}

func (deadLetterModel) TableName() string { return "dead_letters" }
