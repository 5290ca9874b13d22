package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func txFromDomain(t domain.Transaction) (transactionModel, error) {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return transactionModel{}, err
	}
	return transactionModel{
		ID: t.ID, ReferenceID: t.ReferenceID, WalletID: t.WalletID, PartnerID: t.PartnerID,
		PlayerID: t.PlayerID, Type: string(t.Type), EncAmount: t.EncAmount, Currency: t.Currency,
		Status: string(t.Status), OriginalBalance: t.OriginalBalance, UpdatedBalance: t.UpdatedBalance,
		OriginalTransactionID: t.OriginalTransactionID, GameID: t.GameID, GameSessionID: t.GameSessionID,
		Metadata: string(meta), CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}, nil
}

func (m transactionModel) toDomain() domain.Transaction {
	var meta map[string]string
	_ = json.Unmarshal([]byte(m.Metadata), &meta) //nolint:errcheck
	return domain.Transaction{
		ID: m.ID, ReferenceID: m.ReferenceID, WalletID: m.WalletID, PartnerID: m.PartnerID,
		PlayerID: m.PlayerID, Type: domain.TransactionType(m.Type), EncAmount: m.EncAmount,
		Currency: m.Currency, Status: domain.TransactionStatus(m.Status),
		OriginalBalance: m.OriginalBalance, UpdatedBalance: m.UpdatedBalance,
		OriginalTransactionID: m.OriginalTransactionID, GameID: m.GameID, GameSessionID: m.GameSessionID,
		Metadata: meta, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (r *TransactionRepository) FindByReference(ctx context.Context, partnerID uuid.UUID, referenceID string) (*domain.Transaction, error) {
	var m transactionModel
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND reference_id = ?", partnerID, referenceID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d := m.toDomain()
	return &d, nil
}

func (r *TransactionRepository) Insert(ctx context.Context, tx domain.Transaction) error {
	m, err := txFromDomain(tx)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *TransactionRepository) ListByPlayer(ctx context.Context, playerID string, since time.Time, limit int) ([]domain.Transaction, error) {
	var models []transactionModel
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND created_at >= ?", playerID, since).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	return r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}
