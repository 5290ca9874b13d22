package gormrepo

import (
	"context"
	"errors"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository is the gorm-backed implementation of
// repository.WalletRepository. FindForUpdate is the concurrency
// linchpin of §4.4.3, grounded on the row-locking pattern used for
// balance mutation elsewhere in the retrieved pack. FindByPlayerPartner
// is its unlocked counterpart for plain balance reads.
type WalletRepository struct {
	db *gorm.DB
}

func (r *WalletRepository) FindForUpdate(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	var m walletModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("player_id = ? AND partner_id = ?", playerID, partnerID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	w := m.toDomain()
	return &w, nil
}

func (r *WalletRepository) FindByPlayerPartner(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	var m walletModel
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND partner_id = ?", playerID, partnerID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	w := m.toDomain()
	return &w, nil
}

func (r *WalletRepository) Create(ctx context.Context, wallet domain.Wallet) error {
	m := walletFromDomain(wallet)
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, walletID uuid.UUID, newBalance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&walletModel{}).
		Where("id = ?", walletID).
		Update("balance", newBalance).Error
}

func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var m walletModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	w := m.toDomain()
	return &w, nil
}
