package gormrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApiKeyRepository struct {
	db *gorm.DB
}

func (r *ApiKeyRepository) FindByHash(ctx context.Context, keyHash string) (*domain.ApiKey, error) {
	var m apiKeyModel
	err := r.db.WithContext(ctx).Where("key_hash = ?", keyHash).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var perms []string
	if m.Permissions != "" {
		perms = strings.Split(m.Permissions, ",")
	}
	return &domain.ApiKey{
		ID: m.ID, PartnerID: m.PartnerID, KeyHash: m.KeyHash, VerifyHash: m.VerifyHash, Permissions: perms,
		Active: m.Active, ExpiresAt: m.ExpiresAt, LastUsedAt: m.LastUsedAt, CreatedAt: m.CreatedAt,
	}, nil
}

func (r *ApiKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&apiKeyModel{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
