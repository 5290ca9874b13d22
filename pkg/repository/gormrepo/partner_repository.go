package gormrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepository struct {
	db *gorm.DB
}

func (r *PartnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error) {
	var m partnerModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cidrs []string
	if m.AllowedCIDR != "" {
		cidrs = strings.Split(m.AllowedCIDR, ",")
	}
	return &domain.Partner{
		ID: m.ID, Code: m.Code, Status: domain.PartnerStatus(m.Status),
		AllowedCIDR: cidrs, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}, nil
}
