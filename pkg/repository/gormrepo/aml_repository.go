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

type AMLRepository struct {
	db *gorm.DB
}

func (r *AMLRepository) GetOrCreateProfile(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.AMLRiskProfile, error) {
	var m amlProfileModel
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND partner_id = ?", playerID, partnerID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := amlProfileModel{
			PlayerID: playerID, PartnerID: partnerID,
			RiskLevel: string(domain.RiskLow), LastCalculatedAt: time.Now().UTC(),
		}
		if err := r.db.WithContext(ctx).Create(&fresh).Error; err != nil {
			return nil, err
		}
		m = fresh
	} else if err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (m amlProfileModel) toDomain() *domain.AMLRiskProfile {
	var factors []domain.RiskFactor
	_ = json.Unmarshal([]byte(m.LastFactors), &factors) //nolint:errcheck
	return &domain.AMLRiskProfile{
		PlayerID: m.PlayerID, PartnerID: m.PartnerID, RiskScore: m.RiskScore,
		RiskLevel: domain.RiskLevel(m.RiskLevel),
		Deposit7dSum: m.Deposit7dSum, Deposit7dCount: m.Deposit7dCount,
		Withdraw7dSum: m.Withdraw7dSum, Withdraw7dCount: m.Withdraw7dCount,
		Deposit30dSum: m.Deposit30dSum, Deposit30dCount: m.Deposit30dCount,
		Withdraw30dSum: m.Withdraw30dSum, Withdraw30dCount: m.Withdraw30dCount,
		LastFactors: factors, LastCalculatedAt: m.LastCalculatedAt,
	}
}

func (r *AMLRepository) UpdateProfile(ctx context.Context, profile domain.AMLRiskProfile) error {
	factors, err := json.Marshal(profile.LastFactors)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&amlProfileModel{}).
		Where("player_id = ? AND partner_id = ?", profile.PlayerID, profile.PartnerID).
		Updates(map[string]any{
			"risk_score":         profile.RiskScore,
			"risk_level":         string(profile.RiskLevel),
			"deposit7d_sum":      profile.Deposit7dSum,
			"deposit7d_count":    profile.Deposit7dCount,
			"withdraw7d_sum":     profile.Withdraw7dSum,
			"withdraw7d_count":   profile.Withdraw7dCount,
			"deposit30d_sum":     profile.Deposit30dSum,
			"deposit30d_count":   profile.Deposit30dCount,
			"withdraw30d_sum":    profile.Withdraw30dSum,
			"withdraw30d_count":  profile.Withdraw30dCount,
			"last_factors":       string(factors),
			"last_calculated_at": profile.LastCalculatedAt,
		}).Error
}

func (r *AMLRepository) InsertAlert(ctx context.Context, alert domain.AMLAlert) error {
	factors, err := json.Marshal(alert.FactorsAtAlert)
	if err != nil {
		return err
	}
	m := amlAlertModel{
		ID: alert.ID, PlayerID: alert.PlayerID, PartnerID: alert.PartnerID,
		TransactionID: alert.TransactionID, Type: string(alert.Type), Severity: string(alert.Severity),
		Status: string(alert.Status), ScoreAtAlert: alert.ScoreAtAlert, FactorsAtAlert: string(factors),
		ReportRequired: alert.ReportRequired, CreatedAt: alert.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}
