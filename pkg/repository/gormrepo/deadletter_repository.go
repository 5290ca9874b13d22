package gormrepo

import (
	"context"

	"github.com/amirasaad/gamewallet/pkg/eventbus"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeadLetterRepository is the single durable sink for both event-bus
// queue overflow (pkg/eventbus.AsyncBus) and AML bounded-retry
// exhaustion (pkg/aml.Analyzer), per SPEC_FULL's supplemented feature 4.
type DeadLetterRepository struct {
	db *gorm.DB
}

func (r *DeadLetterRepository) Record(ctx context.Context, reason string, event eventbus.Event) error {
	m := deadLetterModel{
		ID:        uuid.New(),
		Reason:    reason,
		EventType: event.Type(),
		EventKey:  event.Key(),
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *DeadLetterRepository) List(ctx context.Context, limit int) ([]repository.DeadLetterEntry, error) {
	var models []deadLetterModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]repository.DeadLetterEntry, len(models))
	for i, m := range models {
		out[i] = repository.DeadLetterEntry{
			ID: m.ID, Reason: m.Reason, EventType: m.EventType, Key: m.EventKey, CreatedAt: m.CreatedAt,
		}
	}
	return out, nil
}
