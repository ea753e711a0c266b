package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type WebhookDeliveryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, deliveries []*types.WebhookDelivery) ([]*types.WebhookDelivery, error)
	ListByWebhookID(ctx context.Context, tx *gorm.DB, webhookID uuid.UUID, limit int) ([]*types.WebhookDelivery, error)
}

type webhookDeliveryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookDeliveryRepo(db *gorm.DB, baseLog *logger.Logger) WebhookDeliveryRepo {
	return &webhookDeliveryRepo{
		db:  db,
		log: baseLog.With("repo", "WebhookDeliveryRepo"),
	}
}

func (r *webhookDeliveryRepo) Create(ctx context.Context, tx *gorm.DB, deliveries []*types.WebhookDelivery) ([]*types.WebhookDelivery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(deliveries) == 0 {
		return []*types.WebhookDelivery{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *webhookDeliveryRepo) ListByWebhookID(ctx context.Context, tx *gorm.DB, webhookID uuid.UUID, limit int) ([]*types.WebhookDelivery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WebhookDelivery
	if webhookID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
