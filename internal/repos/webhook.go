package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type WebhookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, hooks []*types.Webhook) ([]*types.Webhook, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Webhook, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Webhook, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Webhook, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// RecordFailure bumps the consecutive failure counter and trips the
	// circuit (active=false, disabled_at set) once the threshold is reached.
	RecordFailure(ctx context.Context, tx *gorm.DB, id uuid.UUID, disableAfter int) error
	ResetFailures(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type webhookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookRepo(db *gorm.DB, baseLog *logger.Logger) WebhookRepo {
	return &webhookRepo{
		db:  db,
		log: baseLog.With("repo", "WebhookRepo"),
	}
}

func (r *webhookRepo) Create(ctx context.Context, tx *gorm.DB, hooks []*types.Webhook) ([]*types.Webhook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(hooks) == 0 {
		return []*types.Webhook{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&hooks).Error; err != nil {
		return nil, err
	}
	return hooks, nil
}

func (r *webhookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Webhook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var hook types.Webhook
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&hook).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hook, nil
}

func (r *webhookRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Webhook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Webhook
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *webhookRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Webhook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Webhook
	if err := transaction.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *webhookRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Webhook{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *webhookRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Webhook{}).Error
}

func (r *webhookRepo) RecordFailure(ctx context.Context, tx *gorm.DB, id uuid.UUID, disableAfter int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	if err := transaction.WithContext(ctx).
		Model(&types.Webhook{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failure_count": gorm.Expr("failure_count + 1"),
			"updated_at":    now,
		}).Error; err != nil {
		return err
	}
	if disableAfter <= 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Webhook{}).
		Where("id = ? AND failure_count >= ? AND active = ?", id, disableAfter, true).
		Updates(map[string]interface{}{
			"active":      false,
			"disabled_at": now,
			"updated_at":  now,
		}).Error
}

func (r *webhookRepo) ResetFailures(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Webhook{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failure_count": 0,
			"updated_at":    time.Now(),
		}).Error
}
