package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/types"
)

// VerificationLogRepo is append-only. There is deliberately no update or
// delete method; the audit trail invariant lives in this interface.
type VerificationLogRepo interface {
	Append(ctx context.Context, tx *gorm.DB, entry *types.VerificationEntry) (*types.VerificationEntry, error)
	ListByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.VerificationEntry, error)
	CountByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error)
}

type verificationLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationLogRepo(db *gorm.DB, baseLog *logger.Logger) VerificationLogRepo {
	return &verificationLogRepo{
		db:  db,
		log: baseLog.With("repo", "VerificationLogRepo"),
	}
}

func (r *verificationLogRepo) Append(ctx context.Context, tx *gorm.DB, entry *types.VerificationEntry) (*types.VerificationEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entry == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByProductID returns entries in chronological order, oldest first. Views
// wanting newest-first reverse at the presentation layer.
func (r *verificationLogRepo) ListByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.VerificationEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.VerificationEntry
	if productID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *verificationLogRepo) CountByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.VerificationEntry{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
