package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error)
	ListByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Document, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{
		db:  db,
		log: baseLog.With("repo", "DocumentRepo"),
	}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(docs) == 0 {
		return []*types.Document{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) ListByProductID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Document
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
