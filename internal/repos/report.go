package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type ReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, reports []*types.ComplianceReport) ([]*types.ComplianceReport, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ComplianceReport, error)
	List(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ComplianceReport, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{
		db:  db,
		log: baseLog.With("repo", "ReportRepo"),
	}
}

func (r *reportRepo) Create(ctx context.Context, tx *gorm.DB, reports []*types.ComplianceReport) ([]*types.ComplianceReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(reports) == 0 {
		return []*types.ComplianceReport{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ComplianceReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var report types.ComplianceReport
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) List(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.ComplianceReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ComplianceReport
	q := transaction.WithContext(ctx).Order("created_at DESC")
	if productID != uuid.Nil {
		q = q.Where("product_id = ?", productID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
