package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type ReportService interface {
	// Generate snapshots a product's passport data, verification history and
	// documents into an immutable compliance report.
	Generate(ctx context.Context, productID uuid.UUID) (*types.ComplianceReport, error)
	GetByID(ctx context.Context, reportID uuid.UUID) (*types.ComplianceReport, error)
	List(ctx context.Context, productID uuid.UUID) ([]*types.ComplianceReport, error)
}

type reportService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	logRepo     repos.VerificationLogRepo
	docRepo     repos.DocumentRepo
	reportRepo  repos.ReportRepo
	queue       notifier.Queue
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	productRepo repos.ProductRepo,
	logRepo repos.VerificationLogRepo,
	docRepo repos.DocumentRepo,
	reportRepo repos.ReportRepo,
	queue notifier.Queue,
) ReportService {
	return &reportService{
		db:          db,
		log:         baseLog.With("service", "ReportService"),
		productRepo: productRepo,
		logRepo:     logRepo,
		docRepo:     docRepo,
		reportRepo:  reportRepo,
		queue:       queue,
	}
}

type reportPayload struct {
	Product         *types.Product             `json:"product"`
	VerificationLog []*types.VerificationEntry `json:"verification_log"`
	Documents       []*types.Document          `json:"documents"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

func (rs *reportService) Generate(ctx context.Context, productID uuid.UUID) (*types.ComplianceReport, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}

	product, err := rs.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, apierr.NotFound("product %s not found", productID)
	}

	var entries []*types.VerificationEntry
	var docs []*types.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = rs.logRepo.ListByProductID(gctx, nil, productID)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = rs.docRepo.ListByProductID(gctx, nil, productID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Failed to gather report data: %w", err)
	}

	payload := reportPayload{
		Product:         product,
		VerificationLog: entries,
		Documents:       docs,
		GeneratedAt:     time.Now().UTC(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal report payload: %w", err)
	}

	report := &types.ComplianceReport{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Payload:     datatypes.JSON(raw),
		Completion:  product.DPPCompletion,
		GeneratedBy: rd.UserID,
		CreatedAt:   time.Now(),
	}
	if _, err := rs.reportRepo.Create(ctx, nil, []*types.ComplianceReport{report}); err != nil {
		return nil, fmt.Errorf("Failed to store report: %w", err)
	}

	if rs.queue != nil {
		ev := notifier.NewEvent(notifier.EventReportGenerated, product.ID, map[string]interface{}{
			"report_id": report.ID.String(),
			"status":    string(product.DPPStatus),
		})
		if err := rs.queue.Publish(ctx, ev); err != nil {
			rs.log.Warn("Failed to publish report event", "report_id", report.ID, "error", err)
		}
	}
	return report, nil
}

func (rs *reportService) GetByID(ctx context.Context, reportID uuid.UUID) (*types.ComplianceReport, error) {
	report, err := rs.reportRepo.GetByID(ctx, nil, reportID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch report: %w", err)
	}
	if report == nil {
		return nil, apierr.NotFound("report %s not found", reportID)
	}
	return report, nil
}

func (rs *reportService) List(ctx context.Context, productID uuid.UUID) ([]*types.ComplianceReport, error) {
	reports, err := rs.reportRepo.List(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to list reports: %w", err)
	}
	return reports, nil
}
