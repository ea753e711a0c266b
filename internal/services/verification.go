package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type VerificationService interface {
	SubmitForVerification(ctx context.Context, productID uuid.UUID) (*types.Product, error)
	// ProcessDecision applies a verifier decision (approve, reject,
	// request_changes) to a product awaiting verification. Notes are stored
	// verbatim on the audit entry.
	ProcessDecision(ctx context.Context, productID uuid.UUID, decision dpp.Action, notes string) (*types.Product, error)
	RequestSupplierData(ctx context.Context, productID uuid.UUID, notes string) (*types.Product, error)
	GetLog(ctx context.Context, productID uuid.UUID) ([]*types.VerificationEntry, error)
}

type verificationService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	logRepo     repos.VerificationLogRepo
	queue       notifier.Queue
}

func NewVerificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	productRepo repos.ProductRepo,
	logRepo repos.VerificationLogRepo,
	queue notifier.Queue,
) VerificationService {
	return &verificationService{
		db:          db,
		log:         baseLog.With("service", "VerificationService"),
		productRepo: productRepo,
		logRepo:     logRepo,
		queue:       queue,
	}
}

func (vs *verificationService) SubmitForVerification(ctx context.Context, productID uuid.UUID) (*types.Product, error) {
	return vs.applyTransition(ctx, productID, dpp.ActionSubmitForVerification, "")
}

func (vs *verificationService) ProcessDecision(ctx context.Context, productID uuid.UUID, decision dpp.Action, notes string) (*types.Product, error) {
	switch decision {
	case dpp.ActionApprove, dpp.ActionReject, dpp.ActionRequestChanges:
	default:
		return nil, apierr.Validation("unknown decision %q", decision)
	}
	return vs.applyTransition(ctx, productID, decision, notes)
}

func (vs *verificationService) RequestSupplierData(ctx context.Context, productID uuid.UUID, notes string) (*types.Product, error) {
	return vs.applyTransition(ctx, productID, dpp.ActionRequestSupplierData, notes)
}

// applyTransition is the single write path for dpp_status. It authorizes the
// caller against the transition table, then performs the conditional status
// update and the audit append in one transaction. The conditional update is
// what guarantees at-most-one-writer: a second caller racing on the same
// state reads zero affected rows and gets a Conflict.
func (vs *verificationService) applyTransition(ctx context.Context, productID uuid.UUID, action dpp.Action, notes string) (*types.Product, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}

	var product *types.Product
	var from, to dpp.Status
	err := vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := vs.productRepo.GetByID(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("Failed to fetch product: %w", err)
		}
		if found == nil {
			return apierr.NotFound("product %s not found", productID)
		}
		product = found
		from = product.DPPStatus

		requiredRole, ok := dpp.RequiredRole(from, action)
		if !ok {
			return apierr.Conflict("action %q is not allowed while product is %q", action, from)
		}
		if rd.Role != requiredRole && rd.Role != dpp.RoleAdmin {
			return apierr.Forbidden("action %q requires the %s role", action, requiredRole)
		}

		next, err := dpp.Apply(from, action)
		if err != nil {
			return apierr.Conflict("%v", err)
		}
		to = next

		swapped, err := vs.productRepo.UpdateStatusCAS(ctx, tx, product.ID, from, to)
		if err != nil {
			return fmt.Errorf("Failed to update product status: %w", err)
		}
		if !swapped {
			return apierr.Conflict("product %s changed state concurrently, retry from a fresh read", productID)
		}

		entry := &types.VerificationEntry{
			ID:         uuid.New(),
			ProductID:  product.ID,
			Event:      action,
			FromStatus: from,
			ToStatus:   to,
			VerifierID: rd.UserID,
			Notes:      notes,
			CreatedAt:  time.Now(),
		}
		if _, err := vs.logRepo.Append(ctx, tx, entry); err != nil {
			return fmt.Errorf("Failed to append verification log entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	product.DPPStatus = to
	vs.log.Info("Passport transition applied",
		"product_id", product.ID,
		"action", action,
		"from", from,
		"to", to,
	)
	vs.publish(ctx, product, action, from, to, rd.UserID)
	return product, nil
}

// publish is fire and forget; a queue outage never fails the transition.
func (vs *verificationService) publish(ctx context.Context, product *types.Product, action dpp.Action, from, to dpp.Status, actorID uuid.UUID) {
	if vs.queue == nil {
		return
	}
	name := notifier.EventForAction(action)
	if name == "" {
		return
	}
	ev := notifier.NewEvent(name, product.ID, map[string]interface{}{
		"gtin":        product.GTIN,
		"from_status": string(from),
		"to_status":   string(to),
		"actor_id":    actorID.String(),
	})
	if err := vs.queue.Publish(ctx, ev); err != nil {
		vs.log.Warn("Failed to publish webhook event", "event", name, "product_id", product.ID, "error", err)
	}
}

func (vs *verificationService) GetLog(ctx context.Context, productID uuid.UUID) ([]*types.VerificationEntry, error) {
	product, err := vs.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, apierr.NotFound("product %s not found", productID)
	}
	entries, err := vs.logRepo.ListByProductID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to list verification log: %w", err)
	}
	return entries, nil
}
