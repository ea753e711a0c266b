package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/db"
	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type testEnv struct {
	db           *gorm.DB
	log          *logger.Logger
	productRepo  repos.ProductRepo
	logRepo      repos.VerificationLogRepo
	docRepo      repos.DocumentRepo
	userRepo     repos.UserRepo
	tokenRepo    repos.UserTokenRepo
	queue        notifier.Queue
	products     ProductService
	verification VerificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	env := &testEnv{
		db:          gdb,
		log:         log,
		productRepo: repos.NewProductRepo(gdb, log),
		logRepo:     repos.NewVerificationLogRepo(gdb, log),
		docRepo:     repos.NewDocumentRepo(gdb, log),
		userRepo:    repos.NewUserRepo(gdb, log),
		tokenRepo:   repos.NewUserTokenRepo(gdb, log),
		queue:       notifier.NewMemoryQueue(64),
	}
	env.products = NewProductService(gdb, log, env.productRepo, env.docRepo)
	env.verification = NewVerificationService(gdb, log, env.productRepo, env.logRepo, env.queue)
	return env
}

func ctxAs(role string) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: uuid.New(),
		Role:   role,
	})
}

func (e *testEnv) seedProduct(t *testing.T, status dpp.Status) *types.Product {
	t.Helper()
	now := time.Now()
	product := &types.Product{
		ID:        uuid.New(),
		GTIN:      "4006381333931",
		Name:      "Trail Jacket",
		DPPStatus: status,
		CreatedBy: uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := e.productRepo.Create(context.Background(), nil, []*types.Product{product}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (e *testEnv) logLen(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	count, err := e.logRepo.CountByProductID(context.Background(), nil, productID)
	if err != nil {
		t.Fatalf("count log: %v", err)
	}
	return int(count)
}

func wantAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	if ae.Status != status {
		t.Fatalf("error status: want=%d got=%d (%v)", status, ae.Status, err)
	}
}

func TestSubmitForVerificationFromDraft(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusDraft)

	updated, err := env.verification.SubmitForVerification(ctxAs(dpp.RoleManufacturer), product.ID)
	if err != nil {
		t.Fatalf("SubmitForVerification: %v", err)
	}
	if updated.DPPStatus != dpp.StatusPendingVerification {
		t.Fatalf("status: want=%s got=%s", dpp.StatusPendingVerification, updated.DPPStatus)
	}
	if got := env.logLen(t, product.ID); got != 1 {
		t.Fatalf("log length: want=1 got=%d", got)
	}

	entries, err := env.verification.GetLog(ctxAs(dpp.RoleManufacturer), product.ID)
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	entry := entries[0]
	if entry.Event != dpp.ActionSubmitForVerification {
		t.Fatalf("event: want=%s got=%s", dpp.ActionSubmitForVerification, entry.Event)
	}
	if entry.FromStatus != dpp.StatusDraft || entry.ToStatus != dpp.StatusPendingVerification {
		t.Fatalf("entry states: got %s -> %s", entry.FromStatus, entry.ToStatus)
	}
}

func TestSubmitRequiresManufacturerRole(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusDraft)

	_, err := env.verification.SubmitForVerification(ctxAs(dpp.RoleVerifier), product.ID)
	wantAPIStatus(t, err, 403)
	if got := env.logLen(t, product.ID); got != 0 {
		t.Fatalf("forbidden submit must not append log entries, got %d", got)
	}
}

func TestApproveCompletesPassport(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)

	updated, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), product.ID, dpp.ActionApprove, "")
	if err != nil {
		t.Fatalf("ProcessDecision: %v", err)
	}
	if updated.DPPStatus != dpp.StatusComplete {
		t.Fatalf("status: want=%s got=%s", dpp.StatusComplete, updated.DPPStatus)
	}
	if got := env.logLen(t, product.ID); got != 1 {
		t.Fatalf("log length: want=1 got=%d", got)
	}
}

func TestRequestChangesCarriesNotesVerbatim(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)

	notes := "Missing BOM"
	updated, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), product.ID, dpp.ActionRequestChanges, notes)
	if err != nil {
		t.Fatalf("ProcessDecision: %v", err)
	}
	if updated.DPPStatus != dpp.StatusChangesRequested {
		t.Fatalf("status: want=%s got=%s", dpp.StatusChangesRequested, updated.DPPStatus)
	}
	entries, err := env.verification.GetLog(ctxAs(dpp.RoleVerifier), product.ID)
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if entries[0].Notes != notes {
		t.Fatalf("notes: want=%q got=%q", notes, entries[0].Notes)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)

	updated, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), product.ID, dpp.ActionReject, "counterfeit documents")
	if err != nil {
		t.Fatalf("ProcessDecision: %v", err)
	}
	if updated.DPPStatus != dpp.StatusRejected {
		t.Fatalf("status: want=%s got=%s", dpp.StatusRejected, updated.DPPStatus)
	}

	_, err = env.verification.SubmitForVerification(ctxAs(dpp.RoleManufacturer), product.ID)
	wantAPIStatus(t, err, 409)
}

func TestDecisionOnUnknownProductIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), uuid.New(), dpp.ActionApprove, "")
	wantAPIStatus(t, err, 404)
}

func TestDecisionOutsidePendingVerificationIsConflict(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusDraft)

	_, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), product.ID, dpp.ActionApprove, "")
	wantAPIStatus(t, err, 409)
	if got := env.logLen(t, product.ID); got != 0 {
		t.Fatalf("rejected decision must not append log entries, got %d", got)
	}
}

func TestDecisionRequiresVerifierRole(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)

	_, err := env.verification.ProcessDecision(ctxAs(dpp.RoleManufacturer), product.ID, dpp.ActionApprove, "")
	wantAPIStatus(t, err, 403)
}

func TestUnknownDecisionIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)

	_, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), product.ID, dpp.Action("escalate"), "")
	wantAPIStatus(t, err, 400)
}

func TestSecondDecisionAfterApproveIsConflict(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)
	ctx := ctxAs(dpp.RoleVerifier)

	if _, err := env.verification.ProcessDecision(ctx, product.ID, dpp.ActionApprove, ""); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := env.verification.ProcessDecision(ctx, product.ID, dpp.ActionApprove, "")
	wantAPIStatus(t, err, 409)
	if got := env.logLen(t, product.ID); got != 1 {
		t.Fatalf("double apply: log length want=1 got=%d", got)
	}
}

func TestRequestSupplierData(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusIncomplete)

	updated, err := env.verification.RequestSupplierData(ctxAs(dpp.RoleManufacturer), product.ID, "need recycled content certificates")
	if err != nil {
		t.Fatalf("RequestSupplierData: %v", err)
	}
	if updated.DPPStatus != dpp.StatusPendingSupplier {
		t.Fatalf("status: want=%s got=%s", dpp.StatusPendingSupplier, updated.DPPStatus)
	}

	// Supplier data never re-enters verification automatically.
	resubmitted, err := env.verification.SubmitForVerification(ctxAs(dpp.RoleManufacturer), product.ID)
	if err != nil {
		t.Fatalf("resubmit after supplier data: %v", err)
	}
	if resubmitted.DPPStatus != dpp.StatusPendingVerification {
		t.Fatalf("status: want=%s got=%s", dpp.StatusPendingVerification, resubmitted.DPPStatus)
	}
}

func TestUnauthenticatedTransitionIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusDraft)

	_, err := env.verification.SubmitForVerification(context.Background(), product.ID)
	wantAPIStatus(t, err, 401)
}

func TestLogIsChronologicalAndReplayable(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusDraft)
	mfg := ctxAs(dpp.RoleManufacturer)
	ver := ctxAs(dpp.RoleVerifier)

	steps := []struct {
		run func() (*types.Product, error)
	}{
		{func() (*types.Product, error) { return env.verification.SubmitForVerification(mfg, product.ID) }},
		{func() (*types.Product, error) {
			return env.verification.ProcessDecision(ver, product.ID, dpp.ActionRequestChanges, "fix materials")
		}},
		{func() (*types.Product, error) { return env.verification.SubmitForVerification(mfg, product.ID) }},
		{func() (*types.Product, error) { return env.verification.ProcessDecision(ver, product.ID, dpp.ActionApprove, "") }},
	}
	prevLen := 0
	for i, step := range steps {
		if _, err := step.run(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		// Monotonically non-decreasing log length.
		if got := env.logLen(t, product.ID); got <= prevLen {
			t.Fatalf("step %d: log did not grow (%d -> %d)", i, prevLen, got)
		} else {
			prevLen = got
		}
	}

	entries, err := env.verification.GetLog(ver, product.ID)
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	actions := make([]dpp.Action, 0, len(entries))
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Fatalf("log not in chronological order at entry %d", i)
		}
	}
	for _, e := range entries {
		actions = append(actions, e.Event)
	}
	replayed, err := dpp.Replay(actions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	final, err := env.productRepo.GetByID(context.Background(), nil, product.ID)
	if err != nil {
		t.Fatalf("fetch final product: %v", err)
	}
	if replayed != final.DPPStatus {
		t.Fatalf("replay mismatch: replayed=%s stored=%s", replayed, final.DPPStatus)
	}
}

func TestTransitionPublishesWebhookEvent(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, dpp.StatusPendingVerification)

	if _, err := env.verification.ProcessDecision(ctxAs(dpp.RoleVerifier), product.ID, dpp.ActionApprove, ""); err != nil {
		t.Fatalf("ProcessDecision: %v", err)
	}
	ev, err := env.queue.Pop(context.Background())
	if err != nil {
		t.Fatalf("pop event: %v", err)
	}
	if ev.Name != notifier.EventProductApproved {
		t.Fatalf("event name: want=%s got=%s", notifier.EventProductApproved, ev.Name)
	}
	if ev.ProductID != product.ID {
		t.Fatalf("event product id mismatch")
	}
}
