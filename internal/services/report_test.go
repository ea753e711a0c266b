package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/repos"
)

func newReportService(t *testing.T) (ReportService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	reportRepo := repos.NewReportRepo(env.db, env.log)
	svc := NewReportService(env.db, env.log, env.productRepo, env.logRepo, env.docRepo, reportRepo, env.queue)
	return svc, env
}

func TestGenerateReportSnapshotsHistory(t *testing.T) {
	svc, env := newReportService(t)
	ctx := ctxAs(dpp.RoleManufacturer)

	product := env.seedProduct(t, dpp.StatusDraft)
	if _, err := env.verification.SubmitForVerification(ctx, product.ID); err != nil {
		t.Fatalf("SubmitForVerification: %v", err)
	}
	if _, err := env.products.AttachDocument(ctx, product.ID, DocumentInput{
		Name: "certificate.pdf",
		URL:  "https://files.traceleaf.example/cert.pdf",
	}); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	// Drain the submit event so the report event is next.
	if _, err := env.queue.Pop(context.Background()); err != nil {
		t.Fatalf("drain queue: %v", err)
	}

	report, err := svc.Generate(ctx, product.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.ProductID != product.ID {
		t.Fatal("report product id mismatch")
	}

	var payload struct {
		Product struct {
			ID uuid.UUID `json:"id"`
		} `json:"product"`
		VerificationLog []json.RawMessage `json:"verification_log"`
		Documents       []json.RawMessage `json:"documents"`
	}
	if err := json.Unmarshal(report.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Product.ID != product.ID {
		t.Fatal("payload product mismatch")
	}
	if len(payload.VerificationLog) != 1 {
		t.Fatalf("payload log entries: want=1 got=%d", len(payload.VerificationLog))
	}
	if len(payload.Documents) != 1 {
		t.Fatalf("payload documents: want=1 got=%d", len(payload.Documents))
	}

	ev, err := env.queue.Pop(context.Background())
	if err != nil {
		t.Fatalf("pop event: %v", err)
	}
	if ev.Name != notifier.EventReportGenerated {
		t.Fatalf("event: want=%s got=%s", notifier.EventReportGenerated, ev.Name)
	}

	fetched, err := svc.GetByID(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	current, err := env.products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("fetch product: %v", err)
	}
	if fetched.ID != report.ID || fetched.Completion != current.DPPCompletion {
		t.Fatalf("stored report mismatch: %+v", fetched)
	}
}

func TestGenerateReportUnknownProduct(t *testing.T) {
	svc, _ := newReportService(t)

	_, err := svc.Generate(ctxAs(dpp.RoleManufacturer), uuid.New())
	wantAPIStatus(t, err, 404)
}

func TestListReportsFiltersByProduct(t *testing.T) {
	svc, env := newReportService(t)
	ctx := ctxAs(dpp.RoleManufacturer)

	p1 := env.seedProduct(t, dpp.StatusDraft)
	p2 := env.seedProduct(t, dpp.StatusDraft)
	if _, err := svc.Generate(ctx, p1.ID); err != nil {
		t.Fatalf("Generate p1: %v", err)
	}
	if _, err := svc.Generate(ctx, p2.ID); err != nil {
		t.Fatalf("Generate p2: %v", err)
	}

	all, err := svc.List(ctx, uuid.Nil)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all reports: want=2 got=%d", len(all))
	}
	only, err := svc.List(ctx, p1.ID)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(only) != 1 || only[0].ProductID != p1.ID {
		t.Fatalf("filtered reports wrong: %+v", only)
	}
}
