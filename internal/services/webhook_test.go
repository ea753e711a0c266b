package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/repos"
)

func newWebhookService(t *testing.T) (WebhookService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	webhookRepo := repos.NewWebhookRepo(env.db, env.log)
	deliveryRepo := repos.NewWebhookDeliveryRepo(env.db, env.log)
	dispatcher := notifier.NewDispatcher(env.log, env.queue, webhookRepo, deliveryRepo, notifier.DispatcherConfig{})
	return NewWebhookService(env.db, env.log, webhookRepo, deliveryRepo, dispatcher), env
}

func TestCreateWebhookGeneratesSecret(t *testing.T) {
	svc, _ := newWebhookService(t)

	hook, err := svc.Create(ctxAs(dpp.RoleAdmin), WebhookInput{
		Name:   "erp sync",
		URL:    "https://erp.example/hooks/dpp",
		Events: []string{notifier.EventProductApproved},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(hook.Secret, "whsec_") {
		t.Fatalf("secret missing prefix: %q", hook.Secret)
	}
	if !hook.Active {
		t.Fatal("new webhook should start active")
	}
}

func TestCreateWebhookRejectsUnknownEvent(t *testing.T) {
	svc, _ := newWebhookService(t)

	_, err := svc.Create(ctxAs(dpp.RoleAdmin), WebhookInput{
		Name:   "erp sync",
		URL:    "https://erp.example/hooks/dpp",
		Events: []string{"product.exploded"},
	})
	wantAPIStatus(t, err, 400)
}

func TestCreateWebhookRejectsBadURL(t *testing.T) {
	svc, _ := newWebhookService(t)

	_, err := svc.Create(ctxAs(dpp.RoleAdmin), WebhookInput{Name: "x", URL: "ftp://nope"})
	wantAPIStatus(t, err, 400)
}

func TestCreateWebhookForbiddenForVerifiers(t *testing.T) {
	svc, _ := newWebhookService(t)

	_, err := svc.Create(ctxAs(dpp.RoleVerifier), WebhookInput{Name: "x", URL: "https://a.example"})
	wantAPIStatus(t, err, 403)
}

func TestWebhookTestDeliversSyntheticEvent(t *testing.T) {
	svc, _ := newWebhookService(t)
	ctx := ctxAs(dpp.RoleAdmin)

	var gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-DPP-Event")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook, err := svc.Create(ctx, WebhookInput{Name: "listener", URL: srv.URL})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	result, err := svc.Test(ctx, hook.ID)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if !result.Success || result.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotEvent != notifier.EventWebhookTest {
		t.Fatalf("event header: want=%s got=%s", notifier.EventWebhookTest, gotEvent)
	}

	deliveries, err := svc.Deliveries(ctx, hook.ID, 10)
	if err != nil {
		t.Fatalf("Deliveries: %v", err)
	}
	if len(deliveries) != 1 || !deliveries[0].Success {
		t.Fatalf("unexpected deliveries: %+v", deliveries)
	}
}

func TestUpdateWebhookReenableClearsCircuit(t *testing.T) {
	svc, env := newWebhookService(t)
	ctx := ctxAs(dpp.RoleAdmin)

	hook, err := svc.Create(ctx, WebhookInput{Name: "flaky", URL: "https://flaky.example"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	webhookRepo := repos.NewWebhookRepo(env.db, env.log)
	for i := 0; i < 2; i++ {
		if err := webhookRepo.RecordFailure(ctx, nil, hook.ID, 2); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	disabled, err := webhookRepo.GetByID(ctx, nil, hook.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if disabled.Active || disabled.DisabledAt == nil {
		t.Fatalf("circuit did not trip: %+v", disabled)
	}

	active := true
	updated, err := svc.Update(ctx, hook.ID, WebhookInput{Active: &active})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Active || updated.FailureCount != 0 || updated.DisabledAt != nil {
		t.Fatalf("re-enable did not clear circuit: %+v", updated)
	}
}
