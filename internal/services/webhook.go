package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type WebhookInput struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Active *bool    `json:"active"`
}

// TestResult reports the outcome of a direct test delivery.
type TestResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

type WebhookService interface {
	Create(ctx context.Context, input WebhookInput) (*types.Webhook, error)
	List(ctx context.Context) ([]*types.Webhook, error)
	Update(ctx context.Context, webhookID uuid.UUID, input WebhookInput) (*types.Webhook, error)
	Delete(ctx context.Context, webhookID uuid.UUID) error
	// Test POSTs a synthetic event to the endpoint right now, bypassing the
	// queue, and reports the endpoint's actual response.
	Test(ctx context.Context, webhookID uuid.UUID) (*TestResult, error)
	Deliveries(ctx context.Context, webhookID uuid.UUID, limit int) ([]*types.WebhookDelivery, error)
}

type webhookService struct {
	db           *gorm.DB
	log          *logger.Logger
	webhookRepo  repos.WebhookRepo
	deliveryRepo repos.WebhookDeliveryRepo
	dispatcher   *notifier.Dispatcher
}

func NewWebhookService(
	db *gorm.DB,
	baseLog *logger.Logger,
	webhookRepo repos.WebhookRepo,
	deliveryRepo repos.WebhookDeliveryRepo,
	dispatcher *notifier.Dispatcher,
) WebhookService {
	return &webhookService{
		db:           db,
		log:          baseLog.With("service", "WebhookService"),
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		dispatcher:   dispatcher,
	}
}

func (ws *webhookService) Create(ctx context.Context, input WebhookInput) (*types.Webhook, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if rd.Role != dpp.RoleAdmin && rd.Role != dpp.RoleManufacturer {
		return nil, apierr.Forbidden("webhook management requires the admin or manufacturer role")
	}
	if err := validateWebhookURL(input.URL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apierr.Validation("webhook name is required")
	}
	events, err := marshalEvents(input.Events)
	if err != nil {
		return nil, err
	}
	secret, err := newSecret()
	if err != nil {
		return nil, fmt.Errorf("Failed to generate webhook secret: %w", err)
	}

	now := time.Now()
	hook := &types.Webhook{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		URL:       strings.TrimSpace(input.URL),
		Secret:    secret,
		Events:    events,
		Active:    true,
		CreatedBy: rd.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Active != nil {
		hook.Active = *input.Active
	}
	if _, err := ws.webhookRepo.Create(ctx, nil, []*types.Webhook{hook}); err != nil {
		return nil, fmt.Errorf("Failed to create webhook: %w", err)
	}
	return hook, nil
}

func (ws *webhookService) List(ctx context.Context) ([]*types.Webhook, error) {
	hooks, err := ws.webhookRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to list webhooks: %w", err)
	}
	return hooks, nil
}

func (ws *webhookService) Update(ctx context.Context, webhookID uuid.UUID, input WebhookInput) (*types.Webhook, error) {
	hook, err := ws.getOrNotFound(ctx, webhookID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if strings.TrimSpace(input.Name) != "" {
		hook.Name = strings.TrimSpace(input.Name)
		updates["name"] = hook.Name
	}
	if strings.TrimSpace(input.URL) != "" {
		if err := validateWebhookURL(input.URL); err != nil {
			return nil, err
		}
		hook.URL = strings.TrimSpace(input.URL)
		updates["url"] = hook.URL
	}
	if input.Events != nil {
		events, err := marshalEvents(input.Events)
		if err != nil {
			return nil, err
		}
		hook.Events = events
		updates["events"] = events
	}
	if input.Active != nil {
		hook.Active = *input.Active
		updates["active"] = hook.Active
		// Re-enabling clears the circuit.
		if hook.Active {
			hook.FailureCount = 0
			hook.DisabledAt = nil
			updates["failure_count"] = 0
			updates["disabled_at"] = nil
		}
	}
	if len(updates) == 0 {
		return hook, nil
	}
	if err := ws.webhookRepo.UpdateFields(ctx, nil, hook.ID, updates); err != nil {
		return nil, fmt.Errorf("Failed to update webhook: %w", err)
	}
	return hook, nil
}

func (ws *webhookService) Delete(ctx context.Context, webhookID uuid.UUID) error {
	if _, err := ws.getOrNotFound(ctx, webhookID); err != nil {
		return err
	}
	if err := ws.webhookRepo.Delete(ctx, nil, webhookID); err != nil {
		return fmt.Errorf("Failed to delete webhook: %w", err)
	}
	return nil
}

func (ws *webhookService) Test(ctx context.Context, webhookID uuid.UUID) (*TestResult, error) {
	hook, err := ws.getOrNotFound(ctx, webhookID)
	if err != nil {
		return nil, err
	}
	ev := notifier.NewEvent(notifier.EventWebhookTest, uuid.Nil, map[string]interface{}{
		"webhook_id": hook.ID.String(),
		"message":    "test delivery",
	})
	status, deliverErr := ws.dispatcher.DeliverOnce(ctx, hook, ev, 1)
	result := &TestResult{Success: deliverErr == nil, StatusCode: status}
	if deliverErr != nil {
		result.Error = deliverErr.Error()
	}
	return result, nil
}

func (ws *webhookService) Deliveries(ctx context.Context, webhookID uuid.UUID, limit int) ([]*types.WebhookDelivery, error) {
	if _, err := ws.getOrNotFound(ctx, webhookID); err != nil {
		return nil, err
	}
	deliveries, err := ws.deliveryRepo.ListByWebhookID(ctx, nil, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("Failed to list webhook deliveries: %w", err)
	}
	return deliveries, nil
}

func (ws *webhookService) getOrNotFound(ctx context.Context, webhookID uuid.UUID) (*types.Webhook, error) {
	hook, err := ws.webhookRepo.GetByID(ctx, nil, webhookID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch webhook: %w", err)
	}
	if hook == nil {
		return nil, apierr.NotFound("webhook %s not found", webhookID)
	}
	return hook, nil
}

func validateWebhookURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apierr.Validation("webhook url must be a valid http(s) endpoint")
	}
	return nil
}

func marshalEvents(events []string) (datatypes.JSON, error) {
	if len(events) == 0 {
		return nil, nil
	}
	known := map[string]struct{}{
		notifier.EventProductSubmitted:         {},
		notifier.EventProductApproved:          {},
		notifier.EventProductRejected:          {},
		notifier.EventProductChangesRequested:  {},
		notifier.EventProductSupplierRequested: {},
		notifier.EventReportGenerated:          {},
		notifier.EventWebhookTest:              {},
		"*":                                    {},
	}
	for _, e := range events {
		if _, ok := known[e]; !ok {
			return nil, apierr.Validation("unknown event %q", e)
		}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal events: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func newSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}
