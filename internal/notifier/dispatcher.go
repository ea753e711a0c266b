package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/types"
)

const (
	headerEvent     = "X-DPP-Event"
	headerDelivery  = "X-DPP-Delivery"
	headerSignature = "X-DPP-Signature"
)

type DispatcherConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	RequestTimeout time.Duration
	// DisableAfter is the consecutive-failure threshold that trips an
	// endpoint's circuit. Zero disables the circuit.
	DisableAfter int
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	return c
}

// Dispatcher drains the event queue and POSTs each event to every active
// endpoint subscribed to it. Delivery attempts are recorded; repeated failure
// disables the endpoint.
type Dispatcher struct {
	log          *logger.Logger
	queue        Queue
	webhookRepo  repos.WebhookRepo
	deliveryRepo repos.WebhookDeliveryRepo
	client       *http.Client
	cfg          DispatcherConfig
	done         chan struct{}
}

func NewDispatcher(
	baseLog *logger.Logger,
	queue Queue,
	webhookRepo repos.WebhookRepo,
	deliveryRepo repos.WebhookDeliveryRepo,
	cfg DispatcherConfig,
) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		log:          baseLog.With("service", "WebhookDispatcher"),
		queue:        queue,
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		client:       &http.Client{Timeout: cfg.RequestTimeout},
		cfg:          cfg,
		done:         make(chan struct{}),
	}
}

// Start runs the dispatch loop until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		d.log.Info("Webhook dispatcher started")
		for {
			select {
			case <-ctx.Done():
				d.log.Info("Webhook dispatcher stopped")
				return
			default:
			}
			ev, err := d.queue.Pop(ctx)
			if err != nil {
				if ctx.Err() != nil {
					d.log.Info("Webhook dispatcher stopped")
					return
				}
				d.log.Warn("Failed to pop event from queue", "error", err)
				continue
			}
			if ev == nil {
				continue
			}
			d.Process(ctx, *ev)
		}
	}()
}

// Wait blocks until the dispatch loop has exited.
func (d *Dispatcher) Wait() {
	<-d.done
}

// Process fans one event out to every subscribed active endpoint.
func (d *Dispatcher) Process(ctx context.Context, ev Event) {
	hooks, err := d.webhookRepo.ListActive(ctx, nil)
	if err != nil {
		d.log.Error("Failed to list active webhooks", "error", err, "event", ev.Name)
		return
	}
	for _, hook := range hooks {
		if hook == nil || !subscribed(hook, ev.Name) {
			continue
		}
		if err := d.deliverWithRetry(ctx, hook, ev); err != nil {
			d.log.Warn("Webhook delivery failed", "webhook_id", hook.ID, "event", ev.Name, "error", err)
		}
	}
}

func subscribed(hook *types.Webhook, event string) bool {
	if len(hook.Events) == 0 {
		return true
	}
	var events []string
	if err := json.Unmarshal(hook.Events, &events); err != nil {
		return false
	}
	for _, e := range events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, hook *types.Webhook, ev Event) error {
	var lastErr error
	backoff := d.cfg.InitialBackoff
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		status, err := d.DeliverOnce(ctx, hook, ev, attempt)
		if err == nil {
			if rErr := d.webhookRepo.ResetFailures(ctx, nil, hook.ID); rErr != nil {
				d.log.Warn("Failed to reset webhook failure count", "webhook_id", hook.ID, "error", rErr)
			}
			return nil
		}
		lastErr = fmt.Errorf("attempt %d (status %d): %w", attempt, status, err)
		if attempt < d.cfg.MaxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	if fErr := d.webhookRepo.RecordFailure(ctx, nil, hook.ID, d.cfg.DisableAfter); fErr != nil {
		d.log.Warn("Failed to record webhook failure", "webhook_id", hook.ID, "error", fErr)
	}
	return lastErr
}

// DeliverOnce performs a single signed POST and records the outcome. It is
// exported so the webhook test endpoint can exercise an endpoint directly.
func (d *Dispatcher) DeliverOnce(ctx context.Context, hook *types.Webhook, ev Event, attempt int) (int, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		d.record(ctx, hook, ev, attempt, 0, false, err.Error(), body)
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerEvent, ev.Name)
	req.Header.Set(headerDelivery, uuid.New().String())
	req.Header.Set(headerSignature, Sign(hook.Secret, body))

	res, err := d.client.Do(req)
	if err != nil {
		d.record(ctx, hook, ev, attempt, 0, false, err.Error(), body)
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		deliveryErr := fmt.Errorf("endpoint returned %d", res.StatusCode)
		d.record(ctx, hook, ev, attempt, res.StatusCode, false, deliveryErr.Error(), body)
		return res.StatusCode, deliveryErr
	}
	d.record(ctx, hook, ev, attempt, res.StatusCode, true, "", body)
	return res.StatusCode, nil
}

func (d *Dispatcher) record(ctx context.Context, hook *types.Webhook, ev Event, attempt, status int, success bool, errMsg string, body []byte) {
	delivery := &types.WebhookDelivery{
		ID:         uuid.New(),
		WebhookID:  hook.ID,
		Event:      ev.Name,
		Payload:    datatypes.JSON(body),
		Attempt:    attempt,
		StatusCode: status,
		Success:    success,
		Error:      errMsg,
		CreatedAt:  time.Now(),
	}
	if _, err := d.deliveryRepo.Create(ctx, nil, []*types.WebhookDelivery{delivery}); err != nil {
		d.log.Warn("Failed to record webhook delivery", "webhook_id", hook.ID, "error", err)
	}
}

// Sign computes the hex HMAC-SHA256 of the request body under the endpoint's
// shared secret. Receivers recompute it to authenticate the caller.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
