package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/notifier"
	"github.com/traceleaf/dpp-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Product      services.ProductService
	Verification services.VerificationService
	Webhook      services.WebhookService
	Report       services.ReportService
	Team         services.TeamService
	Queue        notifier.Queue
	Dispatcher   *notifier.Dispatcher
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	queue, err := wireQueue(log, cfg.Webhooks)
	if err != nil {
		return Services{}, err
	}
	dispatcher := notifier.NewDispatcher(log, queue, r.Webhook, r.WebhookDelivery, notifier.DispatcherConfig{
		MaxAttempts:    cfg.Webhooks.MaxAttempts,
		InitialBackoff: cfg.Webhooks.InitialBackoff,
		RequestTimeout: cfg.Webhooks.RequestTimeout,
		DisableAfter:   cfg.Webhooks.DisableAfter,
	})

	return Services{
		Auth:         services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Product:      services.NewProductService(db, log, r.Product, r.Document),
		Verification: services.NewVerificationService(db, log, r.Product, r.VerificationLog, queue),
		Webhook:      services.NewWebhookService(db, log, r.Webhook, r.WebhookDelivery, dispatcher),
		Report:       services.NewReportService(db, log, r.Product, r.VerificationLog, r.Document, r.Report, queue),
		Team:         services.NewTeamService(db, log, r.User),
		Queue:        queue,
		Dispatcher:   dispatcher,
	}, nil
}

func wireQueue(log *logger.Logger, cfg WebhookConfig) (notifier.Queue, error) {
	switch cfg.QueueMode {
	case "redis":
		queue, err := notifier.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QueueKey, log)
		if err != nil {
			return nil, fmt.Errorf("init redis queue: %w", err)
		}
		return queue, nil
	case "memory":
		return notifier.NewMemoryQueue(256), nil
	default:
		return nil, fmt.Errorf("unknown webhook queue mode %q", cfg.QueueMode)
	}
}
