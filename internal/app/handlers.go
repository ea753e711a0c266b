package app

import (
	"github.com/traceleaf/dpp-backend/internal/handlers"
	"github.com/traceleaf/dpp-backend/internal/logger"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Product      *handlers.ProductHandler
	Verification *handlers.VerificationHandler
	Webhook      *handlers.WebhookHandler
	Report       *handlers.ReportHandler
	Team         *handlers.TeamHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:         handlers.NewAuthHandler(s.Auth),
		Product:      handlers.NewProductHandler(log, s.Product),
		Verification: handlers.NewVerificationHandler(log, s.Verification),
		Webhook:      handlers.NewWebhookHandler(log, s.Webhook),
		Report:       handlers.NewReportHandler(log, s.Report),
		Team:         handlers.NewTeamHandler(log, s.Team),
	}
}
