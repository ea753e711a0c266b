package app

import (
	"github.com/gin-gonic/gin"

	"github.com/traceleaf/dpp-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:         cfg.ServiceName,
		AllowedOrigins:      cfg.AllowedOrigins,
		AuthHandler:         h.Auth,
		AuthMiddleware:      mw.Auth,
		ProductHandler:      h.Product,
		VerificationHandler: h.Verification,
		WebhookHandler:      h.Webhook,
		ReportHandler:       h.Report,
		TeamHandler:         h.Team,
	})
}
