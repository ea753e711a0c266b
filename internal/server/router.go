package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/handlers"
	"github.com/traceleaf/dpp-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName         string
	AllowedOrigins      []string
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	ProductHandler      *handlers.ProductHandler
	VerificationHandler *handlers.VerificationHandler
	WebhookHandler      *handlers.WebhookHandler
	ReportHandler       *handlers.ReportHandler
	TeamHandler         *handlers.TeamHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)
	router.POST("/logout", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Logout)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Products and passports
	api.POST("/products", cfg.ProductHandler.Create)
	api.GET("/products", cfg.ProductHandler.List)
	api.GET("/products/:id", cfg.ProductHandler.Get)
	api.PUT("/products/:id", cfg.ProductHandler.Update)
	api.GET("/products/:id/passport-link", cfg.ProductHandler.PassportLink)
	api.POST("/products/:id/documents", cfg.ProductHandler.AttachDocument)
	api.GET("/products/:id/documents", cfg.ProductHandler.ListDocuments)

	// Verification flow. Role checks inside the service gate each transition;
	// the route-level guards just keep obviously wrong callers out early.
	api.POST("/products/:id/submit", cfg.VerificationHandler.Submit)
	api.POST("/products/:id/verify", cfg.AuthMiddleware.RequireRole(dpp.RoleVerifier, dpp.RoleAdmin), cfg.VerificationHandler.Verify)
	api.POST("/products/:id/request-supplier-data", cfg.VerificationHandler.RequestSupplierData)
	api.GET("/products/:id/verification-log", cfg.VerificationHandler.Log)

	// Webhooks
	api.POST("/webhooks", cfg.WebhookHandler.Create)
	api.GET("/webhooks", cfg.WebhookHandler.List)
	api.PUT("/webhooks/:id", cfg.WebhookHandler.Update)
	api.PATCH("/webhooks/:id", cfg.WebhookHandler.Update)
	api.DELETE("/webhooks/:id", cfg.WebhookHandler.Delete)
	api.POST("/webhooks/:id/test", cfg.WebhookHandler.Test)
	api.GET("/webhooks/:id/deliveries", cfg.WebhookHandler.Deliveries)

	// Compliance reports
	api.POST("/reports", cfg.ReportHandler.Generate)
	api.GET("/reports", cfg.ReportHandler.List)
	api.GET("/reports/:id", cfg.ReportHandler.Get)

	// Team
	api.GET("/team", cfg.TeamHandler.List)
	api.PATCH("/team/:id/role", cfg.AuthMiddleware.RequireRole(dpp.RoleAdmin), cfg.TeamHandler.UpdateRole)

	return router
}
