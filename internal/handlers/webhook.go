package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/services"
)

type WebhookHandler struct {
	log            *logger.Logger
	webhookService services.WebhookService
}

func NewWebhookHandler(log *logger.Logger, webhookService services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		log:            log.With("handler", "WebhookHandler"),
		webhookService: webhookService,
	}
}

func (h *WebhookHandler) Create(c *gin.Context) {
	var req services.WebhookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	hook, err := h.webhookService.Create(c.Request.Context(), req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	// The signing secret is only ever shown once, at creation.
	RespondCreated(c, gin.H{"webhook": hook, "secret": hook.Secret})
}

func (h *WebhookHandler) List(c *gin.Context) {
	hooks, err := h.webhookService.List(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"webhooks": hooks})
}

func (h *WebhookHandler) Update(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req services.WebhookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	hook, err := h.webhookService.Update(c.Request.Context(), webhookID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, hook)
}

func (h *WebhookHandler) Delete(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.webhookService.Delete(c.Request.Context(), webhookID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *WebhookHandler) Test(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	result, err := h.webhookService.Test(c.Request.Context(), webhookID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *WebhookHandler) Deliveries(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	deliveries, err := h.webhookService.Deliveries(c.Request.Context(), webhookID, limit)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deliveries": deliveries})
}
