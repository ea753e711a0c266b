package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/services"
)

type ReportHandler struct {
	log           *logger.Logger
	reportService services.ReportService
}

func NewReportHandler(log *logger.Logger, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{
		log:           log.With("handler", "ReportHandler"),
		reportService: reportService,
	}
}

func (h *ReportHandler) Generate(c *gin.Context) {
	var req struct {
		ProductID uuid.UUID `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	report, err := h.reportService.Generate(c.Request.Context(), req.ProductID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, report)
}

func (h *ReportHandler) Get(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	report, err := h.reportService.GetByID(c.Request.Context(), reportID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, report)
}

func (h *ReportHandler) List(c *gin.Context) {
	var productID uuid.UUID
	if raw := c.Query("product_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation_error", err)
			return
		}
		productID = parsed
	}
	reports, err := h.reportService.List(c.Request.Context(), productID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"reports": reports})
}
