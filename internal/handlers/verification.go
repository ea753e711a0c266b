package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/services"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type VerificationHandler struct {
	log                 *logger.Logger
	verificationService services.VerificationService
}

func NewVerificationHandler(log *logger.Logger, verificationService services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		log:                 log.With("handler", "VerificationHandler"),
		verificationService: verificationService,
	}
}

func (h *VerificationHandler) Submit(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	product, err := h.verificationService.SubmitForVerification(c.Request.Context(), productID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, product)
}

func (h *VerificationHandler) Verify(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	product, err := h.verificationService.ProcessDecision(c.Request.Context(), productID, dpp.Action(req.Decision), req.Notes)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, product)
}

func (h *VerificationHandler) RequestSupplierData(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	// Body is optional here.
	_ = c.ShouldBindJSON(&req)
	product, err := h.verificationService.RequestSupplierData(c.Request.Context(), productID, req.Notes)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, product)
}

// Log returns the audit trail, newest first by default. Pass order=asc for
// chronological order.
func (h *VerificationHandler) Log(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	entries, err := h.verificationService.GetLog(c.Request.Context(), productID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if c.DefaultQuery("order", "desc") == "desc" {
		reversed := make([]*types.VerificationEntry, len(entries))
		for i, e := range entries {
			reversed[len(entries)-1-i] = e
		}
		entries = reversed
	}
	RespondOK(c, gin.H{"entries": entries})
}
