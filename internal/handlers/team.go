package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/services"
)

type TeamHandler struct {
	log         *logger.Logger
	teamService services.TeamService
}

func NewTeamHandler(log *logger.Logger, teamService services.TeamService) *TeamHandler {
	return &TeamHandler{
		log:         log.With("handler", "TeamHandler"),
		teamService: teamService,
	}
}

func (h *TeamHandler) List(c *gin.Context) {
	members, err := h.teamService.ListMembers(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"members": members})
}

func (h *TeamHandler) UpdateRole(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	member, err := h.teamService.UpdateRole(c.Request.Context(), memberID, req.Role)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, member)
}
