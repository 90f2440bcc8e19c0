package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/dto"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	"github.com/Falcon-J/saathi/internal/service"
)

type InvitationHandler struct {
	invService service.InvitationService
}

func NewInvitationHandler(invService service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invService: invService}
}

// Send invites a user to the workspace (owner only)
func (h *InvitationHandler) Send(c *gin.Context) {
	var req dto.SendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: email is required"})
		return
	}
	session := middleware.GetSession(c.Request.Context())

	inv, err := h.invService.Send(c.Request.Context(), c.Param("workspace_id"), session, req.Email)
	if err != nil {
		respondError(c, err, "failed to create invitation")
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// List returns the caller's pending invitations
func (h *InvitationHandler) List(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	invitations, err := h.invService.ListForUser(c.Request.Context(), session.Email)
	if err != nil {
		respondError(c, err, "failed to list invitations")
		return
	}
	c.JSON(http.StatusOK, dto.InvitationListResponse{Invitations: invitations})
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	ws, err := h.invService.Accept(c.Request.Context(), c.Param("invitation_id"), session)
	if err != nil {
		respondError(c, err, "failed to accept invitation")
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *InvitationHandler) Decline(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	if err := h.invService.Decline(c.Request.Context(), c.Param("invitation_id"), session.Email); err != nil {
		respondError(c, err, "failed to decline invitation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
