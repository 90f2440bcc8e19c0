package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/handler"
)

// InvitationRouter sets up invitation routes
// - /invitations/* act on the caller's own invitations
// - /workspaces/:workspace_id/invitations sends one (owner only)
func InvitationRouter(rg *gin.RouterGroup, workspaceRg *gin.RouterGroup, h *handler.InvitationHandler) {
	rg.GET("", h.List)
	rg.POST("/:invitation_id/accept", h.Accept)
	rg.POST("/:invitation_id/decline", h.Decline)

	workspaceRg.POST("", h.Send)
}
