package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/handler"
)

func WorkspaceRouter(rg *gin.RouterGroup, h *handler.WorkspaceHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:workspace_id", h.Get)
	rg.PATCH("/:workspace_id", h.Rename)
	rg.DELETE("/:workspace_id", h.Delete)
	rg.POST("/:workspace_id/members", h.AddMember)
	rg.DELETE("/:workspace_id/members/:email", h.RemoveMember)
	rg.GET("/:workspace_id/presence", h.ActiveUsers)
}
