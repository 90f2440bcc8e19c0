package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/handler"
)

// TaskRouter rate limits every task route per user.
func TaskRouter(rg *gin.RouterGroup, h *handler.TaskHandler, rateLimit gin.HandlerFunc) {
	rg.Use(rateLimit)
	{
		rg.GET("", h.List)
		rg.POST("", h.Create)
		rg.PATCH("/:task_id", h.Update)
		rg.POST("/:task_id/toggle", h.Toggle)
		rg.PUT("/:task_id/assignee", h.Assign)
		rg.DELETE("/:task_id", h.Delete)
	}
}
