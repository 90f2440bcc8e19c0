package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/handler"
)

func RealtimeRouter(router *gin.Engine, h *handler.RealtimeHandler, requireAuth gin.HandlerFunc) {
	router.GET("/api/realtime", requireAuth, h.Stream)
	router.GET("/api/realtime/ws", requireAuth, h.StreamWS)
	router.GET("/api/realtime/schema", h.Schema)
	router.GET("/tasks/stream", h.LegacyStream)
}
