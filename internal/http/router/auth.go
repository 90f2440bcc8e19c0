package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler, requireAuth gin.HandlerFunc) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", requireAuth, h.Me)
}
