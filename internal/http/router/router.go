package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/common/metrics"
	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/http/handler"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	"github.com/Falcon-J/saathi/internal/realtime"
	"github.com/Falcon-J/saathi/internal/service"
)

type RouterConfig struct {
	Session   config.SessionConfig
	RateLimit config.RateLimitConfig
}

func SetupRoutes(
	router *gin.Engine,
	services *service.Services,
	rt *realtime.Service,
	kv handler.StatusReporter,
	cfg RouterConfig,
) {
	healthHandler := handler.NewHealthHandler(kv)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.RequireAuth(services.Auth())

	authHandler := handler.NewAuthHandler(services.Auth(), cfg.Session)
	AuthRouter(router.Group("/auth"), authHandler, requireAuth)

	realtimeHandler := handler.NewRealtimeHandler(services.Workspaces(), rt)
	RealtimeRouter(router, realtimeHandler, requireAuth)

	v1 := router.Group("/api/v1")
	v1.Use(requireAuth)
	{
		workspaceHandler := handler.NewWorkspaceHandler(services.Workspaces(), rt)
		workspaces := v1.Group("/workspaces")
		WorkspaceRouter(workspaces, workspaceHandler)

		taskHandler := handler.NewTaskHandler(services.Tasks())
		TaskRouter(workspaces.Group("/:workspace_id/tasks"), taskHandler, middleware.RateLimit(cfg.RateLimit))

		invitationHandler := handler.NewInvitationHandler(services.Invitations())
		InvitationRouter(v1.Group("/invitations"), workspaces.Group("/:workspace_id/invitations"), invitationHandler)
	}
}
