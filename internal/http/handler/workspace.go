package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/dto"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	"github.com/Falcon-J/saathi/internal/realtime"
	"github.com/Falcon-J/saathi/internal/service"
)

type WorkspaceHandler struct {
	workspaces service.WorkspaceService
	realtime   *realtime.Service
}

func NewWorkspaceHandler(workspaces service.WorkspaceService, rt *realtime.Service) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, realtime: rt}
}

func (h *WorkspaceHandler) List(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	workspaces, err := h.workspaces.ListForUser(c.Request.Context(), session.Email)
	if err != nil {
		respondError(c, err, "failed to list workspaces")
		return
	}
	c.JSON(http.StatusOK, dto.WorkspaceListResponse{Workspaces: workspaces})
}

func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: name is required"})
		return
	}

	ws, err := h.workspaces.Create(c.Request.Context(), middleware.GetSession(c.Request.Context()), req.Name)
	if err != nil {
		respondError(c, err, "failed to create workspace")
		return
	}
	c.JSON(http.StatusCreated, ws)
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	ws, err := h.workspaces.Get(c.Request.Context(), c.Param("workspace_id"), session.Email)
	if err != nil {
		respondError(c, err, "failed to get workspace")
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkspaceHandler) Rename(c *gin.Context) {
	var req dto.RenameWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: name is required"})
		return
	}
	session := middleware.GetSession(c.Request.Context())

	ws, err := h.workspaces.Rename(c.Request.Context(), c.Param("workspace_id"), session.Email, req.Name)
	if err != nil {
		respondError(c, err, "failed to rename workspace")
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkspaceHandler) Delete(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	if err := h.workspaces.Delete(c.Request.Context(), c.Param("workspace_id"), session.Email); err != nil {
		respondError(c, err, "failed to delete workspace")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: email is required"})
		return
	}
	session := middleware.GetSession(c.Request.Context())

	ws, err := h.workspaces.AddMember(c.Request.Context(), c.Param("workspace_id"), session.Email, req.Email)
	if err != nil {
		respondError(c, err, "failed to add member")
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	ws, err := h.workspaces.RemoveMember(c.Request.Context(), c.Param("workspace_id"), session.Email, c.Param("email"))
	if err != nil {
		respondError(c, err, "failed to remove member")
		return
	}
	c.JSON(http.StatusOK, ws)
}

// ActiveUsers reports who is currently streaming the workspace.
func (h *WorkspaceHandler) ActiveUsers(c *gin.Context) {
	ctx := c.Request.Context()
	session := middleware.GetSession(ctx)
	workspaceID := c.Param("workspace_id")

	if _, err := h.workspaces.RequireMember(ctx, workspaceID, session.Email); err != nil {
		respondError(c, err, "failed to list active users")
		return
	}

	users, err := h.realtime.ActiveUsers(ctx, workspaceID)
	if err != nil {
		respondError(c, err, "failed to list active users")
		return
	}
	c.JSON(http.StatusOK, dto.ActiveUsersResponse{WorkspaceID: workspaceID, ActiveUsers: users})
}
