package dto

import "github.com/Falcon-J/saathi/internal/model"

type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required"`
}

type WorkspaceListResponse struct {
	Workspaces []model.Workspace `json:"workspaces"`
}

type ActiveUsersResponse struct {
	WorkspaceID string   `json:"workspaceId"`
	ActiveUsers []string `json:"activeUsers"`
}
