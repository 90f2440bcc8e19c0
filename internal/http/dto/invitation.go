package dto

import "github.com/Falcon-J/saathi/internal/model"

type SendInvitationRequest struct {
	Email string `json:"email" binding:"required"`
}

type InvitationListResponse struct {
	Invitations []model.Invitation `json:"invitations"`
}
