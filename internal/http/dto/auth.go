package dto

import "github.com/Falcon-J/saathi/internal/model"

type SignupRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func ToSessionResponse(s *model.Session) SessionResponse {
	return SessionResponse{Email: s.Email, Username: s.Username}
}
