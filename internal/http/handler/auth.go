package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/http/dto"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	"github.com/Falcon-J/saathi/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	cfg         config.SessionConfig
}

func NewAuthHandler(authService service.AuthService, cfg config.SessionConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: email, username and password are required"})
		return
	}

	_, session, err := h.authService.Signup(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, err, "signup failed")
		return
	}

	middleware.SetSessionCookie(c, session, h.maxAge(), h.cfg.SecureCookie)
	c.JSON(http.StatusCreated, dto.ToSessionResponse(session))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: email and password are required"})
		return
	}

	_, session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "login failed")
		return
	}

	middleware.SetSessionCookie(c, session, h.maxAge(), h.cfg.SecureCookie)
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// Logout always clears the cookie, even when the session is already gone.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.SessionCookieName); err == nil && sessionID != "" {
		if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
			respondError(c, err, "logout failed")
			return
		}
	}

	middleware.ClearSessionCookie(c, h.cfg.SecureCookie)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

func (h *AuthHandler) maxAge() int {
	return int(h.cfg.TTL.Seconds())
}
