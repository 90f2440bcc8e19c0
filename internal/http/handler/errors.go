package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/service"
)

// statusFor maps service errors to HTTP status codes. Unknown errors are
// internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrEmailMismatch),
		errors.Is(err, service.ErrCannotRemoveOwner),
		errors.Is(err, service.ErrCannotInviteSelf):
		return http.StatusForbidden
	case errors.Is(err, service.ErrWorkspaceNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrInviteNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrInvitePendingExists),
		errors.Is(err, service.ErrInviteNotPending):
		return http.StatusConflict
	case errors.Is(err, service.ErrInviteExpired):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are
// logged and replaced by fallback so store details never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), fallback, "error", err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
