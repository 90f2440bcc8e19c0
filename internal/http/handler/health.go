package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/store"
)

type StatusReporter interface {
	Status() store.Status
}

type HealthHandler struct {
	kv StatusReporter
}

func NewHealthHandler(kv StatusReporter) *HealthHandler {
	return &HealthHandler{kv: kv}
}

// Health reports "degraded" while the service runs on the in-memory store.
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.kv.Status()

	overall := "ok"
	if status.Backend != store.BackendRedis || !status.Connected {
		overall = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": overall, "kv": status})
}
