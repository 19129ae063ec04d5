package handlers

import (
	"net/http"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
)

// HealthHandler handles the liveness endpoint
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthCheck reports liveness plus the wire protocol version the
// plugin checks for compatibility.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   ProtocolVersion,
		Timestamp: time.Now().UTC(),
	})
}
