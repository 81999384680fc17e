package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check and service-info endpoints.
type HealthHandler struct {
	logger    *slog.Logger
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ServiceInfo responds with service identity and uptime.
// GET /
func (h *HealthHandler) ServiceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        "oddsradar",
		"description":    "prediction market aggregation API",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
