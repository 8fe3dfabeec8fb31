package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Sitemap/sdk"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	BaseHandler
	sm      *sdk.Sitemap
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sm *sdk.Sitemap, version string) *HealthHandler {
	return &HealthHandler{sm: sm, version: version}
}

// HealthCheck reports whether the database answers
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, req *http.Request) {
	if err := h.sm.Ping(req.Context()); err != nil {
		h.sendError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	h.sendSuccess(w, "Sitemap API is healthy", map[string]string{"version": h.version})
}
