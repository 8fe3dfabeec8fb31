package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Sitemap/internal/api/models"
	"github.com/Project-Sylos/Sitemap/internal/config"
	"github.com/Project-Sylos/Sitemap/sdk"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	BaseHandler
	sm      *sdk.Sitemap
	version string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(sm *sdk.Sitemap, version string) *SystemHandler {
	return &SystemHandler{sm: sm, version: version}
}

// GetStats handles GET /api/system/stats
func (h *SystemHandler) GetStats(w http.ResponseWriter, req *http.Request) {
	tables, err := h.sm.GetTableInfo(req.Context())
	if err != nil {
		h.handleError(w, req, "Get stats", err)
		return
	}

	h.sendSuccess(w, "Stats retrieved successfully", map[string]any{
		"tables": tables,
		"cache":  h.sm.CacheStats(),
	})
}

// GetConfig handles GET /api/system/config. Credentials are masked.
func (h *SystemHandler) GetConfig(w http.ResponseWriter, req *http.Request) {
	cfg := h.sm.GetConfig()
	if cfg == nil {
		h.sendError(w, http.StatusNotFound, "Get config: not found")
		return
	}

	redacted := *cfg
	if redacted.Artifacts.SecretKey != "" {
		redacted.Artifacts.SecretKey = "********"
	}
	if redacted.Cache.RedisURL != "" {
		redacted.Cache.RedisURL = "********"
	}
	if redacted.Database.Driver == config.DriverPostgres {
		redacted.Database.DSN = "********"
	}
	h.sendSuccess(w, "Config retrieved successfully", redacted)
}

// Reset handles POST /api/system/reset
func (h *SystemHandler) Reset(w http.ResponseWriter, req *http.Request) {
	if err := h.sm.Reset(req.Context()); err != nil {
		h.handleError(w, req, "Reset", err)
		return
	}

	h.sendSuccess(w, "Database reset successfully", nil)
}

// Seed handles POST /api/system/seed, generating a demo project. An empty
// body uses the defaults.
func (h *SystemHandler) Seed(w http.ResponseWriter, req *http.Request) {
	cfg := sdk.DefaultSeedConfig()
	if req.ContentLength != 0 {
		var body models.SeedRequest
		if !h.bind(w, req, "Seed", models.SeedSchema, &body) {
			return
		}
		if body.Seed != nil {
			cfg.Seed = *body.Seed
		}
		if body.ProjectName != nil {
			cfg.ProjectName = *body.ProjectName
		}
		if body.MaxDepth != nil {
			cfg.MaxDepth = *body.MaxDepth
		}
		if body.WithArtifacts != nil {
			cfg.WithArtifacts = *body.WithArtifacts
		}
	}

	project, err := h.sm.Seed(req.Context(), cfg)
	if err != nil {
		h.handleError(w, req, "Seed", err)
		return
	}
	h.sendCreated(w, "Demo project seeded successfully", project)
}

// OpenAPI handles GET /api/openapi.json
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, req *http.Request) {
	h.sendJSON(w, http.StatusOK, models.Document(h.version))
}
