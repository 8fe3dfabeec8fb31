package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Sitemap/internal/api/models"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/go-chi/chi/v5"
)

// MarkerHandler handles markers and their history
type MarkerHandler struct {
	BaseHandler
	sm *sdk.Sitemap
}

// NewMarkerHandler creates a new marker handler
func NewMarkerHandler(sm *sdk.Sitemap) *MarkerHandler {
	return &MarkerHandler{sm: sm}
}

// ListMarkers handles GET /api/items/{id}/markers
func (h *MarkerHandler) ListMarkers(w http.ResponseWriter, req *http.Request) {
	markers, err := h.sm.ListMarkers(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "List markers", err)
		return
	}
	h.sendSuccess(w, "Markers retrieved successfully", markers)
}

// CreateMarker handles POST /api/items/{id}/markers
func (h *MarkerHandler) CreateMarker(w http.ResponseWriter, req *http.Request) {
	var body models.CreateMarkerRequest
	if !h.bind(w, req, "Create marker", models.CreateMarkerSchema, &body) {
		return
	}
	marker, err := h.sm.CreateMarker(req.Context(), chi.URLParam(req, "id"), sdk.NewMarker{
		X:       body.X,
		Y:       body.Y,
		Label:   body.Label,
		Content: body.Content,
		Color:   body.Color,
	})
	if err != nil {
		h.handleError(w, req, "Create marker", err)
		return
	}
	h.sendCreated(w, "Marker created successfully", marker)
}

// GetMarker handles GET /api/markers/{id}
func (h *MarkerHandler) GetMarker(w http.ResponseWriter, req *http.Request) {
	marker, err := h.sm.GetMarker(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "Get marker", err)
		return
	}
	h.sendSuccess(w, "Marker retrieved successfully", marker)
}

// UpdateMarker handles PATCH /api/markers/{id}
func (h *MarkerHandler) UpdateMarker(w http.ResponseWriter, req *http.Request) {
	var body models.UpdateMarkerRequest
	if !h.bind(w, req, "Update marker", models.UpdateMarkerSchema, &body) {
		return
	}
	marker, err := h.sm.UpdateMarker(req.Context(), chi.URLParam(req, "id"), sdk.MarkerPatch{
		X:       body.X,
		Y:       body.Y,
		Label:   body.Label,
		Content: body.Content,
		Color:   body.Color,
		Status:  body.Status,
	})
	if err != nil {
		h.handleError(w, req, "Update marker", err)
		return
	}
	h.sendSuccess(w, "Marker updated successfully", marker)
}

// DeleteMarker handles DELETE /api/markers/{id}
func (h *MarkerHandler) DeleteMarker(w http.ResponseWriter, req *http.Request) {
	if err := h.sm.DeleteMarker(req.Context(), chi.URLParam(req, "id")); err != nil {
		h.handleError(w, req, "Delete marker", err)
		return
	}
	h.sendNoContent(w)
}

// ListHistory handles GET /api/markers/{id}/history
func (h *MarkerHandler) ListHistory(w http.ResponseWriter, req *http.Request) {
	history, err := h.sm.ListHistory(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "List history", err)
		return
	}
	h.sendSuccess(w, "History retrieved successfully", history)
}

// AddComment handles POST /api/markers/{id}/history
func (h *MarkerHandler) AddComment(w http.ResponseWriter, req *http.Request) {
	var body models.CommentRequest
	if !h.bind(w, req, "Add comment", models.CommentSchema, &body) {
		return
	}
	entry, err := h.sm.AddComment(req.Context(), chi.URLParam(req, "id"), body.Content)
	if err != nil {
		h.handleError(w, req, "Add comment", err)
		return
	}
	h.sendCreated(w, "Comment added successfully", entry)
}
