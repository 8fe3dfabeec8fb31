package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Project-Sylos/Sitemap/internal/api/models"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/go-chi/chi/v5"
)

// ItemHandler handles item endpoints, including artifact upload and download
type ItemHandler struct {
	BaseHandler
	sm        *sdk.Sitemap
	maxUpload int64
}

// NewItemHandler creates a new item handler. Artifact uploads larger than
// maxUpload bytes are rejected.
func NewItemHandler(sm *sdk.Sitemap, maxUpload int64) *ItemHandler {
	return &ItemHandler{sm: sm, maxUpload: maxUpload}
}

// GetItem handles GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, req *http.Request) {
	item, err := h.sm.GetItem(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "Get item", err)
		return
	}
	h.sendSuccess(w, "Item retrieved successfully", item)
}

// UpdateItem handles PATCH /api/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, req *http.Request) {
	var body models.UpdateItemRequest
	if !h.bind(w, req, "Update item", models.UpdateItemSchema, &body) {
		return
	}
	item, err := h.sm.UpdateItem(req.Context(), chi.URLParam(req, "id"), sdk.ItemPatch{
		Name:     body.Name,
		URL:      body.URL,
		IsOpen:   body.IsOpen,
		ParentID: body.ParentID,
		Position: body.Position,
	})
	if err != nil {
		h.handleError(w, req, "Update item", err)
		return
	}
	h.sendSuccess(w, "Item updated successfully", item)
}

// DeleteItem handles DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, req *http.Request) {
	if err := h.sm.DeleteItem(req.Context(), chi.URLParam(req, "id")); err != nil {
		h.handleError(w, req, "Delete item", err)
		return
	}
	h.sendNoContent(w)
}

// MoveItem handles POST /api/items/{id}/move
func (h *ItemHandler) MoveItem(w http.ResponseWriter, req *http.Request) {
	var body models.MoveItemRequest
	if !h.bind(w, req, "Move item", models.MoveItemSchema, &body) {
		return
	}
	item, err := h.sm.MoveItem(req.Context(), chi.URLParam(req, "id"), body.OverID)
	if err != nil {
		h.handleError(w, req, "Move item", err)
		return
	}
	h.sendSuccess(w, "Item moved successfully", item)
}

// ToggleItem handles POST /api/items/{id}/toggle
func (h *ItemHandler) ToggleItem(w http.ResponseWriter, req *http.Request) {
	item, err := h.sm.ToggleItem(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "Toggle item", err)
		return
	}
	h.sendSuccess(w, "Item toggled successfully", item)
}

// UploadArtifact handles PUT /api/items/{id}/artifact. The raw body is the
// content; ?name= sets the file name and Content-Type is recorded.
func (h *ItemHandler) UploadArtifact(w http.ResponseWriter, req *http.Request) {
	if req.ContentLength > h.maxUpload {
		h.sendError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Upload artifact: body exceeds %d bytes", h.maxUpload))
		return
	}
	body := http.MaxBytesReader(w, req.Body, h.maxUpload)
	defer body.Close()

	item, err := h.sm.UploadArtifact(req.Context(),
		chi.URLParam(req, "id"),
		req.URL.Query().Get("name"),
		req.Header.Get("Content-Type"),
		body,
		req.ContentLength)
	if err != nil {
		h.handleError(w, req, "Upload artifact", err)
		return
	}
	h.sendSuccess(w, "Artifact uploaded successfully", item)
}

// GetArtifact handles GET /api/items/{id}/artifact, streaming the content.
// The checksum doubles as ETag.
func (h *ItemHandler) GetArtifact(w http.ResponseWriter, req *http.Request) {
	rc, item, err := h.sm.OpenArtifact(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "Get artifact", err)
		return
	}
	defer rc.Close()

	etag := strconv.Quote(item.ArtifactChecksum)
	w.Header().Set("ETag", etag)
	if req.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", item.ArtifactType)
	w.Header().Set("Content-Length", strconv.FormatInt(item.ArtifactSize, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logger := loggerOf(req)
		logger.Warn().Err(err).Str(xlog.FieldItemID, item.ID).Msg("artifact download interrupted")
	}
}
