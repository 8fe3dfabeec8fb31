package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Sitemap/internal/api/models"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/go-chi/chi/v5"
)

// ProjectHandler handles project endpoints and the per-project item tree
type ProjectHandler struct {
	BaseHandler
	sm *sdk.Sitemap
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(sm *sdk.Sitemap) *ProjectHandler {
	return &ProjectHandler{sm: sm}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, req *http.Request) {
	projects, err := h.sm.ListProjects(req.Context())
	if err != nil {
		h.handleError(w, req, "List projects", err)
		return
	}
	h.sendSuccess(w, "Projects retrieved successfully", projects)
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, req *http.Request) {
	var body models.CreateProjectRequest
	if !h.bind(w, req, "Create project", models.CreateProjectSchema, &body) {
		return
	}
	project, err := h.sm.CreateProject(req.Context(), body.Name, body.Description)
	if err != nil {
		h.handleError(w, req, "Create project", err)
		return
	}
	h.sendCreated(w, "Project created successfully", project)
}

// GetProject handles GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, req *http.Request) {
	project, err := h.sm.GetProject(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "Get project", err)
		return
	}
	h.sendSuccess(w, "Project retrieved successfully", project)
}

// UpdateProject handles PATCH /api/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, req *http.Request) {
	var body models.UpdateProjectRequest
	if !h.bind(w, req, "Update project", models.UpdateProjectSchema, &body) {
		return
	}
	project, err := h.sm.UpdateProject(req.Context(), chi.URLParam(req, "id"), sdk.ProjectPatch{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		h.handleError(w, req, "Update project", err)
		return
	}
	h.sendSuccess(w, "Project updated successfully", project)
}

// DeleteProject handles DELETE /api/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, req *http.Request) {
	if err := h.sm.DeleteProject(req.Context(), chi.URLParam(req, "id")); err != nil {
		h.handleError(w, req, "Delete project", err)
		return
	}
	h.sendNoContent(w)
}

// GetItems handles GET /api/projects/{id}/items. The default view is the
// nested tree; view=flat returns pre-order rows with depth (visible=true
// skips the contents of closed folders) and view=children lists the direct
// children of parent_id.
func (h *ProjectHandler) GetItems(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	projectID := chi.URLParam(req, "id")
	q := req.URL.Query()

	switch view := q.Get("view"); view {
	case "", "tree":
		nodes, err := h.sm.GetTree(ctx, projectID)
		if err != nil {
			h.handleError(w, req, "Get tree", err)
			return
		}
		h.sendSuccess(w, "Tree retrieved successfully", nodes)

	case "flat":
		rows, err := h.sm.GetFlat(ctx, projectID, q.Get("visible") == "true")
		if err != nil {
			h.handleError(w, req, "Get tree", err)
			return
		}
		h.sendSuccess(w, "Tree retrieved successfully", rows)

	case "children":
		items, err := h.sm.ListChildren(ctx, projectID, q.Get("parent_id"))
		if err != nil {
			h.handleError(w, req, "List children", err)
			return
		}
		h.sendSuccess(w, "Children retrieved successfully", items)

	default:
		h.sendError(w, http.StatusBadRequest, "Get tree: unknown view "+view)
	}
}

// CreateItem handles POST /api/projects/{id}/items
func (h *ProjectHandler) CreateItem(w http.ResponseWriter, req *http.Request) {
	var body models.CreateItemRequest
	if !h.bind(w, req, "Create item", models.CreateItemSchema, &body) {
		return
	}
	item, err := h.sm.CreateItem(req.Context(), chi.URLParam(req, "id"), sdk.NewItem{
		ParentID: body.ParentID,
		Type:     body.Type,
		Name:     body.Name,
		URL:      body.URL,
		IsOpen:   body.IsOpen,
	})
	if err != nil {
		h.handleError(w, req, "Create item", err)
		return
	}
	h.sendCreated(w, "Item created successfully", item)
}
