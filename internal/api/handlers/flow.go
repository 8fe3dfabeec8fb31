package handlers

import (
	"net/http"

	"github.com/Project-Sylos/Sitemap/internal/api/models"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/go-chi/chi/v5"
)

// FlowHandler handles flow diagram endpoints
type FlowHandler struct {
	BaseHandler
	sm *sdk.Sitemap
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(sm *sdk.Sitemap) *FlowHandler {
	return &FlowHandler{sm: sm}
}

// GetFlow handles GET /api/flows/{id}
func (h *FlowHandler) GetFlow(w http.ResponseWriter, req *http.Request) {
	flow, err := h.sm.GetFlow(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "Get flow", err)
		return
	}
	h.sendSuccess(w, "Flow retrieved successfully", flow)
}

// ListNodes handles GET /api/flows/{id}/nodes
func (h *FlowHandler) ListNodes(w http.ResponseWriter, req *http.Request) {
	nodes, err := h.sm.ListFlowNodes(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "List nodes", err)
		return
	}
	h.sendSuccess(w, "Nodes retrieved successfully", nodes)
}

// AddNode handles POST /api/flows/{id}/nodes
func (h *FlowHandler) AddNode(w http.ResponseWriter, req *http.Request) {
	var body sdk.FlowNode
	if !h.bind(w, req, "Add node", models.FlowNodeSchema, &body) {
		return
	}
	node, err := h.sm.AddFlowNode(req.Context(), chi.URLParam(req, "id"), body)
	if err != nil {
		h.handleError(w, req, "Add node", err)
		return
	}
	h.sendCreated(w, "Node added successfully", node)
}

// ListEdges handles GET /api/flows/{id}/edges
func (h *FlowHandler) ListEdges(w http.ResponseWriter, req *http.Request) {
	edges, err := h.sm.ListFlowEdges(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		h.handleError(w, req, "List edges", err)
		return
	}
	h.sendSuccess(w, "Edges retrieved successfully", edges)
}

// AddEdge handles POST /api/flows/{id}/edges
func (h *FlowHandler) AddEdge(w http.ResponseWriter, req *http.Request) {
	var body sdk.FlowEdge
	if !h.bind(w, req, "Add edge", models.FlowEdgeSchema, &body) {
		return
	}
	edge, err := h.sm.AddFlowEdge(req.Context(), chi.URLParam(req, "id"), body)
	if err != nil {
		h.handleError(w, req, "Add edge", err)
		return
	}
	h.sendCreated(w, "Edge added successfully", edge)
}

// SaveFlow handles POST /api/flows/{id}/save, replacing the whole graph
func (h *FlowHandler) SaveFlow(w http.ResponseWriter, req *http.Request) {
	var body models.SaveFlowRequest
	if !h.bind(w, req, "Save flow", models.SaveFlowSchema, &body) {
		return
	}
	flow, err := h.sm.SaveFlow(req.Context(), chi.URLParam(req, "id"), body.Nodes, body.Edges)
	if err != nil {
		h.handleError(w, req, "Save flow", err)
		return
	}
	h.sendSuccess(w, "Flow saved successfully", flow)
}
