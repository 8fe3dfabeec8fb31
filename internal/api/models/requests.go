package models

import "github.com/Project-Sylos/Sitemap/internal/types"

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest represents a partial project update
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateItemRequest represents the request to create a site item. An empty
// parent_id creates a top-level item.
type CreateItemRequest struct {
	ParentID string `json:"parent_id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	IsOpen   bool   `json:"is_open"`
}

// UpdateItemRequest represents a partial item update. Setting parent_id or
// position reparents the item.
type UpdateItemRequest struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	IsOpen   *bool   `json:"is_open"`
	ParentID *string `json:"parent_id"`
	Position *int    `json:"position"`
}

// MoveItemRequest represents a drag-and-drop of an item onto another
type MoveItemRequest struct {
	OverID string `json:"over_id"`
}

// CreateMarkerRequest represents the request to place a marker on a page
type CreateMarkerRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Label   string  `json:"label"`
	Content string  `json:"content"`
	Color   string  `json:"color"`
}

// UpdateMarkerRequest represents a partial marker update
type UpdateMarkerRequest struct {
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Label   *string  `json:"label"`
	Content *string  `json:"content"`
	Color   *string  `json:"color"`
	Status  *string  `json:"status"`
}

// CommentRequest represents a comment added to a marker's history
type CommentRequest struct {
	Content string `json:"content"`
}

// SaveFlowRequest carries the complete graph of a flow
type SaveFlowRequest struct {
	Nodes []types.FlowNode `json:"nodes"`
	Edges []types.FlowEdge `json:"edges"`
}

// SeedRequest overrides the demo generator defaults; nil fields keep them
type SeedRequest struct {
	Seed          *int64  `json:"seed"`
	ProjectName   *string `json:"project_name"`
	MaxDepth      *int    `json:"max_depth"`
	WithArtifacts *bool   `json:"with_artifacts"`
}
