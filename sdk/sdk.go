// Package sdk is the public API of the sitemap backend. It wraps the
// internal service so other programs can embed it without the HTTP layer.
package sdk

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/Project-Sylos/Sitemap/internal/cache"
	"github.com/Project-Sylos/Sitemap/internal/config"
	"github.com/Project-Sylos/Sitemap/internal/generator"
	"github.com/Project-Sylos/Sitemap/internal/sitefs"
	"github.com/Project-Sylos/Sitemap/internal/sitemap"
	"github.com/Project-Sylos/Sitemap/internal/types"
)

// Sitemap is the public SDK handle
type Sitemap struct {
	impl *sitemap.Service
	cfg  *types.Config
}

// New creates a Sitemap from a config file. An empty path uses the defaults
// and SITEMAP_* environment variables only.
func New(ctx context.Context, configPath string) (*Sitemap, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates a Sitemap from an already loaded configuration
func NewWithConfig(ctx context.Context, cfg *types.Config) (*Sitemap, error) {
	impl, err := sitemap.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sitemap: %w", err)
	}
	return &Sitemap{impl: impl, cfg: cfg}, nil
}

// Wrap exposes an existing service through the SDK. cfg may be nil.
func Wrap(impl *sitemap.Service, cfg *types.Config) *Sitemap {
	return &Sitemap{impl: impl, cfg: cfg}
}

// Close releases the database and cache connections
func (s *Sitemap) Close() error {
	return s.impl.Close()
}

// GetConfig returns the configuration the instance was built from
func (s *Sitemap) GetConfig() *types.Config {
	return s.cfg
}

// Ping checks that the database is reachable
func (s *Sitemap) Ping(ctx context.Context) error {
	return s.impl.Ping(ctx)
}

// Projects

func (s *Sitemap) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	return s.impl.CreateProject(ctx, name, description)
}

func (s *Sitemap) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.impl.GetProject(ctx, id)
}

func (s *Sitemap) ListProjects(ctx context.Context) ([]Project, error) {
	return s.impl.ListProjects(ctx)
}

func (s *Sitemap) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (*Project, error) {
	return s.impl.UpdateProject(ctx, id, patch)
}

// DeleteProject deletes a project and everything in it
func (s *Sitemap) DeleteProject(ctx context.Context, id string) error {
	return s.impl.DeleteProject(ctx, id)
}

// Items

func (s *Sitemap) CreateItem(ctx context.Context, projectID string, in NewItem) (*Item, error) {
	return s.impl.CreateItem(ctx, projectID, in)
}

func (s *Sitemap) GetItem(ctx context.Context, id string) (*Item, error) {
	return s.impl.GetItem(ctx, id)
}

func (s *Sitemap) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*Item, error) {
	return s.impl.UpdateItem(ctx, id, patch)
}

// MoveItem drops item id onto item overID
func (s *Sitemap) MoveItem(ctx context.Context, id, overID string) (*Item, error) {
	return s.impl.MoveItem(ctx, id, overID)
}

func (s *Sitemap) ToggleItem(ctx context.Context, id string) (*Item, error) {
	return s.impl.ToggleItem(ctx, id)
}

// DeleteItem deletes an item and its subtree
func (s *Sitemap) DeleteItem(ctx context.Context, id string) error {
	return s.impl.DeleteItem(ctx, id)
}

func (s *Sitemap) GetTree(ctx context.Context, projectID string) ([]TreeNode, error) {
	return s.impl.GetTree(ctx, projectID)
}

func (s *Sitemap) GetFlat(ctx context.Context, projectID string, visibleOnly bool) ([]FlatNode, error) {
	return s.impl.GetFlat(ctx, projectID, visibleOnly)
}

func (s *Sitemap) ListChildren(ctx context.Context, projectID, parentID string) ([]Item, error) {
	return s.impl.ListChildren(ctx, projectID, parentID)
}

// Artifacts

func (s *Sitemap) UploadArtifact(ctx context.Context, itemID, name, contentType string, r io.Reader, size int64) (*Item, error) {
	return s.impl.UploadArtifact(ctx, itemID, name, contentType, r, size)
}

func (s *Sitemap) OpenArtifact(ctx context.Context, itemID string) (io.ReadCloser, *Item, error) {
	return s.impl.OpenArtifact(ctx, itemID)
}

// Markers

func (s *Sitemap) ListMarkers(ctx context.Context, itemID string) ([]Marker, error) {
	return s.impl.ListMarkers(ctx, itemID)
}

func (s *Sitemap) CreateMarker(ctx context.Context, itemID string, in NewMarker) (*Marker, error) {
	return s.impl.CreateMarker(ctx, itemID, in)
}

func (s *Sitemap) GetMarker(ctx context.Context, id string) (*Marker, error) {
	return s.impl.GetMarker(ctx, id)
}

func (s *Sitemap) UpdateMarker(ctx context.Context, id string, patch MarkerPatch) (*Marker, error) {
	return s.impl.UpdateMarker(ctx, id, patch)
}

func (s *Sitemap) DeleteMarker(ctx context.Context, id string) error {
	return s.impl.DeleteMarker(ctx, id)
}

func (s *Sitemap) ListHistory(ctx context.Context, markerID string) ([]MarkerHistory, error) {
	return s.impl.ListHistory(ctx, markerID)
}

func (s *Sitemap) AddComment(ctx context.Context, markerID, content string) (*MarkerHistory, error) {
	return s.impl.AddComment(ctx, markerID, content)
}

// Flows

func (s *Sitemap) GetFlow(ctx context.Context, flowID string) (*Flow, error) {
	return s.impl.GetFlow(ctx, flowID)
}

func (s *Sitemap) ListFlowNodes(ctx context.Context, flowID string) ([]FlowNode, error) {
	return s.impl.ListFlowNodes(ctx, flowID)
}

func (s *Sitemap) ListFlowEdges(ctx context.Context, flowID string) ([]FlowEdge, error) {
	return s.impl.ListFlowEdges(ctx, flowID)
}

func (s *Sitemap) AddFlowNode(ctx context.Context, flowID string, node FlowNode) (*FlowNode, error) {
	return s.impl.AddFlowNode(ctx, flowID, node)
}

func (s *Sitemap) AddFlowEdge(ctx context.Context, flowID string, edge FlowEdge) (*FlowEdge, error) {
	return s.impl.AddFlowEdge(ctx, flowID, edge)
}

// SaveFlow replaces a flow's graph in one transaction
func (s *Sitemap) SaveFlow(ctx context.Context, flowID string, nodes []FlowNode, edges []FlowEdge) (*Flow, error) {
	return s.impl.SaveFlow(ctx, flowID, nodes, edges)
}

// System

// GetTableInfo returns the row count of every table
func (s *Sitemap) GetTableInfo(ctx context.Context) ([]TableInfo, error) {
	return s.impl.Stats(ctx)
}

// CacheStats returns the tree cache counters
func (s *Sitemap) CacheStats() CacheStats {
	return s.impl.CacheStats()
}

// Reset deletes every row
func (s *Sitemap) Reset(ctx context.Context) error {
	return s.impl.Reset(ctx)
}

// Seed generates a deterministic demo project
func (s *Sitemap) Seed(ctx context.Context, cfg SeedConfig) (*Project, error) {
	return s.impl.SeedDemo(ctx, cfg)
}

// AsFS returns a read-only filesystem view of one project. Folders are
// directories; other items are files holding their artifact or a JSON
// descriptor.
func (s *Sitemap) AsFS(ctx context.Context, projectID string) (fs.FS, error) {
	return sitefs.New(ctx, s.impl, projectID)
}

// Re-export types for convenience
type (
	Config        = types.Config
	Project       = types.Project
	Item          = types.Item
	TreeNode      = types.TreeNode
	FlatNode      = types.FlatNode
	Marker        = types.Marker
	MarkerHistory = types.MarkerHistory
	Flow          = types.Flow
	FlowNode      = types.FlowNode
	FlowEdge      = types.FlowEdge
	TableInfo     = types.TableInfo
	APIResponse   = types.APIResponse
	SeedConfig    = generator.SeedConfig
)

// Re-export service inputs
type (
	NewItem      = sitemap.NewItem
	ItemPatch    = sitemap.ItemPatch
	ProjectPatch = sitemap.ProjectPatch
	NewMarker    = sitemap.NewMarker
	MarkerPatch  = sitemap.MarkerPatch
	CacheStats   = cache.Stats
)

// Re-export constants
const (
	ItemTypeFolder = types.ItemTypeFolder
	ItemTypePage   = types.ItemTypePage
	ItemTypeImage  = types.ItemTypeImage
	ItemTypeFlow   = types.ItemTypeFlow
	ItemTypePPT    = types.ItemTypePPT

	MarkerStatusOpen     = types.MarkerStatusOpen
	MarkerStatusResolved = types.MarkerStatusResolved
)

// Re-export errors
var (
	ErrNotFound = types.ErrNotFound
	ErrInvalid  = types.ErrInvalid
	ErrCycle    = types.ErrCycle
	ErrConflict = types.ErrConflict
)

// DefaultSeedConfig returns the demo generator defaults
func DefaultSeedConfig() SeedConfig {
	return generator.DefaultSeedConfig()
}
