// Package generator builds deterministic demo site plans: a folder tree of
// pages, images and decks, markers on the pages, and one user-journey flow.
package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/google/uuid"
)

// RNG wraps math/rand.Rand for seeded random generation
type RNG struct {
	*rand.Rand
}

// NewRNG creates a new seeded random number generator
func NewRNG(seed int64) *RNG {
	return &RNG{
		Rand: rand.New(rand.NewSource(seed)),
	}
}

// between returns a value in [min, max]
func (r *RNG) between(min, max int) int {
	return r.Intn(max-min+1) + min
}

// pick returns a random element of words
func (r *RNG) pick(words []string) string {
	return words[r.Intn(len(words))]
}

// id draws a UUID from the generator so ids repeat with the seed
func (r *RNG) id() string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		// *rand.Rand never fails to read
		panic(err)
	}
	return id.String()
}

// SeedConfig shapes a generated plan
type SeedConfig struct {
	Seed          int64  `json:"seed"`
	ProjectName   string `json:"project_name"`
	MaxDepth      int    `json:"max_depth"`
	MinFolders    int    `json:"min_folders"`
	MaxFolders    int    `json:"max_folders"`
	MinPages      int    `json:"min_pages"`
	MaxPages      int    `json:"max_pages"`
	MaxMarkers    int    `json:"max_markers"`
	FlowSteps     int    `json:"flow_steps"`
	WithArtifacts bool   `json:"with_artifacts"`
}

// DefaultSeedConfig returns a small but varied plan
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Seed:          42,
		ProjectName:   "Demo site",
		MaxDepth:      3,
		MinFolders:    1,
		MaxFolders:    3,
		MinPages:      1,
		MaxPages:      4,
		MaxMarkers:    3,
		FlowSteps:     4,
		WithArtifacts: true,
	}
}

// ValidateConfig validates the generator configuration
func ValidateConfig(cfg SeedConfig) error {
	if cfg.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1")
	}
	if cfg.MinFolders < 0 || cfg.MaxFolders < cfg.MinFolders {
		return fmt.Errorf("invalid folder count range: min=%d, max=%d", cfg.MinFolders, cfg.MaxFolders)
	}
	if cfg.MinPages < 0 || cfg.MaxPages < cfg.MinPages {
		return fmt.Errorf("invalid page count range: min=%d, max=%d", cfg.MinPages, cfg.MaxPages)
	}
	if cfg.MaxMarkers < 0 || cfg.FlowSteps < 0 {
		return fmt.Errorf("marker and flow step counts must be non-negative")
	}
	return nil
}

// Artifact is placeholder content generated for an item
type Artifact struct {
	ItemID      string
	Name        string
	ContentType string
	Data        []byte
}

// Plan is everything a seeded demo project consists of
type Plan struct {
	Project   types.Project
	Items     []types.Item
	Markers   []types.Marker
	History   []types.MarkerHistory
	Flow      types.Flow
	Artifacts []Artifact
}

var (
	folderNames = []string{"Marketing", "Product", "Account", "Help", "Legal", "Company", "Shop", "Blog"}
	pageNames   = []string{"Home", "Pricing", "About", "Contact", "Careers", "Login", "Signup", "Checkout",
		"Cart", "Search", "FAQ", "Support", "Terms", "Privacy", "Features", "Overview"}
	markerNotes = []string{"Tighten the hero copy", "Logo is blurry", "Add a call to action",
		"Align with the grid", "Check contrast", "Link is broken", "Needs final copy"}
	markerColors = []string{"#e11d48", "#2563eb", "#16a34a", "#f59e0b"}
)

// Generate builds the plan for cfg. The same config always yields the same
// ids, names and layout; now only sets timestamps.
func Generate(cfg SeedConfig, now time.Time) (*Plan, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	rng := NewRNG(cfg.Seed)
	now = now.UTC().Truncate(time.Millisecond)

	name := cfg.ProjectName
	if name == "" {
		name = DefaultSeedConfig().ProjectName
	}
	plan := &Plan{
		Project: types.Project{
			ID:          rng.id(),
			Name:        name,
			Description: fmt.Sprintf("Generated from seed %d", cfg.Seed),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	g := &planner{cfg: cfg, rng: rng, now: now, plan: plan}
	g.children("", 0)
	g.flow()
	return plan, nil
}

type planner struct {
	cfg   SeedConfig
	rng   *RNG
	now   time.Time
	plan  *Plan
	pages []types.Item
}

func (g *planner) newItem(parentID, typ, name string, position int) types.Item {
	it := types.Item{
		ID:        g.rng.id(),
		ProjectID: g.plan.Project.ID,
		ParentID:  parentID,
		Type:      typ,
		Name:      name,
		Position:  position,
		CreatedAt: g.now,
		UpdatedAt: g.now,
	}
	if typ == types.ItemTypeFolder {
		it.IsOpen = g.rng.Float64() < 0.5
	}
	return it
}

// children generates the folders and leaves under parentID
func (g *planner) children(parentID string, depth int) {
	pos := 0
	if depth < g.cfg.MaxDepth-1 {
		for i := g.rng.between(g.cfg.MinFolders, g.cfg.MaxFolders); i > 0; i-- {
			folder := g.newItem(parentID, types.ItemTypeFolder, g.rng.pick(folderNames), pos)
			pos++
			g.plan.Items = append(g.plan.Items, folder)
			g.children(folder.ID, depth+1)
		}
	}

	for i := g.rng.between(g.cfg.MinPages, g.cfg.MaxPages); i > 0; i-- {
		typ := types.ItemTypePage
		switch roll := g.rng.Float64(); {
		case roll < 0.15:
			typ = types.ItemTypeImage
		case roll < 0.25:
			typ = types.ItemTypePPT
		}
		leaf := g.newItem(parentID, typ, g.rng.pick(pageNames), pos)
		pos++
		if typ == types.ItemTypePage {
			leaf.URL = "/" + slug(leaf.Name)
		}
		g.addArtifact(&leaf)
		g.plan.Items = append(g.plan.Items, leaf)
		if types.AcceptsMarkers(typ) {
			g.pages = append(g.pages, leaf)
			g.markers(leaf)
		}
	}
}

func (g *planner) addArtifact(it *types.Item) {
	if !g.cfg.WithArtifacts || !types.AcceptsArtifact(it.Type) {
		return
	}
	art := Artifact{ItemID: it.ID}
	switch it.Type {
	case types.ItemTypePPT:
		art.Name = slug(it.Name) + ".txt"
		art.ContentType = "text/plain; charset=utf-8"
		art.Data = OutlineText(it.Name, g.rng)
	default:
		art.Name = slug(it.Name) + ".svg"
		art.ContentType = "image/svg+xml"
		art.Data = PlaceholderSVG(it.Name, g.rng)
	}
	g.plan.Artifacts = append(g.plan.Artifacts, art)
}

func (g *planner) markers(page types.Item) {
	count := g.rng.Intn(g.cfg.MaxMarkers + 1)
	for i := 0; i < count; i++ {
		m := types.Marker{
			ID:        g.rng.id(),
			ItemID:    page.ID,
			X:         float64(g.rng.Intn(1001)) / 10,
			Y:         float64(g.rng.Intn(1001)) / 10,
			Label:     fmt.Sprintf("%d", i+1),
			Content:   g.rng.pick(markerNotes),
			Color:     g.rng.pick(markerColors),
			Status:    types.MarkerStatusOpen,
			CreatedAt: g.now,
			UpdatedAt: g.now,
		}
		if g.rng.Float64() < 0.3 {
			m.Status = types.MarkerStatusResolved
		}
		snapshot, _ := json.Marshal(m)
		g.plan.Markers = append(g.plan.Markers, m)
		g.plan.History = append(g.plan.History, types.MarkerHistory{
			ID:        g.rng.id(),
			MarkerID:  m.ID,
			Action:    types.HistoryCreated,
			Content:   m.Content,
			Snapshot:  snapshot,
			CreatedAt: g.now,
		})
	}
}

// flow appends a top-level flow item walking through some of the pages
func (g *planner) flow() {
	if g.cfg.FlowSteps == 0 {
		return
	}
	top := 0
	for _, it := range g.plan.Items {
		if it.ParentID == "" {
			top++
		}
	}
	item := g.newItem("", types.ItemTypeFlow, "User journey", top)
	g.plan.Items = append(g.plan.Items, item)

	flow := types.Flow{Item: item, Nodes: []types.FlowNode{}, Edges: []types.FlowEdge{}}
	for i := 0; i < g.cfg.FlowSteps; i++ {
		node := types.FlowNode{
			ID:     fmt.Sprintf("n%d", i+1),
			FlowID: item.ID,
			Type:   "step",
			Label:  fmt.Sprintf("Step %d", i+1),
			X:      float64(i * 220),
			Y:      float64(g.rng.Intn(3) * 120),
		}
		if len(g.pages) > 0 {
			page := g.pages[g.rng.Intn(len(g.pages))]
			node.ItemID = page.ID
			node.Label = page.Name
		}
		switch i {
		case 0:
			node.Type = "start"
		case g.cfg.FlowSteps - 1:
			node.Type = "end"
		}
		flow.Nodes = append(flow.Nodes, node)
		if i > 0 {
			flow.Edges = append(flow.Edges, types.FlowEdge{
				ID:     fmt.Sprintf("e%d", i),
				FlowID: item.ID,
				Source: flow.Nodes[i-1].ID,
				Target: node.ID,
			})
		}
	}
	g.plan.Flow = flow
}
