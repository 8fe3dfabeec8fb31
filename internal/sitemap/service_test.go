package sitemap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/artifacts"
	"github.com/Project-Sylos/Sitemap/internal/cache"
	"github.com/Project-Sylos/Sitemap/internal/db"
	"github.com/Project-Sylos/Sitemap/internal/generator"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one second on every call so history entries order
// deterministically
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *artifacts.Local) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Open(context.Background(), db.DriverSQLite, filepath.Join(dir, "sitemap.db"))
	require.NoError(t, err)
	blobs, err := artifacts.NewLocal(filepath.Join(dir, "artifacts"))
	require.NoError(t, err)

	opts = append([]Option{WithClock(tickingClock()), WithLogger(zerolog.Nop())}, opts...)
	s := New(database, blobs, opts...)
	t.Cleanup(func() { s.Close() })
	return s, blobs
}

// site builds:
//
//	home (page)
//	docs (folder, open)
//	  intro (page)
//	  guides (folder)
//	    setup (page)
//	journey (flow)
type site struct {
	project                                    *types.Project
	home, docs, intro, guides, setup, journey *types.Item
}

func buildSite(t *testing.T, s *Service) site {
	t.Helper()
	ctx := context.Background()
	var st site
	var err error

	st.project, err = s.CreateProject(ctx, "Shop", "")
	require.NoError(t, err)
	mk := func(parent *types.Item, typ, name string, open bool) *types.Item {
		in := NewItem{Type: typ, Name: name, IsOpen: open}
		if parent != nil {
			in.ParentID = parent.ID
		}
		it, err := s.CreateItem(ctx, st.project.ID, in)
		require.NoError(t, err)
		return it
	}
	st.home = mk(nil, types.ItemTypePage, "home", false)
	st.docs = mk(nil, types.ItemTypeFolder, "docs", true)
	st.intro = mk(st.docs, types.ItemTypePage, "intro", false)
	st.guides = mk(st.docs, types.ItemTypeFolder, "guides", false)
	st.setup = mk(st.guides, types.ItemTypePage, "setup", false)
	st.journey = mk(nil, types.ItemTypeFlow, "journey", false)
	return st
}

func flatNames(t *testing.T, s *Service, projectID string, visible bool) []string {
	t.Helper()
	flat, err := s.GetFlat(context.Background(), projectID, visible)
	require.NoError(t, err)
	names := make([]string, len(flat))
	for i, n := range flat {
		names[i] = n.Name
	}
	return names
}

func TestCreateItemAppendsAndValidates(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	assert.Equal(t, 0, st.home.Position)
	assert.Equal(t, 1, st.docs.Position)
	assert.Equal(t, 2, st.journey.Position)
	assert.Equal(t, 1, st.guides.Position)

	page, err := s.CreateItem(ctx, st.project.ID, NewItem{Type: types.ItemTypePage, Name: "p", IsOpen: true})
	require.NoError(t, err)
	assert.False(t, page.IsOpen, "is_open is forced false for non-folders")

	tests := []struct {
		name    string
		project string
		in      NewItem
		wantErr error
	}{
		{"unknown type", st.project.ID, NewItem{Type: "video", Name: "x"}, types.ErrInvalid},
		{"blank name", st.project.ID, NewItem{Type: types.ItemTypePage, Name: "  "}, types.ErrInvalid},
		{"page parent", st.project.ID, NewItem{Type: types.ItemTypePage, Name: "x", ParentID: st.home.ID}, types.ErrInvalid},
		{"missing parent", st.project.ID, NewItem{Type: types.ItemTypePage, Name: "x", ParentID: "ghost"}, types.ErrInvalid},
		{"missing project", "ghost", NewItem{Type: types.ItemTypePage, Name: "x"}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateItem(ctx, tt.project, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	other, err := s.CreateProject(ctx, "Other", "")
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, other.ID, NewItem{Type: types.ItemTypePage, Name: "x", ParentID: st.docs.ID})
	assert.ErrorIs(t, err, types.ErrInvalid, "parent from another project")
}

func TestGetTreeAndFlat(t *testing.T) {
	s, _ := newTestService(t)
	st := buildSite(t, s)

	assert.Equal(t, []string{"home", "docs", "intro", "guides", "setup", "journey"}, flatNames(t, s, st.project.ID, false))
	assert.Equal(t, []string{"home", "docs", "intro", "guides", "journey"}, flatNames(t, s, st.project.ID, true))

	nodes, err := s.GetTree(context.Background(), st.project.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Len(t, nodes[1].Children, 2)

	_, err = s.GetTree(context.Background(), "ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("reorder among top level", func(t *testing.T) {
		s, _ := newTestService(t)
		st := buildSite(t, s)
		_, err := s.MoveItem(ctx, st.home.ID, st.journey.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"docs", "intro", "guides", "setup", "journey", "home"}, flatNames(t, s, st.project.ID, false))
	})

	t.Run("onto open folder becomes first child", func(t *testing.T) {
		s, _ := newTestService(t)
		st := buildSite(t, s)
		moved, err := s.MoveItem(ctx, st.home.ID, st.docs.ID)
		require.NoError(t, err)
		assert.Equal(t, st.docs.ID, moved.ParentID)
		assert.Equal(t, 0, moved.Position)
		assert.Equal(t, []string{"docs", "home", "intro", "guides", "setup", "journey"}, flatNames(t, s, st.project.ID, false))

		// Siblings stay dense: journey moves from 2 to 1
		journey, err := s.GetItem(ctx, st.journey.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, journey.Position)
	})

	t.Run("up out of a folder", func(t *testing.T) {
		s, _ := newTestService(t)
		st := buildSite(t, s)
		moved, err := s.MoveItem(ctx, st.setup.ID, st.home.ID)
		require.NoError(t, err)
		assert.Equal(t, "", moved.ParentID)
		assert.Equal(t, []string{"setup", "home", "docs", "intro", "guides", "journey"}, flatNames(t, s, st.project.ID, false))
	})

	t.Run("into own subtree is rejected", func(t *testing.T) {
		s, _ := newTestService(t)
		st := buildSite(t, s)
		_, err := s.MoveItem(ctx, st.docs.ID, st.setup.ID)
		assert.ErrorIs(t, err, types.ErrCycle)
		assert.Equal(t, []string{"home", "docs", "intro", "guides", "setup", "journey"}, flatNames(t, s, st.project.ID, false))
	})

	t.Run("onto itself is a no-op", func(t *testing.T) {
		s, _ := newTestService(t)
		st := buildSite(t, s)
		moved, err := s.MoveItem(ctx, st.intro.ID, st.intro.ID)
		require.NoError(t, err)
		assert.Equal(t, st.intro.Position, moved.Position)
	})

	t.Run("unknown ids", func(t *testing.T) {
		s, _ := newTestService(t)
		st := buildSite(t, s)
		_, err := s.MoveItem(ctx, "ghost", st.home.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		_, err = s.MoveItem(ctx, st.home.ID, "ghost")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestUpdateItem(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	name, open := "landing", true
	it, err := s.UpdateItem(ctx, st.home.ID, ItemPatch{Name: &name, IsOpen: &open})
	require.NoError(t, err)
	assert.Equal(t, "landing", it.Name)
	assert.False(t, it.IsOpen)

	parent, pos := st.guides.ID, 0
	it, err = s.UpdateItem(ctx, st.intro.ID, ItemPatch{ParentID: &parent, Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, st.guides.ID, it.ParentID)
	assert.Equal(t, []string{"landing", "docs", "guides", "intro", "setup", "journey"}, flatNames(t, s, st.project.ID, false))

	guides, _ := s.GetItem(ctx, st.guides.ID)
	assert.Equal(t, 0, guides.Position)

	cyc := st.guides.ID
	_, err = s.UpdateItem(ctx, st.docs.ID, ItemPatch{ParentID: &cyc})
	assert.ErrorIs(t, err, types.ErrCycle)

	leaf := st.setup.ID
	_, err = s.UpdateItem(ctx, st.home.ID, ItemPatch{ParentID: &leaf})
	assert.ErrorIs(t, err, types.ErrInvalid)

	ghost := "ghost"
	_, err = s.UpdateItem(ctx, st.home.ID, ItemPatch{ParentID: &ghost})
	assert.ErrorIs(t, err, types.ErrInvalid)
	assert.NotErrorIs(t, err, types.ErrNotFound)

	blank := ""
	_, err = s.UpdateItem(ctx, st.docs.ID, ItemPatch{Name: &blank})
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestToggleItem(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	it, err := s.ToggleItem(ctx, st.guides.ID)
	require.NoError(t, err)
	assert.True(t, it.IsOpen)
	assert.Equal(t, []string{"home", "docs", "intro", "guides", "setup", "journey"}, flatNames(t, s, st.project.ID, true))

	_, err = s.ToggleItem(ctx, st.home.ID)
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestDeleteItemCascades(t *testing.T) {
	s, blobs := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	m, err := s.CreateMarker(ctx, st.setup.ID, NewMarker{X: 10, Y: 10, Content: "fix"})
	require.NoError(t, err)
	_, err = s.UploadArtifact(ctx, st.intro.ID, "intro.png", "image/png", bytes.NewReader([]byte("png")), 3)
	require.NoError(t, err)
	intro, _ := s.GetItem(ctx, st.intro.ID)

	require.NoError(t, s.DeleteItem(ctx, st.docs.ID))

	assert.Equal(t, []string{"home", "journey"}, flatNames(t, s, st.project.ID, false))
	journey, _ := s.GetItem(ctx, st.journey.ID)
	assert.Equal(t, 1, journey.Position, "siblings are renumbered")

	_, err = s.GetMarker(ctx, m.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, _, err = blobs.Get(ctx, intro.ArtifactKey)
	assert.ErrorIs(t, err, types.ErrNotFound)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	for _, ti := range stats {
		if ti.Name == "marker_history" || ti.Name == "markers" {
			assert.Zero(t, ti.RowCount, ti.Name)
		}
	}

	// Deleting again is idempotent
	assert.NoError(t, s.DeleteItem(ctx, st.docs.ID))
	assert.NoError(t, s.DeleteItem(ctx, "never-existed"))
}

func TestDeleteFlowItemRemovesGraph(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	_, err := s.SaveFlow(ctx, st.journey.ID,
		[]types.FlowNode{{ID: "a"}, {ID: "b"}},
		[]types.FlowEdge{{ID: "e", Source: "a", Target: "b"}})
	require.NoError(t, err)
	require.NoError(t, s.DeleteItem(ctx, st.journey.ID))

	nodes, err := s.DB().ListFlowNodes(ctx, st.journey.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestMarkersAndHistory(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	m, err := s.CreateMarker(ctx, st.home.ID, NewMarker{X: 50, Y: 25, Content: "hero copy"})
	require.NoError(t, err)
	assert.Equal(t, "1", m.Label)
	assert.Equal(t, types.MarkerStatusOpen, m.Status)

	resolved := types.MarkerStatusResolved
	updated, err := s.UpdateMarker(ctx, m.ID, MarkerPatch{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, resolved, updated.Status)

	_, err = s.AddComment(ctx, m.ID, "done in r42")
	require.NoError(t, err)

	history, err := s.ListHistory(ctx, m.ID)
	require.NoError(t, err)
	var actions []string
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	if diff := cmp.Diff([]string{types.HistoryCreated, types.HistoryUpdated, types.HistoryComment}, actions); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, string(history[1].Snapshot), `"status":"resolved"`)

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"marker on folder", func() error {
			_, err := s.CreateMarker(ctx, st.docs.ID, NewMarker{X: 1, Y: 1})
			return err
		}, types.ErrInvalid},
		{"marker on flow", func() error {
			_, err := s.CreateMarker(ctx, st.journey.ID, NewMarker{X: 1, Y: 1})
			return err
		}, types.ErrInvalid},
		{"out of range", func() error {
			_, err := s.CreateMarker(ctx, st.home.ID, NewMarker{X: 101, Y: 1})
			return err
		}, types.ErrInvalid},
		{"bad status", func() error {
			bad := "closed"
			_, err := s.UpdateMarker(ctx, m.ID, MarkerPatch{Status: &bad})
			return err
		}, types.ErrInvalid},
		{"empty comment", func() error {
			_, err := s.AddComment(ctx, m.ID, " ")
			return err
		}, types.ErrInvalid},
		{"missing item", func() error {
			_, err := s.CreateMarker(ctx, "ghost", NewMarker{})
			return err
		}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), tt.want)
		})
	}

	require.NoError(t, s.DeleteMarker(ctx, m.ID))
	assert.NoError(t, s.DeleteMarker(ctx, m.ID))
	_, err = s.ListHistory(ctx, m.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHistoryOrderWithFrozenClock(t *testing.T) {
	frozen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s, _ := newTestService(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()
	st := buildSite(t, s)

	m, err := s.CreateMarker(ctx, st.home.ID, NewMarker{X: 10, Y: 10, Content: "banner"})
	require.NoError(t, err)
	resolved := types.MarkerStatusResolved
	_, err = s.UpdateMarker(ctx, m.ID, MarkerPatch{Status: &resolved})
	require.NoError(t, err)
	_, err = s.AddComment(ctx, m.ID, "shipped")
	require.NoError(t, err)

	history, err := s.ListHistory(ctx, m.ID)
	require.NoError(t, err)
	var actions []string
	for _, h := range history {
		actions = append(actions, h.Action)
		assert.True(t, h.CreatedAt.Equal(frozen))
	}
	if diff := cmp.Diff([]string{types.HistoryCreated, types.HistoryUpdated, types.HistoryComment}, actions); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestFlows(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	a, err := s.AddFlowNode(ctx, st.journey.ID, types.FlowNode{Label: "Landing", ItemID: st.home.ID})
	require.NoError(t, err)
	b, err := s.AddFlowNode(ctx, st.journey.ID, types.FlowNode{ID: "checkout", Label: "Checkout"})
	require.NoError(t, err)
	_, err = s.AddFlowEdge(ctx, st.journey.ID, types.FlowEdge{Source: a.ID, Target: b.ID})
	require.NoError(t, err)

	flow, err := s.GetFlow(ctx, st.journey.ID)
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 2)
	assert.Len(t, flow.Edges, 1)

	_, err = s.AddFlowNode(ctx, st.journey.ID, types.FlowNode{ID: "checkout"})
	assert.ErrorIs(t, err, types.ErrConflict)
	_, err = s.AddFlowEdge(ctx, st.journey.ID, types.FlowEdge{Source: a.ID, Target: "nowhere"})
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, err = s.AddFlowNode(ctx, st.home.ID, types.FlowNode{})
	assert.ErrorIs(t, err, types.ErrInvalid, "nodes only attach to flows")
	_, err = s.AddFlowNode(ctx, st.journey.ID, types.FlowNode{ItemID: "ghost"})
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestSaveFlowIsAtomic(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	nodes := []types.FlowNode{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}}
	edges := []types.FlowEdge{{ID: "e1", Source: "a", Target: "b"}}
	saved, err := s.SaveFlow(ctx, st.journey.ID, nodes, edges)
	require.NoError(t, err)
	assert.Len(t, saved.Nodes, 2)

	// A node linking to a missing item fails inside the transaction before
	// the graph is touched
	bad := []types.FlowNode{{ID: "x"}, {ID: "y", ItemID: "ghost"}}
	_, err = s.SaveFlow(ctx, st.journey.ID, bad, nil)
	require.ErrorIs(t, err, types.ErrInvalid)

	flow, err := s.GetFlow(ctx, st.journey.ID)
	require.NoError(t, err)
	require.Len(t, flow.Nodes, 2)
	assert.Equal(t, "a", flow.Nodes[0].ID)
	assert.Len(t, flow.Edges, 1)

	// Dangling edges are rejected before touching the store
	_, err = s.SaveFlow(ctx, st.journey.ID, nodes, []types.FlowEdge{{Source: "a", Target: "c"}})
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, err = s.SaveFlow(ctx, st.journey.ID, []types.FlowNode{{ID: "a"}, {ID: "a"}}, nil)
	assert.ErrorIs(t, err, types.ErrInvalid)

	// Empty save clears the graph
	cleared, err := s.SaveFlow(ctx, st.journey.ID, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, cleared.Nodes)
	assert.Empty(t, cleared.Nodes)
}

func TestArtifacts(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	data := []byte("<svg/>")
	it, err := s.UploadArtifact(ctx, st.home.ID, "home.svg", "image/svg+xml", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, artifacts.ComputeChecksum(data), it.ArtifactChecksum)
	assert.Equal(t, int64(len(data)), it.ArtifactSize)
	assert.Equal(t, "image/svg+xml", it.ArtifactType)

	rc, got, err := s.OpenArtifact(ctx, st.home.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, data, body)
	assert.Equal(t, it.ArtifactKey, got.ArtifactKey)

	// Replacing under a new name drops the old blob
	oldKey := it.ArtifactKey
	_, err = s.UploadArtifact(ctx, st.home.ID, "home-v2.svg", "image/svg+xml", bytes.NewReader(data), -1)
	require.NoError(t, err)
	_, _, err = s.blobs.Get(ctx, oldKey)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = s.UploadArtifact(ctx, st.docs.ID, "x", "", bytes.NewReader(data), -1)
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, _, err = s.OpenArtifact(ctx, st.intro.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTreeCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, zerolog.Nop())
	s, _ := newTestService(t, WithCache(rc))
	ctx := context.Background()
	st := buildSite(t, s)

	_, err := s.GetTree(ctx, st.project.ID)
	require.NoError(t, err)
	_, err = s.GetTree(ctx, st.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.CacheStats().Hits)
	assert.True(t, mr.Exists(cache.Key(st.project.ID)))

	// A mutation invalidates the cached tree
	_, err = s.ToggleItem(ctx, st.guides.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.Key(st.project.ID)))
	assert.Equal(t, []string{"home", "docs", "intro", "guides", "setup", "journey"}, flatNames(t, s, st.project.ID, true))
}

// racingCache misses every Get and runs onGet first, standing in for a
// write that commits while a reader is between its miss and its Set.
type racingCache struct {
	cache.Nop
	onGet func()
	sets  int
}

func (c *racingCache) Get(context.Context, string) ([]types.Item, bool) {
	if c.onGet != nil {
		c.onGet()
	}
	return nil, false
}

func (c *racingCache) Set(context.Context, string, []types.Item) { c.sets++ }

func TestTreeCacheSkipsStaleFill(t *testing.T) {
	rc := &racingCache{}
	s, _ := newTestService(t, WithCache(rc))
	ctx := context.Background()
	st := buildSite(t, s)

	rc.sets = 0
	_, err := s.GetTree(ctx, st.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.sets, "a quiet read fills the cache")

	rc.sets = 0
	rc.onGet = func() { s.invalidate(ctx, st.project.ID) }
	_, err = s.GetTree(ctx, st.project.ID)
	require.NoError(t, err)
	assert.Zero(t, rc.sets, "a read overlapping an invalidation must not fill the cache")

	rc.onGet = nil
	_, err = s.GetTree(ctx, st.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.sets)
}

func TestLoggerFor(t *testing.T) {
	t.Run("request logger", func(t *testing.T) {
		s, _ := newTestService(t)
		var buf bytes.Buffer
		reqLogger := zerolog.New(&buf).With().Str(xlog.FieldRequestID, "req-1").Logger()

		_, err := s.CreateProject(reqLogger.WithContext(context.Background()), "Shop", "")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"request_id":"req-1"`)
		assert.Contains(t, buf.String(), `"component":"sitemap"`)
		assert.Contains(t, buf.String(), "project created")
	})

	t.Run("service logger", func(t *testing.T) {
		var buf bytes.Buffer
		s, _ := newTestService(t, WithLogger(zerolog.New(&buf)))

		_, err := s.CreateProject(xlog.ContextWithRequestID(context.Background(), "req-2"), "Shop", "")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"request_id":"req-2"`)
		assert.Contains(t, buf.String(), "project created")
	})
}

func TestProjects(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	st := buildSite(t, s)

	name := "Shop 2"
	p, err := s.UpdateProject(ctx, st.project.ID, ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Shop 2", p.Name)
	assert.True(t, p.UpdatedAt.After(p.CreatedAt))

	_, err = s.CreateProject(ctx, "", "")
	assert.ErrorIs(t, err, types.ErrInvalid)

	require.NoError(t, s.DeleteProject(ctx, st.project.ID))
	_, err = s.GetProject(ctx, st.project.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.GetItem(ctx, st.home.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, s.DeleteProject(ctx, st.project.ID))

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSeedDemo(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	cfg := generator.DefaultSeedConfig()
	p, err := s.SeedDemo(ctx, cfg)
	require.NoError(t, err)

	flat, err := s.GetFlat(ctx, p.ID, false)
	require.NoError(t, err)
	assert.NotEmpty(t, flat)

	var withArtifact int
	for _, n := range flat {
		if n.HasArtifact() {
			withArtifact++
			rc, _, err := s.OpenArtifact(ctx, n.ID)
			require.NoError(t, err)
			rc.Close()
		}
	}
	assert.Positive(t, withArtifact)

	_, err = s.SeedDemo(ctx, cfg)
	assert.True(t, errors.Is(err, types.ErrConflict), "reseeding the same seed: %v", err)

	cfg.MaxDepth = 0
	_, err = s.SeedDemo(ctx, cfg)
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestReset(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	buildSite(t, s)

	require.NoError(t, s.Reset(ctx))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	for _, ti := range stats {
		assert.Zero(t, ti.RowCount, ti.Name)
	}
}
