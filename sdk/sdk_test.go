package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a sqlite-backed config into a temp dir and returns its path
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	body := `{
		"database": {"driver": "sqlite", "dsn": "` + filepath.ToSlash(filepath.Join(dir, "sitemap.db")) + `"},
		"artifacts": {"backend": "local", "root": "` + filepath.ToSlash(filepath.Join(dir, "artifacts")) + `"}` + extra + `
	}`
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSitemap(t *testing.T) *Sitemap {
	t.Helper()
	sm, err := New(context.Background(), writeConfig(t, ""))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { sm.Close() })
	return sm
}

// TestNew tests the New function with various configurations
func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T) string
		expectError bool
	}{
		{
			name:  "valid sqlite config",
			setup: func(t *testing.T) string { return writeConfig(t, "") },
		},
		{
			name:        "nonexistent config file",
			setup:       func(t *testing.T) string { return filepath.Join(t.TempDir(), "nonexistent.json") },
			expectError: true,
		},
		{
			name: "invalid JSON config",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "invalid.json")
				os.WriteFile(path, []byte(`{"invalid": json}`), 0o644)
				return path
			},
			expectError: true,
		},
		{
			name:        "invalid port",
			setup:       func(t *testing.T) string { return writeConfig(t, `, "api": {"port": 0}`) },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := New(context.Background(), tt.setup(t))
			if tt.expectError {
				if err == nil {
					sm.Close()
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer sm.Close()

			if sm.GetConfig() == nil {
				t.Error("GetConfig returned nil")
			}
			if err := sm.Ping(context.Background()); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}

func TestSitemapWorkflow(t *testing.T) {
	ctx := context.Background()
	sm := newTestSitemap(t)

	project, err := sm.CreateProject(ctx, "Shop", "")
	if err != nil {
		t.Fatal(err)
	}
	docs, err := sm.CreateItem(ctx, project.ID, NewItem{Type: ItemTypeFolder, Name: "docs", IsOpen: true})
	if err != nil {
		t.Fatal(err)
	}
	page, err := sm.CreateItem(ctx, project.ID, NewItem{ParentID: docs.ID, Type: ItemTypePage, Name: "intro"})
	if err != nil {
		t.Fatal(err)
	}

	flat, err := sm.GetFlat(ctx, project.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 || flat[1].ID != page.ID || flat[1].Depth != 1 {
		t.Errorf("unexpected flat tree: %+v", flat)
	}

	if _, err := sm.MoveItem(ctx, docs.ID, page.ID); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}

	marker, err := sm.CreateMarker(ctx, page.ID, NewMarker{X: 10, Y: 20, Content: "hero"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sm.AddComment(ctx, marker.ID, "looks good"); err != nil {
		t.Fatal(err)
	}
	history, err := sm.ListHistory(ctx, marker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(history))
	}

	if err := sm.DeleteItem(ctx, docs.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := sm.GetMarker(ctx, marker.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("marker should be gone with its page, got %v", err)
	}
}

func TestGetTableInfo(t *testing.T) {
	ctx := context.Background()
	sm := newTestSitemap(t)

	if _, err := sm.Seed(ctx, DefaultSeedConfig()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	tables, err := sm.GetTableInfo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, table := range tables {
		counts[table.Name] = table.RowCount
	}
	if counts["projects"] != 1 {
		t.Errorf("expected 1 project, got %d", counts["projects"])
	}
	if counts["items"] == 0 {
		t.Error("expected seeded items")
	}

	if err := sm.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	tables, _ = sm.GetTableInfo(ctx)
	for _, table := range tables {
		if table.RowCount != 0 {
			t.Errorf("%s has %d rows after reset", table.Name, table.RowCount)
		}
	}
}

func TestAsFS(t *testing.T) {
	ctx := context.Background()
	sm := newTestSitemap(t)

	project, _ := sm.CreateProject(ctx, "Shop", "")
	page, err := sm.CreateItem(ctx, project.ID, NewItem{Type: ItemTypePage, Name: "home"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sm.UploadArtifact(ctx, page.ID, "home.html", "text/html", strings.NewReader("<h1>hi</h1>"), 11); err != nil {
		t.Fatal(err)
	}
	flow, _ := sm.CreateItem(ctx, project.ID, NewItem{Type: ItemTypeFlow, Name: "signup"})
	if _, err := sm.SaveFlow(ctx, flow.ID, []FlowNode{{ID: "a"}}, nil); err != nil {
		t.Fatal(err)
	}

	fsys, err := sm.AsFS(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}

	f, err := fsys.Open("home.html")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "<h1>hi</h1>" {
		t.Errorf("unexpected artifact content %q", data)
	}

	raw, err := fs.ReadFile(fsys, "signup.json")
	if err != nil {
		t.Fatal(err)
	}
	var desc struct {
		Flow *Flow `json:"flow"`
	}
	if err := json.Unmarshal(raw, &desc); err != nil {
		t.Fatal(err)
	}
	if desc.Flow == nil || len(desc.Flow.Nodes) != 1 {
		t.Errorf("descriptor should carry the flow graph: %s", raw)
	}

	if _, err := sm.AsFS(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
