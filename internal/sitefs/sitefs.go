// Package sitefs exposes a project's site tree as a read-only io/fs.FS.
// Folders are directories. Every other item is a file holding its artifact
// or, when nothing was uploaded, a JSON descriptor of the item.
package sitefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/Project-Sylos/Sitemap/internal/utils"
)

// Source is the part of the sitemap service the filesystem reads from
type Source interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetTree(ctx context.Context, projectID string) ([]types.TreeNode, error)
	ListMarkers(ctx context.Context, itemID string) ([]types.Marker, error)
	GetFlow(ctx context.Context, flowID string) (*types.Flow, error)
	OpenArtifact(ctx context.Context, itemID string) (io.ReadCloser, *types.Item, error)
}

// Descriptor is the content of a file standing in for an item without an
// artifact
type Descriptor struct {
	Item    types.Item     `json:"item"`
	Markers []types.Marker `json:"markers,omitempty"`
	Flow    *types.Flow    `json:"flow,omitempty"`
}

// FS is a snapshot of one project taken when it is created. Artifact
// content is read when a file is opened.
type FS struct {
	ctx    context.Context
	src    Source
	byPath map[string]*entry
}

// New snapshots the tree of projectID
func New(ctx context.Context, src Source, projectID string) (*FS, error) {
	project, err := src.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	nodes, err := src.GetTree(ctx, projectID)
	if err != nil {
		return nil, err
	}

	fsys := &FS{ctx: ctx, src: src, byPath: make(map[string]*entry)}
	root := &entry{name: ".", dir: true, modTime: project.UpdatedAt}
	fsys.byPath["."] = root
	if err := fsys.add(ctx, root, ".", nodes); err != nil {
		return nil, err
	}
	return fsys, nil
}

func (f *FS) add(ctx context.Context, parent *entry, dir string, nodes []types.TreeNode) error {
	used := make(map[string]bool, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		e := &entry{item: &n.Item, dir: n.IsFolder(), modTime: n.UpdatedAt}

		base, ext := utils.SafeName(n.Name), ""
		if !e.dir {
			if n.HasArtifact() {
				ext = path.Ext(n.ArtifactKey)
				base = strings.TrimSuffix(base, ext)
				e.size = n.ArtifactSize
			} else {
				ext = ".json"
				desc, err := f.describe(ctx, n.Item)
				if err != nil {
					return err
				}
				e.data = desc
				e.size = int64(len(desc))
			}
		}
		e.name = uniqueName(used, base, ext)

		p := e.name
		if dir != "." {
			p = dir + "/" + e.name
		}
		f.byPath[p] = e
		parent.children = append(parent.children, e)

		if e.dir {
			if err := f.add(ctx, e, p, n.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// uniqueName returns base+ext, or base-N+ext when a sibling already took it
func uniqueName(used map[string]bool, base, ext string) string {
	if base == "" {
		base = "_"
	}
	name := base + ext
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	used[name] = true
	return name
}

func (f *FS) describe(ctx context.Context, it types.Item) ([]byte, error) {
	desc := Descriptor{Item: it}
	switch {
	case types.AcceptsMarkers(it.Type):
		markers, err := f.src.ListMarkers(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		desc.Markers = markers
	case it.Type == types.ItemTypeFlow:
		flow, err := f.src.GetFlow(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		desc.Flow = flow
	}
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to describe item %s: %w", it.ID, err)
	}
	return append(data, '\n'), nil
}

// Open opens the named file or directory
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	e, ok := f.byPath[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if e.dir {
		entries := make([]fs.DirEntry, len(e.children))
		for i, c := range e.children {
			entries[i] = dirEntry{c}
		}
		return &siteDir{entry: e, entries: entries}, nil
	}

	data := e.data
	if data == nil {
		rc, _, err := f.src.OpenArtifact(f.ctx, e.item.ID)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		defer rc.Close()
		if data, err = io.ReadAll(rc); err != nil {
			return nil, &fs.PathError{Op: "read", Path: name, Err: err}
		}
	}
	return &siteFile{entry: e, data: data}, nil
}

// entry is one node of the snapshot. item is nil for the root.
type entry struct {
	name     string
	item     *types.Item
	dir      bool
	size     int64
	modTime  time.Time
	data     []byte
	children []*entry
}
