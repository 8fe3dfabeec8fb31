// Package tree holds the pure functions behind a project's site tree:
// assembling rows into a nested tree, pre-order flattening, and the
// drag-and-drop move and placement rules.
package tree

import (
	"fmt"
	"sort"

	"github.com/Project-Sylos/Sitemap/internal/types"
)

// FlattenOptions controls Flatten
type FlattenOptions struct {
	// VisibleOnly skips the descendants of closed folders
	VisibleOnly bool
}

// MoveResult is where a moved item lands
type MoveResult struct {
	ParentID string
	Position int
}

// SortSiblings orders items by position, then name, then id.
func SortSiblings(items []types.Item) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Position != items[b].Position {
			return items[a].Position < items[b].Position
		}
		if items[a].Name != items[b].Name {
			return items[a].Name < items[b].Name
		}
		return items[a].ID < items[b].ID
	})
}

// Build assembles flat item rows into a nested tree. Items whose parent is
// unknown, and items caught in a parent cycle, are attached at the top level
// so no row is dropped.
func Build(items []types.Item) []types.TreeNode {
	byID := make(map[string]struct{}, len(items))
	for _, it := range items {
		byID[it.ID] = struct{}{}
	}

	children := make(map[string][]types.Item)
	var roots []types.Item
	for _, it := range items {
		if _, ok := byID[it.ParentID]; it.ParentID == "" || !ok {
			roots = append(roots, it)
			continue
		}
		children[it.ParentID] = append(children[it.ParentID], it)
	}
	for id := range children {
		SortSiblings(children[id])
	}
	SortSiblings(roots)

	visited := make(map[string]bool, len(items))
	var build func(it types.Item) types.TreeNode
	build = func(it types.Item) types.TreeNode {
		visited[it.ID] = true
		node := types.TreeNode{Item: it}
		for _, child := range children[it.ID] {
			if visited[child.ID] {
				continue
			}
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	result := make([]types.TreeNode, 0, len(roots))
	for _, it := range roots {
		result = append(result, build(it))
	}

	// Whatever is left is unreachable from the top level: a parent cycle.
	var stray []types.Item
	for _, it := range items {
		if !visited[it.ID] {
			stray = append(stray, it)
		}
	}
	SortSiblings(stray)
	for _, it := range stray {
		if !visited[it.ID] {
			result = append(result, build(it))
		}
	}
	return result
}

// Flatten walks nodes in pre-order and records each node's depth.
func Flatten(nodes []types.TreeNode, opts FlattenOptions) []types.FlatNode {
	var out []types.FlatNode
	var walk func(nodes []types.TreeNode, depth int)
	walk = func(nodes []types.TreeNode, depth int) {
		for _, n := range nodes {
			out = append(out, types.FlatNode{
				Item:        n.Item,
				Depth:       depth,
				HasChildren: len(n.Children) > 0,
			})
			if opts.VisibleOnly && n.IsFolder() && !n.IsOpen {
				continue
			}
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	if out == nil {
		out = []types.FlatNode{}
	}
	return out
}

// Move computes where the active item lands when dropped onto the over item
// in pre-order flattened space. The active item takes the over item's slot
// among the over item's siblings: after it when moving down, before it when
// moving up. Dropping onto an open folder from above makes the active item
// that folder's first child.
//
// flat must be the full (not visible-only) flattening of the tree.
func Move(flat []types.FlatNode, activeID, overID string) (MoveResult, error) {
	activeIdx, overIdx := -1, -1
	for i := range flat {
		switch flat[i].ID {
		case activeID:
			activeIdx = i
		case overID:
			overIdx = i
		}
	}
	if activeIdx < 0 {
		return MoveResult{}, fmt.Errorf("item %s: %w", activeID, types.ErrNotFound)
	}
	active := flat[activeIdx]
	if activeID == overID {
		return MoveResult{ParentID: active.ParentID, Position: siblingIndex(flat, active.ParentID, activeID, "")}, nil
	}
	if overIdx < 0 {
		return MoveResult{}, fmt.Errorf("item %s: %w", overID, types.ErrNotFound)
	}
	over := flat[overIdx]

	// The active subtree is the contiguous run of deeper rows after it.
	for i := activeIdx + 1; i < len(flat) && flat[i].Depth > active.Depth; i++ {
		if i == overIdx {
			return MoveResult{}, fmt.Errorf("move %s onto its descendant %s: %w", activeID, overID, types.ErrCycle)
		}
	}

	movingDown := activeIdx < overIdx
	if movingDown && over.IsFolder() && over.IsOpen {
		return MoveResult{ParentID: over.ID, Position: 0}, nil
	}

	pos := siblingIndex(flat, over.ParentID, over.ID, activeID)
	if movingDown {
		pos++
	}
	return MoveResult{ParentID: over.ParentID, Position: pos}, nil
}

// siblingIndex returns the index of id among the children of parentID,
// ignoring the row named skip.
func siblingIndex(flat []types.FlatNode, parentID, id, skip string) int {
	idx := 0
	for _, n := range flat {
		if n.ParentID != parentID || n.ID == skip {
			continue
		}
		if n.ID == id {
			return idx
		}
		idx++
	}
	return idx
}

// Place puts item id under parentID at position and renumbers the siblings of
// both the old and the new parent. It returns only the items whose parent or
// position changed. An empty parentID means the top level.
func Place(items []types.Item, id, parentID string, position int) ([]types.Item, error) {
	byID := make(map[string]types.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	moving, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
	}
	if parentID != "" {
		parent, ok := byID[parentID]
		if !ok {
			return nil, fmt.Errorf("parent %s does not exist: %w", parentID, types.ErrInvalid)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("parent %s is a %s, not a folder: %w", parentID, parent.Type, types.ErrInvalid)
		}
		if parentID == id {
			return nil, fmt.Errorf("item %s cannot contain itself: %w", id, types.ErrCycle)
		}
		for _, d := range Descendants(items, id) {
			if d == parentID {
				return nil, fmt.Errorf("move %s under its descendant %s: %w", id, parentID, types.ErrCycle)
			}
		}
	}

	oldParent := moving.ParentID
	siblings := func(pid string) []types.Item {
		var out []types.Item
		for _, it := range items {
			if it.ParentID == pid && it.ID != id {
				out = append(out, it)
			}
		}
		SortSiblings(out)
		return out
	}

	target := siblings(parentID)
	if position < 0 {
		position = 0
	}
	if position > len(target) {
		position = len(target)
	}
	moving.ParentID = parentID
	target = append(target[:position], append([]types.Item{moving}, target[position:]...)...)

	groups := [][]types.Item{target}
	if oldParent != parentID {
		groups = append(groups, siblings(oldParent))
	}

	var changed []types.Item
	for _, group := range groups {
		for _, it := range Reindex(group) {
			orig := byID[it.ID]
			if orig.ParentID != it.ParentID || orig.Position != it.Position {
				changed = append(changed, it)
			}
		}
	}
	return changed, nil
}

// Reindex assigns dense positions 0..n-1 in slice order.
func Reindex(siblings []types.Item) []types.Item {
	out := make([]types.Item, len(siblings))
	for i, it := range siblings {
		it.Position = i
		out[i] = it
	}
	return out
}

// Descendants returns the ids of every item below id, in pre-order.
func Descendants(items []types.Item, id string) []string {
	children := make(map[string][]types.Item)
	for _, it := range items {
		if it.ParentID != "" {
			children[it.ParentID] = append(children[it.ParentID], it)
		}
	}
	for pid := range children {
		SortSiblings(children[pid])
	}

	var out []string
	seen := map[string]bool{id: true}
	var walk func(pid string)
	walk = func(pid string) {
		for _, c := range children[pid] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c.ID)
			walk(c.ID)
		}
	}
	walk(id)
	return out
}

// Validate checks that items form a forest: unique ids, parents that exist and
// are folders of the same project, and no cycles.
func Validate(items []types.Item) error {
	byID := make(map[string]types.Item, len(items))
	for _, it := range items {
		if _, dup := byID[it.ID]; dup {
			return fmt.Errorf("duplicate item id %s: %w", it.ID, types.ErrConflict)
		}
		byID[it.ID] = it
	}

	for _, it := range items {
		if it.ParentID == "" {
			continue
		}
		parent, ok := byID[it.ParentID]
		if !ok {
			return fmt.Errorf("item %s references missing parent %s: %w", it.ID, it.ParentID, types.ErrNotFound)
		}
		if !parent.IsFolder() {
			return fmt.Errorf("item %s has non-folder parent %s: %w", it.ID, it.ParentID, types.ErrInvalid)
		}
		if parent.ProjectID != it.ProjectID {
			return fmt.Errorf("item %s and parent %s belong to different projects: %w", it.ID, it.ParentID, types.ErrInvalid)
		}
	}

	for _, it := range items {
		steps := 0
		for cur := it.ParentID; cur != ""; cur = byID[cur].ParentID {
			if cur == it.ID || steps > len(items) {
				return fmt.Errorf("item %s is its own ancestor: %w", it.ID, types.ErrCycle)
			}
			steps++
		}
	}
	return nil
}
