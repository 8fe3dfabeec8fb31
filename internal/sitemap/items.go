package sitemap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/db"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/metrics"
	"github.com/Project-Sylos/Sitemap/internal/tree"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"go.opentelemetry.io/otel/attribute"
)

// NewItem describes an item to create. An empty ParentID means the top level.
type NewItem struct {
	ParentID string
	Type     string
	Name     string
	URL      string
	IsOpen   bool
}

// ItemPatch lists the item fields to change; nil fields are kept. Setting
// ParentID or Position reparents the item.
type ItemPatch struct {
	Name     *string
	URL      *string
	IsOpen   *bool
	ParentID *string
	Position *int
}

// CreateItem appends a new item as the last child of its parent
func (s *Service) CreateItem(ctx context.Context, projectID string, in NewItem) (*types.Item, error) {
	ctx, span := startSpan(ctx, "CreateItem", attribute.String(xlog.FieldProjectID, projectID))
	defer span.End()

	if !types.IsValidItemType(in.Type) {
		return nil, fmt.Errorf("unknown item type %q: %w", in.Type, types.ErrInvalid)
	}
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	it := &types.Item{
		ID:        newID(),
		ProjectID: projectID,
		ParentID:  in.ParentID,
		Type:      in.Type,
		Name:      name,
		URL:       strings.TrimSpace(in.URL),
		IsOpen:    in.IsOpen && in.Type == types.ItemTypeFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithTx(ctx, func(tx *db.DB) error {
		if _, err := tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		if err := checkParent(ctx, tx, projectID, in.ParentID); err != nil {
			return err
		}
		siblings, err := tx.ListChildren(ctx, projectID, in.ParentID)
		if err != nil {
			return err
		}
		it.Position = len(siblings)
		return tx.CreateItem(ctx, it)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, projectID)
	metrics.RecordItemOp("create")
	s.loggerFor(ctx).Debug().Str(xlog.FieldItemID, it.ID).Str("type", it.Type).Msg("item created")
	return it, nil
}

// checkParent verifies parentID names a folder of the project
func checkParent(ctx context.Context, tx *db.DB, projectID, parentID string) error {
	if parentID == "" {
		return nil
	}
	parent, err := tx.GetItem(ctx, parentID)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("parent %s does not exist: %w", parentID, types.ErrInvalid)
	}
	if err != nil {
		return err
	}
	if parent.ProjectID != projectID {
		return fmt.Errorf("parent %s belongs to another project: %w", parentID, types.ErrInvalid)
	}
	if !parent.IsFolder() {
		return fmt.Errorf("parent %s is a %s, not a folder: %w", parentID, parent.Type, types.ErrInvalid)
	}
	return nil
}

// GetItem retrieves an item by ID
func (s *Service) GetItem(ctx context.Context, id string) (*types.Item, error) {
	return s.db.GetItem(ctx, id)
}

// UpdateItem applies patch to an item. is_open is ignored for non-folders.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*types.Item, error) {
	ctx, span := startSpan(ctx, "UpdateItem", attribute.String(xlog.FieldItemID, id))
	defer span.End()

	var it *types.Item
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		var err error
		if it, err = tx.GetItem(ctx, id); err != nil {
			return err
		}
		now := s.timestamp()

		if patch.Name != nil {
			if it.Name, err = requireName(*patch.Name); err != nil {
				return err
			}
		}
		if patch.URL != nil {
			it.URL = strings.TrimSpace(*patch.URL)
		}
		if patch.IsOpen != nil {
			it.IsOpen = *patch.IsOpen && it.IsFolder()
		}

		if patch.ParentID != nil || patch.Position != nil {
			parentID, position := it.ParentID, it.Position
			if patch.ParentID != nil {
				parentID = *patch.ParentID
			}
			if patch.Position != nil {
				position = *patch.Position
			}
			if err := s.place(ctx, tx, it, parentID, position, now); err != nil {
				return err
			}
		}

		it.UpdatedAt = now
		return tx.UpdateItem(ctx, it)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, it.ProjectID)
	metrics.RecordItemOp("update")
	return it, nil
}

// place moves it under parentID at position, persisting the renumbered
// siblings. it receives its new parent and position but is not written.
func (s *Service) place(ctx context.Context, tx *db.DB, it *types.Item, parentID string, position int, now time.Time) error {
	items, err := tx.ListItems(ctx, it.ProjectID)
	if err != nil {
		return err
	}
	changed, err := tree.Place(items, it.ID, parentID, position)
	if err != nil {
		return err
	}
	for _, c := range changed {
		if c.ID == it.ID {
			it.ParentID, it.Position = c.ParentID, c.Position
			continue
		}
		c.UpdatedAt = now
		if err := tx.UpdateItem(ctx, &c); err != nil {
			return err
		}
	}
	return nil
}

// MoveItem drops item id onto item overID: it takes over's slot among
// over's siblings, or becomes the first child when over is an open folder
// below it.
func (s *Service) MoveItem(ctx context.Context, id, overID string) (*types.Item, error) {
	ctx, span := startSpan(ctx, "MoveItem",
		attribute.String(xlog.FieldItemID, id), attribute.String("over_id", overID))
	defer span.End()

	var it *types.Item
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		var err error
		if it, err = tx.GetItem(ctx, id); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, it.ProjectID)
		if err != nil {
			return err
		}
		target, err := tree.Move(tree.Flatten(tree.Build(items), tree.FlattenOptions{}), id, overID)
		if err != nil {
			return err
		}
		if target.ParentID == it.ParentID && target.Position == it.Position {
			return nil
		}

		now := s.timestamp()
		if err := s.place(ctx, tx, it, target.ParentID, target.Position, now); err != nil {
			return err
		}
		it.UpdatedAt = now
		return tx.UpdateItem(ctx, it)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, it.ProjectID)
	metrics.RecordItemOp("move")
	s.loggerFor(ctx).Debug().
		Str(xlog.FieldItemID, id).
		Str("over_id", overID).
		Str("parent_id", it.ParentID).
		Int("position", it.Position).
		Msg("item moved")
	return it, nil
}

// ToggleItem flips is_open of a folder
func (s *Service) ToggleItem(ctx context.Context, id string) (*types.Item, error) {
	it, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !it.IsFolder() {
		return nil, fmt.Errorf("item %s is a %s, only folders toggle: %w", id, it.Type, types.ErrInvalid)
	}
	it.IsOpen = !it.IsOpen
	it.UpdatedAt = s.timestamp()
	if err := s.db.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	s.invalidate(ctx, it.ProjectID)
	metrics.RecordItemOp("toggle")
	return it, nil
}

// DeleteItem deletes an item with its whole subtree, their markers and
// history, flow graphs and artifacts. The remaining siblings are renumbered.
// Deleting an unknown id is not an error.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "DeleteItem", attribute.String(xlog.FieldItemID, id))
	defer span.End()

	var (
		it   *types.Item
		keys []string
		n    int
	)
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		var err error
		if it, err = tx.GetItem(ctx, id); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, it.ProjectID)
		if err != nil {
			return err
		}
		byID := make(map[string]types.Item, len(items))
		for _, x := range items {
			byID[x.ID] = x
		}

		doomed := append([]string{id}, tree.Descendants(items, id)...)
		for _, did := range doomed {
			removed, err := purgeItem(ctx, tx, byID[did])
			if err != nil {
				return err
			}
			keys = append(keys, removed...)
		}
		n = len(doomed)

		siblings, err := tx.ListChildren(ctx, it.ProjectID, it.ParentID)
		if err != nil {
			return err
		}
		now := s.timestamp()
		for i, sib := range siblings {
			if sib.Position == i {
				continue
			}
			sib.Position = i
			sib.UpdatedAt = now
			if err := tx.UpdateItem(ctx, &sib); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, types.ErrNotFound) && it == nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}

	s.invalidate(ctx, it.ProjectID)
	s.removeBlobs(ctx, keys)
	metrics.RecordItemOp("delete")
	s.loggerFor(ctx).Info().
		Str(xlog.FieldItemID, id).
		Int("items", n).
		Int("artifacts", len(keys)).
		Msg("item deleted")
	return nil
}

// purgeItem deletes one item row with its markers and flow graph, returning
// the artifact keys left to remove.
func purgeItem(ctx context.Context, tx *db.DB, it types.Item) ([]string, error) {
	if err := tx.DeleteMarkersOfItem(ctx, it.ID); err != nil {
		return nil, err
	}
	if it.Type == types.ItemTypeFlow {
		if err := tx.DeleteFlow(ctx, it.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.DeleteItem(ctx, it.ID); err != nil {
		return nil, err
	}
	if it.HasArtifact() {
		return []string{it.ArtifactKey}, nil
	}
	return nil, nil
}

// removeBlobs deletes artifact content after the rows referencing it are gone
func (s *Service) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.loggerFor(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete artifact")
		}
	}
}

// GetTree returns the nested tree of a project
func (s *Service) GetTree(ctx context.Context, projectID string) ([]types.TreeNode, error) {
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	items, err := s.itemsOf(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return tree.Build(items), nil
}

// GetFlat returns the pre-order flattened tree of a project. With
// visibleOnly the contents of closed folders are skipped.
func (s *Service) GetFlat(ctx context.Context, projectID string, visibleOnly bool) ([]types.FlatNode, error) {
	nodes, err := s.GetTree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return tree.Flatten(nodes, tree.FlattenOptions{VisibleOnly: visibleOnly}), nil
}

// ListChildren returns the direct children of parentID ("" for the top level)
func (s *Service) ListChildren(ctx context.Context, projectID, parentID string) ([]types.Item, error) {
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.db.ListChildren(ctx, projectID, parentID)
}
