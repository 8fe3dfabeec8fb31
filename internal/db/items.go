package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/types"
)

const itemColumns = "id, project_id, parent_id, type, name, url, is_open, sort_index, " +
	"artifact_key, artifact_type, artifact_size, artifact_checksum, created_at, updated_at"

// CreateItem inserts a new item row
func (db *DB) CreateItem(ctx context.Context, it *types.Item) error {
	_, err := db.exec(ctx,
		"INSERT INTO items ("+itemColumns+") VALUES ("+placeholders(14)+")",
		it.ID, it.ProjectID, it.ParentID, it.Type, it.Name, it.URL, it.IsOpen, it.Position,
		it.ArtifactKey, it.ArtifactType, it.ArtifactSize, it.ArtifactChecksum,
		toMillis(it.CreatedAt), toMillis(it.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
	}
	return nil
}

// GetItem retrieves an item by its ID
func (db *DB) GetItem(ctx context.Context, id string) (*types.Item, error) {
	row := db.queryRow(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return it, nil
}

// ListItems returns every item of a project as flat rows
func (db *DB) ListItems(ctx context.Context, projectID string) ([]types.Item, error) {
	return db.listItems(ctx,
		"SELECT "+itemColumns+" FROM items WHERE project_id = ? ORDER BY parent_id, sort_index, name, id",
		projectID)
}

// ListChildren returns the direct children of parentID ("" for the top level)
func (db *DB) ListChildren(ctx context.Context, projectID, parentID string) ([]types.Item, error) {
	return db.listItems(ctx,
		"SELECT "+itemColumns+" FROM items WHERE project_id = ? AND parent_id = ? ORDER BY sort_index, name, id",
		projectID, parentID)
}

func (db *DB) listItems(ctx context.Context, query string, args ...any) ([]types.Item, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []types.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// UpdateItem writes every mutable item field
func (db *DB) UpdateItem(ctx context.Context, it *types.Item) error {
	res, err := db.exec(ctx,
		`UPDATE items SET parent_id = ?, name = ?, url = ?, is_open = ?, sort_index = ?,
		 artifact_key = ?, artifact_type = ?, artifact_size = ?, artifact_checksum = ?, updated_at = ?
		 WHERE id = ?`,
		it.ParentID, it.Name, it.URL, it.IsOpen, it.Position,
		it.ArtifactKey, it.ArtifactType, it.ArtifactSize, it.ArtifactChecksum, toMillis(it.UpdatedAt),
		it.ID)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", it.ID, err)
	}
	return affected(res, "item", it.ID)
}

// DeleteItem deletes a single item row. It does not touch children, markers
// or flow content; cascading is the caller's job.
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	res, err := db.exec(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return affected(res, "item", id)
}

func scanItem(s scanner) (*types.Item, error) {
	var (
		it               types.Item
		created, updated int64
	)
	err := s.Scan(&it.ID, &it.ProjectID, &it.ParentID, &it.Type, &it.Name, &it.URL, &it.IsOpen, &it.Position,
		&it.ArtifactKey, &it.ArtifactType, &it.ArtifactSize, &it.ArtifactChecksum, &created, &updated)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = fromMillis(created)
	it.UpdatedAt = fromMillis(updated)
	return &it, nil
}
