package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/types"
)

const markerColumns = "id, item_id, x, y, label, content, color, status, created_at, updated_at"

// CreateMarker inserts a new marker row
func (db *DB) CreateMarker(ctx context.Context, m *types.Marker) error {
	_, err := db.exec(ctx,
		"INSERT INTO markers ("+markerColumns+") VALUES ("+placeholders(10)+")",
		m.ID, m.ItemID, m.X, m.Y, m.Label, m.Content, m.Color, m.Status,
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert marker %s: %w", m.ID, err)
	}
	return nil
}

// GetMarker retrieves a marker by its ID
func (db *DB) GetMarker(ctx context.Context, id string) (*types.Marker, error) {
	row := db.queryRow(ctx, "SELECT "+markerColumns+" FROM markers WHERE id = ?", id)
	m, err := scanMarker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("marker %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get marker %s: %w", id, err)
	}
	return m, nil
}

// ListMarkers returns the markers of an item, oldest first
func (db *DB) ListMarkers(ctx context.Context, itemID string) ([]types.Marker, error) {
	rows, err := db.query(ctx, "SELECT "+markerColumns+" FROM markers WHERE item_id = ? ORDER BY created_at, id", itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query markers of %s: %w", itemID, err)
	}
	defer rows.Close()

	markers := []types.Marker{}
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", err)
		}
		markers = append(markers, *m)
	}
	return markers, rows.Err()
}

// UpdateMarker writes every mutable marker field
func (db *DB) UpdateMarker(ctx context.Context, m *types.Marker) error {
	res, err := db.exec(ctx,
		"UPDATE markers SET x = ?, y = ?, label = ?, content = ?, color = ?, status = ?, updated_at = ? WHERE id = ?",
		m.X, m.Y, m.Label, m.Content, m.Color, m.Status, toMillis(m.UpdatedAt), m.ID)
	if err != nil {
		return fmt.Errorf("failed to update marker %s: %w", m.ID, err)
	}
	return affected(res, "marker", m.ID)
}

// DeleteMarker deletes a marker row only; its history is removed by the caller
func (db *DB) DeleteMarker(ctx context.Context, id string) error {
	res, err := db.exec(ctx, "DELETE FROM markers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete marker %s: %w", id, err)
	}
	return affected(res, "marker", id)
}

// DeleteMarkersOfItem deletes every marker of an item together with their history
func (db *DB) DeleteMarkersOfItem(ctx context.Context, itemID string) error {
	if _, err := db.exec(ctx,
		"DELETE FROM marker_history WHERE marker_id IN (SELECT id FROM markers WHERE item_id = ?)", itemID); err != nil {
		return fmt.Errorf("failed to delete marker history of %s: %w", itemID, err)
	}
	if _, err := db.exec(ctx, "DELETE FROM markers WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("failed to delete markers of %s: %w", itemID, err)
	}
	return nil
}

// AppendHistory inserts one marker history entry after the marker's latest
func (db *DB) AppendHistory(ctx context.Context, h *types.MarkerHistory) error {
	var seq int
	if err := db.queryRow(ctx, "SELECT COALESCE(MAX(seq) + 1, 0) FROM marker_history WHERE marker_id = ?", h.MarkerID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to compute next history seq of %s: %w", h.MarkerID, err)
	}
	_, err := db.exec(ctx,
		"INSERT INTO marker_history (id, marker_id, seq, action, content, snapshot, created_at) VALUES ("+placeholders(7)+")",
		h.ID, h.MarkerID, seq, h.Action, h.Content, nullJSON(h.Snapshot), toMillis(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert history for marker %s: %w", h.MarkerID, err)
	}
	return nil
}

// ListHistory returns a marker's history, oldest first
func (db *DB) ListHistory(ctx context.Context, markerID string) ([]types.MarkerHistory, error) {
	rows, err := db.query(ctx,
		"SELECT id, marker_id, action, content, snapshot, created_at FROM marker_history WHERE marker_id = ? ORDER BY seq, created_at, id",
		markerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history of %s: %w", markerID, err)
	}
	defer rows.Close()

	history := []types.MarkerHistory{}
	for rows.Next() {
		var (
			h        types.MarkerHistory
			snapshot sql.NullString
			created  int64
		)
		if err := rows.Scan(&h.ID, &h.MarkerID, &h.Action, &h.Content, &snapshot, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		h.Snapshot = rawJSON(snapshot)
		h.CreatedAt = fromMillis(created)
		history = append(history, h)
	}
	return history, rows.Err()
}

// DeleteHistory deletes every history entry of a marker
func (db *DB) DeleteHistory(ctx context.Context, markerID string) error {
	if _, err := db.exec(ctx, "DELETE FROM marker_history WHERE marker_id = ?", markerID); err != nil {
		return fmt.Errorf("failed to delete history of %s: %w", markerID, err)
	}
	return nil
}

func scanMarker(s scanner) (*types.Marker, error) {
	var (
		m                types.Marker
		created, updated int64
	)
	if err := s.Scan(&m.ID, &m.ItemID, &m.X, &m.Y, &m.Label, &m.Content, &m.Color, &m.Status, &created, &updated); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	return &m, nil
}
