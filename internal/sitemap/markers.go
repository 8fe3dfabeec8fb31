package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/db"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/metrics"
	"github.com/Project-Sylos/Sitemap/internal/types"
)

// NewMarker describes a marker to create
type NewMarker struct {
	X       float64
	Y       float64
	Label   string
	Content string
	Color   string
}

// MarkerPatch lists the marker fields to change; nil fields are kept
type MarkerPatch struct {
	X       *float64
	Y       *float64
	Label   *string
	Content *string
	Color   *string
	Status  *string
}

func checkCoordinates(x, y float64) error {
	if x < 0 || x > 100 || y < 0 || y > 100 {
		return fmt.Errorf("marker position (%v, %v) must lie within 0..100: %w", x, y, types.ErrInvalid)
	}
	return nil
}

func checkStatus(status string) error {
	switch status {
	case types.MarkerStatusOpen, types.MarkerStatusResolved:
		return nil
	}
	return fmt.Errorf("unknown marker status %q: %w", status, types.ErrInvalid)
}

// markerItem loads an item and checks it can carry markers
func markerItem(ctx context.Context, tx *db.DB, itemID string) (*types.Item, error) {
	it, err := tx.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !types.AcceptsMarkers(it.Type) {
		return nil, fmt.Errorf("item %s is a %s and cannot carry markers: %w", itemID, it.Type, types.ErrInvalid)
	}
	return it, nil
}

// ListMarkers returns the markers of an item
func (s *Service) ListMarkers(ctx context.Context, itemID string) ([]types.Marker, error) {
	if _, err := s.db.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.db.ListMarkers(ctx, itemID)
}

// CreateMarker anchors a new open marker on a page or image and records a
// created entry in its history
func (s *Service) CreateMarker(ctx context.Context, itemID string, in NewMarker) (*types.Marker, error) {
	if err := checkCoordinates(in.X, in.Y); err != nil {
		return nil, err
	}

	now := s.timestamp()
	m := &types.Marker{
		ID:        newID(),
		ItemID:    itemID,
		X:         in.X,
		Y:         in.Y,
		Label:     strings.TrimSpace(in.Label),
		Content:   in.Content,
		Color:     in.Color,
		Status:    types.MarkerStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		if _, err := markerItem(ctx, tx, itemID); err != nil {
			return err
		}
		if m.Label == "" {
			existing, err := tx.ListMarkers(ctx, itemID)
			if err != nil {
				return err
			}
			m.Label = fmt.Sprintf("%d", len(existing)+1)
		}
		if err := tx.CreateMarker(ctx, m); err != nil {
			return err
		}
		return appendSnapshot(ctx, tx, m, types.HistoryCreated, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMarkerOp("create")
	s.loggerFor(ctx).Debug().Str(xlog.FieldMarkerID, m.ID).Str(xlog.FieldItemID, itemID).Msg("marker created")
	return m, nil
}

// GetMarker retrieves a marker by ID
func (s *Service) GetMarker(ctx context.Context, id string) (*types.Marker, error) {
	return s.db.GetMarker(ctx, id)
}

// UpdateMarker applies patch and appends an updated entry with the new state
func (s *Service) UpdateMarker(ctx context.Context, id string, patch MarkerPatch) (*types.Marker, error) {
	var m *types.Marker
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		var err error
		if m, err = tx.GetMarker(ctx, id); err != nil {
			return err
		}
		if patch.X != nil {
			m.X = *patch.X
		}
		if patch.Y != nil {
			m.Y = *patch.Y
		}
		if err := checkCoordinates(m.X, m.Y); err != nil {
			return err
		}
		if patch.Label != nil {
			m.Label = strings.TrimSpace(*patch.Label)
		}
		if patch.Content != nil {
			m.Content = *patch.Content
		}
		if patch.Color != nil {
			m.Color = *patch.Color
		}
		if patch.Status != nil {
			if err := checkStatus(*patch.Status); err != nil {
				return err
			}
			m.Status = *patch.Status
		}

		now := s.timestamp()
		m.UpdatedAt = now
		if err := tx.UpdateMarker(ctx, m); err != nil {
			return err
		}
		return appendSnapshot(ctx, tx, m, types.HistoryUpdated, now)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordMarkerOp("update")
	return m, nil
}

// DeleteMarker deletes a marker and its history. Deleting an unknown id is
// not an error.
func (s *Service) DeleteMarker(ctx context.Context, id string) error {
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		if err := tx.DeleteHistory(ctx, id); err != nil {
			return err
		}
		return tx.DeleteMarker(ctx, id)
	})
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	metrics.RecordMarkerOp("delete")
	return nil
}

// ListHistory returns a marker's history, oldest first
func (s *Service) ListHistory(ctx context.Context, markerID string) ([]types.MarkerHistory, error) {
	if _, err := s.db.GetMarker(ctx, markerID); err != nil {
		return nil, err
	}
	return s.db.ListHistory(ctx, markerID)
}

// AddComment appends a comment entry to a marker's history
func (s *Service) AddComment(ctx context.Context, markerID, content string) (*types.MarkerHistory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", types.ErrInvalid)
	}
	if _, err := s.db.GetMarker(ctx, markerID); err != nil {
		return nil, err
	}

	h := &types.MarkerHistory{
		ID:        newID(),
		MarkerID:  markerID,
		Action:    types.HistoryComment,
		Content:   content,
		CreatedAt: s.timestamp(),
	}
	if err := s.db.AppendHistory(ctx, h); err != nil {
		return nil, err
	}
	metrics.RecordMarkerOp("comment")
	return h, nil
}

func appendSnapshot(ctx context.Context, tx *db.DB, m *types.Marker, action string, at time.Time) error {
	snapshot, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to snapshot marker %s: %w", m.ID, err)
	}
	return tx.AppendHistory(ctx, &types.MarkerHistory{
		ID:        newID(),
		MarkerID:  m.ID,
		Action:    action,
		Content:   m.Content,
		Snapshot:  snapshot,
		CreatedAt: at,
	})
}
