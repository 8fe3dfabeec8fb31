package sitemap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/db"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"go.opentelemetry.io/otel/attribute"
)

// ProjectPatch lists the project fields to change; nil fields are kept
type ProjectPatch struct {
	Name        *string
	Description *string
}

// CreateProject creates an empty project
func (s *Service) CreateProject(ctx context.Context, name, description string) (*types.Project, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	p := &types.Project{ID: newID(), Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	if err := s.db.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.loggerFor(ctx).Info().Str(xlog.FieldProjectID, p.ID).Str("name", p.Name).Msg("project created")
	return p, nil
}

// GetProject retrieves a project by ID
func (s *Service) GetProject(ctx context.Context, id string) (*types.Project, error) {
	return s.db.GetProject(ctx, id)
}

// ListProjects returns every project
func (s *Service) ListProjects(ctx context.Context) ([]types.Project, error) {
	return s.db.ListProjects(ctx)
}

// UpdateProject applies patch to a project
func (s *Service) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (*types.Project, error) {
	p, err := s.db.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if p.Name, err = requireName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = s.timestamp()
	if err := s.db.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject deletes a project with every item, marker, flow and artifact
// in it. Deleting an unknown project is not an error.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "DeleteProject", attribute.String(xlog.FieldProjectID, id))
	defer span.End()

	var keys []string
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		if _, err := tx.GetProject(ctx, id); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			removed, err := purgeItem(ctx, tx, it)
			if err != nil {
				return err
			}
			keys = append(keys, removed...)
		}
		return tx.DeleteProject(ctx, id)
	})
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}

	s.invalidate(ctx, id)
	s.removeBlobs(ctx, keys)
	s.loggerFor(ctx).Info().Str(xlog.FieldProjectID, id).Int("artifacts", len(keys)).Msg("project deleted")
	return nil
}
