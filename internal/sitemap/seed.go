package sitemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/db"
	"github.com/Project-Sylos/Sitemap/internal/generator"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/tree"
	"github.com/Project-Sylos/Sitemap/internal/types"
)

// SeedDemo generates a demo project from cfg and stores it. Seeding the same
// seed twice reports types.ErrConflict since the project id repeats.
func (s *Service) SeedDemo(ctx context.Context, cfg generator.SeedConfig) (*types.Project, error) {
	plan, err := generator.Generate(cfg, s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, types.ErrInvalid)
	}
	if err := tree.Validate(plan.Items); err != nil {
		return nil, fmt.Errorf("generated tree is invalid: %w", err)
	}

	err = s.db.WithTx(ctx, func(tx *db.DB) error {
		if _, err := tx.GetProject(ctx, plan.Project.ID); err == nil {
			return fmt.Errorf("project %s already exists: %w", plan.Project.ID, types.ErrConflict)
		} else if !errors.Is(err, types.ErrNotFound) {
			return err
		}

		if err := tx.CreateProject(ctx, &plan.Project); err != nil {
			return err
		}
		for i := range plan.Items {
			if err := tx.CreateItem(ctx, &plan.Items[i]); err != nil {
				return err
			}
		}
		for i := range plan.Markers {
			if err := tx.CreateMarker(ctx, &plan.Markers[i]); err != nil {
				return err
			}
		}
		for i := range plan.History {
			if err := tx.AppendHistory(ctx, &plan.History[i]); err != nil {
				return err
			}
		}
		if plan.Flow.Item.ID != "" {
			return tx.ReplaceFlow(ctx, plan.Flow.Item.ID, plan.Flow.Nodes, plan.Flow.Edges)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range plan.Artifacts {
		if _, err := s.UploadArtifact(ctx, a.ItemID, a.Name, a.ContentType, bytes.NewReader(a.Data), int64(len(a.Data))); err != nil {
			return nil, fmt.Errorf("failed to upload demo artifact %s: %w", a.Name, err)
		}
	}

	s.invalidate(ctx, plan.Project.ID)
	s.loggerFor(ctx).Info().
		Str(xlog.FieldProjectID, plan.Project.ID).
		Int64("seed", cfg.Seed).
		Int("items", len(plan.Items)).
		Int("markers", len(plan.Markers)).
		Int("artifacts", len(plan.Artifacts)).
		Msg("demo project seeded")
	return &plan.Project, nil
}
