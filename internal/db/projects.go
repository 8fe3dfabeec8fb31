package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/types"
)

const projectColumns = "id, name, description, created_at, updated_at"

// CreateProject inserts a new project row
func (db *DB) CreateProject(ctx context.Context, p *types.Project) error {
	_, err := db.exec(ctx,
		"INSERT INTO projects ("+projectColumns+") VALUES ("+placeholders(5)+")",
		p.ID, p.Name, p.Description, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a project by its ID
func (db *DB) GetProject(ctx context.Context, id string) (*types.Project, error) {
	row := db.queryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns every project, oldest first
func (db *DB) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := db.query(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []types.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject writes the mutable project fields
func (db *DB) UpdateProject(ctx context.Context, p *types.Project) error {
	res, err := db.exec(ctx,
		"UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		p.Name, p.Description, toMillis(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project %s: %w", p.ID, err)
	}
	return affected(res, "project", p.ID)
}

// DeleteProject deletes the project row only; items are removed by the caller
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	res, err := db.exec(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	return affected(res, "project", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*types.Project, error) {
	var (
		p                types.Project
		created, updated int64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}
