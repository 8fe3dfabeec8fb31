// Package cache keeps assembled project trees in Redis so repeated tree reads
// skip the database.
package cache

import (
	"context"

	"github.com/Project-Sylos/Sitemap/internal/types"
)

// KeyPrefix namespaces every cache key
const KeyPrefix = "sitemap:tree:"

// TreeCache stores the item rows of one project under a single key.
type TreeCache interface {
	// Get returns the cached rows of a project. A miss or a backend failure
	// both report false.
	Get(ctx context.Context, projectID string) ([]types.Item, bool)
	// Set stores the rows of a project.
	Set(ctx context.Context, projectID string, items []types.Item)
	// Invalidate drops the cached rows of a project.
	Invalidate(ctx context.Context, projectID string)
	// Stats returns hit and miss counters.
	Stats() Stats
	Close() error
}

// Stats holds cache counters
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Invalidations int64 `json:"invalidations"`
}

// Key returns the cache key of a project
func Key(projectID string) string {
	return KeyPrefix + projectID
}

// Nop is used when no Redis URL is configured. It never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]types.Item, bool) { return nil, false }
func (Nop) Set(context.Context, string, []types.Item)        {}
func (Nop) Invalidate(context.Context, string)               {}
func (Nop) Stats() Stats                                     { return Stats{} }
func (Nop) Close() error                                     { return nil }
