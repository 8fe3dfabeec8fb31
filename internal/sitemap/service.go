// Package sitemap implements the business rules of site planning on top of
// the storage layer: tree mutations with dense sibling positions, cascading
// deletes, markers with history, transactional flow saves and artifacts.
package sitemap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/artifacts"
	"github.com/Project-Sylos/Sitemap/internal/cache"
	"github.com/Project-Sylos/Sitemap/internal/db"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/metrics"
	"github.com/Project-Sylos/Sitemap/internal/telemetry"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("github.com/Project-Sylos/Sitemap/internal/sitemap")

// Service is the site-planning backend
type Service struct {
	db     *db.DB
	blobs  artifacts.Blobs
	cache  cache.TreeCache
	logger zerolog.Logger
	now    func() time.Time

	// gens counts invalidations per project. A reader only fills the cache
	// when no invalidation happened since it started reading.
	genMu sync.Mutex
	gens  map[string]uint64
}

// Option customizes a Service
type Option func(*Service)

// WithCache sets the tree cache. The default never hits.
func WithCache(c cache.TreeCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires a service over an open store and a blob backend
func New(database *db.DB, blobs artifacts.Blobs, opts ...Option) *Service {
	s := &Service{
		db:     database,
		blobs:  blobs,
		cache:  cache.Nop{},
		logger: xlog.WithComponent("sitemap"),
		now:    time.Now,
		gens:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a service from configuration: it opens the database, the
// artifact backend and, when configured, the Redis tree cache.
func Open(ctx context.Context, cfg *types.Config) (*Service, error) {
	logger := xlog.WithComponent("sitemap")

	database, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	blobs, err := artifacts.New(ctx, cfg.Artifacts, xlog.WithComponent("artifacts"))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize artifacts: %w", err)
	}

	treeCache, err := cache.New(cfg.Cache, xlog.WithComponent("cache"))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("artifacts", cfg.Artifacts.Backend).
		Bool("cache", cfg.Cache.RedisURL != "").
		Msg("sitemap service ready")

	return New(database, blobs, WithCache(treeCache), WithLogger(logger)), nil
}

// Close releases the cache and the database
func (s *Service) Close() error {
	if err := s.cache.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close cache")
	}
	return s.db.Close()
}

// DB exposes the underlying store
func (s *Service) DB() *db.DB {
	return s.db
}

// Ping checks that the database is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Stats returns the row count of every table
func (s *Service) Stats(ctx context.Context) ([]types.TableInfo, error) {
	return s.db.Stats(ctx)
}

// CacheStats returns the tree cache counters
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Reset deletes every row. Artifact blobs are left in place.
func (s *Service) Reset(ctx context.Context) error {
	projects, err := s.db.ListProjects(ctx)
	if err != nil {
		return err
	}
	if err := s.db.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	for _, p := range projects {
		s.invalidate(ctx, p.ID)
	}
	s.logger.Info().Int("projects", len(projects)).Msg("database reset")
	return nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func newID() string {
	return uuid.New().String()
}

// loggerFor prefers the request logger carried by ctx
func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	var l zerolog.Logger
	if reqLogger := zerolog.Ctx(ctx); reqLogger.GetLevel() != zerolog.Disabled {
		l = reqLogger.With().Str(xlog.FieldComponent, "sitemap").Logger()
	} else {
		l = xlog.WithContext(ctx, s.logger)
	}
	return &l
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sitemap."+name, trace.WithAttributes(attrs...))
}

// itemsOf returns every item of a project, through the cache
func (s *Service) itemsOf(ctx context.Context, projectID string) ([]types.Item, error) {
	s.genMu.Lock()
	gen := s.gens[projectID]
	s.genMu.Unlock()

	if items, ok := s.cache.Get(ctx, projectID); ok {
		metrics.RecordCacheLookup(true)
		return items, nil
	}
	metrics.RecordCacheLookup(false)

	items, err := s.db.ListItems(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[projectID] == gen {
		s.cache.Set(ctx, projectID, items)
	}
	return items, nil
}

// invalidate runs after a write commits. It holds genMu across the cache
// delete so a reader that read before the commit cannot Set after it.
func (s *Service) invalidate(ctx context.Context, projectID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.gens[projectID]++
	s.cache.Invalidate(ctx, projectID)
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required: %w", types.ErrInvalid)
	}
	return name, nil
}
