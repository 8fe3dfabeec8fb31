package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const opTimeout = 2 * time.Second

// RedisCache is the Redis-backed TreeCache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	stats  struct {
		hits          atomic.Int64
		misses        atomic.Int64
		sets          atomic.Int64
		invalidations atomic.Int64
	}
}

// New returns a RedisCache when cfg names a Redis URL and Nop otherwise.
func New(cfg types.CacheConfig, logger zerolog.Logger) (TreeCache, error) {
	if cfg.RedisURL == "" {
		return Nop{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", opts.Addr).
		Int("db", opts.DB).
		Dur("ttl", cfg.TTL.Std()).
		Msg("connected to Redis tree cache")

	return NewRedisCache(client, cfg.TTL.Std(), logger), nil
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, projectID string) ([]types.Item, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, Key(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("project_id", projectID).Msg("redis get failed")
		c.stats.misses.Add(1)
		return nil, false
	}

	var items []types.Item
	if err := json.Unmarshal(val, &items); err != nil {
		c.logger.Warn().Err(err).Str("project_id", projectID).Msg("cached tree is corrupt")
		c.stats.misses.Add(1)
		return nil, false
	}

	c.stats.hits.Add(1)
	return items, true
}

func (c *RedisCache) Set(ctx context.Context, projectID string, items []types.Item) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Warn().Err(err).Str("project_id", projectID).Msg("json marshal failed")
		return
	}
	if err := c.client.Set(ctx, Key(projectID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("project_id", projectID).Msg("redis set failed")
		return
	}
	c.stats.sets.Add(1)
}

func (c *RedisCache) Invalidate(ctx context.Context, projectID string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, Key(projectID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("project_id", projectID).Msg("redis delete failed")
		return
	}
	c.stats.invalidations.Add(1)
}

func (c *RedisCache) Stats() Stats {
	return Stats{
		Hits:          c.stats.hits.Load(),
		Misses:        c.stats.misses.Load(),
		Sets:          c.stats.sets.Load(),
		Invalidations: c.stats.invalidations.Load(),
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// HealthCheck checks if Redis is available.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
