// Package service implements the transformation core of the ingestion
// pipeline and the orchestration across sources.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jobpulse/jobpulse/internal/core"
)

// techCacheKey is the shared-cache key holding the serialized vocabulary.
const techCacheKey = "jobpulse:technologies"

// TechnologyCacheOptions groups dependencies for NewTechnologyCache.
type TechnologyCacheOptions struct {
	Repo   core.TechnologyRepository // required
	Cache  core.CacheRepository      // optional shared tier above Postgres
	TTL    time.Duration             // shared-tier TTL; defaults to one hour
	Logger *slog.Logger
}

// TechnologyCache holds the set of known technology names, loaded lazily
// with single-flight semantics: concurrent callers during a load await the
// same in-flight load rather than issuing duplicate queries. The set is
// replaced atomically on completion and is safe for concurrent readers.
type TechnologyCache struct {
	repo   core.TechnologyRepository
	cache  core.CacheRepository
	ttl    time.Duration
	logger *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	names map[string]struct{}
	// gen advances on every Clear so an in-flight load started before the
	// clear can neither be joined by later callers nor install its result.
	gen uint64
}

// NewTechnologyCache constructs the cache.
func NewTechnologyCache(opts TechnologyCacheOptions) (*TechnologyCache, error) {
	if opts.Repo == nil {
		return nil, errors.New("TechnologyRepository is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "technology_cache")
	}
	return &TechnologyCache{
		repo:   opts.Repo,
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Valid returns the set of known technology names, loading it on first use.
// The returned map must be treated as read-only.
func (c *TechnologyCache) Valid(ctx context.Context) (map[string]struct{}, error) {
	c.mu.RLock()
	names := c.names
	gen := c.gen
	c.mu.RUnlock()
	if names != nil {
		return names, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("load-%d", gen), func() (any, error) {
		c.mu.RLock()
		loaded := c.names
		c.mu.RUnlock()
		if loaded != nil {
			return loaded, nil
		}
		return c.load(ctx, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]struct{}), nil
}

// load reads the vocabulary, preferring the shared cache tier and falling
// back to the repository with a write-through.
func (c *TechnologyCache) load(ctx context.Context, gen uint64) (map[string]struct{}, error) {
	if set := c.loadShared(ctx); set != nil {
		c.store(set, gen)
		return set, nil
	}

	techs, err := c.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load technologies: %w", err)
	}

	set := make(map[string]struct{}, len(techs))
	list := make([]string, 0, len(techs))
	for _, tech := range techs {
		if tech.Name == "" {
			continue
		}
		set[tech.Name] = struct{}{}
		list = append(list, tech.Name)
	}
	c.store(set, gen)

	if c.cache != nil {
		if payload, merr := json.Marshal(list); merr == nil {
			if serr := c.cache.Set(ctx, techCacheKey, payload, c.ttl); serr != nil && c.logger != nil {
				c.logger.WarnContext(ctx, "shared technology cache write failed", "error", serr)
			}
		}
	}
	if c.logger != nil {
		c.logger.InfoContext(ctx, "technology cache loaded", "count", len(set))
	}
	return set, nil
}

func (c *TechnologyCache) loadShared(ctx context.Context) map[string]struct{} {
	if c.cache == nil {
		return nil
	}
	payload, err := c.cache.Get(ctx, techCacheKey)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "shared technology cache read failed", "error", err)
		}
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(payload, &list); err != nil || len(list) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(list))
	for _, name := range list {
		set[name] = struct{}{}
	}
	return set
}

// store installs the set unless a Clear advanced the generation while the
// load was in flight.
func (c *TechnologyCache) store(set map[string]struct{}, gen uint64) {
	c.mu.Lock()
	if c.gen == gen {
		c.names = set
	}
	c.mu.Unlock()
}

// Clear invalidates both the in-memory set and the shared tier; the next
// Valid call reloads.
func (c *TechnologyCache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.names = nil
	c.gen++
	c.mu.Unlock()
	if c.cache != nil {
		if _, err := c.cache.Delete(ctx, techCacheKey); err != nil && c.logger != nil {
			c.logger.WarnContext(ctx, "shared technology cache delete failed", "error", err)
		}
	}
}

// Reload clears and synchronously reloads the vocabulary.
func (c *TechnologyCache) Reload(ctx context.Context) error {
	c.Clear(ctx)
	_, err := c.Valid(ctx)
	return err
}
