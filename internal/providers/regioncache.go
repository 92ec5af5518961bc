package providers

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jobpulse/jobpulse/internal/core"
)

// RegionCache resolves region codes to region identifiers through the
// region repository, memoizing results for the lifetime of the cache.
// Concurrent lookups for the same code are coalesced: a lookup already in
// flight is awaited rather than re-issued. Unknown codes are cached as nil
// so the repository is asked once per code at most.
type RegionCache struct {
	regions core.RegionRepository
	logger  *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	byCode map[string]*string
}

// NewRegionCache creates a cache over the given region repository.
func NewRegionCache(regions core.RegionRepository, logger *slog.Logger) *RegionCache {
	if logger != nil {
		logger = logger.With("component", "region_cache")
	}
	return &RegionCache{
		regions: regions,
		logger:  logger,
		byCode:  make(map[string]*string),
	}
}

// Resolve returns the region identifier for a code, or nil when the code is
// unknown. Returns (nil, nil) for an empty code.
func (c *RegionCache) Resolve(ctx context.Context, code string) (*string, error) {
	if code == "" {
		return nil, nil
	}

	c.mu.RLock()
	cached, ok := c.byCode[code]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(code, func() (any, error) {
		region, err := c.regions.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		var id *string
		if region != nil {
			id = &region.ID
		} else if c.logger != nil {
			c.logger.WarnContext(ctx, "unknown region code", "code", code)
		}
		c.mu.Lock()
		c.byCode[code] = id
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return nil, err
	}
	id, _ := v.(*string)
	return id, nil
}

// Len returns the number of memoized codes. Used by tests and metrics.
func (c *RegionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byCode)
}
