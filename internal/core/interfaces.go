// Package core defines the repository and cache ports consumed by the
// ingestion pipeline. The core owns the interfaces; the data layer provides
// the implementations.
package core

import (
	"context"
	"time"

	"github.com/jobpulse/jobpulse/internal/domain/model"
)

// JobFilters narrows job queries. Zero values mean "no constraint".
type JobFilters struct {
	SourceAPI   string
	ActiveOnly  bool
	PostedAfter time.Time
	Technology  string
	RegionID    string
}

// JobRepository persists and queries job records.
//
// SaveMany is an idempotent upsert keyed on (source_api, external_id):
// re-ingesting a known pair updates the existing row, reactivates it and
// merges its source_apis instead of duplicating it.
type JobRepository interface {
	FindAll(ctx context.Context, filters JobFilters, page, limit int) ([]model.Job, error)
	Count(ctx context.Context, filters JobFilters) (int, error)
	Save(ctx context.Context, job *model.Job) error
	SaveMany(ctx context.Context, jobs []model.Job) (model.SaveManyResult, error)

	// FindActiveSince returns active jobs posted after the given time,
	// used by the post-ingestion deduplication analysis.
	FindActiveSince(ctx context.Context, since time.Time) ([]model.Job, error)

	// DeactivateExpired flips active=false on jobs whose posted_at is older
	// than the cutoff and returns the number of rows affected.
	DeactivateExpired(ctx context.Context, olderThan time.Time) (int, error)
}

// TechnologyRepository exposes the controlled technology vocabulary.
type TechnologyRepository interface {
	FindAll(ctx context.Context) ([]model.Technology, error)
}

// RegionRepository resolves region codes to regions.
// FindByCode returns (nil, nil) when the code is unknown.
type RegionRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Region, error)
}

// CacheRepository is a byte-oriented cache used as an optional shared tier
// above Postgres-backed lookups.
type CacheRepository interface {
	// Get returns nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value with the given TTL; a zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
}
