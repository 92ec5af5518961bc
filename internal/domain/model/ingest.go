package model

import "time"

// SaveManyResult reports the outcome of a bulk upsert.
type SaveManyResult struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Add folds another result into r.
func (r *SaveManyResult) Add(other SaveManyResult) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// IngestResult is the observation artifact of one ingestion pass.
// It is never mutated after the run ends.
type IngestResult struct {
	Source     string    `json:"source,omitempty"`
	Total      int       `json:"total"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// IngestStats extends IngestResult with pipeline observability for one batch run.
type IngestStats struct {
	IngestResult

	// RejectedLowQuality counts records dropped by the quality threshold.
	RejectedLowQuality int `json:"rejected_low_quality"`
	// QualityDistribution buckets surviving jobs by score band ("0.0-0.2", ...).
	QualityDistribution map[string]int `json:"quality_distribution,omitempty"`
	// TechnologyCoverage counts surviving jobs per validated technology.
	TechnologyCoverage map[string]int `json:"technology_coverage,omitempty"`
	// UnknownTechnologies lists detected names that failed allow-list validation.
	UnknownTechnologies []string `json:"unknown_technologies,omitempty"`
	// Persisted counts jobs that reached the bulk upsert after filtering.
	Persisted int `json:"persisted"`
	// WithSalary and WithRegion count persisted jobs carrying each signal;
	// the Pct fields derive from them so cross-batch aggregation stays exact.
	WithSalary int `json:"with_salary"`
	WithRegion int `json:"with_region"`
	// SalaryCompletenessPct is the share of surviving jobs carrying salary data.
	SalaryCompletenessPct float64 `json:"salary_completeness_pct"`
	// RegionCompletenessPct is the share of surviving jobs with a resolved region.
	RegionCompletenessPct float64 `json:"region_completeness_pct"`
}

// BatchResult aggregates IngestStats across fixed-size batches.
type BatchResult struct {
	Batches       int         `json:"batches"`
	FailedBatches int         `json:"failed_batches"`
	Stats         IngestStats `json:"stats"`
}

// SourceStats is the per-source share of an orchestration run. When sources
// are merged into one batch pipeline the counts are distributed
// proportionally to each source's share of the combined input, so they are
// an approximation rather than a per-record trace.
type SourceStats struct {
	Fetched  int `json:"fetched"`
	Ingested int `json:"ingested"`
	Failed   int `json:"failed"`
}

// DedupReport summarizes cross-source duplication over a recent window.
// Purely descriptive output; never a gate on insertion.
type DedupReport struct {
	WindowDays      int            `json:"window_days"`
	TotalJobs       int            `json:"total_jobs"`
	MultiSourceJobs int            `json:"multi_source_jobs"`
	DuplicateRate   float64        `json:"duplicate_rate"`
	SourceOverlap   map[string]int `json:"source_overlap,omitempty"` // "adzuna+francetravail" -> count
}

// OrchestrationResult is the aggregate summary of a multi-source run.
// TotalIngested == 0 without an error is a soft-failure signal callers
// should alert on separately from a returned error.
type OrchestrationResult struct {
	TotalFetched     int                    `json:"total_fetched"`
	TotalIngested    int                    `json:"total_ingested"`
	TotalFailed      int                    `json:"total_failed"`
	TotalDuplicated  int                    `json:"total_duplicated"`
	Duration         time.Duration          `json:"duration"`
	SourcesProcessed []string               `json:"sources_processed"`
	SourcesSkipped   []string               `json:"sources_skipped,omitempty"`
	PerSource        map[string]SourceStats `json:"per_source,omitempty"`
	Dedup            *DedupReport           `json:"dedup,omitempty"`
	Expired          int                    `json:"expired,omitempty"`
}
