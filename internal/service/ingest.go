package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/detect"
	"github.com/jobpulse/jobpulse/internal/domain/model"
	"github.com/jobpulse/jobpulse/internal/observability/metrics"
	"github.com/jobpulse/jobpulse/internal/observability/statsd"
	"github.com/jobpulse/jobpulse/internal/providers"
)

// IngestConfig tunes the transformation and persistence pipeline.
type IngestConfig struct {
	// BatchSize is the slice size for IngestInBatches. Defaults to 50.
	BatchSize int
	// QualityThreshold drops jobs scoring below it. Defaults to 0.3.
	QualityThreshold float64
	// Weights for the quality score. Zero value means DefaultQualityWeights.
	Weights QualityWeights
	// DetectorAttempts bounds retries of detector calls. Defaults to 3.
	DetectorAttempts int
	// DetectorBaseDelay is the initial detector retry backoff. Defaults to 100ms.
	DetectorBaseDelay time.Duration
	// EnrichConcurrency bounds parallel region lookups. Defaults to 8.
	EnrichConcurrency int
}

func (c *IngestConfig) sanitize() {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = 0.3
	}
	if c.Weights.zero() {
		c.Weights = DefaultQualityWeights()
	}
	if c.DetectorAttempts <= 0 {
		c.DetectorAttempts = 3
	}
	if c.DetectorBaseDelay <= 0 {
		c.DetectorBaseDelay = 100 * time.Millisecond
	}
	if c.EnrichConcurrency <= 0 {
		c.EnrichConcurrency = 8
	}
}

// IngestServiceOptions groups dependencies for NewIngestService.
type IngestServiceOptions struct {
	Jobs         core.JobRepository   // required
	Technologies *TechnologyCache     // required
	Regions      core.RegionRepository // optional; nil disables region enrichment
	Logger       *slog.Logger
	Metrics      statsd.Sink
	Config       IngestConfig

	// DetectTechnologies overrides the default keyword detector, mainly for
	// tests. A nil hook uses detect.Technologies.
	DetectTechnologies func(text string) ([]string, error)
	// DetectExperience overrides the default level detector.
	DetectExperience func(title string, explicit *string, description string) (model.ExperienceLevel, error)
}

// IngestService turns raw provider records into validated, scored, persisted
// jobs. One instance serves all sources.
type IngestService struct {
	jobs         core.JobRepository
	technologies *TechnologyCache
	enricher     *regionEnricher
	logger       *slog.Logger
	metrics      statsd.Sink
	cfg          IngestConfig

	detectTechs func(text string) ([]string, error)
	detectLevel func(title string, explicit *string, description string) (model.ExperienceLevel, error)
	sleep       func(context.Context, time.Duration) error
}

// NewIngestService constructs the service, applying config defaults.
func NewIngestService(opts IngestServiceOptions) (*IngestService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Technologies == nil {
		return nil, errors.New("TechnologyCache is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.sanitize()

	detectTechs := opts.DetectTechnologies
	if detectTechs == nil {
		detectTechs = func(text string) ([]string, error) {
			return detect.Technologies(text), nil
		}
	}
	detectLevel := opts.DetectExperience
	if detectLevel == nil {
		detectLevel = func(title string, explicit *string, description string) (model.ExperienceLevel, error) {
			return detect.Experience(title, explicit, description), nil
		}
	}

	return &IngestService{
		jobs:         opts.Jobs,
		technologies: opts.Technologies,
		enricher:     &regionEnricher{regions: opts.Regions, concurrency: cfg.EnrichConcurrency},
		logger:       logger.With("component", "ingest"),
		metrics:      opts.Metrics,
		cfg:          cfg,
		detectTechs:  detectTechs,
		detectLevel:  detectLevel,
		sleep:        providers.SleepContext,
	}, nil
}

// PreloadTechnologies warms the technology cache so per-record validation
// never triggers a load mid-batch.
func (s *IngestService) PreloadTechnologies(ctx context.Context) error {
	_, err := s.technologies.Valid(ctx)
	return err
}

// ReloadTechnologies refreshes the vocabulary, typically after the allow-list
// table changes.
func (s *IngestService) ReloadTechnologies(ctx context.Context) error {
	return s.technologies.Reload(ctx)
}

// ClearTechnologyCache drops the cached vocabulary; the next validation
// loads it fresh.
func (s *IngestService) ClearTechnologyCache(ctx context.Context) {
	s.technologies.Clear(ctx)
}

// IngestWithStats runs the full pipeline for one batch of raw records:
// transform, quality filter, region enrichment, bulk upsert. Per-record
// failures are recorded in the stats; the only returned error is a failed
// vocabulary load, which makes validation impossible.
func (s *IngestService) IngestWithStats(ctx context.Context, raw []model.RawJobData) (model.IngestStats, error) {
	stats := model.IngestStats{
		IngestResult: model.IngestResult{
			Total:     len(raw),
			StartedAt: time.Now(),
		},
	}

	valid, err := s.technologies.Valid(ctx)
	if err != nil {
		return stats, fmt.Errorf("technology vocabulary unavailable: %w", err)
	}

	jobs := s.transform(ctx, raw, valid, &stats)
	jobs = s.filterByQuality(jobs, &stats)
	s.enricher.enrich(ctx, s, jobs)
	s.persist(ctx, jobs, &stats)
	s.summarize(jobs, &stats)

	stats.FinishedAt = time.Now()
	metrics.EmitIngest(s.metrics, stats.IngestResult)
	s.logger.InfoContext(ctx, "batch ingested",
		"total", stats.Total,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"rejected_low_quality", stats.RejectedLowQuality,
	)
	return stats, nil
}

// IngestInBatches slices raw into fixed-size batches and runs each through
// IngestWithStats. A failing batch marks only its own records failed; the
// remaining batches still run.
func (s *IngestService) IngestInBatches(ctx context.Context, raw []model.RawJobData, batchSize int) (model.BatchResult, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.BatchSize
	}
	result := model.BatchResult{
		Stats: model.IngestStats{
			IngestResult: model.IngestResult{
				Total:     len(raw),
				StartedAt: time.Now(),
			},
			QualityDistribution: map[string]int{},
			TechnologyCoverage:  map[string]int{},
		},
	}

	unknownSet := map[string]struct{}{}

	for start := 0; start < len(raw); start += batchSize {
		end := start + batchSize
		if end > len(raw) {
			end = len(raw)
		}
		batch := raw[start:end]
		result.Batches++

		stats, err := s.IngestWithStats(ctx, batch)
		if err != nil {
			result.FailedBatches++
			result.Stats.Failed += len(batch)
			result.Stats.Errors = append(result.Stats.Errors,
				fmt.Sprintf("batch %d: %v", result.Batches, err))
			s.logger.ErrorContext(ctx, "batch failed", "batch", result.Batches, "size", len(batch), "error", err)
			continue
		}

		result.Stats.Inserted += stats.Inserted
		result.Stats.Updated += stats.Updated
		result.Stats.Failed += stats.Failed
		result.Stats.Errors = append(result.Stats.Errors, stats.Errors...)
		result.Stats.RejectedLowQuality += stats.RejectedLowQuality
		for band, n := range stats.QualityDistribution {
			result.Stats.QualityDistribution[band] += n
		}
		for tech, n := range stats.TechnologyCoverage {
			result.Stats.TechnologyCoverage[tech] += n
		}
		for _, name := range stats.UnknownTechnologies {
			unknownSet[name] = struct{}{}
		}

		result.Stats.Persisted += stats.Persisted
		result.Stats.WithSalary += stats.WithSalary
		result.Stats.WithRegion += stats.WithRegion
	}

	if result.Stats.Persisted > 0 {
		result.Stats.SalaryCompletenessPct = 100 * float64(result.Stats.WithSalary) / float64(result.Stats.Persisted)
		result.Stats.RegionCompletenessPct = 100 * float64(result.Stats.WithRegion) / float64(result.Stats.Persisted)
	}
	result.Stats.UnknownTechnologies = sortedKeys(unknownSet)
	result.Stats.FinishedAt = time.Now()
	return result, nil
}

// transform maps raw records to domain jobs, recording per-record failures.
// A panic while transforming one record fails only that record.
func (s *IngestService) transform(ctx context.Context, raw []model.RawJobData, valid map[string]struct{}, stats *model.IngestStats) []model.Job {
	jobs := make([]model.Job, 0, len(raw))
	unknownSet := map[string]struct{}{}

	for i := range raw {
		job, unknown, err := s.transformOne(ctx, &raw[i], valid)
		for _, name := range unknown {
			unknownSet[name] = struct{}{}
		}
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, err.Error())
			continue
		}
		jobs = append(jobs, *job)
	}

	stats.UnknownTechnologies = sortedKeys(unknownSet)
	return jobs
}

func (s *IngestService) transformOne(ctx context.Context, record *model.RawJobData, valid map[string]struct{}) (job *model.Job, unknown []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			job = nil
			err = fmt.Errorf("job %q (%s): transform panicked: %v", record.Title, record.SourceAPI, r)
		}
	}()

	detected := record.Technologies
	if len(detected) == 0 {
		derr := withRetry(ctx, s.logger, "detect technologies", s.cfg.DetectorAttempts, s.cfg.DetectorBaseDelay, s.sleep, func() error {
			var ferr error
			detected, ferr = s.detectTechs(record.Title + " " + record.Description)
			return ferr
		})
		if derr != nil {
			return nil, nil, fmt.Errorf("job %q (%s): technology detection failed: %v", record.Title, record.SourceAPI, derr)
		}
	}

	validated := make([]string, 0, len(detected))
	for _, name := range detected {
		if _, ok := valid[name]; ok {
			validated = append(validated, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	if len(validated) == 0 {
		if len(detected) > 0 {
			return nil, unknown, fmt.Errorf("job %q (%s): detected technologies are not in the known vocabulary", record.Title, record.SourceAPI)
		}
		return nil, unknown, fmt.Errorf("job %q (%s): no technologies detected", record.Title, record.SourceAPI)
	}

	var level model.ExperienceLevel
	lerr := withRetry(ctx, s.logger, "detect experience", s.cfg.DetectorAttempts, s.cfg.DetectorBaseDelay, s.sleep, func() error {
		var ferr error
		level, ferr = s.detectLevel(record.Title, record.ExperienceLevel, record.Description)
		return ferr
	})
	if lerr != nil {
		return nil, unknown, fmt.Errorf("job %q (%s): experience detection failed: %v", record.Title, record.SourceAPI, lerr)
	}

	return &model.Job{
		ID:           record.ID,
		Title:        record.Title,
		Company:      record.Company,
		Description:  record.Description,
		Technologies: validated,
		Location:     record.Location,
		Remote:       record.Remote,
		SalaryMin:    record.SalaryMin,
		SalaryMax:    record.SalaryMax,
		Experience:   level,
		RegionID:     record.RegionID,
		SourceAPI:    record.SourceAPI,
		ExternalID:   record.ExternalID,
		URL:          record.URL,
		PostedAt:     record.PostedAt,
		Active:       true,
		SourceAPIs:   []string{record.SourceAPI},
	}, unknown, nil
}

// filterByQuality scores each job and drops those below the threshold.
// Dropped jobs count as failed so batch totals still reconcile.
func (s *IngestService) filterByQuality(jobs []model.Job, stats *model.IngestStats) []model.Job {
	kept := jobs[:0]
	for i := range jobs {
		jobs[i].QualityScore = QualityScore(&jobs[i], s.cfg.Weights)
		if jobs[i].QualityScore < s.cfg.QualityThreshold {
			stats.RejectedLowQuality++
			stats.Failed++
			stats.Errors = append(stats.Errors,
				fmt.Sprintf("job %q (%s): quality score %.2f below threshold %.2f",
					jobs[i].Title, jobs[i].SourceAPI, jobs[i].QualityScore, s.cfg.QualityThreshold))
			continue
		}
		kept = append(kept, jobs[i])
	}
	return kept
}

// persist bulk-upserts the surviving jobs. A failed persist call is
// catastrophic for the batch: every record is marked failed with one
// aggregate error.
func (s *IngestService) persist(ctx context.Context, jobs []model.Job, stats *model.IngestStats) {
	if len(jobs) == 0 {
		return
	}
	res, err := s.jobs.SaveMany(ctx, jobs)
	if err != nil {
		stats.Failed += len(jobs)
		stats.Errors = append(stats.Errors, fmt.Sprintf("bulk upsert failed for %d jobs: %v", len(jobs), err))
		s.logger.ErrorContext(ctx, "bulk upsert failed", "jobs", len(jobs), "error", err)
		return
	}
	stats.Inserted += res.Inserted
	stats.Updated += res.Updated
	stats.Failed += res.Failed
	stats.Errors = append(stats.Errors, res.Errors...)
}

// summarize computes the per-batch quality and completeness aggregates over
// the jobs that reached persistence.
func (s *IngestService) summarize(jobs []model.Job, stats *model.IngestStats) {
	if len(jobs) == 0 {
		return
	}
	stats.QualityDistribution = map[string]int{}
	stats.TechnologyCoverage = map[string]int{}

	for i := range jobs {
		stats.QualityDistribution[qualityBand(jobs[i].QualityScore)]++
		for _, tech := range jobs[i].Technologies {
			stats.TechnologyCoverage[tech]++
		}
		if jobs[i].HasSalary() {
			stats.WithSalary++
		}
		if jobs[i].RegionID != nil {
			stats.WithRegion++
		}
	}
	stats.Persisted = len(jobs)
	stats.SalaryCompletenessPct = 100 * float64(stats.WithSalary) / float64(len(jobs))
	stats.RegionCompletenessPct = 100 * float64(stats.WithRegion) / float64(len(jobs))
}

// qualityBand buckets a score into one of five fixed bands.
func qualityBand(score float64) string {
	switch {
	case score < 0.2:
		return "0.0-0.2"
	case score < 0.4:
		return "0.2-0.4"
	case score < 0.6:
		return "0.4-0.6"
	case score < 0.8:
		return "0.6-0.8"
	default:
		return "0.8-1.0"
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
