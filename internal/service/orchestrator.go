package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/domain/model"
	"github.com/jobpulse/jobpulse/internal/observability/metrics"
	"github.com/jobpulse/jobpulse/internal/observability/statsd"
)

// Source is a provider the orchestrator can pull raw job records from.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.RawJobData, error)
}

// OrchestratorConfig tunes a multi-source run.
type OrchestratorConfig struct {
	// BatchSize for the combined ingestion; zero uses the ingest default.
	BatchSize int
	// DedupEnabled runs the cross-source duplication analysis after ingestion.
	DedupEnabled bool
	// DedupWindow bounds the analysis to recently posted jobs. Defaults to 7 days.
	DedupWindow time.Duration
	// ExpireAfter deactivates jobs posted longer ago than this. Zero disables
	// the expiration pass.
	ExpireAfter time.Duration
}

func (c *OrchestratorConfig) sanitize() {
	if c.DedupWindow <= 0 {
		c.DedupWindow = 7 * 24 * time.Hour
	}
}

// OrchestratorOptions groups dependencies for NewOrchestrator.
type OrchestratorOptions struct {
	Sources []Source
	Ingest  *IngestService     // required
	Jobs    core.JobRepository // required when dedup or expiration is enabled
	Logger  *slog.Logger
	Metrics statsd.Sink
	Config  OrchestratorConfig
}

// Orchestrator runs the full multi-source pipeline: fetch from every
// configured source, ingest the combined stream in batches, then run the
// post-ingestion analyses.
type Orchestrator struct {
	sources []Source
	ingest  *IngestService
	jobs    core.JobRepository
	logger  *slog.Logger
	metrics statsd.Sink
	cfg     OrchestratorConfig
	now     func() time.Time
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Ingest == nil {
		return nil, errors.New("IngestService is required")
	}
	if opts.Jobs == nil && (opts.Config.DedupEnabled || opts.Config.ExpireAfter > 0) {
		return nil, errors.New("JobRepository is required for dedup or expiration")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.sanitize()
	return &Orchestrator{
		sources: opts.Sources,
		ingest:  opts.Ingest,
		jobs:    opts.Jobs,
		logger:  logger.With("component", "orchestrator"),
		metrics: opts.Metrics,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// IngestFromAllSources fetches every source, ingests the combined records
// and returns the aggregate summary. A failing source is skipped with a
// warning; the run only errors when the shared setup (the technology
// vocabulary) cannot be established.
func (o *Orchestrator) IngestFromAllSources(ctx context.Context) (model.OrchestrationResult, error) {
	start := o.now()
	result := model.OrchestrationResult{PerSource: map[string]model.SourceStats{}}

	if err := o.ingest.PreloadTechnologies(ctx); err != nil {
		return result, err
	}

	var combined []model.RawJobData
	fetched := map[string]int{}
	for _, src := range o.sources {
		fetchStart := o.now()
		raw, err := src.Fetch(ctx)
		metrics.EmitFetch(o.metrics, src.Name(), len(raw), o.now().Sub(fetchStart), err)
		if err != nil {
			o.logger.WarnContext(ctx, "source fetch failed, skipping",
				"source", src.Name(), "error", err)
			result.SourcesSkipped = append(result.SourcesSkipped, src.Name())
			continue
		}
		o.logger.InfoContext(ctx, "source fetched", "source", src.Name(), "jobs", len(raw))
		result.SourcesProcessed = append(result.SourcesProcessed, src.Name())
		fetched[src.Name()] = len(raw)
		combined = append(combined, raw...)
	}
	result.TotalFetched = len(combined)

	batch, err := o.ingest.IngestInBatches(ctx, combined, o.cfg.BatchSize)
	if err != nil {
		return result, err
	}
	result.TotalIngested = batch.Stats.Inserted + batch.Stats.Updated
	result.TotalFailed = batch.Stats.Failed
	result.TotalDuplicated = batch.Stats.Updated
	o.distribute(fetched, result.TotalFetched, &result)

	if o.cfg.DedupEnabled {
		report, derr := o.analyzeDuplicates(ctx)
		if derr != nil {
			o.logger.WarnContext(ctx, "dedup analysis failed", "error", derr)
		} else {
			result.Dedup = report
			metrics.EmitDedup(o.metrics, *report)
		}
	}

	if o.cfg.ExpireAfter > 0 {
		expired, eerr := o.jobs.DeactivateExpired(ctx, o.now().Add(-o.cfg.ExpireAfter))
		if eerr != nil {
			o.logger.WarnContext(ctx, "expiration pass failed", "error", eerr)
		} else {
			result.Expired = expired
		}
	}

	result.Duration = o.now().Sub(start)
	o.logger.InfoContext(ctx, "orchestration finished",
		"fetched", result.TotalFetched,
		"ingested", result.TotalIngested,
		"failed", result.TotalFailed,
		"duplicated", result.TotalDuplicated,
		"skipped_sources", result.SourcesSkipped,
		"duration", result.Duration,
	)
	if result.TotalIngested == 0 && result.TotalFetched > 0 {
		o.logger.WarnContext(ctx, "run ingested nothing despite fetched jobs")
	}
	return result, nil
}

// distribute splits the combined-batch outcome counts across sources in
// proportion to each source's share of the fetched input. The per-source
// numbers are an approximation, not a per-record trace.
func (o *Orchestrator) distribute(fetched map[string]int, total int, result *model.OrchestrationResult) {
	for name, n := range fetched {
		stats := model.SourceStats{Fetched: n}
		if total > 0 {
			share := float64(n) / float64(total)
			stats.Ingested = int(math.Round(share * float64(result.TotalIngested)))
			stats.Failed = int(math.Round(share * float64(result.TotalFailed)))
		}
		result.PerSource[name] = stats
	}
}

// analyzeDuplicates reports how many active jobs in the recent window were
// contributed by more than one source, keyed by the sorted source
// combination. The report never gates insertion.
func (o *Orchestrator) analyzeDuplicates(ctx context.Context) (*model.DedupReport, error) {
	since := o.now().Add(-o.cfg.DedupWindow)
	jobs, err := o.jobs.FindActiveSince(ctx, since)
	if err != nil {
		return nil, err
	}

	report := &model.DedupReport{
		WindowDays:    int(o.cfg.DedupWindow / (24 * time.Hour)),
		TotalJobs:     len(jobs),
		SourceOverlap: map[string]int{},
	}
	for i := range jobs {
		if len(jobs[i].SourceAPIs) < 2 {
			continue
		}
		report.MultiSourceJobs++
		combo := append([]string(nil), jobs[i].SourceAPIs...)
		sort.Strings(combo)
		report.SourceOverlap[strings.Join(combo, "+")]++
	}
	if report.TotalJobs > 0 {
		report.DuplicateRate = float64(report.MultiSourceJobs) / float64(report.TotalJobs)
	}
	return report, nil
}
