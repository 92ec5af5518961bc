// Package scheduler runs the ingestion orchestrator on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jobpulse/jobpulse/internal/service"
)

// Options groups dependencies for New.
type Options struct {
	Orchestrator *service.Orchestrator // required
	// Spec is a standard 5-field cron expression.
	Spec string
	// RunOnStart triggers one run immediately when Start is called.
	RunOnStart bool
	Logger     *slog.Logger
}

// Scheduler wraps robfig/cron and triggers full ingestion runs. Overlapping
// runs are prevented: a tick that fires while a run is still in progress is
// skipped with a warning.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *service.Orchestrator
	spec         string
	runOnStart   bool
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Orchestrator == nil {
		return nil, errors.New("Orchestrator is required")
	}
	if opts.Spec == "" {
		return nil, errors.New("cron spec is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: opts.Orchestrator,
		spec:         opts.Spec,
		runOnStart:   opts.RunOnStart,
		logger:       logger.With("component", "scheduler"),
	}, nil
}

// Start registers the ingestion job and starts the cron loop. The context
// bounds every triggered run.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("register cron job %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started", "spec", s.spec)

	if s.runOnStart {
		go s.runOnce(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for an in-flight run's cron entry to
// finish dispatching.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "previous ingestion run still in progress, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result, err := s.orchestrator.IngestFromAllSources(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled ingestion run failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled ingestion run finished",
		"fetched", result.TotalFetched,
		"ingested", result.TotalIngested,
		"failed", result.TotalFailed,
		"duration", result.Duration,
	)
}
