package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/jobpulse/jobpulse/config"
	"github.com/jobpulse/jobpulse/internal/core"
	"github.com/jobpulse/jobpulse/internal/data"
	"github.com/jobpulse/jobpulse/internal/observability/statsd"
	"github.com/jobpulse/jobpulse/internal/providers"
	"github.com/jobpulse/jobpulse/internal/providers/adzuna"
	"github.com/jobpulse/jobpulse/internal/providers/francetravail"
	"github.com/jobpulse/jobpulse/internal/providers/remotive"
	"github.com/jobpulse/jobpulse/internal/scheduler"
	"github.com/jobpulse/jobpulse/internal/service"
)

// ServiceDeps carries the shared infrastructure the service graph is built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // nil when the shared cache tier is disabled
	Logger      *slog.Logger
}

// Services is the wired application service graph.
type Services struct {
	Metrics      *statsd.Client
	Ingest       *service.IngestService
	Orchestrator *service.Orchestrator
	Scheduler    *scheduler.Scheduler // nil unless the scheduler service is enabled
}

// NewServices wires repositories, caches, provider clients and the
// orchestrator from configuration.
func NewServices(deps *ServiceDeps) (*Services, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return nil, errors.New("config and database are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init statsd client: %w", err)
	}

	jobRepo := data.NewJobRepo(deps.DB)
	techRepo := data.NewTechnologyRepo(deps.DB)
	regionRepo := data.NewRegionRepo(deps.DB)

	var cacheRepo core.CacheRepository
	if deps.RedisClient != nil {
		cacheRepo = data.NewRedisCacheRepo(deps.RedisClient)
	}

	techCache, err := service.NewTechnologyCache(service.TechnologyCacheOptions{
		Repo:   techRepo,
		Cache:  cacheRepo,
		TTL:    cfg.Redis.TTL,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init technology cache: %w", err)
	}

	ingestSvc, err := service.NewIngestService(service.IngestServiceOptions{
		Jobs:         jobRepo,
		Technologies: techCache,
		Regions:      regionRepo,
		Logger:       logger,
		Metrics:      metricsClient,
		Config: service.IngestConfig{
			BatchSize:        cfg.Ingest.BatchSize,
			QualityThreshold: cfg.Ingest.QualityThreshold,
			Weights: service.QualityWeights{
				Salary:       cfg.Ingest.WeightSalary,
				Region:       cfg.Ingest.WeightRegion,
				Description:  cfg.Ingest.WeightDescription,
				Technologies: cfg.Ingest.WeightTechnologies,
				Experience:   cfg.Ingest.WeightExperience,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init ingest service: %w", err)
	}

	sources, err := buildSources(cfg, regionRepo, logger)
	if err != nil {
		return nil, err
	}

	orchestrator, err := service.NewOrchestrator(service.OrchestratorOptions{
		Sources: sources,
		Ingest:  ingestSvc,
		Jobs:    jobRepo,
		Logger:  logger,
		Metrics: metricsClient,
		Config: service.OrchestratorConfig{
			BatchSize:    cfg.Ingest.BatchSize,
			DedupEnabled: cfg.Ingest.DedupEnabled,
			DedupWindow:  cfg.Ingest.DedupWindow(),
			ExpireAfter:  cfg.Ingest.ExpireAfter(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	services := &Services{
		Metrics:      metricsClient,
		Ingest:       ingestSvc,
		Orchestrator: orchestrator,
	}

	if cfg.IsSchedulerEnabled() {
		sched, err := scheduler.New(scheduler.Options{
			Orchestrator: orchestrator,
			Spec:         cfg.Scheduler.Spec,
			RunOnStart:   cfg.Scheduler.RunOnStart,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init scheduler: %w", err)
		}
		services.Scheduler = sched
	}

	return services, nil
}

// buildSources constructs one orchestrator source per configured provider.
// Sources without usable credentials are left out with a notice rather than
// failing startup.
func buildSources(cfg *config.AppConfig, regionRepo core.RegionRepository, logger *slog.Logger) ([]service.Source, error) {
	var sources []service.Source

	if cfg.FranceTravail.Configured() {
		client, err := francetravail.New(francetravail.Options{
			Config: francetravail.Config{
				ClientID:     cfg.FranceTravail.ClientID,
				ClientSecret: cfg.FranceTravail.ClientSecret,
				TokenURL:     cfg.FranceTravail.TokenURL,
				BaseURL:      cfg.FranceTravail.BaseURL,
				Scope:        cfg.FranceTravail.Scope,
			},
			Regions: providers.NewRegionCache(regionRepo, logger),
			Retry:   providers.DefaultRetryPolicy(),
			Breaker: providers.NewCircuitBreaker(0, 0),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init francetravail client: %w", err)
		}
		sources = append(sources, francetravail.NewSource(client, francetravail.FetchOptions{
			Keywords:   cfg.FranceTravail.Keywords,
			MaxResults: cfg.FranceTravail.MaxResults,
		}))
	} else if cfg.FranceTravail.Enabled {
		logger.Warn("francetravail source enabled but credentials missing, leaving it out")
	}

	if cfg.Adzuna.Configured() {
		client, err := adzuna.New(adzuna.Options{
			Config: adzuna.Config{
				AppID:   cfg.Adzuna.AppID,
				AppKey:  cfg.Adzuna.AppKey,
				BaseURL: cfg.Adzuna.BaseURL,
				Country: cfg.Adzuna.Country,
			},
			Retry:   providers.DefaultRetryPolicy(),
			Breaker: providers.NewCircuitBreaker(0, 0),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init adzuna client: %w", err)
		}
		sources = append(sources, adzuna.NewSource(client, adzuna.FetchOptions{
			What:       cfg.Adzuna.What,
			MaxResults: cfg.Adzuna.MaxResults,
		}))
	} else if cfg.Adzuna.Enabled {
		logger.Warn("adzuna source enabled but credentials missing, leaving it out")
	}

	if cfg.Remotive.Enabled {
		client, err := remotive.New(remotive.Options{
			Config: remotive.Config{BaseURL: cfg.Remotive.BaseURL},
			Retry:  providers.DefaultRetryPolicy(),
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init remotive client: %w", err)
		}
		sources = append(sources, remotive.NewSource(client, remotive.FetchOptions{
			Category: cfg.Remotive.Category,
			Search:   cfg.Remotive.Search,
			Limit:    cfg.Remotive.Limit,
		}))
	}

	if len(sources) == 0 {
		logger.Warn("no job sources configured, ingestion runs will be empty")
	}
	return sources, nil
}

// RunServices executes the enabled service modes. The ingest mode runs one
// orchestration pass and returns; the scheduler mode blocks until SIGINT or
// SIGTERM.
func RunServices(ctx context.Context, cfg *config.AppConfig, services *Services, logger *slog.Logger) error {
	defer func() {
		if err := services.Metrics.Close(); err != nil {
			logger.WarnContext(ctx, "close statsd client failed", "error", err)
		}
	}()

	enabled, err := cfg.GetEnabledServices()
	if err != nil {
		return err
	}

	if enabled[config.ServiceModeIngest] {
		result, err := services.Orchestrator.IngestFromAllSources(ctx)
		if err != nil {
			return fmt.Errorf("ingestion run: %w", err)
		}
		logger.InfoContext(ctx, "ingestion run complete",
			"fetched", result.TotalFetched,
			"ingested", result.TotalIngested,
			"failed", result.TotalFailed,
			"sources_skipped", result.SourcesSkipped,
		)
	}

	if enabled[config.ServiceModeScheduler] {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		if err := services.Scheduler.Start(runCtx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		received := <-sig
		logger.InfoContext(ctx, "shutdown signal received", "signal", received.String())

		cancel()
		services.Scheduler.Stop()
	}

	return nil
}
