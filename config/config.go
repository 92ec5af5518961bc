// Package config defines the environment-driven application configuration,
// split per domain: database.go for storage, providers.go for the job
// sources, ingest.go for the pipeline and observability.go for telemetry.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library.
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, relaxed limits).
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Job source configuration
	FranceTravail FranceTravailConfig `envPrefix:"FRANCETRAVAIL_"`
	Adzuna        AdzunaConfig        `envPrefix:"ADZUNA_"`
	Remotive      RemotiveConfig      `envPrefix:"REMOTIVE_"`

	// Ingestion pipeline configuration
	Ingest IngestConfig `envPrefix:"INGEST_"`

	// Scheduler configuration
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`

	// Service mode configuration: comma-delimited list of services to run.
	Services string `env:"SERVICES" envDefault:"ingest"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Ingest.Sanitize()
	c.Scheduler.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks APP_ENV as a fallback for the DEV flag.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsIngestEnabled returns true if the one-shot ingestion run is enabled.
func (c *AppConfig) IsIngestEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeIngest]
}

// IsSchedulerEnabled returns true if the cron scheduler is enabled.
func (c *AppConfig) IsSchedulerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeScheduler]
}
