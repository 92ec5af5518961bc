package config

import "time"

// IngestConfig contains the pipeline tuning knobs.
type IngestConfig struct {
	// BatchSize is the number of jobs persisted per bulk upsert.
	BatchSize int `env:"BATCH_SIZE" envDefault:"50"`
	// QualityThreshold drops jobs scoring below it, in [0, 1].
	QualityThreshold float64 `env:"QUALITY_THRESHOLD" envDefault:"0.3"`
	// DedupEnabled runs the cross-source duplication analysis after each run.
	DedupEnabled bool `env:"DEDUP_ENABLED" envDefault:"true"`
	// DedupWindowDays bounds the duplication analysis window.
	DedupWindowDays int `env:"DEDUP_WINDOW_DAYS" envDefault:"7"`
	// ExpireAfterDays deactivates jobs posted longer ago; 0 disables the pass.
	ExpireAfterDays int `env:"EXPIRE_AFTER_DAYS" envDefault:"30"`

	// Quality score weights. They should sum to 1.
	WeightSalary       float64 `env:"WEIGHT_SALARY"       envDefault:"0.25"`
	WeightRegion       float64 `env:"WEIGHT_REGION"       envDefault:"0.15"`
	WeightDescription  float64 `env:"WEIGHT_DESCRIPTION"  envDefault:"0.20"`
	WeightTechnologies float64 `env:"WEIGHT_TECHNOLOGIES" envDefault:"0.20"`
	WeightExperience   float64 `env:"WEIGHT_EXPERIENCE"   envDefault:"0.20"`
}

// Sanitize applies guardrails to values loaded from env.
func (c *IngestConfig) Sanitize() {
	if c.BatchSize < 1 {
		c.BatchSize = 50
	}
	if c.BatchSize > 500 {
		c.BatchSize = 500
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		c.QualityThreshold = 0.3
	}
	if c.DedupWindowDays < 1 {
		c.DedupWindowDays = 7
	}
	if c.ExpireAfterDays < 0 {
		c.ExpireAfterDays = 0
	}
}

// DedupWindow returns the analysis window as a duration.
func (c IngestConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowDays) * 24 * time.Hour
}

// ExpireAfter returns the expiration cutoff as a duration; zero disables it.
func (c IngestConfig) ExpireAfter() time.Duration {
	return time.Duration(c.ExpireAfterDays) * 24 * time.Hour
}

// SchedulerConfig controls the cron-driven ingestion runs.
type SchedulerConfig struct {
	// Spec is a standard 5-field cron expression.
	Spec string `env:"SPEC" envDefault:"0 */6 * * *"`
	// RunOnStart triggers one run immediately when the scheduler starts.
	RunOnStart bool `env:"RUN_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to values loaded from env.
func (c *SchedulerConfig) Sanitize() {
	if c.Spec == "" {
		c.Spec = "0 */6 * * *"
	}
}
