package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"jobpulse"`
	Password string `env:"PASSWORD" envDefault:"jobpulse"`
	Name     string `env:"NAME"     envDefault:"jobpulse"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"     envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"  envDefault:"30m"`
}

// RedisConfig contains Redis configuration for the shared cache tier.
// The tier is optional: with Enabled=false the technology cache runs
// in-memory only.
type RedisConfig struct {
	Enabled  bool          `env:"ENABLED"  envDefault:"false"`
	Addr     string        `env:"ADDR"     envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD" envDefault:""`
	DB       int           `env:"DB"       envDefault:"0"`
	TTL      time.Duration `env:"TTL"      envDefault:"1h"`
}
