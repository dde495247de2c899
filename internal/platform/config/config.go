package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, loaded from TEMPUS_* environment
// variables so main stays lean.
type Config struct {
	Server    Server
	Log       Log
	Database  Database
	Redis     Redis
	Kafka     Kafka
	Cache     Cache
	Worklog   Worklog
	RateLimit RateLimit
	Admin     Admin
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TEMPUS_ADDR"             envDefault:":8080"`
	ReadTimeout     time.Duration `env:"TEMPUS_READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"TEMPUS_WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout     time.Duration `env:"TEMPUS_IDLE_TIMEOUT"     envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"TEMPUS_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Log selects the slog handler and its level.
type Log struct {
	Level  string `env:"TEMPUS_LOG_LEVEL"  envDefault:"info"`
	Format string `env:"TEMPUS_LOG_FORMAT" envDefault:"json"`
}

// Database points at Postgres. When DSN is empty the server falls back to
// in-memory stores, which is how unit environments and local smoke runs work.
type Database struct {
	DSN             string        `env:"TEMPUS_DATABASE_DSN"`
	MaxOpenConns    int           `env:"TEMPUS_DATABASE_MAX_OPEN_CONNS"    envDefault:"25"`
	MaxIdleConns    int           `env:"TEMPUS_DATABASE_MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"TEMPUS_DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"TEMPUS_DATABASE_CONNECT_TIMEOUT"   envDefault:"5s"`
}

// Redis points at the projection cache. Empty Addr disables Redis and the
// cache degrades to the in-process implementation.
type Redis struct {
	Addr     string `env:"TEMPUS_REDIS_ADDR"`
	Password string `env:"TEMPUS_REDIS_PASSWORD"`
	DB       int    `env:"TEMPUS_REDIS_DB" envDefault:"0"`
}

// Kafka configures the audit relay's destination. Empty Brokers disables the
// relay; audit rows still accumulate in the outbox.
type Kafka struct {
	Brokers       []string      `env:"TEMPUS_KAFKA_BROKERS"        envSeparator:","`
	AuditTopic    string        `env:"TEMPUS_KAFKA_AUDIT_TOPIC"    envDefault:"tempus.audit"`
	RelayInterval time.Duration `env:"TEMPUS_KAFKA_RELAY_INTERVAL" envDefault:"5s"`
	RelayBatch    int           `env:"TEMPUS_KAFKA_RELAY_BATCH"    envDefault:"100"`
}

// Cache holds projection cache TTLs. Detail listings churn faster than
// aggregates and get the shorter TTL.
type Cache struct {
	TTL       time.Duration `env:"TEMPUS_CACHE_TTL"        envDefault:"5m"`
	DetailTTL time.Duration `env:"TEMPUS_CACHE_DETAIL_TTL" envDefault:"1m"`
}

// Worklog holds domain tuning. FiscalMonthStartDay is clamped to 1..28 at
// the point of use so February never truncates a window.
type Worklog struct {
	FiscalMonthStartDay int `env:"TEMPUS_FISCAL_MONTH_START_DAY" envDefault:"1"`
}

// Admin guards the tenant provisioning routes. When Token is empty the
// /admin subtree is not mounted at all; an empty shared secret must never
// degrade into an open admin surface.
type Admin struct {
	Token string `env:"TEMPUS_ADMIN_TOKEN"`
}

// RateLimit tunes the per-IP token buckets.
type RateLimit struct {
	Enabled       bool          `env:"TEMPUS_RATE_LIMIT_ENABLED"        envDefault:"true"`
	Capacity      int           `env:"TEMPUS_RATE_LIMIT_CAPACITY"       envDefault:"20"`
	RefillPerSec  float64       `env:"TEMPUS_RATE_LIMIT_REFILL_PER_SEC" envDefault:"10"`
	SweepInterval time.Duration `env:"TEMPUS_RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1m"`
	IdleAfter     time.Duration `env:"TEMPUS_RATE_LIMIT_IDLE_AFTER"     envDefault:"5m"`
}

// Load builds the full configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
