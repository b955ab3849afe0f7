// Package config handles harness configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Snapshot storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Validation errors
var (
	ErrUnknownBackend      = errors.New("unknown snapshot backend")
	ErrInvalidIterationCap = errors.New("clock iteration cap must be positive")
	ErrInvalidTickDuration = errors.New("clock tick duration must be positive")
)

// Config holds all configuration for the harness.
type Config struct {
	App      AppConfig
	Clock    ClockConfig
	Snapshot SnapshotConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Metrics  MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env      string
	LogLevel string
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// IsCI returns true when running under continuous integration, where
// snapshots must never be written implicitly.
func (a AppConfig) IsCI() bool {
	return a.Env == "ci"
}

// ClockConfig holds virtual clock configuration.
type ClockConfig struct {
	MaxIterations int
	TickDuration  time.Duration
}

// SnapshotConfig holds snapshot storage configuration.
type SnapshotConfig struct {
	Backend string
	Dir     string
	Update  bool
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr string
}

// Enabled reports whether a metrics endpoint should be served.
func (m MetricsConfig) Enabled() bool {
	return m.Addr != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.App.Env = getEnvOrDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	if cfg.Clock.MaxIterations, err = getEnvAsInt("CLOCK_MAX_ITERATIONS", 100000); err != nil {
		return nil, fmt.Errorf("invalid CLOCK_MAX_ITERATIONS: %w", err)
	}
	if cfg.Clock.TickDuration, err = getEnvAsDuration("CLOCK_TICK_DURATION", time.Millisecond); err != nil {
		return nil, fmt.Errorf("invalid CLOCK_TICK_DURATION: %w", err)
	}

	cfg.Snapshot.Backend = getEnvOrDefault("SNAPSHOT_BACKEND", BackendMemory)
	cfg.Snapshot.Dir = getEnvOrDefault("SNAPSHOT_DIR", "__snapshots__")
	if cfg.Snapshot.Update, err = getEnvAsBool("SNAPSHOT_UPDATE", false); err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_UPDATE: %w", err)
	}

	cfg.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	if cfg.Database.Port, err = getEnvAsInt("DB_PORT", 5432); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.User = getEnvOrDefault("DB_USER", "harness")
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", "")
	cfg.Database.DBName = getEnvOrDefault("DB_NAME", "harness")
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	if cfg.Database.MaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 5); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.Database.MaxIdleConns, err = getEnvAsInt("DB_MAX_IDLE_CONNS", 1); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.Database.ConnMaxLifetime, err = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	cfg.Redis.Host = getEnvOrDefault("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = getEnvAsInt("REDIS_PORT", 6379); err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.Redis.PoolSize, err = getEnvAsInt("REDIS_POOL_SIZE", 4); err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}
	cfg.Redis.KeyPrefix = getEnvOrDefault("REDIS_KEY_PREFIX", "snapshot:")

	cfg.Metrics.Addr = getEnvOrDefault("METRICS_ADDR", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Snapshot.Backend)
	}
	if c.Clock.MaxIterations <= 0 {
		return ErrInvalidIterationCap
	}
	if c.Clock.TickDuration <= 0 {
		return ErrInvalidTickDuration
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

// getEnvAsBool returns the environment variable as a boolean.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(valueStr)
}

// getEnvAsDuration returns the environment variable as a duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(valueStr)
}
