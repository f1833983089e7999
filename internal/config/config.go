// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers selected by the DATABASE_URL scheme.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Job names shared by the runner, scheduler and CLI.
const (
	JobCleanup        = "cleanup"
	JobOrderReminders = "order_reminders"
	JobLowStock       = "low_stock"
	JobWeeklyReport   = "weekly_report"
	JobHeartbeat      = "heartbeat"
)

// ErrUnsupportedDatabase is returned for DATABASE_URL schemes with no store.
var ErrUnsupportedDatabase = errors.New("unsupported DATABASE_URL scheme")

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8000"`

	// Database: postgres://... or sqlite://path
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://db.sqlite3"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// Cache (Redis). Optional; enables rate limiting and job locks.
	RedisURL          string `env:"REDIS_URL"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting on /graphql (per client IP, needs Redis)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// API key. The server checks API_KEY_HASH; jobs send API_KEY.
	APIKeyHash string `env:"API_KEY_HASH"`
	APIKey     string `env:"API_KEY"`

	// Jobs
	GraphQLURL           string        `env:"GRAPHQL_URL" envDefault:"http://localhost:8000/graphql"`
	GraphQLTimeout       time.Duration `env:"GRAPHQL_TIMEOUT" envDefault:"10s"`
	GraphQLRetries       int           `env:"GRAPHQL_RETRIES" envDefault:"3"`
	JobLogDir            string        `env:"JOB_LOG_DIR" envDefault:"/tmp"`
	JobLockTTL           time.Duration `env:"JOB_LOCK_TTL" envDefault:"10m"`
	CleanupInactiveAfter time.Duration `env:"CLEANUP_INACTIVE_AFTER" envDefault:"8760h"`
	ReminderWindow       time.Duration `env:"REMINDER_WINDOW" envDefault:"168h"`
	LowStockThreshold    int           `env:"LOW_STOCK_THRESHOLD" envDefault:"10"`
	RestockAmount        int           `env:"RESTOCK_AMOUNT" envDefault:"10"`

	// Run the scheduler inside the API process.
	EmbedScheduler bool `env:"EMBED_SCHEDULER" envDefault:"false"`

	// Cron expressions. The env parser substitutes defaults for empty
	// values, so "off" is the way to disable a job.
	CronCleanup        string `env:"CRON_CLEANUP" envDefault:"0 2 * * 0"`
	CronOrderReminders string `env:"CRON_ORDER_REMINDERS" envDefault:"0 8 * * *"`
	CronLowStock       string `env:"CRON_LOW_STOCK" envDefault:"0 */12 * * *"`
	CronWeeklyReport   string `env:"CRON_WEEKLY_REPORT" envDefault:"0 6 * * 1"`
	CronHeartbeat      string `env:"CRON_HEARTBEAT" envDefault:"*/5 * * * *"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Database returns the store driver and its DSN. SQLite URLs are reduced to
// the file path; PostgreSQL URLs are passed through.
func (c *Config) Database() (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return DriverPostgres, c.DatabaseURL, nil
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		path := strings.TrimPrefix(c.DatabaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDatabase)
		}
		return DriverSQLite, path, nil
	default:
		scheme, _, _ := strings.Cut(c.DatabaseURL, "://")
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDatabase, scheme)
	}
}

// ScheduleOff disables a job's schedule.
const ScheduleOff = "off"

// Schedules maps job names to their cron expressions. Disabled jobs are
// omitted.
func (c *Config) Schedules() map[string]string {
	all := map[string]string{
		JobCleanup:        c.CronCleanup,
		JobOrderReminders: c.CronOrderReminders,
		JobLowStock:       c.CronLowStock,
		JobWeeklyReport:   c.CronWeeklyReport,
		JobHeartbeat:      c.CronHeartbeat,
	}

	out := make(map[string]string, len(all))
	for job, expr := range all {
		expr = strings.TrimSpace(expr)
		if expr != "" && !strings.EqualFold(expr, ScheduleOff) {
			out[job] = expr
		}
	}
	return out
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, _, err := cfg.Database(); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LowStockThreshold <= 0 || cfg.RestockAmount <= 0 {
		return nil, errors.New("failed to parse config: LOW_STOCK_THRESHOLD and RESTOCK_AMOUNT must be > 0")
	}
	return cfg, nil
}
