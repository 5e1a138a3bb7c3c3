package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Calendar CalendarConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"calendar-feeds"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	PublicURL             string `env:"APP_PUBLIC_URL"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
}

// CalendarConfig tunes subscription quotas and feed rendering.
type CalendarConfig struct {
	SubscriptionLimit  int           `env:"CALENDAR_SUBSCRIPTION_LIMIT" envDefault:"3"`
	TokenMaxAttempts   int           `env:"CALENDAR_TOKEN_MAX_ATTEMPTS" envDefault:"5"`
	FeedCacheTTL       time.Duration `env:"CALENDAR_FEED_CACHE_TTL" envDefault:"5m"`
	FeedPastDays       int           `env:"CALENDAR_FEED_PAST_DAYS" envDefault:"30"`
	FeedFutureDays     int           `env:"CALENDAR_FEED_FUTURE_DAYS" envDefault:"365"`
	FeedMaxEntries     int           `env:"CALENDAR_FEED_MAX_ENTRIES" envDefault:"1000"`
	FeedRatePerSecond  float64       `env:"CALENDAR_FEED_RATE_PER_SECOND" envDefault:"2"`
	FeedRateBurst      int           `env:"CALENDAR_FEED_RATE_BURST" envDefault:"10"`
	FeedRefreshMinutes int           `env:"CALENDAR_FEED_REFRESH_MINUTES" envDefault:"60"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Calendar.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsProduction reports whether APP_ENV names a production deployment.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

func (c CalendarConfig) validate() error {
	if c.SubscriptionLimit <= 0 {
		return fmt.Errorf("invalid CALENDAR_SUBSCRIPTION_LIMIT: %d", c.SubscriptionLimit)
	}
	if c.TokenMaxAttempts <= 0 {
		return fmt.Errorf("invalid CALENDAR_TOKEN_MAX_ATTEMPTS: %d", c.TokenMaxAttempts)
	}
	if c.FeedRatePerSecond <= 0 || c.FeedRateBurst <= 0 {
		return fmt.Errorf("invalid feed rate limit: rate=%v burst=%d", c.FeedRatePerSecond, c.FeedRateBurst)
	}
	if c.FeedPastDays < 0 || c.FeedFutureDays <= 0 {
		return fmt.Errorf("invalid feed window: past=%d future=%d", c.FeedPastDays, c.FeedFutureDays)
	}
	return nil
}
