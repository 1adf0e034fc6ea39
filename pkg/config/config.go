package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is the YAML file read from the working directory when present.
const ConfigFile = "config.yaml"

// Config holds all configuration for pantry-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`

	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Session        SessionConfig        `yaml:"session"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Recipes        RecipesConfig        `yaml:"recipes"`
	Expiration     ExpirationConfig     `yaml:"expiration"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"pantry"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"pantry"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis configuration for the stock cache.
// An empty Host disables caching.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`

	// Timeout bounds each dial, read and write; a slow cache falls through to PostgreSQL.
	Timeout time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"250ms"`
}

// SessionConfig controls the session cookie that carries the signed-in user.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"pantry-session"`
	Secret     string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
	MaxAge     int    `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"1209600"`
	Secure     bool   `yaml:"secure" env:"SESSION_SECURE" env-default:"true"`
}

// RecommendationConfig holds recommendation endpoint settings.
type RecommendationConfig struct {
	// Limit is the number of recipes returned by the recommendation endpoints.
	Limit int `yaml:"limit" env:"RECOMMENDATION_LIMIT" env-default:"5"`
	// StockCacheTTL bounds how long a cached stock set may be served.
	StockCacheTTL time.Duration `yaml:"stock_cache_ttl" env:"RECOMMENDATION_STOCK_CACHE_TTL" env-default:"10m"`
}

// RecipesConfig holds recipe listing settings.
type RecipesConfig struct {
	PageSize int `yaml:"page_size" env:"RECIPES_PAGE_SIZE" env-default:"20"`
}

// ExpirationConfig drives the stock expiration sweep.
type ExpirationConfig struct {
	// NotifyDaysAhead is how many days before expiry a notification is created.
	NotifyDaysAhead int `yaml:"notify_days_ahead" env:"EXPIRATION_NOTIFY_DAYS_AHEAD" env-default:"4"`
	// SweepInterval is how often the in-process worker runs. Zero disables it.
	SweepInterval time.Duration `yaml:"sweep_interval" env:"EXPIRATION_SWEEP_INTERVAL" env-default:"24h"`
	// Timezone is the IANA zone used to decide what "today" is.
	Timezone string `yaml:"timezone" env:"EXPIRATION_TIMEZONE" env-default:"Asia/Bangkok"`
}

// Location resolves Timezone, falling back to UTC for an empty value.
func (c *ExpirationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads configuration from config.yaml with environment variable overrides.
// When config.yaml does not exist only environment variables and defaults are used.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", ConfigFile, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Database.Host = ResolveHostForDocker(cfg.Database.Host)
	cfg.Redis.Host = ResolveHostForDocker(cfg.Redis.Host)

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validate rejects values the service cannot run with.
func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be numeric, got %q", c.Port)
	}
	if c.Recommendation.Limit < 0 {
		return fmt.Errorf("recommendation.limit must not be negative")
	}
	if c.Recipes.PageSize <= 0 {
		return fmt.Errorf("recipes.page_size must be positive")
	}
	if c.Expiration.NotifyDaysAhead < 0 {
		return fmt.Errorf("expiration.notify_days_ahead must not be negative")
	}
	if _, err := c.Expiration.Location(); err != nil {
		return fmt.Errorf("expiration.timezone: %w", err)
	}
	return nil
}

// IsLocal reports whether the service runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
