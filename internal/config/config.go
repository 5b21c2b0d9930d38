package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	CatalogBuiltin = "builtin"
	CatalogSQL     = "sql"

	minVisitorSecret = 32
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend string        `env:"STORE_BACKEND" envDefault:"memory"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"storefront.db"`

	BreakerMaxFailures uint32 `env:"BREAKER_MAX_FAILURES" envDefault:"5"`

	CatalogSource string `env:"CATALOG_SOURCE" envDefault:"builtin"`

	VisitorSecret string `env:"VISITOR_SECRET"`
	VisitorCookie string `env:"VISITOR_COOKIE" envDefault:"visitor"`
	CookieSecure  bool   `env:"COOKIE_SECURE" envDefault:"false"`

	ToastTTL time.Duration `env:"TOAST_TTL" envDefault:"10s"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsToken   string `env:"METRICS_TOKEN"`

	MutationLimitPerMin int `env:"MUTATION_LIMIT_PER_MIN" envDefault:"120"`
}

// Load reads the storefront configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}

	switch c.StoreBackend {
	case BackendMemory, BackendRedis, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND: %q", c.StoreBackend)
	}

	switch c.CatalogSource {
	case CatalogBuiltin:
	case CatalogSQL:
		if c.DatabaseURL == "" && c.StoreBackend != BackendSQLite {
			return fmt.Errorf("CATALOG_SOURCE=sql needs DATABASE_URL or STORE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE: %q", c.CatalogSource)
	}

	if c.VisitorSecret != "" && len(c.VisitorSecret) < minVisitorSecret {
		return fmt.Errorf("VISITOR_SECRET must be at least %d chars", minVisitorSecret)
	}
	if c.VisitorCookie == "" {
		return fmt.Errorf("VISITOR_COOKIE must not be empty")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("invalid STORE_TIMEOUT: %s", c.StoreTimeout)
	}
	if c.ToastTTL <= 0 {
		return fmt.Errorf("invalid TOAST_TTL: %s", c.ToastTTL)
	}
	if c.MutationLimitPerMin < 0 {
		return fmt.Errorf("invalid MUTATION_LIMIT_PER_MIN: %d", c.MutationLimitPerMin)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
