package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=8h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	RateLimit RateLimitConfig
	Audit     AuditConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type RateLimitConfig struct {
	// Backend selects the counter store: "memory" or "redis".
	Backend            string        `env:"RATE_LIMIT_BACKEND,        default=memory"`
	SweepInterval      time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL, default=5m"`
	LockoutMaxAttempts int           `env:"LOCKOUT_MAX_ATTEMPTS,      default=5"`
	LockoutWindow      time.Duration `env:"LOCKOUT_WINDOW,            default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=lims"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch c.RateLimit.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND %q must be %q or %q", c.RateLimit.Backend, BackendMemory, BackendRedis))
	}
	if c.RateLimit.LockoutMaxAttempts <= 0 {
		errs = append(errs, errors.New("LOCKOUT_MAX_ATTEMPTS must be positive"))
	}
	if c.RateLimit.LockoutWindow <= 0 {
		errs = append(errs, errors.New("LOCKOUT_WINDOW must be positive"))
	}
	if c.RateLimit.SweepInterval <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_SWEEP_INTERVAL must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
