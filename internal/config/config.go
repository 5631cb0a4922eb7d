// Package config loads server settings from the environment.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Config is the memberkit server configuration.
type Config struct {
	Port     string `env:"PORT,      default=8080" validate:"required,numeric"`
	Env      string `env:"ENV,       default=development" validate:"oneof=development staging production test"`
	LogLevel string `env:"LOG_LEVEL, default=info" validate:"oneof=trace debug info warn warning error"`

	JWTSecret      string        `env:"JWT_SECRET" validate:"required,min=16"`
	SignInPath     string        `env:"SIGN_IN_PATH,    default=/auth" validate:"required,startswith=/"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT, default=5s" validate:"gt=0"`
	RateLimit      int           `env:"RATE_LIMIT_PER_MINUTE, default=120" validate:"gte=1"`

	Database DatabaseConfig
	Redis    RedisConfig
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL          string `env:"DATABASE_URL" validate:"required,url"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS, default=25" validate:"gte=1"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS, default=5" validate:"gte=0,ltefield=MaxOpenConns"`
}

// RedisConfig holds Redis settings. An empty address disables Redis.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0" validate:"gte=0"`
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}
