// Package config loads the service configuration from a yaml file and the
// environment, in a fixed order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root service configuration.
// Sources, highest priority first:
//  1. explicit path via --config;
//  2. path in CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment only.
//
// Environment variables are always overlaid on file values.
type Config struct {
	Env     string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    HTTPConfig     `yaml:"http"`
	Token   TokenConfig    `yaml:"token"`
	Auth    AuthConfig     `yaml:"auth"`
	Ledger  LedgerConfig   `yaml:"ledger"`
	Redis   RedisConfig    `yaml:"redis"`
	Courses []CourseConfig `yaml:"courses"`
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"9000"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// TokenConfig holds the attendance token policy.
type TokenConfig struct {
	Namespace      string        `yaml:"namespace" env:"TOKEN_NAMESPACE" env-default:"attendease"`
	SharedSecret   string        `yaml:"shared_secret" env:"TOKEN_SHARED_SECRET" env-required:"true"`
	ValidityWindow time.Duration `yaml:"validity_window" env:"TOKEN_VALIDITY_WINDOW" env-default:"60s"`
	ClockSkew      time.Duration `yaml:"clock_skew" env:"TOKEN_CLOCK_SKEW" env-default:"5s"`
	TickInterval   time.Duration `yaml:"tick_interval" env:"TOKEN_TICK_INTERVAL" env-default:"1s"`
}

// AuthConfig holds bearer token validation settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER" env-default:"attendease"`
}

// LedgerConfig selects the SQLite database file.
type LedgerConfig struct {
	Path string `yaml:"path" env:"LEDGER_PATH" env-default:"attendease.db"`
}

// RedisConfig enables the Redis token store and event stream when URL is set.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

// CourseConfig seeds a course into the directory at startup.
type CourseConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Code     string   `yaml:"code"`
	Faculty  string   `yaml:"faculty"`
	Students []string `yaml:"students"`
}

// Validate checks constraints cleanenv cannot express.
func (c *Config) Validate() error {
	switch {
	case c.Token.SharedSecret == "":
		return errors.New("token.shared_secret must not be empty")
	case c.Auth.JWTSecret == "":
		return errors.New("auth.jwt_secret must not be empty")
	case c.Token.ValidityWindow <= 0:
		return errors.New("token.validity_window must be positive")
	case c.Token.TickInterval <= 0:
		return errors.New("token.tick_interval must be positive")
	case c.Token.TickInterval > c.Token.ValidityWindow:
		return errors.New("token.tick_interval must not exceed token.validity_window")
	case c.Token.ClockSkew < 0:
		return errors.New("token.clock_skew must not be negative")
	case c.Token.Namespace == "":
		return errors.New("token.namespace must not be empty")
	}
	for i, course := range c.Courses {
		if course.ID == "" {
			return fmt.Errorf("courses[%d]: empty id", i)
		}
	}
	return nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load reads the configuration in the documented order of precedence.
func Load(path string) (*Config, error) {
	var cfg Config

	read := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}

		return &cfg, nil
	}

	if path != "" {
		return read(path)
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return read(envPath)
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return read("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
