// Package config loads server configuration from the environment, with an
// optional YAML file overlay for settings that are awkward as env vars.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Port        string        `yaml:"port"`
	LogLevel    string        `yaml:"logLevel"`
	DBDriver    string        `yaml:"dbDriver"`
	DatabaseURL string        `yaml:"databaseUrl"`
	JWTSecret   string        `yaml:"jwtSecret"`
	TokenTTL    time.Duration `yaml:"tokenTtl"`

	CORSOrigins []string `yaml:"corsOrigins"`

	RateLimitPerSecond float64 `yaml:"rateLimitPerSecond"`
	RateLimitBurst     int     `yaml:"rateLimitBurst"`

	Telemetry Telemetry `yaml:"telemetry"`
}

// Telemetry configures the OpenTelemetry export pipeline.
type Telemetry struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	SampleRate   float64 `yaml:"sampleRate"`
	Insecure     bool    `yaml:"insecure"`
	Environment  string  `yaml:"environment"`
}

// Load loads configuration from environment variables. If TRACTION_CONFIG
// names a YAML file, it is read first and env vars override it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080",
		LogLevel:           "INFO",
		DBDriver:           "postgres",
		DatabaseURL:        "postgres://traction@localhost:5432/traction?sslmode=disable",
		TokenTTL:           24 * time.Hour,
		CORSOrigins:        []string{"*"},
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
		Telemetry: Telemetry{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			Environment:  "development",
		},
	}

	if path := os.Getenv("TRACTION_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	overlayString(&cfg.Port, "PORT")
	overlayString(&cfg.LogLevel, "LOG_LEVEL")
	overlayString(&cfg.DBDriver, "DB_DRIVER")
	overlayString(&cfg.DatabaseURL, "DATABASE_URL")
	overlayString(&cfg.JWTSecret, "JWT_SECRET")
	overlayString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("TELEMETRY_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %w", err)
		}
		cfg.RateLimitPerSecond = f
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", cfg.DBDriver)
	}
	return cfg, nil
}

func overlayString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
