package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Duration  DurationConfig
	Relay     RelayConfig
}

// ServerConfig holds HTTP and gRPC server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// GRPCPort serves the traced gRPC health service. Empty disables it.
	GRPCPort string `envconfig:"GRPC_PORT" default:"50051"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DurationConfig controls the duration header.
type DurationConfig struct {
	HeaderName string `envconfig:"DURATION_HEADER_NAME" default:"x-duration"`
	Active     bool   `envconfig:"DURATION_ACTIVE" default:"true"`
	// MaxLength is the header size limit in bytes; zero or less disables it.
	MaxLength int `envconfig:"DURATION_MAX_LENGTH" default:"16384"`
	// Variant picks the header dialect. "duration" (default) counts removals
	// as truncationCount; "trace" uses traceRemovalCount and adds httpstatus.
	Variant          string `envconfig:"DURATION_VARIANT" default:"duration"`
	LockOnTruncation bool   `envconfig:"DURATION_LOCK_ON_TRUNCATION" default:"true"`
}

// RelayConfig holds the demo relay configuration.
type RelayConfig struct {
	RoutesFile string        `envconfig:"RELAY_ROUTES_FILE"`
	Timeout    time.Duration `envconfig:"RELAY_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "8000",
			Host:     "0.0.0.0",
			GRPCPort: "50051",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Duration: DurationConfig{
			HeaderName:       "x-duration",
			Active:           true,
			MaxLength:        trace.DefaultMaxBytes,
			Variant:          trace.VariantDuration.String(),
			LockOnTruncation: true,
		},
		Relay: RelayConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.Server.GRPCPort != "" && c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("grpc port %s collides with http port", c.Server.GRPCPort)
	}
	if c.Duration.HeaderName == "" {
		return fmt.Errorf("duration header name must not be empty")
	}
	if _, err := c.Duration.ParseVariant(); err != nil {
		return err
	}
	if c.Relay.Timeout < 0 {
		return fmt.Errorf("relay timeout must not be negative")
	}
	return nil
}

// ParseVariant returns the configured header dialect.
func (d DurationConfig) ParseVariant() (trace.Variant, error) {
	return trace.ParseVariant(d.Variant)
}
