package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  string   `mapstructure:"PORT"`
	Env                   string   `mapstructure:"ENV"`
	LogLevel              string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL              string   `mapstructure:"REDIS_URL"`
	CacheTTLSeconds       int      `mapstructure:"CACHE_TTL_SECONDS"`
	MaxRangeDays          int      `mapstructure:"MAX_RANGE_DAYS"`
	BulkWorkers           int      `mapstructure:"BULK_WORKERS"`
	ClinicTimezone        string   `mapstructure:"CLINIC_TIMEZONE"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS          float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int      `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeoutSeconds int      `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	OTelEnabled           bool     `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint          string   `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplingRatio     float64  `mapstructure:"OTEL_SAMPLING_RATIO"`
}

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "CACHE_TTL_SECONDS",
	"MAX_RANGE_DAYS", "BULK_WORKERS", "CLINIC_TIMEZONE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT_SECONDS",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("MAX_RANGE_DAYS", 90)
	v.SetDefault("BULK_WORKERS", 4)
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the clinic timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ClinicTimezone)
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.MaxRangeDays < 1 {
		return fmt.Errorf("MAX_RANGE_DAYS must be at least 1, got %d", c.MaxRangeDays)
	}
	if c.BulkWorkers < 1 {
		return fmt.Errorf("BULK_WORKERS must be at least 1, got %d", c.BulkWorkers)
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must not be negative, got %d", c.CacheTTLSeconds)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.OTelSamplingRatio < 0 || c.OTelSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1, got %v", c.OTelSamplingRatio)
	}
	if c.IsProduction() {
		for _, o := range c.CORSOrigins {
			if strings.TrimSpace(o) == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain \"*\" in production")
			}
		}
	}
	return nil
}
