package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"minidash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Database  DatabaseConfig
	S3        S3Config
	Metrics   MetricsConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// DataConfig holds dashboard and dataset loading settings
type DataConfig struct {
	DashboardsFile  string
	SourceOverrides map[string]string
	PreviewLimit    int
	LoadConcurrency int
	SourceTimeout   time.Duration
}

// DatabaseConfig holds the optional Postgres connection used for SQL sources and answers
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// S3Config holds object storage settings for s3:// sources
type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	overrides, err := parseSourceOverrides(os.Getenv("DATASET_SOURCES"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load data configuration")
	}

	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			APIPort: getEnvOrDefault("API_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Data: DataConfig{
			DashboardsFile:  getEnvOrDefault("DASHBOARDS_FILE", ""),
			SourceOverrides: overrides,
			PreviewLimit:    getEnvIntOrDefault("PREVIEW_ROW_LIMIT", 200),
			LoadConcurrency: getEnvIntOrDefault("LOAD_CONCURRENCY", 4),
			SourceTimeout:   getEnvDurationOrDefault("SOURCE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		S3: S3Config{
			Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
			Endpoint:  getEnvOrDefault("S3_ENDPOINT", ""),
			PathStyle: getEnvBoolOrDefault("S3_PATH_STYLE", false),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Data.PreviewLimit <= 0 {
		return errors.ConfigInvalid("PREVIEW_ROW_LIMIT must be positive")
	}
	if config.Data.LoadConcurrency <= 0 {
		return errors.ConfigInvalid("LOAD_CONCURRENCY must be positive")
	}
	if config.Data.SourceTimeout <= 0 {
		return errors.ConfigInvalid("SOURCE_TIMEOUT must be positive")
	}
	return nil
}

// parseSourceOverrides parses "id=uri,id=uri". URIs may not contain commas.
func parseSourceOverrides(raw string) (map[string]string, error) {
	overrides := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return overrides, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, uri, ok := strings.Cut(pair, "=")
		id, uri = strings.TrimSpace(id), strings.TrimSpace(uri)
		if !ok || id == "" || uri == "" {
			return nil, errors.ConfigInvalid("DATASET_SOURCES entries must look like id=uri, got " + strconv.Quote(pair))
		}
		overrides[id] = uri
	}
	return overrides, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
