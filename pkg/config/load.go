package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention PORTICO_SECTION_FIELD (e.g. PORTICO_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString("PORTICO_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("PORTICO_SERVER_READ_HEADER_TIMEOUT", &cfg.Server.ReadHeaderTimeout)
	setDuration("PORTICO_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	setDuration("PORTICO_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setDuration("PORTICO_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	if val := os.Getenv("PORTICO_SERVER_API_KEYS"); val != "" {
		cfg.Server.APIKeys = strings.Split(val, ",")
	}

	// Credential overrides
	setString("PORTICO_CREDENTIALS_PATH", &cfg.Credentials.Path)
	setBool("PORTICO_CREDENTIALS_WATCH", &cfg.Credentials.Watch)
	setString("PORTICO_CREDENTIALS_REFRESH_URL", &cfg.Credentials.RefreshURL)
	setDuration("PORTICO_CREDENTIALS_REFRESH_MARGIN", &cfg.Credentials.RefreshMargin)
	setString("PORTICO_CREDENTIALS_REFRESH_SCHEDULE", &cfg.Credentials.RefreshSchedule)

	// Backend overrides
	setString("PORTICO_BACKEND_REGION", &cfg.Backend.Region)
	setDuration("PORTICO_BACKEND_RESPONSE_HEADER_TIMEOUT", &cfg.Backend.ResponseHeaderTimeout)
	setInt("PORTICO_BACKEND_HEALTH_THRESHOLD", &cfg.Backend.HealthThreshold)
	setDuration("PORTICO_BACKEND_HEALTH_CHECK_INTERVAL", &cfg.Backend.HealthCheckInterval)

	// Retry overrides
	setInt("PORTICO_RETRY_PER_CREDENTIAL_RETRIES", &cfg.Retry.PerCredentialRetries)
	setInt("PORTICO_RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	setDuration("PORTICO_RETRY_BACKOFF_BASE", &cfg.Retry.BackoffBase)
	setDuration("PORTICO_RETRY_BACKOFF_CAP", &cfg.Retry.BackoffCap)

	// Compression overrides
	setString("PORTICO_COMPRESSION_MODE", &cfg.Compression.Mode)

	// Usage overrides
	setBool("PORTICO_USAGE_ENABLED", &cfg.Usage.Enabled)
	setString("PORTICO_USAGE_PATH", &cfg.Usage.Path)
	setInt("PORTICO_USAGE_RETENTION_DAYS", &cfg.Usage.RetentionDays)

	// Admin overrides
	setBool("PORTICO_ADMIN_ENABLED", &cfg.Admin.Enabled)
	setString("PORTICO_ADMIN_TOKEN", &cfg.Admin.Token)

	// Telemetry overrides
	setString("PORTICO_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("PORTICO_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("PORTICO_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setString("PORTICO_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func setString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
