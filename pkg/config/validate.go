package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"portico-hq/portico/pkg/convert"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a ValidationError
// if any rule fails. All violations are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateCredentials(&cfg.Credentials)...)
	errs = append(errs, validateBackend(&cfg.Backend)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateCompression(&cfg.Compression)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("must be host:port: %v", err)})
	}
	if cfg.ReadHeaderTimeout < 0 {
		errs = append(errs, FieldError{"server.read_header_timeout", "must not be negative"})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{"server.request_timeout", "must not be negative"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{"server.max_body_bytes", "must not be negative"})
	}
	return errs
}

func validateCredentials(cfg *CredentialsConfig) []FieldError {
	var errs []FieldError
	if cfg.Path == "" {
		errs = append(errs, FieldError{"credentials.path", "must not be empty"})
	}
	if cfg.RefreshURL != "" {
		if u, err := url.Parse(cfg.RefreshURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{"credentials.refresh_url", "must be an absolute URL"})
		}
	}
	if cfg.RefreshMargin < 0 {
		errs = append(errs, FieldError{"credentials.refresh_margin", "must not be negative"})
	}
	if cfg.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			errs = append(errs, FieldError{"credentials.refresh_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	if cfg.TransientThreshold < 1 {
		errs = append(errs, FieldError{"credentials.transient_threshold", "must be at least 1"})
	}
	return errs
}

func validateBackend(cfg *BackendConfig) []FieldError {
	var errs []FieldError
	if cfg.Region == "" {
		errs = append(errs, FieldError{"backend.region", "must not be empty"})
	}
	if cfg.ResponseHeaderTimeout < 0 {
		errs = append(errs, FieldError{"backend.response_header_timeout", "must not be negative"})
	}
	if cfg.HealthThreshold < 1 {
		errs = append(errs, FieldError{"backend.health_threshold", "must be at least 1"})
	}
	return errs
}

func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError
	if cfg.PerCredentialRetries < 0 {
		errs = append(errs, FieldError{"retry.per_credential_retries", "must not be negative"})
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{"retry.max_attempts", "must be at least 1"})
	}
	if cfg.BackoffBase <= 0 {
		errs = append(errs, FieldError{"retry.backoff_base", "must be positive"})
	}
	if cfg.BackoffCap < cfg.BackoffBase {
		errs = append(errs, FieldError{"retry.backoff_cap", "must be at least backoff_base"})
	}
	return errs
}

func validateCompression(cfg *CompressionConfig) []FieldError {
	if _, err := convert.ParseMode(cfg.Mode); err != nil {
		return []FieldError{{"compression.mode", err.Error()}}
	}
	return nil
}

func validateUsage(cfg *UsageConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError
	if cfg.Path == "" {
		errs = append(errs, FieldError{"usage.path", "must not be empty when usage is enabled"})
	}
	if cfg.RetentionDays < 1 {
		errs = append(errs, FieldError{"usage.retention_days", "must be at least 1"})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{"usage.prune_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	return errs
}

func validateAdmin(cfg *AdminConfig) []FieldError {
	if cfg.Enabled && cfg.Token == "" {
		return []FieldError{{"admin.token", "must be set when the admin API is enabled"}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}
	return errs
}
