package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress     = "127.0.0.1:8080"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultRequestTimeout    = 10 * time.Minute
	DefaultMaxHeaderBytes    = 1 << 20  // 1 MiB
	DefaultMaxBodyBytes      = 10 << 20 // 10 MiB

	// Credential defaults
	DefaultCredentialsPath    = "credentials.json"
	DefaultWatchDebounce      = 500 * time.Millisecond
	DefaultRefreshMargin      = 5 * time.Minute
	DefaultRefreshSchedule    = "*/10 * * * *"
	DefaultTransientThreshold = 3

	// Backend defaults
	DefaultBackendRegion         = "us-east-1"
	DefaultResponseHeaderTimeout = 60 * time.Second
	DefaultHealthThreshold       = 3
	DefaultHealthCheckInterval   = time.Minute

	// Retry defaults
	DefaultPerCredentialRetries = 2
	DefaultMaxAttempts          = 5
	DefaultBackoffBase          = 250 * time.Millisecond
	DefaultBackoffCap           = 10 * time.Second

	// Compression defaults
	DefaultCompressionMode = "none"

	// Usage defaults
	DefaultUsagePath          = "data/usage.db"
	DefaultUsageRetentionDays = 30
	DefaultUsagePruneSchedule = "0 * * * *"

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults fills unset fields with their default values. Booleans
// keep their zero value; only fields whose zero value is never a valid
// explicit setting are defaulted.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.CORS.Enabled && len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}

	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = DefaultCredentialsPath
	}
	if cfg.Credentials.WatchDebounce == 0 {
		cfg.Credentials.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.Credentials.RefreshMargin == 0 {
		cfg.Credentials.RefreshMargin = DefaultRefreshMargin
	}
	if cfg.Credentials.RefreshSchedule == "" {
		cfg.Credentials.RefreshSchedule = DefaultRefreshSchedule
	}
	if cfg.Credentials.TransientThreshold == 0 {
		cfg.Credentials.TransientThreshold = DefaultTransientThreshold
	}

	if cfg.Backend.Region == "" {
		cfg.Backend.Region = DefaultBackendRegion
	}
	if cfg.Backend.ResponseHeaderTimeout == 0 {
		cfg.Backend.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	if cfg.Backend.HealthThreshold == 0 {
		cfg.Backend.HealthThreshold = DefaultHealthThreshold
	}
	if cfg.Backend.HealthCheckInterval == 0 {
		cfg.Backend.HealthCheckInterval = DefaultHealthCheckInterval
	}

	if cfg.Retry.PerCredentialRetries == 0 {
		cfg.Retry.PerCredentialRetries = DefaultPerCredentialRetries
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.BackoffBase == 0 {
		cfg.Retry.BackoffBase = DefaultBackoffBase
	}
	if cfg.Retry.BackoffCap == 0 {
		cfg.Retry.BackoffCap = DefaultBackoffCap
	}

	if cfg.Compression.Mode == "" {
		cfg.Compression.Mode = DefaultCompressionMode
	}

	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultUsageRetentionDays
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = DefaultUsagePruneSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
