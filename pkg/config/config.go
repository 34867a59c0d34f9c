package config

import "time"

// Config is the root configuration for Portico.
type Config struct {
	// Server configures the client-facing HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Credentials configures the backend credential pool.
	Credentials CredentialsConfig `yaml:"credentials"`

	// Backend configures the upstream service client.
	Backend BackendConfig `yaml:"backend"`

	// Retry configures delivery retries and failover.
	Retry RetryConfig `yaml:"retry"`

	// Compression configures tool-definition compression.
	Compression CompressionConfig `yaml:"compression"`

	// Usage configures request accounting.
	Usage UsageConfig `yaml:"usage"`

	// Admin configures the operator API.
	Admin AdminConfig `yaml:"admin"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the client-facing HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string `yaml:"listen_address"`

	// ReadHeaderTimeout bounds reading of request headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// IdleTimeout bounds idle keep-alive connections.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout is the per-request deadline. Zero disables it.
	// Streaming responses share this deadline.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes caps request header size.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// APIKeys are the client keys accepted on x-api-key. Empty
	// disables client authentication.
	APIKeys []string `yaml:"api_keys"`

	// CORS configures cross-origin access.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// Enabled turns CORS handling on.
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins; ["*"] allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CredentialsConfig configures the credential pool.
type CredentialsConfig struct {
	// Path is the credential file location.
	Path string `yaml:"path"`

	// Watch reloads the file on change.
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces rapid file events.
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// RefreshURL is the token exchange endpoint.
	RefreshURL string `yaml:"refresh_url"`

	// RefreshMargin renews tokens this long before expiry.
	RefreshMargin time.Duration `yaml:"refresh_margin"`

	// RefreshSchedule is the cron schedule for proactive renewal.
	RefreshSchedule string `yaml:"refresh_schedule"`

	// TransientThreshold is how many consecutive transient failures
	// disable a credential.
	TransientThreshold int `yaml:"transient_threshold"`
}

// BackendConfig configures the upstream client.
type BackendConfig struct {
	// Region selects the upstream AWS region. A credential's profile
	// ARN region takes precedence per request.
	Region string `yaml:"region"`

	// ResponseHeaderTimeout bounds the wait for upstream response
	// headers; the streamed body is not subject to it.
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`

	// HealthThreshold is the consecutive-failure count that opens an
	// endpoint's breaker.
	HealthThreshold int `yaml:"health_threshold"`

	// HealthCheckInterval is the base cadence of background endpoint
	// checks. Zero disables them.
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// RetryConfig configures delivery retries.
type RetryConfig struct {
	// PerCredentialRetries is the retry count per credential after
	// its first attempt.
	PerCredentialRetries int `yaml:"per_credential_retries"`

	// MaxAttempts is the total attempt ceiling per request.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase is the initial retry delay; it doubles per retry.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// BackoffCap bounds the retry delay.
	BackoffCap time.Duration `yaml:"backoff_cap"`
}

// CompressionConfig configures tool-definition compression.
type CompressionConfig struct {
	// Mode is one of none, schema, elevate, hybrid.
	Mode string `yaml:"mode"`
}

// UsageConfig configures request accounting.
type UsageConfig struct {
	// Enabled turns accounting on.
	Enabled bool `yaml:"enabled"`

	// Path is the sqlite database file.
	Path string `yaml:"path"`

	// RetentionDays is how long rows are kept.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron schedule for pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// AdminConfig configures the operator API.
type AdminConfig struct {
	// Enabled mounts the admin routes.
	Enabled bool `yaml:"enabled"`

	// Token is the shared bearer secret. Required when enabled.
	Token string `yaml:"token"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`

	// AddSource includes source locations in records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled mounts the metrics route.
	Enabled bool `yaml:"enabled"`

	// Path is the route path.
	Path string `yaml:"path"`
}
