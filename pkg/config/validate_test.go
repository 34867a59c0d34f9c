package config

import (
	"strings"
	"testing"
)

// validConfig returns a configuration that passes validation.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "listen address without port",
			mutate:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "empty credentials path",
			mutate:    func(c *Config) { c.Credentials.Path = "" },
			wantField: "credentials.path",
		},
		{
			name:      "relative refresh url",
			mutate:    func(c *Config) { c.Credentials.RefreshURL = "/refreshToken" },
			wantField: "credentials.refresh_url",
		},
		{
			name:      "bad refresh schedule",
			mutate:    func(c *Config) { c.Credentials.RefreshSchedule = "every tuesday" },
			wantField: "credentials.refresh_schedule",
		},
		{
			name:      "zero max attempts",
			mutate:    func(c *Config) { c.Retry.MaxAttempts = 0; c.Retry.PerCredentialRetries = 1 },
			wantField: "retry.max_attempts",
		},
		{
			name:      "backoff cap below base",
			mutate:    func(c *Config) { c.Retry.BackoffCap = c.Retry.BackoffBase / 2 },
			wantField: "retry.backoff_cap",
		},
		{
			name:      "unknown compression mode",
			mutate:    func(c *Config) { c.Compression.Mode = "gzip" },
			wantField: "compression.mode",
		},
		{
			name:      "usage enabled without retention",
			mutate:    func(c *Config) { c.Usage.Enabled = true; c.Usage.RetentionDays = 0 },
			wantField: "usage.retention_days",
		},
		{
			name:      "admin enabled without token",
			mutate:    func(c *Config) { c.Admin.Enabled = true },
			wantField: "admin.token",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidationErrorCollectsAll(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddress = ""
	cfg.Compression.Mode = "gzip"

	err := Validate(cfg)
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("len(Errors) = %d, want 2", len(verr.Errors))
	}
}
