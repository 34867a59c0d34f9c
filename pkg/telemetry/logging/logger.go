package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains configuration for the logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// Writer is the output writer (defaults to os.Stdout)
	Writer io.Writer
}

// maskedAttrs are attribute keys whose string values are secrets and
// are masked before emission.
var maskedAttrs = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"authorization": true,
	"token":         true,
}

// New creates a slog.Logger with the given configuration.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: maskSecrets,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %q", cfg.Format)
	}

	return slog.New(handler), nil
}

// Setup creates the logger and installs it as the process default.
func Setup(cfg Config) (*slog.Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

// maskSecrets replaces token-bearing attribute values with a masked
// form keeping only a short prefix for correlation.
func maskSecrets(groups []string, a slog.Attr) slog.Attr {
	if !maskedAttrs[a.Key] {
		return a
	}
	if a.Value.Kind() != slog.KindString {
		return a
	}
	a.Value = slog.StringValue(maskValue(a.Value.String()))
	return a
}

func maskValue(v string) string {
	const keep = 8
	if len(v) <= keep {
		return "***"
	}
	return v[:keep] + "..."
}
