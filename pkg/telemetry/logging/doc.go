// Package logging configures the process-wide structured logger.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON and text output formats
//   - Configurable log levels (debug, info, warn, error)
//   - Automatic masking of token-bearing attributes so access and
//     refresh tokens never reach the logs in full
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	logger.Info("request completed",
//	    "access_token", token, // logged masked
//	    "duration_ms", 1234,
//	)
package logging
