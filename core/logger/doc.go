// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and integrates with the Fiber web framework.
//
// # Correlation
//
// Two helpers attach correlation fields to a logger:
//   - WithRayID extracts the per-request RayID from a Fiber context so that
//     all log lines of one HTTP request can be grouped.
//   - WithRun tags a logger with the id of a reconciliation run so that the
//     fetch, diff and dispatch lines of one cycle can be grouped.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("sync started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("handler failed", zap.Error(err))
package logger
