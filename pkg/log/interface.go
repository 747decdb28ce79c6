// Package log provides the structured logging interface used across mltrack.
//
// The interface is slog-shaped (message plus key/value pairs) and is backed by zerolog.
// Training-side components (the experiment logger and its flush timer) and sweep-side
// components (the orchestrator and the early-stopping monitor) log through it with the
// attribute keys defined in attributes.go, so that a sweep's log stream can be filtered by
// trial, metric or component.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "sweep",
//	    log.SweepDirKey, dir,
//	)
//	logger.Info("Trial started",
//	    log.TrialKey, 3,
//	    log.CommandKey, cmd,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog calling
// convention.
type Logger interface {
	// Debug logs a debug-level message with optional key/value pairs.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key/value pairs.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key/value pairs.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error and the number of
	// fields is odd, it is logged under the "error" key together with its stack trace.
	//
	//   logger.Error("Flush failed", err, log.MetricKey, "loss")
	Error(msg string, fields ...any)

	// With returns a Logger that adds the given fields to every message.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values are compatible with slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
