// Package logging provides structured logging for evaluation runs
// with JSON, console, zap-backed and multi-destination output.
package logging

import (
	"fmt"
	"strings"
)

// Logger defines the interface for structured run logging.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning message.
	Warn(msg string, fields ...Field)

	// Error logs an error message.
	Error(msg string, fields ...Field)

	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// WithFields returns a Logger with additional default
	// fields attached to every subsequent log entry.
	WithFields(fields ...Field) Logger

	// LogRun records the summary of a completed evaluation run.
	LogRun(run RunLog)

	// Close flushes any buffers and releases resources.
	Close() error
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// RunLog summarises one evaluation run.
type RunLog struct {
	Timestamp  string `json:"timestamp"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Dialect    string `json:"dialect,omitempty"`
	Function   string `json:"function,omitempty"`
	Cases      int    `json:"cases"`
	Passed     int    `json:"passed"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// fields flattens the run summary for loggers without a dedicated
// run sink.
func (r RunLog) fields() []Field {
	fields := []Field{
		{Key: "run_id", Value: r.RunID},
		{Key: "status", Value: r.Status},
		{Key: "cases", Value: r.Cases},
		{Key: "passed", Value: r.Passed},
		{Key: "duration_ms", Value: r.DurationMs},
	}
	if r.Function != "" {
		fields = append(fields, Field{Key: "function", Value: r.Function})
	}
	if r.Error != "" {
		fields = append(fields, Field{Key: "error", Value: r.Error})
	}
	return fields
}

// LogLevel represents logging severity levels.
type LogLevel int

const (
	// LevelDebug is the most verbose level.
	LevelDebug LogLevel = iota
	// LevelInfo is the default level.
	LevelInfo
	// LevelWarn indicates potential issues.
	LevelWarn
	// LevelError indicates failures.
	LevelError
)

// String returns the string representation of a log level.
func (l LogLevel) String() string {
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

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level %q", s)
}
