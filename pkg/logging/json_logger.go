package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// jsonMarshal is a variable for dependency injection in tests.
var jsonMarshal = json.Marshal

// LogEntry represents a single JSON log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LoggerConfig configures the JSONLogger.
type LoggerConfig struct {
	// OutputPath is the log file. Empty means Output, or stdout
	// when Output is nil.
	OutputPath string

	// RunLogPath receives one JSON line per completed run. Empty
	// means run summaries go to the main output.
	RunLogPath string

	// Output overrides the destination when OutputPath is empty.
	Output io.Writer

	Level  LogLevel
	Fields map[string]any
}

// JSONLogger implements Logger with JSON Lines output.
type JSONLogger struct {
	mu     *sync.Mutex
	output io.Writer
	runLog io.Writer
	level  LogLevel
	fields map[string]any
	closed *bool
}

// NewJSONLogger creates a new JSON logger.
func NewJSONLogger(config LoggerConfig) (*JSONLogger, error) {
	closed := false
	logger := &JSONLogger{
		mu:     &sync.Mutex{},
		level:  config.Level,
		fields: make(map[string]any, len(config.Fields)),
		closed: &closed,
	}
	for k, v := range config.Fields {
		logger.fields[k] = v
	}

	switch {
	case config.OutputPath != "":
		file, err := openAppend(config.OutputPath)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		logger.output = file
	case config.Output != nil:
		logger.output = config.Output
	default:
		logger.output = os.Stdout
	}

	if config.RunLogPath != "" {
		file, err := openAppend(config.RunLogPath)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open run log: %w", err,
			)
		}
		logger.runLog = file
	}

	return logger, nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(
		path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644,
	)
}

func (l *JSONLogger) log(
	level LogLevel, msg string, fields ...Field,
) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if *l.closed {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    make(map[string]any, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}

	data, err := jsonMarshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintln(l.output, string(data))
}

// Info logs an informational message.
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Debug logs a debug message.
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// WithFields returns a Logger sharing this logger's writers with
// additional default fields.
func (l *JSONLogger) WithFields(fields ...Field) Logger {
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for _, f := range fields {
		newFields[f.Key] = f.Value
	}

	return &JSONLogger{
		mu:     l.mu,
		output: l.output,
		runLog: l.runLog,
		level:  l.level,
		fields: newFields,
		closed: l.closed,
	}
}

// LogRun writes the run summary to the run log, or as an info
// entry when no run log is configured.
func (l *JSONLogger) LogRun(run RunLog) {
	if l.runLog == nil {
		l.Info("run completed", run.fields()...)
		return
	}

	if run.Timestamp == "" {
		run.Timestamp = time.Now().Format(time.RFC3339Nano)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if *l.closed {
		return
	}
	data, err := jsonMarshal(run)
	if err != nil {
		return
	}
	fmt.Fprintln(l.runLog, string(data))
}

// Close closes any files the logger opened.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if *l.closed {
		return nil
	}
	*l.closed = true

	var firstErr error
	for _, w := range []io.Writer{l.output, l.runLog} {
		file, ok := w.(*os.File)
		if !ok || file == os.Stdout || file == os.Stderr {
			continue
		}
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
