package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// ConsoleLogger provides colored, human-oriented output.
type ConsoleLogger struct {
	mu     *sync.Mutex
	output io.Writer
	level  LogLevel
	fields []Field
}

// NewConsoleLogger creates a console logger writing to w, or to
// stderr when w is nil.
func NewConsoleLogger(w io.Writer, level LogLevel) *ConsoleLogger {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleLogger{
		mu:     &sync.Mutex{},
		output: w,
		level:  level,
	}
}

func (c *ConsoleLogger) log(
	level LogLevel, color, msg string, fields ...Field,
) {
	if level < c.level {
		return
	}

	all := make([]Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)

	var fieldStr string
	if len(all) > 0 {
		parts := make([]string, 0, len(all))
		for _, f := range all {
			parts = append(
				parts,
				fmt.Sprintf("%s=%v", f.Key, f.Value),
			)
		}
		fieldStr = " " + colorGray +
			"{" + strings.Join(parts, ", ") + "}" +
			colorReset
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(
		c.output, "%s%s%s [%s%-5s%s] %s%s\n",
		colorGray, time.Now().Format("15:04:05"), colorReset,
		color, level.String(), colorReset,
		msg, fieldStr,
	)
}

// Info logs an informational message.
func (c *ConsoleLogger) Info(msg string, fields ...Field) {
	c.log(LevelInfo, colorBlue, msg, fields...)
}

// Warn logs a warning message.
func (c *ConsoleLogger) Warn(msg string, fields ...Field) {
	c.log(LevelWarn, colorYellow, msg, fields...)
}

// Error logs an error message.
func (c *ConsoleLogger) Error(msg string, fields ...Field) {
	c.log(LevelError, colorRed, msg, fields...)
}

// Debug logs a debug message.
func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	c.log(LevelDebug, colorGray, msg, fields...)
}

// WithFields returns a ConsoleLogger that prefixes the given
// fields to every entry. Fields are kept sorted by key.
func (c *ConsoleLogger) WithFields(fields ...Field) Logger {
	merged := make(map[string]any, len(c.fields)+len(fields))
	for _, f := range c.fields {
		merged[f.Key] = f.Value
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Field, len(keys))
	for i, k := range keys {
		out[i] = Field{Key: k, Value: merged[k]}
	}
	return &ConsoleLogger{
		mu:     c.mu,
		output: c.output,
		level:  c.level,
		fields: out,
	}
}

// LogRun prints a one-line verdict for the run.
func (c *ConsoleLogger) LogRun(run RunLog) {
	color, verdict := colorGreen, "PASS"
	if run.Status != "passed" {
		color, verdict = colorRed, "FAIL"
	}
	msg := fmt.Sprintf(
		"%s%s%s %d/%d cases (%s) in %dms",
		color, verdict, colorReset,
		run.Passed, run.Cases, run.Status, run.DurationMs,
	)
	fields := []Field{{Key: "run_id", Value: run.RunID}}
	if run.Error != "" {
		fields = append(fields, Field{Key: "error", Value: run.Error})
	}
	c.log(LevelInfo, colorBlue, msg, fields...)
}

// Close is a no-op for ConsoleLogger.
func (c *ConsoleLogger) Close() error {
	return nil
}
