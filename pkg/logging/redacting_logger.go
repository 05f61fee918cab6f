package logging

import (
	"fmt"
	"strings"
)

// RedactingLogger is a decorator that masks secrets in messages
// and string fields, and hides the values of sensitive keys such
// as the learner's source text.
type RedactingLogger struct {
	inner   Logger
	secrets []string
	keys    map[string]bool
}

// RedactOption configures a RedactingLogger.
type RedactOption func(*RedactingLogger)

// WithSecrets masks every occurrence of the given strings.
func WithSecrets(secrets ...string) RedactOption {
	return func(r *RedactingLogger) {
		for _, s := range secrets {
			if len(s) > 4 {
				r.secrets = append(r.secrets, s)
			}
		}
	}
}

// WithRedactedKeys hides the values of fields with these keys.
func WithRedactedKeys(keys ...string) RedactOption {
	return func(r *RedactingLogger) {
		for _, k := range keys {
			r.keys[strings.ToLower(k)] = true
		}
	}
}

// NewRedactingLogger wraps inner. The "source" key is always
// redacted.
func NewRedactingLogger(
	inner Logger,
	opts ...RedactOption,
) *RedactingLogger {
	r := &RedactingLogger{
		inner: inner,
		keys:  map[string]bool{"source": true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedactingLogger) redact(msg string) string {
	for _, secret := range r.secrets {
		msg = strings.ReplaceAll(msg, secret, redactValue(secret))
	}
	return msg
}

// redactValue masks all but the first 4 characters.
func redactValue(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func (r *RedactingLogger) redactFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			if r.keys[strings.ToLower(f.Key)] {
				out[i] = Field{
					Key:   f.Key,
					Value: fmt.Sprintf("<redacted %d bytes>", len(v)),
				}
				continue
			}
			out[i] = Field{Key: f.Key, Value: r.redact(v)}
		default:
			if r.keys[strings.ToLower(f.Key)] {
				out[i] = Field{Key: f.Key, Value: "<redacted>"}
				continue
			}
			out[i] = f
		}
	}
	return out
}

// Info logs a redacted informational message.
func (r *RedactingLogger) Info(msg string, fields ...Field) {
	r.inner.Info(r.redact(msg), r.redactFields(fields)...)
}

// Warn logs a redacted warning message.
func (r *RedactingLogger) Warn(msg string, fields ...Field) {
	r.inner.Warn(r.redact(msg), r.redactFields(fields)...)
}

// Error logs a redacted error message.
func (r *RedactingLogger) Error(msg string, fields ...Field) {
	r.inner.Error(r.redact(msg), r.redactFields(fields)...)
}

// Debug logs a redacted debug message.
func (r *RedactingLogger) Debug(msg string, fields ...Field) {
	r.inner.Debug(r.redact(msg), r.redactFields(fields)...)
}

// WithFields returns a RedactingLogger wrapping a new inner
// logger with the given fields applied.
func (r *RedactingLogger) WithFields(fields ...Field) Logger {
	return &RedactingLogger{
		inner:   r.inner.WithFields(r.redactFields(fields)...),
		secrets: r.secrets,
		keys:    r.keys,
	}
}

// LogRun forwards the run summary with its error text redacted.
func (r *RedactingLogger) LogRun(run RunLog) {
	run.Error = r.redact(run.Error)
	r.inner.LogRun(run)
}

// Close closes the inner logger.
func (r *RedactingLogger) Close() error {
	return r.inner.Close()
}
