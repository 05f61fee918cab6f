package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{"k", "v"}, StringField("k", "v"))
	assert.Equal(t, Field{"k", 1}, IntField("k", 1))
	assert.Equal(t, Field{"k", int64(2)}, Int64Field("k", 2))
	assert.Equal(t, Field{"k", true}, BoolField("k", true))
	assert.Equal(t,
		Field{"elapsed", int64(1500)},
		DurationField("elapsed", 1500*time.Millisecond),
	)
	assert.Equal(t, Field{"run_id", "abc"}, RunIDField("abc"))
	assert.Equal(t, Field{"error", "boom"}, ErrorField(errors.New("boom")))
	assert.Equal(t, Field{"error", "<nil>"}, ErrorField(nil))
}

func TestRunLog_Fields(t *testing.T) {
	fields := RunLog{
		RunID: "r1", Status: "failed", Cases: 3, Passed: 1,
		DurationMs: 12, Function: "add", Error: "boom",
	}.fields()

	m := map[string]any{}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	assert.Equal(t, "r1", m["run_id"])
	assert.Equal(t, "failed", m["status"])
	assert.Equal(t, 3, m["cases"])
	assert.Equal(t, 1, m["passed"])
	assert.Equal(t, "add", m["function"])
	assert.Equal(t, "boom", m["error"])
}

func TestNullLogger(t *testing.T) {
	var l Logger = NullLogger{}
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	l.Debug("x")
	l.LogRun(RunLog{})
	assert.Equal(t, NullLogger{}, l.WithFields(StringField("a", "b")))
	assert.NoError(t, l.Close())
}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"", "zap", "json", "console"} {
		l, err := New(Options{Level: "info", Format: format})
		require.NoError(t, err, format)
		_, ok := l.(*RedactingLogger)
		assert.True(t, ok, format)
	}

	l, err := New(Options{Format: "none"})
	require.NoError(t, err)
	assert.Equal(t, NullLogger{}, l)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}
