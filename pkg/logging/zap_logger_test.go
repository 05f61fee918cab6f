package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLoggerFrom(zap.New(core)), logs
}

func TestZapLogger_Levels(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	l.Debug("hidden")
	l.Info("info", StringField("k", "v"))
	l.Warn("warn")
	l.Error("error")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "info", entries[0].Message)
	assert.Equal(t, "v", entries[0].ContextMap()["k"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestZapLogger_WithFields(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)

	l.WithFields(RunIDField("r1")).Debug("step")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].ContextMap()["run_id"])
}

func TestZapLogger_LogRun(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	l.LogRun(RunLog{
		RunID: "r1", Status: "failed", Cases: 3, Passed: 2,
		DurationMs: 40,
	})

	entries := logs.FilterMessage("run completed").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "failed", ctx["status"])
	assert.Equal(t, int64(3), ctx["cases"])
	assert.Equal(t, int64(2), ctx["passed"])
}

func TestNewZapLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zap.log")
	l, err := NewZapLogger(ZapConfig{
		Level:      LevelDebug,
		OutputPath: path,
	})
	require.NoError(t, err)

	l.Debug("to file", IntField("n", 1))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
	assert.Contains(t, string(data), `"n":1`)
}

func TestZapLogger_CloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zap.log")
	l, err := NewZapLogger(ZapConfig{Level: LevelInfo, OutputPath: path})
	require.NoError(t, err)
	require.NotNil(t, l.file)

	child := l.WithFields(StringField("k", "v"))
	require.NoError(t, child.Close())
	_, err = l.file.WriteString("")
	require.NoError(t, err, "child close must not close the shared file")

	require.NoError(t, l.Close())
	_, err = l.file.WriteString("late")
	assert.ErrorIs(t, err, os.ErrClosed)

	assert.NoError(t, l.Close())
}

func TestNewZapLoggerFrom_Nil(t *testing.T) {
	l := NewZapLoggerFrom(nil)
	l.Info("nowhere")
	assert.NoError(t, l.Close())
}

func TestZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, zapLevel(LevelDebug))
	assert.Equal(t, zapcore.InfoLevel, zapLevel(LevelInfo))
	assert.Equal(t, zapcore.WarnLevel, zapLevel(LevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, zapLevel(LevelError))
}
