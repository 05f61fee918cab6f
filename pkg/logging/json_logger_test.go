package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitNonEmpty(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func decodeEntries(t *testing.T, data string) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range splitNonEmpty(data) {
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLogger_WritesEntries(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{
		Output: &buf,
		Level:  LevelDebug,
		Fields: map[string]any{"component": "engine"},
	})
	require.NoError(t, err)

	logger.Info("hello", StringField("key", "val"))
	logger.Debug("details")

	entries := decodeEntries(t, buf.String())
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "val", entries[0].Fields["key"])
	assert.Equal(t, "engine", entries[0].Fields["component"])
	assert.Equal(t, "DEBUG", entries[1].Level)
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{
		Output: &buf,
		Level:  LevelWarn,
	})
	require.NoError(t, err)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	entries := decodeEntries(t, buf.String())
	require.Len(t, entries, 2)
	assert.Equal(t, "w", entries[0].Message)
	assert.Equal(t, "e", entries[1].Message)
}

func TestJSONLogger_WithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewJSONLogger(LoggerConfig{Output: &buf})
	require.NoError(t, err)

	child := parent.WithFields(RunIDField("r1"))
	child.Info("child")
	parent.Info("parent")

	entries := decodeEntries(t, buf.String())
	require.Len(t, entries, 2)
	assert.Equal(t, "r1", entries[0].Fields["run_id"])
	assert.NotContains(t, entries[1].Fields, "run_id")
}

func TestJSONLogger_FileAndRunLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "engine.log")
	runPath := filepath.Join(dir, "runs.log")

	logger, err := NewJSONLogger(LoggerConfig{
		OutputPath: logPath,
		RunLogPath: runPath,
	})
	require.NoError(t, err)

	logger.Info("started")
	logger.LogRun(RunLog{
		RunID: "r1", Status: "passed", Cases: 2, Passed: 2,
	})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Len(t, decodeEntries(t, string(data)), 1)

	data, err = os.ReadFile(runPath)
	require.NoError(t, err)
	lines := splitNonEmpty(string(data))
	require.Len(t, lines, 1)

	var run RunLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &run))
	assert.Equal(t, "r1", run.RunID)
	assert.Equal(t, 2, run.Passed)
	assert.NotEmpty(t, run.Timestamp)
}

func TestJSONLogger_LogRunWithoutRunLog(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{Output: &buf})
	require.NoError(t, err)

	logger.LogRun(RunLog{RunID: "r2", Status: "failed", Cases: 1})

	entries := decodeEntries(t, buf.String())
	require.Len(t, entries, 1)
	assert.Equal(t, "run completed", entries[0].Message)
	assert.Equal(t, "r2", entries[0].Fields["run_id"])
}

func TestJSONLogger_ClosedLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{Output: &buf})
	require.NoError(t, err)
	child := logger.WithFields(StringField("a", "b"))

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())
	logger.Info("dropped")
	child.Info("dropped too")
	assert.Empty(t, buf.String())
}

func TestJSONLogger_MarshalFailure(t *testing.T) {
	orig := jsonMarshal
	defer func() { jsonMarshal = orig }()
	jsonMarshal = func(any) ([]byte, error) {
		return nil, errors.New("marshal failed")
	}

	var buf bytes.Buffer
	logger, err := NewJSONLogger(LoggerConfig{Output: &buf})
	require.NoError(t, err)
	logger.Info("lost")
	assert.Empty(t, buf.String())
}

func TestJSONLogger_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewJSONLogger(LoggerConfig{
		OutputPath: filepath.Join(blocker, "sub", "log"),
	})
	assert.Error(t, err)
}
