package debuglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.level.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{" info ", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"INVALID", LevelInfo},
		{"", LevelInfo},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, ParseLogLevel(test.input), "input %q", test.input)
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, Close())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestSetupWithLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	require.NoError(t, Setup(LevelInfo, logPath))
	assert.Equal(t, LevelInfo, GetLevel())

	Debugf("debug message")
	Infof("info message")
	Warnf("warn message")
	Errorf("error message %d", 7)

	content := readLog(t, logPath)
	assert.NotContains(t, content, "debug message")
	assert.Contains(t, content, "info message")
	assert.Contains(t, content, "warn message")
	assert.Contains(t, content, "error message 7")
	assert.Contains(t, content, "app=shelf")
}

func TestSetupWithLevelOff(t *testing.T) {
	require.NoError(t, Setup(LevelOff))
	assert.Equal(t, LevelOff, GetLevel())

	// Must not panic without a logger.
	Debugf("debug message")
	Errorf("error message")
	assert.NoError(t, Close())
}

func TestSetupBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := Setup(LevelInfo, filepath.Join(blocker, "shelf.log"))
	assert.Error(t, err)
	SetLevel(LevelOff)
}

func TestFieldLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "field_test.log")
	require.NoError(t, Setup(LevelDebug, logPath))

	WithFields(map[string]any{
		"component": "test",
		"action":    "testing",
		"count":     42,
	}).Infof("test message with fields")

	content := readLog(t, logPath)
	assert.Contains(t, content, "test message with fields")
	assert.Contains(t, content, "component=test")
	assert.Contains(t, content, "action=testing")
	assert.Contains(t, content, "count=42")
}

func TestSetLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	require.NoError(t, Setup(LevelError, logPath))

	Infof("dropped")
	SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, GetLevel())
	Debugf("kept")

	content := readLog(t, logPath)
	assert.NotContains(t, content, "dropped")
	assert.Contains(t, content, "kept")
	SetLevel(LevelOff)
}
