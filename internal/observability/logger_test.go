package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kittclouds/storygraph/internal/config"
)

// The logger is a process-wide singleton; every test starts from scratch.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func setupTestLogger(cfg config.LoggerConfig) *bytes.Buffer {
	buf := new(bytes.Buffer)
	initializeLogger(cfg, zapcore.AddSync(buf))
	return buf
}

func TestInitializeLoggerConsole(t *testing.T) {
	resetGlobalLogger()
	buf := setupTestLogger(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "storygraph",
		Colors:      config.ColorConfig{Info: "green"},
	})

	GetLogger().Info("analysis complete")
	Sync()

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "analysis complete")
	assert.Contains(t, out, ansi["green"]+"INFO"+ansiReset)
}

func TestInitializeLoggerJSON(t *testing.T) {
	resetGlobalLogger()
	buf := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "storygraph"})

	GetLogger().Info("stage done", zap.String("stage", "events"))
	GetLogger().Debug("filtered out")
	Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "stage done", entry["msg"])
	assert.Equal(t, "events", entry["stage"])
	assert.Equal(t, "storygraph", entry["logger"])
	assert.NotContains(t, lines[0], ansiReset)
}

func TestInitializeLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	resetGlobalLogger()
	buf := setupTestLogger(config.LoggerConfig{Level: "loud", Format: "json"})

	GetLogger().Debug("hidden")
	GetLogger().Info("shown")
	Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitializeLoggerOnce(t *testing.T) {
	resetGlobalLogger()
	first := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json"})
	second := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json"})

	GetLogger().Info("once")
	Sync()

	assert.Contains(t, first.String(), "once")
	assert.Empty(t, second.String())
}

func TestInitializeLoggerFileSink(t *testing.T) {
	resetGlobalLogger()
	logFile := filepath.Join(t.TempDir(), "storygraph.log")
	setupTestLogger(config.LoggerConfig{Level: "info", Format: "console", LogFile: logFile, MaxSize: 1})

	GetLogger().Warn("written to file")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to file"`)
}

func TestGetLoggerBeforeInit(t *testing.T) {
	resetGlobalLogger()
	assert.NotNil(t, GetLogger())
	assert.NotPanics(t, Sync)
}

func TestConsoleWithoutColors(t *testing.T) {
	resetGlobalLogger()
	buf := setupTestLogger(config.LoggerConfig{Level: "info", Format: "console"})

	GetLogger().Warn("plain")
	Sync()

	assert.Contains(t, buf.String(), "WARN")
	assert.NotContains(t, buf.String(), ansiReset)
}

func TestUnsyncable(t *testing.T) {
	pathErr := &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}
	assert.True(t, unsyncable(pathErr))
	assert.True(t, unsyncable(fmt.Errorf("flush: %w", syscall.ENOTTY)))
	assert.False(t, unsyncable(errors.New("disk full")))
}
