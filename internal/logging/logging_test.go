package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serial-telemetry/internal/config"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "serialterm.log")
	logger, err := New(config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		Output:     path,
		MaxSize:    1,
		MaxBackups: 1,
	})
	require.NoError(t, err)

	logger.Debug("Telemetry")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Telemetry"`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serialterm.log")
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "console", Output: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}

func TestForTUI(t *testing.T) {
	assert.Equal(t, TUIFile, ForTUI(config.LoggingConfig{Output: "stderr"}).Output)
	assert.Equal(t, TUIFile, ForTUI(config.LoggingConfig{}).Output)
	assert.Equal(t, "/var/log/x.log", ForTUI(config.LoggingConfig{Output: "/var/log/x.log"}).Output)
}
