package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	log, err := New(Config{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Info("request fulfilled")
	log.Debug("hidden below level")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"request fulfilled"`)
	assert.Contains(t, string(data), `"timestamp"`)
	assert.NotContains(t, string(data), "hidden below level")
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(Config{Level: "loud", Format: "console", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}
