package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLevels(t *testing.T) {
	l, err := Init("debug", "dev")
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, l.Level.Level())

	l, err = Init("nonsense", "prod")
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, l.Level.Level())
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := Init("info", "prod", path)
	require.NoError(t, err)

	l.Named("scheduler").Info("период обнаружен", zap.String("period", "1"))
	l.Closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"scheduler"`)
	assert.Contains(t, string(data), `"period":"1"`)
}

func TestNamedOnNil(t *testing.T) {
	var l *Log
	assert.NotNil(t, l.Named("x"))
}
