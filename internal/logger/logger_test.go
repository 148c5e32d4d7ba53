package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"bogus": zapcore.InfoLevel,
	}
	for level, want := range cases {
		for _, format := range []string{"json", "console"} {
			log, err := New(level, format, "rtdb")
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(want), "%s/%s", level, format)
			if want > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(want-1), "%s/%s", level, format)
			}
		}
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter("info", &buf, "rtdb-wasm")

	log.Debug("hidden")
	log.Warn("failed to persist database", zap.String("key", "rt_database"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "failed to persist database")
	assert.Contains(t, out, `"key": "rt_database"`)
	assert.Contains(t, out, `"service_name": "rtdb-wasm"`)
}
