package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := DefaultConfig()
	cfg.OutputPaths = []string{path}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Named("ledger").Info("recorded", zap.String("kind", "expense"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"recorded"`)
	assert.Contains(t, string(data), `"kind":"expense"`)
	assert.Contains(t, string(data), `"logger":"ledger"`)
}

func TestNewLogger_BadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	cfg := ApplyEnv(DefaultConfig())
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	t.Setenv("LOG_DEV", "true")
	t.Setenv("LOG_LEVEL", "")
	cfg = ApplyEnv(DefaultConfig())
	assert.True(t, cfg.Development)
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()
	l.With(zap.Int("n", 1)).Info("dropped")
}
