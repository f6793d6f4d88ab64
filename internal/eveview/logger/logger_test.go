package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		require.NoError(t, InitLogger(Config{Level: level}))
		assert.NotNil(t, L())
	}

	// An unknown level falls back to info instead of failing startup.
	require.NoError(t, InitLogger(Config{Level: "chatty"}))
	assert.True(t, L().Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, L().Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, InitLogger(Config{Level: "debug", Development: true}))
	assert.True(t, L().Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestLLazyInit(t *testing.T) {
	logger = nil
	assert.NotNil(t, L())
}
