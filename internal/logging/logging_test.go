package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"INFO":  zapcore.InfoLevel,
		"Warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("Console")
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatConsole} {
		logger, flush, err := New(Options{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.True(t, logger.V(1).Enabled(), format)
		logger.Info("logger ready", "format", format)
		flush()
	}

	logger, _, err := New(Options{Level: "error"})
	require.NoError(t, err)
	assert.False(t, logger.V(0).Enabled())

	_, _, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}
