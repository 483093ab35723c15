package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]any{"bot_token", "123:abc", "user", 42, "OPENAI_API_KEY", "sk-1", "dangling"})
	assert.Equal(t, []any{"bot_token", "[REDACTED]", "user", 42, "OPENAI_API_KEY", "[REDACTED]", "dangling"}, got)
}

func TestSanitizeKeepsTokenCounts(t *testing.T) {
	got := sanitizeKVs([]any{"input_tokens", 42, "output_tokens", 7, "token", "x"})
	assert.Equal(t, []any{"input_tokens", 42, "output_tokens", 7, "token", "[REDACTED]"}, got)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("sweep_id", "abc").Warn("empty pool", "level", "advanced")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "abc", ctx["sweep_id"])
		assert.Equal(t, "advanced", ctx["level"])
		assert.Equal(t, "empty pool", entries[0].Message)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode, "")
		if assert.NoError(t, err, mode) {
			l.Info("hello")
		}
	}
}
