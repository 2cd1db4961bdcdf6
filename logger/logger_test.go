package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}

func TestNew(t *testing.T) {
	l, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, l.SugaredLogger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.SugaredLogger.Desugar().Core().Enabled(zapcore.ErrorLevel))

	_, err = New("dev", "nonsense")
	assert.Error(t, err)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "test")

	l.Info("stacked", "documentId", "abc", "pages", 3)
	l.Debug("detail")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "stacked", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.Equal(t, "abc", ctx["documentId"])
	assert.EqualValues(t, 3, ctx["pages"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored", "k", "v")
	l.Sync()
}
