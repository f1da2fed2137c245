package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_WithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "seeder"})

	log.Info("seeded", map[string]interface{}{"count": 100})
	log.WithError(errors.New("boom")).Error("failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "seeder", first["component"])
	assert.EqualValues(t, 100, first["count"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestMapToZapFields_NamedErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewZapAdapter(zap.New(core)).Warn("ping failed", map[string]interface{}{
		"cause": errors.New("connection refused"),
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "connection refused", entries[0].ContextMap()["cause"])
}

func TestNew_LevelParsing(t *testing.T) {
	l := New("warn", "console")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	assert.NotNil(t, NewNoOpLogger())
	assert.NotNil(t, NewTestLogger(t))
}
