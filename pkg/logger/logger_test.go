package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSetMode(t *testing.T) {
	t.Cleanup(func() { SetMode("release") })

	SetMode("debug")
	assert.Equal(t, zap.DebugLevel, Level())

	SetMode("release")
	assert.Equal(t, zap.InfoLevel, Level())
}

func TestDefaultLoggerIsUsable(t *testing.T) {
	assert.NotPanics(t, func() {
		Log.Info("no-op logger before init", zap.String("k", "v"))
	})
}
