package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "", "PROD"} {
		log, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, log)
		child := log.With("component", "test")
		assert.NotSame(t, log, child)
		child.Debug("debug line", "k", 1)
		child.Info("info line")
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.With("repo", "ChatRepo").Warn("warn", "error", "boom")
		log.Error("error")
		log.Sync()
	})
	assert.NotNil(t, log.Zap())
}
