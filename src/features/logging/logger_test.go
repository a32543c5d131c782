package logging

import (
	"bytes"
	"testing"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.Logger{Enabled: true, Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "approach", "default")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"approach":"default"`)
}

func TestNewLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.Logger{Enabled: false, Level: "debug"})
	logger.Error("nothing")
	assert.Empty(t, buf.String())
}
