// ABOUTME: Tests for the CLI log handler and level parsing
// ABOUTME: Checks level filtering, attribute rendering and group prefixes

package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}

func TestColorHandler(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	logger := slog.New(newColorHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.With("component", "api").WithGroup("req").Warn("slow", "ms", 250)
	line := buf.String()
	assert.Contains(t, line, "WRN slow")
	assert.Contains(t, line, " component=api")
	assert.Contains(t, line, " req.ms=250")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}
