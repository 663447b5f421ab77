package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "warn", Format: "json"})
	l.Info("hidden")
	l.Warn("security event", "kind", "hijack")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "security event", rec["msg"])
	assert.Equal(t, "hijack", rec["kind"])
}

func TestNewTextNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{})
	l.Error("upload failed", "error", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "upload failed")
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "\x1b[")
}
