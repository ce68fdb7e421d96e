package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewJSONWithServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf, Service: "auditorium"})

	l.Info("suppressed")
	l.Warn("booking store slow", "op", "list")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "booking store slow", entry["msg"])
	assert.Equal(t, "auditorium", entry["service"])
	assert.Equal(t, "list", entry["op"])
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Output: &buf})
	l.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
