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
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	Init("info", "json", &buf)

	WithComponent("resolver").Info("ticket opened", "ticket_id", 7)
	Get().Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "ticket opened", rec["msg"])
	assert.Equal(t, "resolver", rec["component"])
	assert.EqualValues(t, 7, rec["ticket_id"])
}

func TestInit_TextWithoutColourOnBuffer(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "text", &buf)

	Get().Warn("classifier unreachable", "error", errors.New("dial tcp: refused"))

	out := buf.String()
	assert.Contains(t, out, "classifier unreachable")
	assert.Contains(t, out, "dial tcp: refused")
	assert.NotContains(t, out, "\x1b[")
}
