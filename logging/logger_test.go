package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*MeshLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = &buf
	return NewLogger(cfg), &buf
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("verbose"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestMeshLoggerFiltersByLevel(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "n", 1)

	got := entries(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["msg"])
	assert.Equal(t, float64(1), got[0]["n"])
}

func TestMeshLoggerContext(t *testing.T) {
	base, buf := newBufferLogger(LogLevelDebug)
	l := base.WithComponent("module").WithScenario("live")
	l.Info("attached")
	base.Info("plain")

	got := entries(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "module", got[0]["component"])
	assert.Equal(t, "live", got[0]["scenario"])
	assert.NotContains(t, got[1], "component", "With* returns a copy")
}

func TestScopingHelpers(t *testing.T) {
	base, buf := newBufferLogger(LogLevelDebug)
	ForScenario(ForComponent(base, "host"), "offline").Debug("scoped")

	var slogBuf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&slogBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ForScenario(ForComponent(adapter, "runner"), "live").Info("scoped")

	for _, got := range [][]map[string]any{entries(t, buf), entries(t, &slogBuf)} {
		require.Len(t, got, 1)
		assert.NotEmpty(t, got[0]["component"])
		assert.NotEmpty(t, got[0]["scenario"])
	}

	var noop Logger = NoOpLogger{}
	assert.Equal(t, noop, ForComponent(noop, "module"))
}

func TestGraphHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	LogConnection(l, "connect", 1, 2, nil)
	LogConnection(l, "disconnect", 1, 1, errors.New("boom"))
	LogReconstruct(l, "delay", 3)
	LogRender(l, 88200, 2, time.Millisecond)

	got := entries(t, buf)
	require.Len(t, got, 4)
	assert.Equal(t, "DEBUG", got[0]["level"])
	assert.Equal(t, true, got[0]["success"])
	assert.Equal(t, "WARN", got[1]["level"])
	assert.Equal(t, "boom", got[1]["error"])
	assert.Equal(t, float64(3), got[2]["replayed_attributes"])
	assert.Equal(t, float64(88200), got[3]["frames"])
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		l.Debug("x")
		LogConnection(l, "connect", 1, 1, nil)
	})
}
