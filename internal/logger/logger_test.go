package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/companion-nlu-go/internal/ctxutil"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewWithWriter(tt.level, &bytes.Buffer{}).Level())
		})
	}
}

func TestLogger_JSONKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	log.WithModule("engine").WithField("intent", "grade_tracking").Warn("fallback used")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "fallback used", entry["message"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "engine", entry["module"])
	assert.Equal(t, "grade_tracking", entry["intent"])
	assert.Contains(t, entry, "timestamp")
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter("warn", &buf).Info("hidden")
	assert.Zero(t, buf.Len())
}

func TestContextHandler_AddsTracingValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithRequestID(context.Background(), "req-9")
	ctx = ctxutil.WithUserID(ctx, "u-1")
	ctx = ctxutil.WithSessionID(ctx, "s-2")
	log.InfoContext(ctx, "processed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, "s-2", entry["session_id"])
}

type captureHandler struct {
	mu      sync.Mutex
	level   slog.Level
	records []string
}

func (c *captureHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= c.level }
func (c *captureHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r.Message)
	return nil
}
func (c *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *captureHandler) WithGroup(string) slog.Handler      { return c }

func (c *captureHandler) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.records...)
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	t.Parallel()

	debug := &captureHandler{level: slog.LevelDebug}
	errOnly := &captureHandler{level: slog.LevelError}
	l := slog.New(NewMultiHandler(debug, nil, errOnly))

	l.Info("a")
	l.Error("b")

	assert.Equal(t, []string{"a", "b"}, debug.messages())
	assert.Equal(t, []string{"b"}, errOnly.messages())
}

func TestAsyncHandler_DrainsOnShutdown(t *testing.T) {
	t.Parallel()

	sink := &captureHandler{level: slog.LevelDebug}
	async := NewAsyncHandler(sink, AsyncOptions{BufferSize: 16})
	l := slog.New(async)

	for range 5 {
		l.Info("queued")
	}
	require.NoError(t, async.Shutdown(context.Background()))
	assert.Len(t, sink.messages(), 5)

	l.Info("after shutdown")
	assert.Len(t, sink.messages(), 5)
	assert.NoError(t, async.Shutdown(context.Background()))
}
