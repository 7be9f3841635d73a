package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	multi := NewMultiHandler(nil, failingHandler{}, textHandler(&info, slog.LevelInfo), textHandler(&debug, slog.LevelDebug))
	require.Len(t, multi.handlers, 3)

	logger := slog.New(multi)
	logger.Debug("candidate offered", "pool", "irlDate")
	logger.Info("overlay created", "pool", "irlDate")

	assert.NotContains(t, info.String(), "candidate offered")
	assert.Contains(t, info.String(), "overlay created")
	assert.Contains(t, debug.String(), "candidate offered")
	assert.Contains(t, debug.String(), "overlay created")
}

func TestMultiHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))

	m := NewMultiHandler(textHandler(&buf, slog.LevelWarn))
	assert.False(t, m.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, m.Enabled(context.Background(), slog.LevelWarn))
}

func TestMultiHandler_Derive(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiHandler(textHandler(&buf, slog.LevelInfo))

	assert.Same(t, m, m.WithGroup(""))

	slog.New(m.WithAttrs([]slog.Attr{slog.String("component", "overlay")})).
		WithGroup("pin").
		Info("toggled", "state", "pinned")

	assert.Contains(t, buf.String(), "component=overlay")
	assert.Contains(t, buf.String(), "pin.state=pinned")
}

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	h := NewContextHandler(textHandler(&buf, slog.LevelInfo), func() []slog.Attr {
		calls++
		return []slog.Attr{slog.String("user", "device-1")}
	})

	logger := slog.New(h).With("component", "handlers")
	logger.Debug("filtered")
	logger.Info("scan reported", "reference", "irlMonk")

	assert.Equal(t, 1, calls, "provider only runs for emitted records")
	out := buf.String()
	assert.Contains(t, out, "component=handlers")
	assert.Contains(t, out, "reference=irlMonk")
	assert.Contains(t, out, "user=device-1")
	assert.Same(t, h, h.WithGroup(""))
}

func TestContextHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewContextHandler(textHandler(&buf, slog.LevelInfo), nil)).Info("ok")
	assert.Contains(t, buf.String(), "msg=ok")
}
