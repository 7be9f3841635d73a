package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// swapStdout redirects the console sink until the returned func is called.
func swapStdout(t *testing.T) func() string {
	t.Helper()
	var buf bytes.Buffer
	prev := osStdout
	osStdout = &buf
	t.Cleanup(func() { osStdout = prev })
	return func() string {
		osStdout = prev
		return buf.String()
	}
}

func TestSlogManager_Destination(t *testing.T) {
	t.Run("file only", func(t *testing.T) {
		stdout := swapStdout(t)
		var file bytes.Buffer

		m := NewSlogManager()
		m.Setup(Options{File: &file, Level: "info"})
		m.Logger().Info("overlay created", "pool", "irlDate")

		assert.Contains(t, file.String(), "pool=irlDate")
		assert.Empty(t, stdout())
	})

	t.Run("console", func(t *testing.T) {
		stdout := swapStdout(t)

		m := NewSlogManager()
		m.Setup(Options{Level: "info"})
		m.Logger().Info("overlay pinned")

		assert.Contains(t, stdout(), "overlay pinned")
	})
}

func TestSlogManager_Level(t *testing.T) {
	cases := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(Options{File: &buf, Level: tc.level})

			m.Logger().Debug("batch ignored while pinned")
			m.Logger().Warn("no prototype registered for pool")

			assert.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("batch ignored while pinned")))
			assert.Contains(t, buf.String(), "no prototype registered for pool")
		})
	}
}

func TestSlogManager_SetupTwice(t *testing.T) {
	var old, current bytes.Buffer
	m := NewSlogManager()

	m.Setup(Options{File: &old})
	m.Setup(Options{File: &current})
	m.Logger().Info("session ended")

	assert.NotContains(t, old.String(), "session ended")
	assert.Contains(t, current.String(), "session ended")
}

func TestSlogManager_ContextAndGraylog(t *testing.T) {
	var buf bytes.Buffer
	sink := &captureSink{}
	pin := "unpinned"

	m := NewSlogManager()
	m.Setup(Options{
		File:    &buf,
		Graylog: sink,
		Context: func() []slog.Attr { return []slog.Attr{slog.String("pin", pin)} },
	})
	pin = "pinned"
	m.Logger().Info("overlay pinned", "pool", "irlMonk")

	assert.Contains(t, buf.String(), "pin=pinned")
	require.Len(t, sink.messages, 2, "setup message plus ours")
	last := sink.messages[1]
	assert.Equal(t, "overlay pinned", last.Short)
	assert.Equal(t, "pinned", last.Extra["_pin"])
	assert.Equal(t, "irlMonk", last.Extra["_pool"])
}

func TestSlogManager_OTel(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()

	assert.NoError(t, m.Flush(context.Background()), "nothing to flush before setup")
	assert.Same(t, slog.Default(), m.Logger())

	m.Setup(Options{File: &buf, Provider: sdklog.NewLoggerProvider(), ServiceName: "statsserver"})
	m.Logger().Info("stats server starting")

	assert.Contains(t, buf.String(), "stats server starting")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"trace":   slog.LevelInfo,
		"":        slog.LevelInfo,
	} {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
