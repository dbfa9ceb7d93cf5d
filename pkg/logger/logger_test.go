package logger

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger(t *testing.T) {
	t.Run("NewConsoleLogger", func(t *testing.T) {
		lg := NewConsoleLogger("info")
		assert.NotNil(t, lg)

		cl, ok := lg.(*ConsoleLogger)
		require.True(t, ok)
		assert.Equal(t, "info", cl.level)
	})

	t.Run("NewTestLogger", func(t *testing.T) {
		lg := NewTestLogger()
		assert.NotNil(t, lg)

		cl, ok := lg.(*ConsoleLogger)
		require.True(t, ok)
		assert.Equal(t, "debug", cl.level)
	})

	t.Run("NewLogger", func(t *testing.T) {
		lg := NewLogger()
		cl, ok := lg.(*ConsoleLogger)
		require.True(t, ok)
		assert.Equal(t, "info", cl.level)
	})
}

func TestLoggingLevels(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	t.Run("DebugAtDebugLevel", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("debug")
		lg.Debug("debug message")
		assert.Contains(t, buf.String(), "[DEBUG] debug message")
	})

	t.Run("DebugSuppressedAtInfoLevel", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("info")
		lg.Debug("debug message")
		assert.Empty(t, buf.String())
	})

	t.Run("InfoSuppressedAtWarnLevel", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("warn")
		lg.Info("info message")
		assert.Empty(t, buf.String())

		lg.Warn("warn message")
		assert.Contains(t, buf.String(), "[WARN] warn message")
	})

	t.Run("InfoWithFields", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("info")
		lg.Info("chunking complete", map[string]interface{}{"chunks": 12})
		out := buf.String()
		assert.Contains(t, out, "[INFO] chunking complete")
		assert.Contains(t, out, "chunks=12")
	})

	t.Run("ErrorIncludesCause", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("info")
		lg.Error("embedding failed", errors.New("connection refused"))
		out := buf.String()
		assert.Contains(t, out, "[ERROR] embedding failed")
		assert.Contains(t, out, "error=connection refused")
	})

	t.Run("ErrorWithNilError", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("info")
		lg.Error("plain error", nil)
		assert.Contains(t, buf.String(), "[ERROR] plain error")
		assert.NotContains(t, buf.String(), "error=")
	})
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	t.Run("FieldsCarriedOnEveryEntry", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("info").WithFields(map[string]interface{}{"component": "enricher"})
		lg.Info("starting")
		assert.Contains(t, buf.String(), "component=enricher")
	})

	t.Run("ReturnsNewLogger", func(t *testing.T) {
		base := NewConsoleLogger("info")
		derived := base.WithFields(map[string]interface{}{"a": 1})
		assert.NotSame(t, base, derived)

		buf.Reset()
		base.Info("base entry")
		assert.NotContains(t, buf.String(), "a=1")
	})

	t.Run("MergeOverridesBaseFields", func(t *testing.T) {
		buf.Reset()
		lg := NewConsoleLogger("info").
			WithFields(map[string]interface{}{"stage": "parse"}).
			WithFields(map[string]interface{}{"stage": "chunk"})
		lg.Info("entry")
		assert.Contains(t, buf.String(), "stage=chunk")
	})
}
