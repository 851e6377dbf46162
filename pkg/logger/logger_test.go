package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"gotest.tools/v3/assert"
)

func TestSlogLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLoggerWithWriter(&buf, slog.LevelInfo)

	l.Errorf(errors.New("boom"), "product %d failed", 42)

	var entry map[string]any
	assert.NilError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "product 42 failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLoggerWithWriter(&buf, slog.LevelWarn)

	l.Infof("hidden")
	l.Debugf("hidden too")
	assert.Equal(t, 0, buf.Len())

	l.With("component", "test").Warnf("shown")
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte(`"component":"test"`)))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
