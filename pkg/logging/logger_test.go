package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(&Config{
		Level:       level,
		ServiceName: "recap-test",
		JSONFormat:  true,
		Output:      buf,
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.Info("processing started", F("stage", "transcribe"), F("chunks", 4))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "processing started", entry["message"])
	assert.Equal(t, "transcribe", entry["stage"])
	assert.Equal(t, float64(4), entry["chunks"])
	assert.Equal(t, "recap-test", entry["service_name"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelWarn)

	log.Debug("not visible")
	log.Info("not visible either")
	assert.Zero(t, buf.Len())

	log.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo).With(F("destination", "asana"))

	log.Info("task created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "asana", entry["destination"])
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	ctx := context.WithValue(context.Background(), SessionIDKey, "sess-123")
	log.WithContext(ctx).Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sess-123", entry["session_id"])
}

func TestLoggerErrField(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.Error("fan-out failed", Err(errors.New("smtp auth rejected")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "smtp auth rejected", entry["error"])
}

func TestLoggerDurationField(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.Info("done", F("elapsed", 1500*time.Millisecond))
	assert.Contains(t, buf.String(), "elapsed")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic and must chain.
	log.With(F("k", "v")).WithContext(context.Background()).Info("ignored")
}

func TestMustGlobalInitializesDefault(t *testing.T) {
	global = nil
	assert.NotNil(t, MustGlobal())
}
