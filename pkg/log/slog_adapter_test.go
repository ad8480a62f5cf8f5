package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	adapter.Log(event)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSlogAdapterMessage(t *testing.T) {
	entry := logJSON(t, sampleEvents()[0])

	assert.Equal(t, "bootstrap", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "s-1", entry["session"])
	assert.Equal(t, "OUT", entry["direction"])
	assert.Equal(t, "urn:imei:1", entry["endpoint"])
	assert.Equal(t, "WRITE", entry["operation"])
	assert.Equal(t, "/0/1", entry["path"])
	assert.Equal(t, float64(11542), entry["content_format"])
	assert.NotContains(t, entry, "code")
}

func TestSlogAdapterState(t *testing.T) {
	entry := logJSON(t, sampleEvents()[2])
	assert.Equal(t, "STATE", entry["category"])
	assert.Equal(t, "FAILED", entry["state"])
	assert.Equal(t, "AUTHORIZED", entry["old_state"])
	assert.Equal(t, "REQUEST_FAILED", entry["reason"])
}

func TestSlogAdapterError(t *testing.T) {
	entry := logJSON(t, sampleEvents()[3])
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "DELETE /1", entry["error_context"])
}

func TestSlogAdapterBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	adapter.Log(sampleEvents()[0])
	assert.Empty(t, strings.TrimSpace(buf.String()))
}
