package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracedLogger_IncludesScope(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTracedLogger(NewJSONHandler(&buf, slog.LevelDebug), "proj-1", "orchestrator")

	logger.Info(context.Background(), "turn handled", "response_kind", "single")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "proj-1", entry["project_id"])
	assert.Equal(t, "orchestrator", entry["component"])
	assert.Equal(t, "single", entry["response_kind"])
}

func TestTracedLogger_OmitsEmptyScopeFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTracedLogger(NewJSONHandler(&buf, slog.LevelDebug), "", "memory")

	logger.Info(context.Background(), "memory evicted", "key", "stale-fact")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "memory", entry["component"])
	assert.NotContains(t, entry, "project_id")
	assert.Equal(t, "stale-fact", entry["key"])
}

func TestTracedLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTracedLogger(NewJSONHandler(&buf, slog.LevelDebug), "proj-1", "llm")

	logger.Info(context.Background(), "completion issued",
		"prompt", "full prompt text",
		"api_key", "sk-secret",
		"model", "some-model")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[REDACTED]", entry["prompt"])
	assert.Equal(t, "[REDACTED]", entry["api_key"])
	assert.Equal(t, "some-model", entry["model"])
}

func TestTracedLogger_DebugKeepsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTracedLogger(NewJSONHandler(&buf, slog.LevelDebug), "proj-1", "llm")

	logger.Debug(context.Background(), "completion issued", "prompt", "full prompt text")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "full prompt text", entry["prompt"])
}

func TestInitTracing_DisabledIsNoop(t *testing.T) {
	provider, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)

	_, span := provider.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}
