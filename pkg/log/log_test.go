package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("debug", "json", &buf)

	l.Info().Str("path", "/tmp/secrets.yml").Int("keys", 2).Msg("loaded")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "loaded", entry["message"])
	assert.Equal(t, "/tmp/secrets.yml", entry["path"])
	assert.EqualValues(t, 2, entry["keys"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", "json", &buf)

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", "json", &buf)

	ctx := ContextWithCorrelationID(context.Background(), "abc-123")
	ctx = ContextWithCommand(ctx, "export")

	l.WithContext(ctx).Error().Err(errors.New("boom")).Msg("failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "abc-123", entry["correlation_id"])
	assert.Equal(t, "export", entry["command"])
	assert.Equal(t, "boom", entry["error"])
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info().Msg("discarded")
}

func TestStartInvocation(t *testing.T) {
	t.Setenv(CorrelationIDEnv, "")

	var buf bytes.Buffer
	base := NewWithWriter("debug", "json", &buf)

	inv := StartInvocation(context.Background(), base, "show")
	id := CorrelationIDFromContext(inv.Context())
	assert.NotEmpty(t, id)
	assert.Equal(t, "show", CommandFromContext(inv.Context()))
	assert.Same(t, inv.Logger(), FromContext(inv.Context()))

	buf.Reset()
	inv.Finish(errors.New("decrypt failed"))
	entry := decodeLine(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, true, entry["failed"])
	assert.Equal(t, "decrypt failed", entry["error"])
	assert.Equal(t, id, entry["correlation_id"])
}

func TestInvocationFinish_SilentAtInfo(t *testing.T) {
	t.Setenv(CorrelationIDEnv, "")

	var buf bytes.Buffer
	inv := StartInvocation(context.Background(), NewWithWriter("info", "json", &buf), "exec")
	inv.Finish(errors.New("command exited with status 3"))

	assert.Empty(t, buf.String())
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("info", "json", &buf).With("child", "sh").Info().Msg("starting")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "sh", entry["child"])
}

func TestStartInvocation_InheritsCorrelationID(t *testing.T) {
	t.Setenv(CorrelationIDEnv, "parent-id")

	inv := StartInvocation(context.Background(), NewNop(), "get")
	assert.Equal(t, "parent-id", CorrelationIDFromContext(inv.Context()))
}
