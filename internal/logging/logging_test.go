package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionJSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("production", &buf).With("component", "test")

	ctx := WithRequestID(context.Background(), "req-1")
	logger.InfoContext(ctx, "signup handled", "outcome", "created")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "signup handled", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "test", record["component"])
	assert.Equal(t, "created", record["outcome"])
}

func TestNew_DevIsTextAndDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New("dev", &buf)
	logger.DebugContext(context.Background(), "debug line")
	assert.Contains(t, buf.String(), "msg=\"debug line\"")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}
