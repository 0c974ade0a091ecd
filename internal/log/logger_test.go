package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrag/gitrag/internal/config"
)

func TestJSONLoggerWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO")

	logger.Info("index started", "repo", "repo1", "total_files", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "index started", record["msg"])
	assert.Equal(t, "repo1", record["repo"])
	assert.Equal(t, float64(3), record["total_files"])
}

func TestConsoleLoggerRendersAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatPretty, "DEBUG")

	logger.Debug("chunked file", "path", "src/a.py")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "chunked file")
	assert.Contains(t, out, "path=")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "ERROR")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("WARNING").String())
	assert.Equal(t, "INFO", parseLevel("unknown").String())
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", CorrelationID(ctx))
	assert.Empty(t, CorrelationID(context.Background()))

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO")
	logger.WithContext(ctx).Info("tagged")
	assert.Contains(t, buf.String(), "abc-123")
}
