package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&Options{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "count", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.InDelta(t, 2, line["count"], 0)
}

func TestNew_InvalidOptionsFallBack(t *testing.T) {
	var buf bytes.Buffer
	options := &Options{LogLevel: "loud", LogFormat: "xml"}
	logger := NewWriter(options, &buf)

	assert.Empty(t, options.LogLevel)
	assert.Equal(t, "text", options.LogFormat)
	assert.Contains(t, buf.String(), "could not parse logger format")
	assert.Contains(t, buf.String(), "could not parse logger level")

	buf.Reset()
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	var buf bytes.Buffer
	NewWriter(&Options{LogFile: path}, &buf).Info("to file")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=\"to file\"")
	assert.Empty(t, buf.String())
}

func TestNew_DevNull(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&Options{LogFile: os.DevNull}, &buf).Error("nowhere")
	assert.Empty(t, buf.String())
}
