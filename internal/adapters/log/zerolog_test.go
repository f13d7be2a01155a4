package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/aq2rdb/internal/ports"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", FormatJSON)
	require.NoError(t, err)

	logger.With(ports.String("run_id", "abc")).Warn("row skipped",
		ports.Line(12),
		ports.String("datatype", "DV"),
		ports.Any("fields", []string{"station"}),
		ports.Err(errors.New("incomplete row")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "row skipped", entry["message"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, float64(12), entry["line"])
	assert.Equal(t, "DV", entry["datatype"])
	assert.Equal(t, []interface{}{"station"}, entry["fields"])
	assert.Equal(t, "incomplete row", entry["error"])
	assert.Contains(t, entry, "time")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())
	logger.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "", "")
	require.NoError(t, err)
	logger.Info("processing control file", ports.String("path", "batch.ctl"))
	assert.Contains(t, buf.String(), "processing control file")
	assert.Contains(t, buf.String(), "batch.ctl")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil, "loud", FormatJSON)
	assert.Error(t, err)
	_, err = New(nil, "info", "xml")
	assert.Error(t, err)
}

func TestNoopLogger(t *testing.T) {
	var logger ports.Logger = NewNoopLogger()
	logger.Info("discarded", ports.Int("n", 1))
}
