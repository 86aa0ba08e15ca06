package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: FormatJSON}, &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("socket", "abc").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "abc", entry["socket"])
	assert.NotContains(t, entry, "time")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", NoColor: true, Timestamp: true}, &buf)

	log.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "DBG")
	assert.Contains(t, buf.String(), "hello")
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "INFO", Format: "JSON"}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&Config{Level: "loud", Format: FormatJSON}).Validate())
	assert.Error(t, (&Config{Level: "info", Format: "xml"}).Validate())
}
