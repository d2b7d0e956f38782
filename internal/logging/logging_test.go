package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	require.NoError(t, Setup("warn", "json", &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("ticker", "ACME").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "ACME", entry["ticker"])
	assert.Equal(t, "shown", entry["message"])
}

func TestSetup_BadLevel(t *testing.T) {
	assert.Error(t, Setup("loud", "console", &bytes.Buffer{}))
}
