package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, 60*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 2, cfg.HTTP.MaxRetries)
}

func TestLoad_EnvOverridesAndTrimsSlash(t *testing.T) {
	t.Setenv("LLAMERO_URL", "https://llamero.internal/")
	t.Setenv("LLAMERO_HTTP_MAX_RETRIES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://llamero.internal", cfg.Server.URL)
	assert.Equal(t, 0, cfg.HTTP.MaxRetries)
}

func TestLoad_InvalidURL(t *testing.T) {
	t.Setenv("LLAMERO_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
}
