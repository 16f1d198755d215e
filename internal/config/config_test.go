package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("GENERATION_MAX_RETRIES", "")
	t.Setenv("GENERATION_MAX_ATTEMPTS", "")
	t.Setenv("GENERATION_BASE_DELAY", "")
	t.Setenv("AUTH_MODE", "")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 2*time.Second, cfg.GenerationBackoff)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 3, cfg.MaxTotalAttempts)
	assert.False(t, cfg.IsGatewayMode())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "45")
	t.Setenv("GENERATION_BASE_DELAY", "500ms")
	t.Setenv("GENERATION_MAX_RETRIES", "not-a-number")
	t.Setenv("GENERATION_TEMPERATURE", "0.2")
	t.Setenv("GENERATION_TEST_MODE", "true")
	t.Setenv("AUTH_MODE", "gateway")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.GenerationBackoff)
	assert.Equal(t, 2, cfg.MaxRetries, "invalid ints fall back to the default")
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.True(t, cfg.TestMode)
	assert.True(t, cfg.IsGatewayMode())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, Load().CORSAllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, Load().CORSAllowedOrigins)
}
