package config_test

import (
	"testing"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"SERVER_PORT", "ENVIRONMENT", "ROUND_DEFAULT_DURATION", "ROUND_DEFAULT_MIN_BET",
		"ID_FORMAT", "ANTHROPIC_API_KEY", "OPERATOR_JWT_SECRET", "ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "3024", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Round.DefaultDuration)
	assert.Equal(t, 5.0, cfg.Round.DefaultMinBet)
	assert.Equal(t, "hex", cfg.Round.IDFormat)
	assert.False(t, cfg.NarrativeEnabled())
	assert.False(t, cfg.IsProd())
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ROUND_DEFAULT_DURATION", "600")
	t.Setenv("ROUND_DEFAULT_MIN_BET", "2.5")
	t.Setenv("ID_FORMAT", "uuid")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("NARRATIVE_TIMEOUT", "5s")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Round.DefaultDuration)
	assert.Equal(t, 2.5, cfg.Round.DefaultMinBet)
	assert.Equal(t, "uuid", cfg.Round.IDFormat)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Narrative.Timeout)
	assert.True(t, cfg.NarrativeEnabled())
}

func TestLoad_BadNumber(t *testing.T) {
	t.Setenv("ROUND_DEFAULT_MIN_BET", "five")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("OPERATOR_JWT_SECRET", "")
	t.Setenv("ROUND_DEFAULT_MIN_BET", "-1")
	t.Setenv("ID_FORMAT", "base58")

	cfg, err := config.Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROUND_DEFAULT_MIN_BET")
	assert.Contains(t, err.Error(), "ID_FORMAT")
	assert.Contains(t, err.Error(), "OPERATOR_JWT_SECRET")
}
