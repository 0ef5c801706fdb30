package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "file:raffle.db", cfg.DatabaseURL)
	assert.Equal(t, "admin", cfg.StaffUser)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
}

func TestLoadServerRejectsNonPositiveRate(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "0")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadKiosk(t *testing.T) {
	t.Setenv("LEDGER_URL", "http://ledger.local:8080")
	t.Setenv("LEDGER_TIMEOUT", "3s")
	t.Setenv("LOG_CONSOLE", "false")

	cfg, err := LoadKiosk()
	require.NoError(t, err)
	assert.Equal(t, "http://ledger.local:8080", cfg.LedgerURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "Miamisburg Rotary Club", cfg.Organization)
	assert.False(t, cfg.Log.Console)
}
