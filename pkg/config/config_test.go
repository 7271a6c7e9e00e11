package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FOLLOWUP_REPLAY_INTERVAL", "not-a-duration")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, time.Minute, cfg.FollowUpReplayInterval)
	assert.Empty(t, cfg.DevSeedFile)
	assert.True(t, cfg.OtelEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DEV_SEED_FILE", "seed.json")
	t.Setenv("FOLLOWUP_MAX_ATTEMPTS", "3")
	t.Setenv("FOLLOWUP_REPLAY_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "seed.json", cfg.DevSeedFile)
	assert.Equal(t, 3, cfg.FollowUpMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.FollowUpReplayInterval)
}
