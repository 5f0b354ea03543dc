package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadClean(t)

	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.FormsDir)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 1280, cfg.ViewportWidth)
	assert.Equal(t, 900, cfg.ViewportHeight)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 15, cfg.MaxTicks)
	assert.Equal(t, 10*time.Second, cfg.MarkerWait)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("FORMPILOT_MAX_TICKS", "30")
	t.Setenv("FORMPILOT_HEADLESS", "true")

	cfg := loadClean(t)
	assert.Equal(t, 30, cfg.MaxTicks)
	assert.True(t, cfg.Headless)
}

func TestValidate(t *testing.T) {
	cfg := loadClean(t)

	cfg.DBPath = ""
	assert.ErrorContains(t, cfg.Validate(), "db-path")

	cfg = loadClean(t)
	cfg.MaxTicks = 0
	assert.ErrorContains(t, cfg.Validate(), "max-ticks")

	cfg = loadClean(t)
	cfg.TickInterval = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "tick-interval")

	cfg = loadClean(t)
	cfg.ViewportWidth = 0
	assert.ErrorContains(t, cfg.Validate(), "viewport")
}
