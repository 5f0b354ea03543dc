// Package config loads engine configuration from defaults, an optional
// config file, environment variables, and command-line flags, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all engine configuration.
type Config struct {
	// DBPath is the SQLite database file for captured records.
	DBPath string `mapstructure:"db-path"`

	// FormsDir is the directory holding form definition tables.
	FormsDir string `mapstructure:"forms-dir"`

	// Headless controls whether the browser surface runs headless.
	Headless bool `mapstructure:"headless"`

	// ViewportWidth and ViewportHeight size the browser viewport.
	ViewportWidth  int `mapstructure:"viewport-width"`
	ViewportHeight int `mapstructure:"viewport-height"`

	// TickInterval is the orchestrator retry tick.
	TickInterval time.Duration `mapstructure:"tick-interval"`

	// MaxTicks caps retry ticks per step.
	MaxTicks int `mapstructure:"max-ticks"`

	// MarkerWait bounds the wait for a next-step marker after a
	// continuation trigger.
	MarkerWait time.Duration `mapstructure:"marker-wait"`

	// EventBuffer sizes the session event channel.
	EventBuffer int `mapstructure:"event-buffer"`
}

// Default values shared between viper and the command-line flags. Bound
// flag defaults take precedence over viper defaults, so both sides must
// agree on them.
const (
	DefaultTickInterval = 500 * time.Millisecond
	DefaultMaxTicks     = 15
	DefaultMarkerWait   = 10 * time.Second
)

// DataDir returns the engine's data directory (~/.formpilot).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formpilot"
	}
	return filepath.Join(home, ".formpilot")
}

// DefaultDBPath returns the default SQLite database path.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "records.db")
}

// Load reads configuration from defaults, config file, and environment.
func Load() (*Config, error) {
	dataDir := DataDir()

	viper.SetDefault("db-path", DefaultDBPath())
	viper.SetDefault("forms-dir", filepath.Join(dataDir, "forms"))
	viper.SetDefault("headless", false)
	viper.SetDefault("viewport-width", 1280)
	viper.SetDefault("viewport-height", 900)
	viper.SetDefault("tick-interval", DefaultTickInterval)
	viper.SetDefault("max-ticks", DefaultMaxTicks)
	viper.SetDefault("marker-wait", DefaultMarkerWait)
	viper.SetDefault("event-buffer", 64)

	// Environment variables (FORMPILOT_DB_PATH, etc.)
	viper.SetEnvPrefix("FORMPILOT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(dataDir)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db-path cannot be empty")
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick-interval must be positive")
	}
	if c.MaxTicks <= 0 {
		return fmt.Errorf("max-ticks must be positive")
	}
	if c.MarkerWait <= 0 {
		return fmt.Errorf("marker-wait must be positive")
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("event-buffer must be positive")
	}
	return nil
}
