package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// BackendConfig holds connection settings for the SmartScribe backend.
type BackendConfig struct {
	// URL is the root URL of the backend, e.g. https://api.smartscribe.app.
	URL string `mapstructure:"url" yaml:"url"`
}

// RealtimeConfig holds reconnection policy settings for the push channel.
type RealtimeConfig struct {
	// ReconnectAttempts bounds how many times a dropped connection is retried.
	ReconnectAttempts int `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`

	// ReconnectDelayMS is the backoff floor between attempts, in milliseconds.
	ReconnectDelayMS int `mapstructure:"reconnect_delay_ms" yaml:"reconnect_delay_ms"`

	// ReconnectDelayMaxMS caps the backoff between attempts, in milliseconds.
	ReconnectDelayMaxMS int `mapstructure:"reconnect_delay_max_ms" yaml:"reconnect_delay_max_ms"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// RefreshIntervalSec is the fallback full-refresh interval used while
	// logged in, in case push delivery silently stalls.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`

	// Sound controls the audible alert on new notifications.
	Sound bool `mapstructure:"sound" yaml:"sound"`
}

// RefreshInterval returns the fallback refresh cadence as a duration.
// Non-positive values mean "use the built-in default".
func (c DisplayConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend  BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Realtime RealtimeConfig `mapstructure:"realtime" yaml:"realtime"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/smartscribe/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "smartscribe", "config.yaml")
}

// DefaultCachePath returns the default path for the local notification
// cache database.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "smartscribe.db")
	}
	return filepath.Join(home, ".config", "smartscribe", "smartscribe.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			URL: "http://localhost:5000",
		},
		Realtime: RealtimeConfig{
			ReconnectAttempts:   5,
			ReconnectDelayMS:    1000,
			ReconnectDelayMaxMS: 5000,
		},
		Display: DisplayConfig{
			Theme:              "default",
			RefreshIntervalSec: 300,
			Sound:              true,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. The
// SMARTSCRIBE_BACKEND_URL environment variable overrides the backend URL
// regardless of what the file says.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("realtime.reconnect_attempts", 5)
	v.SetDefault("realtime.reconnect_delay_ms", 1000)
	v.SetDefault("realtime.reconnect_delay_max_ms", 5000)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.refresh_interval_sec", 300)
	v.SetDefault("display.sound", true)

	cfg := defaultAppConfig()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides on top of the
// file-based configuration.
func applyEnvOverrides(cfg *AppConfig) {
	if url := os.Getenv("SMARTSCRIBE_BACKEND_URL"); url != "" {
		cfg.Backend.URL = url
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("realtime", cfg.Realtime)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
