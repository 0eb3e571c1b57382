package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds all gatekeeper configuration.
type Config struct {
	Gmail     GmailConfig     `toml:"gmail"`
	Accounts  AccountsConfig  `toml:"accounts"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Run       RunConfig       `toml:"run"`
	Directory DirectoryConfig `toml:"directory"`
	Log       LogConfig       `toml:"log"`
}

// GmailConfig holds Gmail OAuth credentials.
type GmailConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// AccountsConfig holds account selection settings.
type AccountsConfig struct {
	Default string `toml:"default"`
}

// ScheduleConfig holds the cron spec used by newly installed triggers.
type ScheduleConfig struct {
	Spec string `toml:"spec"`
}

// RunConfig bounds a single triage run.
type RunConfig struct {
	Timeout string `toml:"timeout"`
}

// DirectoryConfig holds contact directory quota settings.
type DirectoryConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

func defaults() Config {
	return Config{
		Schedule:  ScheduleConfig{Spec: "@hourly"},
		Run:       RunConfig{Timeout: "5m"},
		Directory: DirectoryConfig{RequestsPerMinute: 60},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads config from path. If path is empty, returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.RunTimeout(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Directory.RequestsPerMinute < 0 {
		return fmt.Errorf("directory.requests_per_minute must not be negative, got %d", c.Directory.RequestsPerMinute)
	}
	return nil
}

// RunTimeout returns the parsed run.timeout. Zero means no deadline.
func (c *Config) RunTimeout() (time.Duration, error) {
	if c.Run.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Run.Timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to parse run.timeout %q: %w", c.Run.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("run.timeout must not be negative, got %s", d)
	}
	return d, nil
}

// LogLevel returns the parsed log.level.
func (c *Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("failed to parse log.level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// ConfigDir returns the gatekeeper config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gatekeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gatekeeper")
}

// DataDir returns the gatekeeper data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "gatekeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "gatekeeper")
}
