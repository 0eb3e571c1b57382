package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Schedule.Spec != "@hourly" {
		t.Errorf("default schedule spec = %q, want %q", cfg.Schedule.Spec, "@hourly")
	}
	if cfg.Directory.RequestsPerMinute != 60 {
		t.Errorf("default requests_per_minute = %d, want 60", cfg.Directory.RequestsPerMinute)
	}
	timeout, err := cfg.RunTimeout()
	if err != nil {
		t.Fatalf("RunTimeout() error: %v", err)
	}
	if timeout != 5*time.Minute {
		t.Errorf("default timeout = %v, want 5m", timeout)
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		t.Fatalf("LogLevel() error: %v", err)
	}
	if lvl != log.InfoLevel {
		t.Errorf("default log level = %v, want info", lvl)
	}
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
[accounts]
default = "me@example.com"

[schedule]
spec = "*/30 * * * *"

[run]
timeout = "90s"

[directory]
requests_per_minute = 10

[log]
level = "debug"
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Accounts.Default != "me@example.com" {
		t.Errorf("default account = %q", cfg.Accounts.Default)
	}
	if cfg.Schedule.Spec != "*/30 * * * *" {
		t.Errorf("schedule spec = %q", cfg.Schedule.Spec)
	}
	if cfg.Directory.RequestsPerMinute != 10 {
		t.Errorf("requests_per_minute = %d, want 10", cfg.Directory.RequestsPerMinute)
	}
	if timeout, _ := cfg.RunTimeout(); timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", timeout)
	}
	if lvl, _ := cfg.LogLevel(); lvl != log.DebugLevel {
		t.Errorf("log level = %v, want debug", lvl)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
[gmail]
client_id = "id"
client_secret = "secret"
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Gmail.ClientID != "id" || cfg.Gmail.ClientSecret != "secret" {
		t.Errorf("gmail = %+v", cfg.Gmail)
	}
	if cfg.Schedule.Spec != "@hourly" {
		t.Errorf("schedule spec = %q, want default", cfg.Schedule.Spec)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Run.Timeout != "5m" {
		t.Errorf("timeout = %q, want default %q", cfg.Run.Timeout, "5m")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "not valid [[ toml"))
	if err == nil {
		t.Fatal("Load() should return error for invalid TOML")
	}
	if !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("error = %q, want it to contain %q", err.Error(), "failed to parse config")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad timeout", "[run]\ntimeout = \"soon\"\n", "run.timeout"},
		{"negative timeout", "[run]\ntimeout = \"-1m\"\n", "run.timeout"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"negative quota", "[directory]\nrequests_per_minute = -5\n", "requests_per_minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() should reject invalid value")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestDirs(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		value  string
		dir    func() string
		suffix string
	}{
		{"config from XDG", "XDG_CONFIG_HOME", "/custom/config", ConfigDir, "/custom/config/gatekeeper"},
		{"config fallback", "XDG_CONFIG_HOME", "", ConfigDir, filepath.Join(".config", "gatekeeper")},
		{"data from XDG", "XDG_DATA_HOME", "/custom/data", DataDir, "/custom/data/gatekeeper"},
		{"data fallback", "XDG_DATA_HOME", "", DataDir, filepath.Join(".local", "share", "gatekeeper")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if got := tt.dir(); !strings.HasSuffix(got, tt.suffix) {
				t.Errorf("dir = %q, want suffix %q", got, tt.suffix)
			}
		})
	}
}

// writeConfig writes content to a config.toml in a fresh temp dir.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
