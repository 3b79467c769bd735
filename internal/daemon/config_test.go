package daemon

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("DAYQUEST_HOME", "/tmp/dq-home")
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8080)
	}
	if cfg.Database.Path != "/tmp/dq-home" {
		t.Errorf("Database.Path = %q, want DAYQUEST_HOME", cfg.Database.Path)
	}
	if cfg.Game.DefaultDayStart != "09:00" || cfg.Game.Timezone != "UTC" {
		t.Errorf("Game = %+v", cfg.Game)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("DAYQUEST_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("missing file should yield defaults, port = %d", cfg.API.Port)
	}
}

func TestSaveThenLoadConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DAYQUEST_HOME", home)

	cfg := DefaultConfig()
	cfg.API.Port = 9090
	cfg.Game.Timezone = "Europe/Berlin"
	cfg.Logging.Format = "text"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.toml")); err != nil {
		t.Fatalf("config.toml not written: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.API.Port != 9090 || loaded.Game.Timezone != "Europe/Berlin" || loaded.Logging.Format != "text" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DAYQUEST_HOME", home)
	os.WriteFile(filepath.Join(home, "config.toml"), []byte("[game]\ndefault_day_start = \"06:30\"\n"), 0600)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Game.DefaultDayStart != "06:30" {
		t.Errorf("DefaultDayStart = %q", cfg.Game.DefaultDayStart)
	}
	if cfg.Auth.AccessTTL != "15m" {
		t.Errorf("AccessTTL = %q, want default", cfg.Auth.AccessTTL)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DAYQUEST_HOME", home)
	os.WriteFile(filepath.Join(home, "config.toml"), []byte("[game]\ntimezone = \"Mars/Olympus\"\n"), 0600)

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.API.Port = 0 }},
		{"port too high", func(c *Config) { c.API.Port = 70000 }},
		{"bad day start", func(c *Config) { c.Game.DefaultDayStart = "25:00" }},
		{"bad timezone", func(c *Config) { c.Game.Timezone = "Nowhere/Land" }},
		{"bad ttl", func(c *Config) { c.Auth.AccessTTL = "soon" }},
		{"negative timeout", func(c *Config) { c.API.RequestTimeout = "-5s" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Game.Timezone = ""
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("empty timezone = %v, %v; want UTC", loc, err)
	}

	cfg.Game.Timezone = "America/New_York"
	loc, err = cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("loc = %s", loc)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"168h", 168 * time.Hour},
		{"", time.Second},        // fallback
		{"garbage", time.Second}, // fallback
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, time.Second); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ─── Logger ─────────────────────────────────────────────────────────────────

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggingConfig{Level: "info", Format: "json"}, &buf)

	log.Debug("hidden")
	log.Info("task completed", "points", 70)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["service"] != "dayquest" || rec["msg"] != "task completed" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggingConfig{Level: "debug", Format: "text"}, &buf)

	log.Debug("streak checked")
	if !strings.Contains(buf.String(), "msg=\"streak checked\"") || !strings.Contains(buf.String(), "service=dayquest") {
		t.Errorf("text output = %q", buf.String())
	}
}

// ─── Wiring ─────────────────────────────────────────────────────────────────

func TestNewWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = dir

	d, err := NewWithConfig(cfg, "test", nil)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	if d.Accounts == nil || d.Tasks == nil || d.Competitions == nil || d.Server == nil || d.Health == nil {
		t.Fatalf("daemon not fully wired: %+v", d)
	}
	if _, err := os.Stat(filepath.Join(dir, "state.db")); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "keys", "signing.key")); err != nil {
		t.Errorf("signing key not created: %v", err)
	}
}

func TestNewWithConfig_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = t.TempDir()
	cfg.Game.Timezone = "Invalid/Zone"

	if _, err := NewWithConfig(cfg, "test", nil); err == nil {
		t.Error("expected error for invalid timezone")
	}
}
