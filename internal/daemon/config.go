// Package daemon manages the DayQuest server lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // game.timezone resolves without system zoneinfo

	"github.com/BurntSushi/toml"

	"github.com/dayquest/dayquest/internal/app/gamification"
)

// Config holds all server configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Database  DatabaseConfig  `toml:"database"`
	Auth      AuthConfig      `toml:"auth"`
	Game      GameConfig      `toml:"game"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	RequestTimeout string   `toml:"request_timeout"`
}

// DatabaseConfig controls where the SQLite database lives.
type DatabaseConfig struct {
	Path string `toml:"path"` // directory holding state.db
}

// AuthConfig controls token issuance and password hashing.
type AuthConfig struct {
	Issuer     string `toml:"issuer"`
	AccessTTL  string `toml:"access_ttl"`
	RefreshTTL string `toml:"refresh_ttl"`
	BcryptCost int    `toml:"bcrypt_cost"`
}

// GameConfig controls the gamification rules that are configurable.
type GameConfig struct {
	DefaultDayStart string `toml:"default_day_start"`
	Timezone        string `toml:"timezone"` // IANA name
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json or text
}

// TelemetryConfig controls metrics export.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			CORSOrigins:    []string{"*"},
			RequestTimeout: "30s",
		},
		Database: DatabaseConfig{
			Path: dayquestHome(),
		},
		Auth: AuthConfig{
			Issuer:     "dayquest",
			AccessTTL:  "15m",
			RefreshTTL: "168h",
			BcryptCost: 12,
		},
		Game: GameConfig{
			DefaultDayStart: "09:00",
			Timezone:        "UTC",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.dayquest/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.dayquest/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Validate checks the values LoadConfig cannot type-check.
func (c Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := gamification.ParseDayStart(c.Game.DefaultDayStart); err != nil {
		return fmt.Errorf("game.default_day_start: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for name, v := range map[string]string{
		"api.request_timeout": c.API.RequestTimeout,
		"auth.access_ttl":     c.Auth.AccessTTL,
		"auth.refresh_ttl":    c.Auth.RefreshTTL,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format %q: want json or text", c.Logging.Format)
	}
	return nil
}

// Location resolves game.timezone. Empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Game.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return nil, fmt.Errorf("game.timezone: %w", err)
	}
	return loc, nil
}

// DataDir returns the database directory, defaulting to the home dir.
func (c Config) DataDir() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return dayquestHome()
}

// ConfigPath returns the location of config.toml.
func ConfigPath() string {
	return filepath.Join(dayquestHome(), "config.toml")
}

// dayquestHome returns the DayQuest data directory.
func dayquestHome() string {
	if env := os.Getenv("DAYQUEST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dayquest")
}

// Home is exported for use by other packages.
func Home() string {
	return dayquestHome()
}
