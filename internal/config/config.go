// Package config loads and saves the tripspend TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvAPIToken = "TRIPSPEND_API_TOKEN"
	EnvDataDir  = "TRIPSPEND_DATA_DIR"
	EnvBaseURL  = "TRIPSPEND_BASE_URL"
)

// Config holds all tripspend configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Backend    BackendConfig    `toml:"backend"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir     string `toml:"data_dir,omitempty"`
	DefaultTrip string `toml:"default_trip,omitempty"`
	DefaultView string `toml:"default_view"`
}

// BackendConfig holds the remote API settings used by sync and the daemon.
type BackendConfig struct {
	BaseURL      string `toml:"base_url,omitempty"`
	APIToken     string `toml:"api_token,omitempty"`
	TimeoutSec   int    `toml:"timeout_sec"`
	RetryMax     int    `toml:"retry_max"`
	BudgetTTLSec int    `toml:"budget_ttl_sec"`
}

// Timeout returns the per-request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

// BudgetTTL returns how long fetched budget statuses are reused.
func (b BackendConfig) BudgetTTL() time.Duration {
	return time.Duration(b.BudgetTTLSec) * time.Second
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultView: "category",
		},
		Backend: BackendConfig{
			TimeoutSec:   15,
			RetryMax:     3,
			BudgetTTLSec: 60,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSec:  15,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c Config) Validate() error {
	switch strings.ToLower(c.General.DefaultView) {
	case "", "category", "subcategory":
	default:
		return fmt.Errorf("general.default_view: unknown view %q", c.General.DefaultView)
	}
	if c.Backend.TimeoutSec < 0 || c.Backend.RetryMax < 0 {
		return fmt.Errorf("backend: timeout_sec and retry_max must not be negative")
	}
	if c.Daemon.IntervalSec < 0 || c.Daemon.EventsBuffer < 0 {
		return fmt.Errorf("daemon: interval_sec and events_buffer must not be negative")
	}
	return nil
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripspend")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tripspend")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG-compliant data directory for snapshot files.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripspend")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tripspend")
}

var dotenvOnce sync.Once

// LoadDotEnv loads .env from the working directory and the config directory.
// Variables already set in the environment are never overridden, and missing
// files are ignored. Only the first call has an effect.
func LoadDotEnv() {
	dotenvOnce.Do(func() {
		for _, p := range []string{".env", filepath.Join(ConfigDir(), ".env")} {
			if _, err := os.Stat(p); err == nil {
				_ = godotenv.Load(p)
			}
		}
	})
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	LoadDotEnv()
	return LoadFile(ConfigPath())
}

// LoadFile reads a config file at path on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetAPIToken returns the backend token from env var or config, in that order.
func GetAPIToken(cfg Config) string {
	if tok := os.Getenv(EnvAPIToken); tok != "" {
		return tok
	}
	return cfg.Backend.APIToken
}

// GetBaseURL returns the backend base URL from env var or config, in that order.
func GetBaseURL(cfg Config) string {
	if u := os.Getenv(EnvBaseURL); u != "" {
		return u
	}
	return cfg.Backend.BaseURL
}

// ResolveDataDir picks the data directory: the flag value, then the
// environment, then the config file, then the XDG default. A leading "~/" is
// expanded.
func ResolveDataDir(flagValue string, cfg Config) string {
	dir := flagValue
	if dir == "" {
		dir = os.Getenv(EnvDataDir)
	}
	if dir == "" {
		dir = cfg.General.DataDir
	}
	if dir == "" {
		return DefaultDataDir()
	}
	if strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, dir[2:])
	}
	return dir
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
