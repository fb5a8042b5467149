// Package config loads flashdeck settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application settings.
type Config struct {
	// APIURL is the root of the flashcard API.
	APIURL string

	// DBPath is the SQLite history database.
	DBPath string

	// LogFile receives structured logs. The terminal belongs to the TUI.
	LogFile string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// HTTPTimeout bounds each API request. Zero means no timeout.
	HTTPTimeout time.Duration

	// RateLimit caps API requests per second. Zero means unlimited.
	RateLimit float64

	// ShuffleOnRestart reorders a deck when it is studied again.
	ShuffleOnRestart bool
}

// DefaultConfig returns a Config with defaults for every field.
func DefaultConfig() Config {
	dir := dataDir()
	return Config{
		APIURL:           "http://127.0.0.1:8000",
		DBPath:           filepath.Join(dir, "flashdeck.db"),
		LogFile:          filepath.Join(dir, "flashdeck.log"),
		LogLevel:         "info",
		ShuffleOnRestart: true,
	}
}

// Load reads .env from the working directory, when present, and then
// overlays FLASHDECK_* environment variables on the defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("FLASHDECK_API_URL"); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("FLASHDECK_DB"); v != "" {
		cfg.DBPath = v
		cfg.LogFile = filepath.Join(filepath.Dir(v), "flashdeck.log")
	}
	if v := os.Getenv("FLASHDECK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("FLASHDECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("FLASHDECK_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("FLASHDECK_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if v := os.Getenv("FLASHDECK_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("FLASHDECK_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = r
	}
	if v := os.Getenv("FLASHDECK_SHUFFLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("FLASHDECK_SHUFFLE: %w", err)
		}
		cfg.ShuffleOnRestart = b
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP timeout must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}
	return nil
}

// dataDir returns $XDG_DATA_HOME/flashdeck, falling back to
// ~/.local/share/flashdeck.
func dataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "flashdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "flashdeck"
	}
	return filepath.Join(home, ".local", "share", "flashdeck")
}
