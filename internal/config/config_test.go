package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	cfg := DefaultConfig()
	if cfg.APIURL != "http://127.0.0.1:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.DBPath != filepath.Join("/tmp/xdg", "flashdeck", "flashdeck.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.HTTPTimeout != 0 || cfg.RateLimit != 0 {
		t.Errorf("timeout/rate = %v/%v, want 0/0", cfg.HTTPTimeout, cfg.RateLimit)
	}
	if !cfg.ShuffleOnRestart {
		t.Error("ShuffleOnRestart should default to true")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FLASHDECK_API_URL", "http://cards.local:9000/")
	t.Setenv("FLASHDECK_DB", "/var/lib/fd/history.db")
	t.Setenv("FLASHDECK_LOG_LEVEL", "DEBUG")
	t.Setenv("FLASHDECK_HTTP_TIMEOUT", "15s")
	t.Setenv("FLASHDECK_RATE_LIMIT", "2.5")
	t.Setenv("FLASHDECK_SHUFFLE", "false")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIURL != "http://cards.local:9000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.LogFile != filepath.Join("/var/lib/fd", "flashdeck.log") {
		t.Errorf("LogFile = %q, want next to the DB", cfg.LogFile)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v", cfg.RateLimit)
	}
	if cfg.ShuffleOnRestart {
		t.Error("ShuffleOnRestart should be false")
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"FLASHDECK_HTTP_TIMEOUT", "soon"},
		{"FLASHDECK_RATE_LIMIT", "fast"},
		{"FLASHDECK_SHUFFLE", "maybe"},
		{"FLASHDECK_LOG_LEVEL", "loud"},
		{"FLASHDECK_RATE_LIMIT", "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FLASHDECK_API_URL=http://from-dotenv:1234\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// godotenv does not override variables that are already set, so make
	// sure the key is unset and clean up after the load sets it.
	t.Setenv("FLASHDECK_API_URL", "")
	os.Unsetenv("FLASHDECK_API_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://from-dotenv:1234" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestLoad_MissingDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(); err != nil {
		t.Fatalf("Load without .env: %v", err)
	}
}
