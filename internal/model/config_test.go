package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading missing config: %v", err)
	}

	if cfg.Backend.URL != "http://localhost:5000" {
		t.Fatalf("unexpected default backend url: %q", cfg.Backend.URL)
	}
	if cfg.Realtime.ReconnectAttempts != 5 {
		t.Fatalf("unexpected default attempts: %d", cfg.Realtime.ReconnectAttempts)
	}
	if cfg.Realtime.ReconnectDelayMS != 1000 || cfg.Realtime.ReconnectDelayMaxMS != 5000 {
		t.Fatalf("unexpected default delays: %+v", cfg.Realtime)
	}
	if cfg.Display.RefreshIntervalSec != 300 {
		t.Fatalf("unexpected default refresh interval: %d", cfg.Display.RefreshIntervalSec)
	}
	if !cfg.Display.Sound {
		t.Fatal("expected sound on by default")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
backend:
  url: https://api.example.com
realtime:
  reconnect_attempts: 8
display:
  refresh_interval_sec: 60
  sound: false
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Backend.URL != "https://api.example.com" {
		t.Fatalf("unexpected backend url: %q", cfg.Backend.URL)
	}
	if cfg.Realtime.ReconnectAttempts != 8 {
		t.Fatalf("unexpected attempts: %d", cfg.Realtime.ReconnectAttempts)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Realtime.ReconnectDelayMS != 1000 {
		t.Fatalf("unexpected delay: %d", cfg.Realtime.ReconnectDelayMS)
	}
	if cfg.Display.Sound {
		t.Fatal("expected sound disabled by file")
	}
	if got := cfg.Display.RefreshInterval(); got != time.Minute {
		t.Fatalf("unexpected refresh interval: %v", got)
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	t.Setenv("SMARTSCRIBE_BACKEND_URL", "http://staging:5000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Backend.URL != "http://staging:5000" {
		t.Fatalf("expected env override, got %q", cfg.Backend.URL)
	}
}

func TestSaveConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Backend.URL = "https://api.example.com"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading config: %v", err)
	}
	if loaded.Backend.URL != "https://api.example.com" {
		t.Fatalf("round trip lost backend url: %q", loaded.Backend.URL)
	}
}

func TestNotificationTypeValid(t *testing.T) {
	for _, typ := range []NotificationType{TypeInfo, TypeSuccess, TypeWarning, TypeAlert} {
		if !typ.Valid() {
			t.Errorf("expected %q to be valid", typ)
		}
	}
	for _, typ := range []NotificationType{"", "bogus", "INFO"} {
		if typ.Valid() {
			t.Errorf("expected %q to be invalid", typ)
		}
	}
}
