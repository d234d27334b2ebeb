package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("default base URL = %q", cfg.BaseURL)
	}
	if cfg.Polling.ActiveInterval() != 10*time.Second || cfg.Polling.IdleInterval() != 30*time.Second {
		t.Errorf("default intervals = %v / %v", cfg.Polling.ActiveInterval(), cfg.Polling.IdleInterval())
	}
	if cfg.Polling.IdleThreshold() != time.Minute || cfg.Polling.RequestTimeout() != 30*time.Second {
		t.Errorf("default idle threshold / timeout = %v / %v", cfg.Polling.IdleThreshold(), cfg.Polling.RequestTimeout())
	}
	if cfg.History.Capacity != 1440 || cfg.History.PersistLimit != 100 || cfg.History.PersistEvery != 10 {
		t.Errorf("default history = %#v", cfg.History)
	}
	if cfg.History.Window() != 24*time.Hour {
		t.Errorf("default window = %v", cfg.History.Window())
	}
	if !cfg.Notifications {
		t.Error("notifications should default to on")
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Polling.ActiveIntervalSeconds != 10 {
		t.Error("should return defaults for missing file")
	}
}

func TestLoadFrom_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{
  "base_url": "https://open.bigmodel.cn/api/anthropic",
  "notifications": false,
  "polling": {"active_interval_seconds": 5, "idle_interval_seconds": 0},
  "ui": {"warn_percent": 50}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.BaseURL != "https://open.bigmodel.cn/api/anthropic" {
		t.Errorf("base URL = %q", cfg.BaseURL)
	}
	if cfg.Notifications {
		t.Error("notifications = true, want false")
	}
	if cfg.Polling.ActiveIntervalSeconds != 5 {
		t.Errorf("active = %d, want 5", cfg.Polling.ActiveIntervalSeconds)
	}
	if cfg.Polling.IdleIntervalSeconds != 30 {
		t.Errorf("idle = %d, want default 30", cfg.Polling.IdleIntervalSeconds)
	}
	if cfg.UI.WarnPercent != 50 || cfg.UI.CritPercent != 90 {
		t.Errorf("ui = %#v", cfg.UI)
	}
	if cfg.AuthTokenEnv != DefaultAuthTokenEnv {
		t.Errorf("auth token env = %q", cfg.AuthTokenEnv)
	}
}

func TestLoadFrom_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
base_url: http://127.0.0.1:9000
http_addr: 127.0.0.1:9464
history:
  capacity: 60
log:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9464" || cfg.History.Capacity != 60 {
		t.Errorf("cfg = %#v", cfg)
	}
	if cfg.History.PersistLimit != 100 || cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("defaults not applied: %#v / %#v", cfg.History, cfg.Log)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Error("parse failure should still return defaults")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	for _, name := range []string{"settings.json", "settings.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.HTTPAddr = ":9464"
			cfg.Polling.IdleIntervalSeconds = 45

			if err := SaveTo(path, cfg); err != nil {
				t.Fatalf("SaveTo() error: %v", err)
			}
			got, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom() error: %v", err)
			}
			if got.HTTPAddr != ":9464" || got.Polling.IdleIntervalSeconds != 45 {
				t.Fatalf("round trip lost values: %#v", got)
			}
		})
	}
}

func TestResolveToken(t *testing.T) {
	t.Setenv("GLM_TEST_TOKEN", "from-env")

	cfg := DefaultConfig()
	cfg.AuthTokenEnv = "GLM_TEST_TOKEN"

	if got, err := cfg.ResolveToken(Credentials{}); err != nil || got != "from-env" {
		t.Fatalf("env token = %q, %v", got, err)
	}
	if got, _ := cfg.ResolveToken(Credentials{AuthToken: "stored"}); got != "stored" {
		t.Fatalf("stored token = %q, want stored", got)
	}
	cfg.AuthToken = " inline "
	if got, _ := cfg.ResolveToken(Credentials{AuthToken: "stored"}); got != "inline" {
		t.Fatalf("inline token = %q, want inline", got)
	}

	empty := DefaultConfig()
	empty.AuthTokenEnv = "GLM_TEST_TOKEN_UNSET"
	if _, err := empty.ResolveToken(Credentials{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("ResolveToken() error = %v, want ErrNoToken", err)
	}
}

func TestEnsureInstallationID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	id, err := EnsureInstallationID(path)
	if err != nil {
		t.Fatalf("EnsureInstallationID() error: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("id = %q, want a UUID", id)
	}
	again, err := EnsureInstallationID(path)
	if err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Fatalf("second call = %q, want stable %q", again, id)
	}
}

func TestUpdateTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := UpdateTo(path, func(c *Config) { c.BaseURL = "https://open.bigmodel.cn/api/anthropic" }); err != nil {
		t.Fatalf("UpdateTo() error: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://open.bigmodel.cn/api/anthropic" {
		t.Fatalf("base URL = %q", cfg.BaseURL)
	}
}
