package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"margin/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "[auth]\npassword = \"secret\"\n")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be found, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7733" {
		t.Errorf("unexpected api_bind default: %q", cfg.Paths.APIBind)
	}
	if cfg.Reader.PageSaveDebounceMS != 1000 {
		t.Errorf("unexpected debounce default: %d", cfg.Reader.PageSaveDebounceMS)
	}
	if cfg.Metadata.RequestTimeout != 10 {
		t.Errorf("unexpected metadata timeout default: %d", cfg.Metadata.RequestTimeout)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	path := writeConfig(t, `
[auth]
password = "secret"

[paths]
data_dir = "~/margin-data"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if cfg.Paths.DataDir != filepath.Join(home, "margin-data") {
		t.Errorf("tilde not expanded: %q", cfg.Paths.DataDir)
	}
}

func TestLoadRequiresPassword(t *testing.T) {
	t.Setenv("MARGIN_PASSWORD", "")
	path := writeConfig(t, "")

	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "auth.password") {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestLoadPasswordFromEnvironment(t *testing.T) {
	t.Setenv("MARGIN_PASSWORD", "env-secret")
	path := writeConfig(t, "")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Auth.Password != "env-secret" {
		t.Errorf("password not taken from environment: %q", cfg.Auth.Password)
	}
}

func TestLoadRejectsBadBind(t *testing.T) {
	path := writeConfig(t, `
[auth]
password = "secret"

[paths]
api_bind = "not-a-bind"
`)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid api_bind")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
[auth]
password = "secret"

[logging]
level = "verbose"
`)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log level")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "[auth]\npassword=\"x\"\n")
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestWriteSampleCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[reader]") {
		t.Fatalf("sample missing reader section: %s", data)
	}
}
