package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendStatic {
		t.Errorf("backend = %q, want %q", cfg.Backend, BackendStatic)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("request timeout = %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("max retries = %d", cfg.MaxRetries)
	}
	if cfg.Defaults()["route_to"] != "Tier 2 Support" {
		t.Errorf("defaults table not populated: %v", cfg.Defaults())
	}
}

func TestLoadFileValues(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearKeyEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`backend: rules
model: claude-sonnet-4-20250514
request_timeout: 10s
max_retries: 0
static_defaults:
  route_to: Security Team
api_keys:
  anthropic: file-ant
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendRules {
		t.Errorf("backend = %q", cfg.Backend)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout = %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("max retries = %d", cfg.MaxRetries)
	}
	if cfg.AnthropicAPIKey != "file-ant" {
		t.Errorf("anthropic key = %q", cfg.AnthropicAPIKey)
	}
	if cfg.Defaults()["route_to"] != "Security Team" {
		t.Errorf("defaults override not applied: %v", cfg.Defaults())
	}
	if cfg.Defaults()["escalate"] != true {
		t.Errorf("built-in defaults lost: %v", cfg.Defaults())
	}
}

func TestEnvKeysOverrideFile(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "env-openai")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_keys:\n  openai: file-openai\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAIAPIKey != "env-openai" {
		t.Errorf("openai key = %q, want env value", cfg.OpenAIAPIKey)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearKeyEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: oracle\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestHasBackend(t *testing.T) {
	cfg := &Config{AnthropicAPIKey: "key"}
	if !cfg.HasBackend(BackendStatic) || !cfg.HasBackend(BackendRules) {
		t.Errorf("built-in backends must always be available")
	}
	if !cfg.HasBackend(BackendAnthropic) {
		t.Errorf("anthropic should be available with a key")
	}
	if cfg.HasBackend(BackendOpenAI) {
		t.Errorf("openai should need a key")
	}
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}
