package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.MaxIterations != 20 || cfg.MaxConsecutiveErrors != 3 {
		t.Errorf("budgets = %d/%d", cfg.MaxIterations, cfg.MaxConsecutiveErrors)
	}
	if cfg.StartCommand != "npm run dev" {
		t.Errorf("StartCommand = %q", cfg.StartCommand)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"provider": "openai", "model": "gpt-5.2-mini", "max_iterations": 5}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORGELOOP_MODEL", "gpt-5.2")
	t.Setenv("FORGELOOP_MAX_ITERATIONS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want file value", cfg.Provider)
	}
	if cfg.Model != "gpt-5.2" {
		t.Errorf("Model = %q, env must win over file", cfg.Model)
	}
	if cfg.MaxIterations != 7 {
		t.Errorf("MaxIterations = %d, env must win over file", cfg.MaxIterations)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0o600)

	if _, err := Load(path); err == nil {
		t.Error("malformed config accepted")
	}
}

func TestProviderKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("FORGELOOP_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "sk-ant-test" {
		t.Errorf("APIKey = %q, want provider-specific env key", cfg.APIKey)
	}

	t.Setenv("FORGELOOP_API_KEY", "sk-generic")
	cfg, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "sk-generic" {
		t.Errorf("APIKey = %q, generic key must win", cfg.APIKey)
	}
}

func TestSaveDropsAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.APIKey = "sk-secret"
	cfg.Model = "claude-sonnet-4-5"

	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty config written")
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("API key persisted to disk")
	}

	t.Setenv("FORGELOOP_PROVIDER", "")
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Model != "claude-sonnet-4-5" {
		t.Errorf("round trip lost model: %q", loaded.Model)
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		want     bool
	}{
		{"anthropic", "sk-1", true},
		{"anthropic", "", false},
		{"openai", "", false},
		{"ollama", "", true},
		{"", "sk-1", false},
	}
	for _, tt := range tests {
		cfg := Config{Provider: tt.provider, APIKey: tt.key}
		if got := cfg.IsConfigured(); got != tt.want {
			t.Errorf("IsConfigured(%q, key=%q) = %v, want %v", tt.provider, tt.key, got, tt.want)
		}
	}
}

func TestLLMOptionsCarryModelKnobs(t *testing.T) {
	t.Setenv("FORGELOOP_MAX_OUTPUT_TOKENS", "2048")
	t.Setenv("FORGELOOP_TEMPERATURE", "0.3")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}

	opts := cfg.LLMOptions()
	if opts.MaxOutputTokens != 2048 {
		t.Errorf("MaxOutputTokens = %d, want 2048", opts.MaxOutputTokens)
	}
	if opts.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", opts.Temperature)
	}
}

func TestAgentConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 10
	cfg.ProviderTimeoutSeconds = 30
	cfg.ToolTimeoutSeconds = 0

	a := cfg.AgentConfig()
	if a.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d", a.MaxIterations)
	}
	if a.ProviderTimeout != 30*time.Second {
		t.Errorf("ProviderTimeout = %v", a.ProviderTimeout)
	}
	if a.ToolTimeout != 0 {
		t.Errorf("ToolTimeout = %v, zero must disable", a.ToolTimeout)
	}
}
