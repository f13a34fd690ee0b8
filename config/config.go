// Package config loads runtime settings from a JSON file and the
// environment. Environment variables win over the file; a .env file in the
// working directory is loaded first so local development needs no exports.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgeloop/forgeloop/agent"
	"github.com/forgeloop/forgeloop/llm"
)

// Config is the full runtime configuration.
type Config struct {
	// Provider selects the model vendor: anthropic, openai, or ollama.
	Provider string `json:"provider"`
	// Model overrides the provider's default model.
	Model string `json:"model"`
	// APIKey authenticates with the provider. Usually set via environment.
	APIKey string `json:"api_key,omitempty"`
	// BaseURL overrides the provider endpoint, mainly for ollama.
	BaseURL string `json:"base_url,omitempty"`
	// MaxOutputTokens overrides the model's catalog output cap. Zero keeps
	// the catalog value.
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`
	// Temperature sets the sampling temperature. Zero means vendor default.
	Temperature float64 `json:"temperature,omitempty"`
	// ProjectDir is the sandbox project root.
	ProjectDir string `json:"project_dir"`
	// StartCommand launches the app's dev process.
	StartCommand string `json:"start_command"`
	// InstallCommand installs project dependencies.
	InstallCommand string `json:"install_command"`
	// MaxIterations caps provider round-trips per turn.
	MaxIterations int `json:"max_iterations"`
	// MaxConsecutiveErrors aborts a turn after this many provider failures
	// in a row.
	MaxConsecutiveErrors int `json:"max_consecutive_errors"`
	// ProviderTimeoutSeconds bounds one provider call. Zero disables.
	ProviderTimeoutSeconds int `json:"provider_timeout_seconds"`
	// ToolTimeoutSeconds bounds one tool batch. Zero disables.
	ToolTimeoutSeconds int `json:"tool_timeout_seconds"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Provider:               "anthropic",
		ProjectDir:             ".",
		StartCommand:           "npm run dev",
		InstallCommand:         "npm install",
		MaxIterations:          20,
		MaxConsecutiveErrors:   3,
		ProviderTimeoutSeconds: 120,
		ToolTimeoutSeconds:     60,
	}
}

// Path returns the default configuration file location:
// ~/.forgeloop/config.json.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forgeloop/config.json"
	}
	return filepath.Join(home, ".forgeloop", "config.json")
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (or Path() when empty), then environment variables. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best effort; absence is normal

	cfg := DefaultConfig()

	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if uerr := json.Unmarshal(data, &cfg); uerr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, uerr)
		}
	case os.IsNotExist(err):
		// fall through to env
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// Save writes cfg to path (or Path() when empty) as indented JSON. The API
// key is never written; it stays in the environment.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	clean := *cfg
	clean.APIKey = ""
	data, err := json.MarshalIndent(&clean, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Provider, "FORGELOOP_PROVIDER")
	setString(&cfg.Model, "FORGELOOP_MODEL")
	setString(&cfg.BaseURL, "FORGELOOP_BASE_URL")
	setString(&cfg.ProjectDir, "FORGELOOP_PROJECT_DIR")
	setString(&cfg.StartCommand, "FORGELOOP_START_COMMAND")
	setString(&cfg.InstallCommand, "FORGELOOP_INSTALL_COMMAND")
	setInt(&cfg.MaxOutputTokens, "FORGELOOP_MAX_OUTPUT_TOKENS")
	setFloat(&cfg.Temperature, "FORGELOOP_TEMPERATURE")
	setInt(&cfg.MaxIterations, "FORGELOOP_MAX_ITERATIONS")
	setInt(&cfg.MaxConsecutiveErrors, "FORGELOOP_MAX_CONSECUTIVE_ERRORS")
	setInt(&cfg.ProviderTimeoutSeconds, "FORGELOOP_PROVIDER_TIMEOUT")
	setInt(&cfg.ToolTimeoutSeconds, "FORGELOOP_TOOL_TIMEOUT")

	if v := os.Getenv("FORGELOOP_API_KEY"); v != "" {
		cfg.APIKey = v
		return
	}
	switch cfg.Provider {
	case "anthropic":
		setString(&cfg.APIKey, "ANTHROPIC_API_KEY")
	case "openai":
		setString(&cfg.APIKey, "OPENAI_API_KEY")
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func setFloat(dst *float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

// LLMOptions converts the configuration into provider construction options.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:        c.Provider,
		Model:           c.Model,
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		MaxOutputTokens: c.MaxOutputTokens,
		Temperature:     c.Temperature,
	}
}

// AgentConfig converts the configuration into conversation loop budgets.
func (c *Config) AgentConfig() agent.Config {
	a := agent.DefaultConfig()
	if c.MaxIterations > 0 {
		a.MaxIterations = c.MaxIterations
	}
	if c.MaxConsecutiveErrors > 0 {
		a.MaxConsecutiveErrors = c.MaxConsecutiveErrors
	}
	a.ProviderTimeout = time.Duration(c.ProviderTimeoutSeconds) * time.Second
	a.ToolTimeout = time.Duration(c.ToolTimeoutSeconds) * time.Second
	return a
}

// IsConfigured reports whether enough is set to reach a model provider.
// Ollama needs no key; everything else does.
func (c *Config) IsConfigured() bool {
	if c.Provider == "" {
		return false
	}
	if c.Provider == "ollama" {
		return true
	}
	return c.APIKey != ""
}
