package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/triageflow/pkg/backend"
)

// Known backend names.
const (
	BackendStatic    = "static"
	BackendRules     = "rules"
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
	BackendGoogle    = "google"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	Backend        string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     uint64

	// StaticDefaults is the per-field table used by the static backend.
	StaticDefaults map[string]any

	ConfigDir string
}

// FileConfig represents the structure of ~/.triageflow/config.yaml
type FileConfig struct {
	APIKeys        APIKeysConfig  `yaml:"api_keys"`
	Backend        string         `yaml:"backend"`
	Model          string         `yaml:"model"`
	RequestTimeout string         `yaml:"request_timeout"`
	MaxRetries     *uint64        `yaml:"max_retries"`
	StaticDefaults map[string]any `yaml:"static_defaults"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// Load reads configuration from the config file and environment variables.
// Environment variables take precedence over file configuration for API keys.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return load(configDir, loadFileConfig(filepath.Join(configDir, "config.yaml")))
}

// LoadFile reads configuration from a specific file, still letting
// environment variables override API keys.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(filepath.Dir(path), loadFileConfig(path))
}

func load(configDir string, fileConfig *FileConfig) (*Config, error) {
	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		Backend:         fileConfig.Backend,
		Model:           fileConfig.Model,
		StaticDefaults:  fileConfig.StaticDefaults,
		ConfigDir:       configDir,
	}

	if cfg.Backend == "" {
		cfg.Backend = BackendStatic
	}
	cfg.RequestTimeout = 30 * time.Second
	if fileConfig.RequestTimeout != "" {
		timeout, err := time.ParseDuration(fileConfig.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request_timeout %q: %w", fileConfig.RequestTimeout, err)
		}
		cfg.RequestTimeout = timeout
	}
	if fileConfig.MaxRetries != nil {
		cfg.MaxRetries = *fileConfig.MaxRetries
	} else {
		cfg.MaxRetries = 2
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendStatic, BackendRules, BackendAnthropic, BackendOpenAI, BackendGoogle:
		return nil
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
}

// HasBackend returns true if the named backend can be constructed from this
// configuration.
func (c *Config) HasBackend(name string) bool {
	switch name {
	case BackendStatic, BackendRules:
		return true
	case BackendAnthropic:
		return c.AnthropicAPIKey != ""
	case BackendOpenAI:
		return c.OpenAIAPIKey != ""
	case BackendGoogle:
		return c.GoogleAPIKey != ""
	default:
		return false
	}
}

// Defaults returns the static default table with file overrides applied.
func (c *Config) Defaults() map[string]any {
	table := backend.DefaultTable()
	for name, value := range c.StaticDefaults {
		table[name] = value
	}
	return table
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".triageflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
