package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingRuntimeConfig indicates required generation settings are absent.
var ErrMissingRuntimeConfig = errors.New("missing runtime configuration")

type Config struct {
	AI struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"ai"`
	Generation struct {
		Retries        int `yaml:"retries"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"generation"`
	ContextFile string `yaml:"context_file"`
	OutputRoot  string `yaml:"output_root"`
	Repo        struct {
		Allowlist    []string `yaml:"allowlist"`
		Denylist     []string `yaml:"denylist"`
		MaxFileBytes int64    `yaml:"max_file_bytes"`
	} `yaml:"repo"`
}

// LoadConfig reads YAML configuration, layering defaults under the file and
// environment variables over it. A missing file yields pure defaults.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := defaultConfig()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("DOCDRAFT_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("DOCDRAFT_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("DOCDRAFT_MODEL"); model != "" {
		cfg.AI.Model = model
	}

	applyFallbacks(cfg)
	return cfg, nil
}

// ValidateForGeneration checks the settings the draft command needs.
func (c *Config) ValidateForGeneration() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("%w: ai.api_key (or DOCDRAFT_API_KEY)", ErrMissingRuntimeConfig)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("%w: ai.model (or DOCDRAFT_MODEL)", ErrMissingRuntimeConfig)
	}
	return nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.AI.Provider = "gemini"
	cfg.AI.Model = "gemini-2.5-flash"
	cfg.AI.Temperature = 0.2
	cfg.Generation.Retries = 3
	cfg.Generation.TimeoutSeconds = 90
	cfg.ContextFile = "additional-context.md"
	cfg.OutputRoot = "outputs"
	cfg.Repo.Allowlist = []string{"*.go", "*.md", "*.yaml", "*.yml", "*.json", "*.toml", "*.txt"}
	cfg.Repo.Denylist = []string{".git/**", "vendor/**", "node_modules/**", "testdata/**", "*.bin"}
	cfg.Repo.MaxFileBytes = 1_000_000
	return cfg
}

// applyFallbacks restores defaults an explicit config file zeroed out.
func applyFallbacks(cfg *Config) {
	base := defaultConfig()
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = base.AI.Provider
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = base.AI.Model
	}
	if cfg.Generation.Retries <= 0 {
		cfg.Generation.Retries = base.Generation.Retries
	}
	if cfg.Generation.TimeoutSeconds <= 0 {
		cfg.Generation.TimeoutSeconds = base.Generation.TimeoutSeconds
	}
	if cfg.ContextFile == "" {
		cfg.ContextFile = base.ContextFile
	}
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = base.OutputRoot
	}
	if len(cfg.Repo.Allowlist) == 0 {
		cfg.Repo.Allowlist = base.Repo.Allowlist
	}
	if len(cfg.Repo.Denylist) == 0 {
		cfg.Repo.Denylist = base.Repo.Denylist
	}
	if cfg.Repo.MaxFileBytes <= 0 {
		cfg.Repo.MaxFileBytes = base.Repo.MaxFileBytes
	}
}
