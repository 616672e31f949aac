// Package config loads service configuration from config.yaml with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for text2sql-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Knowledge document directory
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Synthesis endpoint configuration
	LLM LLMConfig `yaml:"llm"`

	// Field validation configuration
	Validator ValidatorConfig `yaml:"validator"`
}

// KnowledgeConfig locates the knowledge documents.
type KnowledgeConfig struct {
	Dir string `yaml:"dir" env:"KNOWLEDGE_DIR" env-default:"./knowledge"`
}

// LLMConfig holds the synthesis endpoint settings.
type LLMConfig struct {
	Provider       string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint       string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.deepseek.com/v1"`
	Model          string  `yaml:"model" env:"LLM_MODEL" env-default:"deepseek-chat"`
	APIKey         string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
	MaxRetries     int     `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"2"`
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.1"`
}

// ValidatorConfig overrides the field validation token lists. Empty lists
// mean the built-in defaults.
type ValidatorConfig struct {
	PseudoFields []string `yaml:"pseudo_fields" env:"VALIDATOR_PSEUDO_FIELDS" env-separator:","`
	SkipTokens   []string `yaml:"skip_tokens" env:"VALIDATOR_SKIP_TOKENS" env-separator:","`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on
// the returned Config. When config.yaml is absent, configuration comes
// from environment variables alone.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from an explicit YAML path. Used by tests.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
