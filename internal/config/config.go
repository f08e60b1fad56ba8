// Package config handles configuration loading and management for deepscout.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for deepscout.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Tavily    TavilyConfig    `mapstructure:"tavily"`
	Models    ModelsConfig    `mapstructure:"models"`
	Research  ResearchConfig  `mapstructure:"research"`
	Output    OutputConfig    `mapstructure:"output"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes model calls through AWS Bedrock instead of the
	// direct API. When set, APIKey is not required.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// TavilyConfig holds Tavily search API settings. When no key is configured
// the research workers fall back to the keyless DuckDuckGo provider.
type TavilyConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ModelsConfig binds a model id to each pipeline stage. The stages are
// independently configurable; all three share the invoker contract.
type ModelsConfig struct {
	// Planner generates the free-text research plan.
	Planner string `mapstructure:"planner"`
	// Splitter turns the plan into structured subtasks.
	Splitter string `mapstructure:"splitter"`
	// Researcher drives the worker loops and the final synthesis.
	Researcher string `mapstructure:"researcher"`
}

// ResearchConfig holds pipeline tuning knobs.
type ResearchConfig struct {
	// MaxSteps is the per-worker step budget (model invocations).
	MaxSteps int `mapstructure:"max_steps"`
	// MaxTokens bounds the output length of worker and synthesis calls.
	MaxTokens int `mapstructure:"max_tokens"`
	// RetryAttempts is the bounded local retry count for transient
	// invocation failures, including the first attempt.
	RetryAttempts int `mapstructure:"retry_attempts"`
	// RetryBaseDelay is the initial backoff delay; it doubles per retry.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	// StepTimeout bounds a single model invocation.
	StepTimeout time.Duration `mapstructure:"step_timeout"`
}

// OutputConfig holds report persistence settings for the CLI layer.
type OutputConfig struct {
	// Dir is where finished reports are written.
	Dir string `mapstructure:"dir"`
	// HistoryDB is the run-history database path. Empty uses the XDG
	// data directory.
	HistoryDB string `mapstructure:"history_db"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, TAVILY_API_KEY)
// 2. Project config (.deepscout.yaml in current directory or parent)
// 3. User config (~/.config/deepscout/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("tavily.api_key", "TAVILY_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Tavily.APIKey = os.ExpandEnv(cfg.Tavily.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Tavily.APIKey = os.ExpandEnv(cfg.Tavily.APIKey)

	return cfg, nil
}

// ErrNoAPIKey is returned when no Anthropic credential source is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured (set ANTHROPIC_API_KEY or anthropic.api_key)")

// Validate checks that the configuration can support a pipeline run. Missing
// credentials must surface here, before any stage runs, not as a deferred
// invocation error.
func (c *Config) Validate() error {
	if !c.Anthropic.UseBedrock && c.Anthropic.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		return ErrNoAPIKey
	}
	if c.Research.MaxSteps < 1 {
		return fmt.Errorf("research.max_steps must be at least 1, got %d", c.Research.MaxSteps)
	}
	if c.Research.RetryAttempts < 1 {
		return fmt.Errorf("research.retry_attempts must be at least 1, got %d", c.Research.RetryAttempts)
	}
	if c.Models.Planner == "" || c.Models.Splitter == "" || c.Models.Researcher == "" {
		return errors.New("models.planner, models.splitter, and models.researcher must all be set")
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)

	v.SetDefault("tavily.api_key", "")

	v.SetDefault("models.planner", "claude-sonnet-4-20250514")
	v.SetDefault("models.splitter", "claude-3-5-haiku-20241022")
	v.SetDefault("models.researcher", "claude-sonnet-4-20250514")

	v.SetDefault("research.max_steps", 12)
	v.SetDefault("research.max_tokens", 8192)
	v.SetDefault("research.retry_attempts", 3)
	v.SetDefault("research.retry_base_delay", "500ms")
	v.SetDefault("research.step_timeout", "2m")

	v.SetDefault("output.dir", "reports")
	v.SetDefault("output.history_db", "")
}

// getUserConfigDir returns the XDG config directory for deepscout.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "deepscout")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "deepscout")
	}
	return filepath.Join(home, ".config", "deepscout")
}

// findProjectConfig searches for .deepscout.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".deepscout.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
