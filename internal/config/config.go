package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all maestro configuration.
type Config struct {
	// PricingPath is the pricing table. Empty means the embedded table.
	PricingPath string `yaml:"pricing_path"`

	// PreferencesPath is the JSON Lines choice history.
	PreferencesPath string `yaml:"preferences_path" validate:"required"`

	// OutputDir receives simulated result files.
	OutputDir string `yaml:"output_dir" validate:"required"`

	LLM       LLMConfig       `yaml:"llm"`
	Execution ExecutionConfig `yaml:"execution"`
	Learning  LearningConfig  `yaml:"learning"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the request classifier backend. Without an API key
// only the regex classifier runs.
type LLMConfig struct {
	Provider   string `yaml:"provider" validate:"omitempty,oneof=deepseek openai"`
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url" validate:"omitempty,url"`
	Model      string `yaml:"model"`
	Timeout    string `yaml:"timeout"`
	RetryCount int    `yaml:"retry_count" validate:"gte=0,lte=5"`
}

// ExecutionConfig paces the simulated executor.
type ExecutionConfig struct {
	MinDelay   string  `yaml:"min_delay"`
	MaxDelay   string  `yaml:"max_delay"`
	SlowChance float64 `yaml:"slow_chance" validate:"gte=0,lte=1"`
	SlowFactor float64 `yaml:"slow_factor" validate:"gte=0"`
}

// LearningConfig configures preference learning.
type LearningConfig struct {
	// MinChoices is how many choices a category needs before a preference
	// can override the default recommendation.
	MinChoices int `yaml:"min_choices" validate:"gte=1"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PreferencesPath: filepath.Join(DirName, "preferences.jsonl"),
		OutputDir:       "output",

		LLM: LLMConfig{
			Provider:   "deepseek",
			BaseURL:    "https://api.deepseek.com",
			Model:      "deepseek-chat",
			Timeout:    "15s",
			RetryCount: 2,
		},

		Execution: ExecutionConfig{
			MinDelay:   "20ms",
			MaxDelay:   "120ms",
			SlowChance: 0.1,
			SlowFactor: 3,
		},

		Learning: LearningConfig{
			MinChoices: 2,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file. The API key is never written.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.LLM.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "deepseek"
		}
	}
	if path := os.Getenv("MAESTRO_PRICING"); path != "" {
		c.PricingPath = path
	}
	if v := os.Getenv("MAESTRO_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

var validate = validator.New()

// Validate checks field constraints and duration strings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, v := range map[string]string{
		"llm.timeout":         c.LLM.Timeout,
		"execution.min_delay": c.Execution.MinDelay,
		"execution.max_delay": c.Execution.MaxDelay,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if c.GetMinDelay() > c.GetMaxDelay() {
		return fmt.Errorf("invalid config: execution.min_delay %s exceeds max_delay %s", c.Execution.MinDelay, c.Execution.MaxDelay)
	}
	return nil
}

// GetLLMTimeout returns the classifier timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 15*time.Second)
}

// GetMinDelay returns the minimum per-unit execution delay.
func (c *Config) GetMinDelay() time.Duration {
	return parseDuration(c.Execution.MinDelay, 0)
}

// GetMaxDelay returns the maximum per-unit execution delay.
func (c *Config) GetMaxDelay() time.Duration {
	return parseDuration(c.Execution.MaxDelay, 0)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
