package config

import "maestro/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string          `yaml:"format" validate:"omitempty,oneof=json text"`
	DebugMode  bool            `yaml:"debug_mode"` // false = no logging
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Everything is off when debug_mode is false; otherwise categories default
// to on unless explicitly disabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Options converts the config into logging options.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}
