// Package config loads the odkit configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all odkit configuration.
type Config struct {
	Merge       MergeConfig       `yaml:"merge"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet"`
	Render      RenderConfig      `yaml:"render"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// MergeConfig configures document merging.
type MergeConfig struct {
	PageBreaks  bool   `yaml:"page_breaks"`  // page break before each appended document
	CheckStyles bool   `yaml:"check_styles"` // report dangling style references
	Generator   string `yaml:"generator"`    // meta:generator of the result
	Concurrency int    `yaml:"concurrency"`  // inputs opened at once, 0 for all
}

// SpreadsheetConfig configures sheet edits.
type SpreadsheetConfig struct {
	KeepTableWidth bool `yaml:"keep_table_width"`
}

// RenderConfig configures sheet rendering.
type RenderConfig struct {
	Scale       float64 `yaml:"scale"`        // pixels per millimetre
	FontPadding int     `yaml:"font_padding"` // pixels between border and text
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Merge: MergeConfig{
			PageBreaks:  true,
			CheckStyles: true,
			Generator:   "odkit",
		},
		Render: RenderConfig{
			Scale:       4,
			FontPadding: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies ODKIT_* environment variables. Unset or empty
// variables leave the value alone.
func (c *Config) applyEnvOverrides() error {
	bools := []struct {
		env string
		dst *bool
	}{
		{"ODKIT_MERGE_PAGE_BREAKS", &c.Merge.PageBreaks},
		{"ODKIT_MERGE_CHECK_STYLES", &c.Merge.CheckStyles},
		{"ODKIT_KEEP_TABLE_WIDTH", &c.Spreadsheet.KeepTableWidth},
	}
	for _, b := range bools {
		if v := os.Getenv(b.env); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.env, err)
			}
			*b.dst = parsed
		}
	}

	if v := os.Getenv("ODKIT_RENDER_SCALE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ODKIT_RENDER_SCALE: %w", err)
		}
		c.Render.Scale = f
	}
	if v := os.Getenv("ODKIT_MERGE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ODKIT_MERGE_CONCURRENCY: %w", err)
		}
		c.Merge.Concurrency = n
	}
	if v := os.Getenv("ODKIT_GENERATOR"); v != "" {
		c.Merge.Generator = v
	}
	if v := os.Getenv("ODKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ODKIT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate checks the configuration for values no command can use.
func (c *Config) Validate() error {
	if _, err := c.Logging.ZapLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q: want json or console", c.Logging.Format)
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("invalid render.scale %v: must be positive", c.Render.Scale)
	}
	if c.Render.FontPadding < 0 {
		return fmt.Errorf("invalid render.font_padding %d: must not be negative", c.Render.FontPadding)
	}
	if c.Merge.Concurrency < 0 {
		return fmt.Errorf("invalid merge.concurrency %d: must not be negative", c.Merge.Concurrency)
	}
	return nil
}

// ZapLevel returns the configured level.
func (c *LoggingConfig) ZapLevel() (zapcore.Level, error) {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid logging.level %q: want debug, info, warn or error", c.Level)
	}
	return zapcore.ParseLevel(c.Level)
}
