// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values for the isle CLI.
const (
	DefaultOutputFormat = "table"
	DefaultTUIRefresh   = time.Second
	DefaultTimeout      = 3 * time.Second
)

// OutputFormat selects how the CLI prints structured results.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
	OutputIDs   OutputFormat = "ids"
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputTable, OutputJSON, OutputYAML, OutputIDs:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q, must be one of: table, json, yaml, ids", s)
	}
}

// Config represents the isle CLI configuration.
type Config struct {
	Socket string       `toml:"socket"` // Empty = $XDG_RUNTIME_DIR/isle/isle.sock
	Output OutputConfig `toml:"output"`
	TUI    TUIConfig    `toml:"tui"`
}

// OutputConfig holds output defaults.
type OutputConfig struct {
	Format  string   `toml:"format"`  // table, json, yaml
	Timeout Duration `toml:"timeout"` // IPC request timeout
}

// TUIConfig holds settings for `isle top`.
type TUIConfig struct {
	Refresh   Duration `toml:"refresh"`
	ShowHelp  bool     `toml:"show_help"`
	Clipboard string   `toml:"clipboard"` // Copy command; empty = auto-detect
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:  DefaultOutputFormat,
			Timeout: Duration(DefaultTimeout),
		},
		TUI: TUIConfig{
			Refresh:  Duration(DefaultTUIRefresh),
			ShowHelp: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "isle", "config.toml")
}

// LoadConfig reads the CLI config at path, or ConfigPath when path is
// empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if _, err := ParseOutputFormat(cfg.Output.Format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Output.Timeout < 0 || cfg.TUI.Refresh < 0 {
		return nil, fmt.Errorf("%s: durations must not be negative", path)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
