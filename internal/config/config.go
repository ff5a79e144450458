// Package config loads the optional larch configuration file. Everything in
// it has a flag equivalent; the file only changes defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"larch/internal/errors"
)

// Config represents the application configuration structure.
type Config struct {
	Display struct {
		Color    string `yaml:"color"`     // Color choice: auto, always, or never
		ShowSize bool   `yaml:"show_size"` // Append file sizes to rendered lines
	} `yaml:"display"`
	Pager struct {
		Command string `yaml:"command"` // Pager command; empty falls back to $LARCH_PAGER, $PAGER, less
	} `yaml:"pager"`
	Packages struct {
		DpkgDB   string `yaml:"dpkg_db"`   // Override for the dpkg database directory
		PacmanDB string `yaml:"pacman_db"` // Override for the pacman local database directory
	} `yaml:"packages"`
	Serve struct {
		Addr string `yaml:"addr"` // Listen address for the serve command
	} `yaml:"serve"`
}

// New returns the default configuration.
func New() *Config {
	cfg := &Config{}
	cfg.Display.Color = "auto"
	cfg.Serve.Addr = "127.0.0.1:7319"
	return cfg
}

// LoadConfig loads configuration from the default location
// (~/.config/larch/config.yaml).
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(filepath.Join(home, ".config", "larch", "config.yaml"))
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewSourceError("error parsing config file", path, errors.InvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Display.Color {
	case "", "auto", "always", "never":
	default:
		return errors.NewKind(
			fmt.Sprintf("invalid color choice %q (want auto, always, or never)", c.Display.Color),
			errors.InvalidConfig)
	}
	if c.Display.Color == "" {
		c.Display.Color = "auto"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = "127.0.0.1:7319"
	}
	return nil
}
