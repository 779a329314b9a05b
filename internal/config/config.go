// Package config loads the YAML configuration file and applies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kwan3217/globetrotter/internal/common"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendPebble   = "pebble"
	BackendMemory   = "memory"
)

type StoreConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`  // postgres connection string
	Path    string `yaml:"path"` // pebble database directory
}

type CaptureConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	Dir  string `yaml:"dir"`
}

type Config struct {
	Store       StoreConfig      `yaml:"store"`
	DumpDir     string           `yaml:"dumpDir"`
	Concurrency int              `yaml:"concurrency"`
	Capture     CaptureConfig    `yaml:"capture"`
	Logs        common.LogConfig `yaml:"logs"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store:       StoreConfig{Backend: BackendPebble, Path: "globetrotter.db"},
		Concurrency: 4,
		Capture:     CaptureConfig{Baud: 115200, Dir: "captures"},
	}
}

// Load reads path and fills in defaults. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.Store.Path = resolve(base, cfg.Store.Path)
	cfg.DumpDir = resolve(base, cfg.DumpDir)
	cfg.Capture.Dir = resolve(base, cfg.Capture.Dir)
	cfg.Logs.Directory = resolve(base, cfg.Logs.Directory)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("postgres backend needs a dsn")
		}
	case BackendPebble:
		if c.Store.Path == "" {
			return fmt.Errorf("pebble backend needs a path")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
