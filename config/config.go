// Package config carries the CLI's runtime configuration.
//
// Precedence is defaults, then environment, then the optional YAML config
// file. Derived values such as the default voices directory are resolved
// once here at the outer edge and injected into the core packages.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the CLI.
type Config struct {
	Host           string `env:"OPENTTS_HOST"             envDefault:"localhost" yaml:"host"`
	VoicesDir      string `env:"OPENTTS_VOICES_DIR"       envDefault:""          yaml:"voices_dir"`
	PollIntervalMs int    `env:"OPENTTS_POLL_INTERVAL_MS" envDefault:"1000"      yaml:"poll_interval_ms"`
	PollAttempts   int    `env:"OPENTTS_POLL_ATTEMPTS"    envDefault:"60"        yaml:"poll_attempts"`
}

// Load resolves the configuration. A missing file at path is not an
// error; values present in the file override the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// optional
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if cfg.VoicesDir == "" {
		cfg.VoicesDir = defaultVoicesDir()
	}

	return cfg, nil
}

// BackendConfig flattens the strategy tunables into the config map the
// backend factories consume.
func (c *Config) BackendConfig() map[string]string {
	return map[string]string{
		"poll_interval_ms": strconv.Itoa(c.PollIntervalMs),
		"poll_attempts":    strconv.Itoa(c.PollAttempts),
	}
}

// DefaultPath returns the default config file location, or "" when no
// home directory is available.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".opentts", "config.yaml")
}

func defaultVoicesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".opentts", "voices")
	}
	return filepath.Join(home, ".opentts", "voices")
}
