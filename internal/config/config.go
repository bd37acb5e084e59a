// Package config loads the smoke-test harness configuration. The file maps
// environment names to deployment targets and stage names to per-stage
// settings; the pipeline only ever reads it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment describes a single deployment target.
type Environment struct {
	// Bucket is the GCS landing bucket for uploaded invoices.
	Bucket string `yaml:"bucket"`

	// Project is the Google Cloud project the environment lives in.
	Project string `yaml:"project"`
}

// StageConfig holds per-stage settings.
type StageConfig struct {
	// Folder is the destination prefix for artefacts written by the stage.
	Folder string `yaml:"folder,omitempty"`
}

// Config is the root of the harness configuration file.
type Config struct {
	Environments map[string]Environment `yaml:"environments"`
	Stages       map[string]StageConfig `yaml:"stages,omitempty"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}

	if len(cfg.Environments) == 0 {
		return nil, fmt.Errorf("config: %q defines no environments", path)
	}

	return cfg, nil
}

// Environment looks up the configuration for the named environment.
func (c *Config) Environment(name string) (Environment, bool) {
	env, ok := c.Environments[name]
	return env, ok
}

// Stage returns the configuration for the named stage. Stages without an
// entry in the file get the zero value, so every setting must have a usable
// default at its point of use.
func (c *Config) Stage(name string) StageConfig {
	return c.Stages[name]
}
