package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine bounds the work spent deciding serializability
type Engine struct {
	// Maximum number of requests admitted along one explored execution
	MaxRequests int `yaml:"max_requests"`
	// Maximum number of firings along one explored execution
	MaxDepth int `yaml:"max_depth"`
	// Number of goroutines checking transitions of a proof. Zero means one per CPU.
	Workers int `yaml:"workers"`
	// Time limit of one analysis, as accepted by time.ParseDuration. Empty means no limit.
	Timeout string `yaml:"timeout"`
}

func Default() Engine {
	return Engine{
		MaxRequests: 3,
		MaxDepth:    64,
		Workers:     0,
		Timeout:     "60s",
	}
}

// Load reads an engine configuration from a YAML file.
// Fields missing from the file keep their default value, and a missing file gives the defaults.
func Load(path string) (Engine, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.TimeoutDuration(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (e Engine) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// TimeoutDuration parses Timeout. Zero means no limit.
func (e Engine) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", e.Timeout, err)
	}
	return d, nil
}
