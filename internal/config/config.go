// Package config loads the ctrace command-line configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ctrace CLI configuration.
type Config struct {
	Limits   LimitsConfig   `yaml:"limits"`
	Lowering LoweringConfig `yaml:"lowering"`
	Verify   VerifyConfig   `yaml:"verify"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LimitsConfig bounds interpreter and oracle execution.
type LimitsConfig struct {
	MaxLoopIterations int `yaml:"max_loop_iterations"`
	MaxSteps          int `yaml:"max_steps"`
}

// LoweringConfig selects how the interpreter compiles do-while loops.
type LoweringConfig struct {
	SimplifiedDoWhile bool `yaml:"simplified_do_while"`
}

// VerifyConfig configures fixture verification.
type VerifyConfig struct {
	Workers int `yaml:"workers"` // 0 means one per CPU
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures diagnostics on stderr.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxLoopIterations: 10000,
			MaxSteps:          100000,
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

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

	cfg.applyEnvOverrides()

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

func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("CTRACE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ValidLevels lists the accepted logging levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Limits.MaxLoopIterations < 0 {
		return fmt.Errorf("limits.max_loop_iterations must not be negative: %d", c.Limits.MaxLoopIterations)
	}
	if c.Limits.MaxSteps < 0 {
		return fmt.Errorf("limits.max_steps must not be negative: %d", c.Limits.MaxSteps)
	}
	if c.Verify.Workers < 0 {
		return fmt.Errorf("verify.workers must not be negative: %d", c.Verify.Workers)
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("invalid watch.debounce: %w", err)
		}
	}

	for _, l := range ValidLevels {
		if c.Logging.Level == l {
			return nil
		}
	}
	return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLevels)
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}
