package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/searchktools/reactor-http/core"
)

// Config holds all application configuration.
type Config struct {
	Port           int           `yaml:"port"`
	Workers        int           `yaml:"workers"`
	HeaderTimeout  time.Duration `yaml:"header_timeout"`
	ContentTimeout time.Duration `yaml:"content_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	Log            LogConfig     `yaml:"log"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration the engine uses when nothing is set.
func Default() *Config {
	return &Config{
		Port:           core.DefaultPort,
		Workers:        core.DefaultWorkers,
		HeaderTimeout:  core.DefaultHeaderTimeout,
		ContentTimeout: core.DefaultContentTimeout,
		MaxHeaderBytes: core.DefaultMaxHeaderBytes,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. Durations are written as "5s".
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.HeaderTimeout < 0 {
		errs = append(errs, errors.New("header_timeout must not be negative"))
	}
	if c.ContentTimeout < 0 {
		errs = append(errs, errors.New("content_timeout must not be negative"))
	}
	if c.MaxHeaderBytes < 64 {
		errs = append(errs, fmt.Errorf("max_header_bytes must be at least 64, got %d", c.MaxHeaderBytes))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
