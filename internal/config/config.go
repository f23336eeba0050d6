package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"dirdiff-go/internal/hash"
)

const DefaultPath = "dirdiff.yaml"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Exclude    []string `yaml:"exclude"`
	Workers    int      `yaml:"workers"`
	Algorithm  string   `yaml:"algorithm"`
	OutputFile string   `yaml:"output_file"`
	LogLevel   string   `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Exclude: []string{
			".git/",
			".svn/",
			"node_modules/",
			"vendor/",
			"__pycache__/",
			"*.o",
			"*.so",
			"*.exe",
			"bin/",
			"dist/",
			"*.tmp",
			"*.swp",
			"*.log",
			".DS_Store",
			"Thumbs.db",
		},
		Algorithm: string(hash.Default),
		LogLevel:  "info",
	}
}

// LoadConfig reads a YAML config. A missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Initialize Exclude slice if nil (for empty configs)
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = string(hash.Default)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := hash.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// WorkerCount is Workers, or twice the CPU count when unset.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU() * 2
}

// HashAlgorithm is the validated Algorithm.
func (c *Config) HashAlgorithm() hash.Algorithm {
	a, err := hash.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return hash.Default
	}
	return a
}
