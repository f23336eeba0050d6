package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"dirdiff-go/internal/hash"
)

func TestLoadConfig_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "dirdiff.yaml")

	configContent := `exclude:
  - "*.tmp"
  - "*.log"
  - ".git/"
  - "node_modules/"
workers: 6
algorithm: blake3
output_file: "output/custom-snapshot.json"
log_level: debug
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	expectedExclude := []string{"*.tmp", "*.log", ".git/", "node_modules/"}
	if len(cfg.Exclude) != len(expectedExclude) {
		t.Fatalf("Expected %d exclude patterns, got %d", len(expectedExclude), len(cfg.Exclude))
	}

	for i, expected := range expectedExclude {
		if cfg.Exclude[i] != expected {
			t.Errorf("Exclude[%d]: expected %q, got %q", i, expected, cfg.Exclude[i])
		}
	}

	if cfg.OutputFile != "output/custom-snapshot.json" {
		t.Errorf("Expected output_file %q, got %q", "output/custom-snapshot.json", cfg.OutputFile)
	}
	if cfg.WorkerCount() != 6 {
		t.Errorf("Expected 6 workers, got %d", cfg.WorkerCount())
	}
	if cfg.HashAlgorithm() != hash.BLAKE3 {
		t.Errorf("Expected blake3, got %s", cfg.HashAlgorithm())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level debug, got %q", cfg.LogLevel)
	}
}

func TestLoadConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/dirdiff.yaml")
	if err != nil {
		t.Fatalf("LoadConfig should return default config for nonexistent file, got error: %v", err)
	}

	// Should return default config with common exclusions
	if len(cfg.Exclude) == 0 {
		t.Error("Default config should have some exclude patterns")
	}

	// Default output file is decided by the CLI
	if cfg.OutputFile != "" {
		t.Errorf("Expected default output_file to be empty, got %q", cfg.OutputFile)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `exclude: [
  "*.tmp"
  invalid: syntax
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("LoadConfig should return error for invalid YAML")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"negative workers":  "workers: -1\n",
		"unknown algorithm": "algorithm: md5\n",
		"unknown log level": "log_level: chatty\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "dirdiff.yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfig_EmptyConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")

	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed for empty config: %v", err)
	}

	// Empty config should result in empty exclude patterns (not nil)
	if cfg.Exclude == nil {
		t.Error("Exclude should not be nil")
	}
	if cfg.HashAlgorithm() != hash.Default {
		t.Errorf("Expected default algorithm, got %s", cfg.HashAlgorithm())
	}
	if cfg.WorkerCount() != runtime.NumCPU()*2 {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU()*2, cfg.WorkerCount())
	}
	if cfg.OutputFile != "" {
		t.Errorf("Expected output_file to be empty, got %q", cfg.OutputFile)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	// Check that common patterns are included
	expectedPatterns := []string{".git/", "node_modules/", "__pycache__/"}
	for _, pattern := range expectedPatterns {
		found := false
		for _, exclude := range cfg.Exclude {
			if exclude == pattern {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Default config should include pattern %q", pattern)
		}
	}
}
