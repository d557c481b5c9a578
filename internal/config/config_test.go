package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RulesPath != "" {
		t.Errorf("Expected default rules path to be empty, got '%s'", cfg.RulesPath)
	}

	if cfg.Workers != DefaultWorkers {
		t.Errorf("Expected default worker count to be %d, got %d", DefaultWorkers, cfg.Workers)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	// Document directory defaults to the current working directory
	currentDir, _ := os.Getwd()
	if cfg.DocumentDir != currentDir {
		t.Errorf("Expected default document directory to be '%s', got '%s'", currentDir, cfg.DocumentDir)
	}
}

func TestConfigValidate(t *testing.T) {
	tempDir := t.TempDir()

	rulesFile, err := os.CreateTemp(tempDir, "rules-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp rules file: %v", err)
	}
	rulesFile.Close()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config - defaults",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "valid config - explicit rules file",
			config: &Config{
				RulesPath:   rulesFile.Name(),
				DocumentDir: tempDir,
				Workers:     2,
				LogLevel:    "debug",
				MaxFileSize: 1024,
			},
			wantErr: false,
		},
		{
			name: "missing rules file",
			config: &Config{
				RulesPath:   tempDir + "/no-such-rules.yaml",
				DocumentDir: tempDir,
				Workers:     2,
				LogLevel:    "info",
				MaxFileSize: 1024,
			},
			wantErr: true,
		},
		{
			name: "rules path is a directory",
			config: &Config{
				RulesPath:   tempDir,
				DocumentDir: tempDir,
				Workers:     2,
				LogLevel:    "info",
				MaxFileSize: 1024,
			},
			wantErr: true,
		},
		{
			name: "empty document directory",
			config: &Config{
				DocumentDir: "",
				Workers:     2,
				LogLevel:    "info",
				MaxFileSize: 1024,
			},
			wantErr: true,
		},
		{
			name: "missing document directory",
			config: &Config{
				DocumentDir: tempDir + "/no-such-dir",
				Workers:     2,
				LogLevel:    "info",
				MaxFileSize: 1024,
			},
			wantErr: true,
		},
		{
			name: "non-positive worker count",
			config: &Config{
				DocumentDir: tempDir,
				Workers:     0,
				LogLevel:    "info",
				MaxFileSize: 1024,
			},
			wantErr: true,
		},
		{
			name: "non-positive max file size",
			config: &Config{
				DocumentDir: tempDir,
				Workers:     2,
				LogLevel:    "info",
				MaxFileSize: 0,
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			config: &Config{
				DocumentDir: tempDir,
				Workers:     2,
				LogLevel:    "verbose",
				MaxFileSize: 1024,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsDebug() {
		t.Error("Expected IsDebug() to be false for default config")
	}

	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("Expected IsDebug() to be true when log level is debug")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	if s == "" {
		t.Error("Expected String() to return a non-empty representation")
	}
}
