package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("TAIZHANG_RULES")
	os.Unsetenv("TAIZHANG_DIR")
	os.Unsetenv("TAIZHANG_WORKERS")
	os.Unsetenv("TAIZHANG_LOGLEVEL")
	os.Unsetenv("TAIZHANG_MAXFILESIZE")
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"taizhang-extract"})
	resetFlags()
	clearEnvVars()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.RulesPath != "" {
		t.Errorf("LoadFromFlags() RulesPath = %v, want empty", cfg.RulesPath)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("LoadFromFlags() Workers = %v, want %v", cfg.Workers, DefaultWorkers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.DocumentDir == "" {
		t.Error("LoadFromFlags() DocumentDir should not be empty")
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name            string
		argsTemplate    []string
		wantWorkers     int
		wantLogLevel    string
		wantMaxFileSize int64
	}{
		{
			name:            "custom directory",
			argsTemplate:    []string{"taizhang-extract", "--dir=%s"},
			wantWorkers:     DefaultWorkers,
			wantLogLevel:    "info",
			wantMaxFileSize: 100 * 1024 * 1024,
		},
		{
			name:            "custom worker count",
			argsTemplate:    []string{"taizhang-extract", "--workers=8", "--dir=%s"},
			wantWorkers:     8,
			wantLogLevel:    "info",
			wantMaxFileSize: 100 * 1024 * 1024,
		},
		{
			name:            "debug logging",
			argsTemplate:    []string{"taizhang-extract", "--loglevel=debug", "--dir=%s"},
			wantWorkers:     DefaultWorkers,
			wantLogLevel:    "debug",
			wantMaxFileSize: 100 * 1024 * 1024,
		},
		{
			name:            "custom max file size",
			argsTemplate:    []string{"taizhang-extract", "--maxfilesize=50000000", "--dir=%s"},
			wantWorkers:     DefaultWorkers,
			wantLogLevel:    "info",
			wantMaxFileSize: 50000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalArgs := os.Args
			defer func() {
				os.Args = originalArgs
				resetFlags()
				clearEnvVars()
			}()

			tempDir := t.TempDir()

			args := make([]string, len(tt.argsTemplate))
			for i, arg := range tt.argsTemplate {
				if arg == "--dir=%s" {
					args[i] = "--dir=" + tempDir
				} else {
					args[i] = arg
				}
			}

			setArgs(args)
			resetFlags()
			clearEnvVars()

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Workers != tt.wantWorkers {
				t.Errorf("LoadFromFlags() Workers = %v, want %v", cfg.Workers, tt.wantWorkers)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
			if cfg.MaxFileSize != tt.wantMaxFileSize {
				t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, tt.wantMaxFileSize)
			}
			if cfg.DocumentDir == "" {
				t.Error("LoadFromFlags() DocumentDir should not be empty")
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()

	os.Setenv("TAIZHANG_DIR", tempDir)
	os.Setenv("TAIZHANG_WORKERS", "3")
	os.Setenv("TAIZHANG_LOGLEVEL", "warn")
	os.Setenv("TAIZHANG_MAXFILESIZE", "200000000")

	setArgs([]string{"taizhang-extract"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.DocumentDir != tempDir {
		t.Errorf("LoadFromFlags() DocumentDir = %v, want %v", cfg.DocumentDir, tempDir)
	}
	if cfg.Workers != 3 {
		t.Errorf("LoadFromFlags() Workers = %v, want %v", cfg.Workers, 3)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200000000)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()

	os.Setenv("TAIZHANG_WORKERS", "3")
	os.Setenv("TAIZHANG_LOGLEVEL", "warn")

	setArgs([]string{"taizhang-extract", "--workers=6", "--loglevel=error", "--dir=" + tempDir})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Flags should override environment variables
	if cfg.Workers != 6 {
		t.Errorf("LoadFromFlags() Workers = %v, want %v (should override env)", cfg.Workers, 6)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v (should override env)", cfg.LogLevel, "error")
	}
}

func TestLoadFromFlags_InvalidLogLevel(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()
	setArgs([]string{"taizhang-extract", "--loglevel=verbose", "--dir=" + tempDir})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid log level")
	}
}

func TestLoadFromFlags_InvalidWorkers(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	tempDir := t.TempDir()
	setArgs([]string{"taizhang-extract", "--workers=0", "--dir=" + tempDir})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for non-positive worker count")
	}
}
