package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultWorkers     = 4
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
)

// Config holds all configuration for the extraction CLI
type Config struct {
	// RulesPath points to the YAML rule document. Empty selects the
	// built-in default rule set.
	RulesPath string

	// DocumentDir is the base directory for relative PDF paths.
	DocumentDir string

	// Application configuration
	Version     string
	Workers     int
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		RulesPath:   "",
		DocumentDir: currentDir,
		Version:     "1.0.0",
		Workers:     DefaultWorkers,
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.DocumentDir != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDir); err == nil {
			cfg.DocumentDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("TAIZHANG")
	viper.AutomaticEnv()

	viper.SetDefault("rules", cfg.RulesPath)
	viper.SetDefault("dir", cfg.DocumentDir)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("rules", cfg.RulesPath, "Path to the YAML rule document (empty uses the built-in rules)")
	pflag.String("dir", cfg.DocumentDir, "Base directory for relative PDF paths")
	pflag.Int("workers", cfg.Workers, "Concurrent per-document extraction workers")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("rules", pflag.Lookup("rules"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ntaizhang-extract - structured field extraction from procurement PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s 采购公告.pdf 中标公告.pdf                # classify and extract\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --rules=rules.yaml --dir=/data a.pdf  # custom rule document\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --assign contract=合同.pdf             # explicit type assignment\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TAIZHANG_RULES       Rule document path\n")
		fmt.Fprintf(os.Stderr, "  TAIZHANG_DIR         Document base directory\n")
		fmt.Fprintf(os.Stderr, "  TAIZHANG_WORKERS     Extraction worker count\n")
		fmt.Fprintf(os.Stderr, "  TAIZHANG_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  TAIZHANG_MAXFILESIZE Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.RulesPath = viper.GetString("rules")
	cfg.DocumentDir = viper.GetString("dir")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate rule document path when one is given
	if c.RulesPath != "" {
		info, err := os.Stat(c.RulesPath)
		if err != nil {
			return fmt.Errorf("cannot access rule document %s: %w", c.RulesPath, err)
		}
		if info.IsDir() {
			return fmt.Errorf("rule document %s is a directory", c.RulesPath)
		}
	}

	// Validate document directory
	if c.DocumentDir == "" {
		return errors.New("document directory cannot be empty")
	}
	if info, err := os.Stat(c.DocumentDir); err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("document directory %s is not a directory", c.DocumentDir)
	}

	// Validate worker count
	if c.Workers <= 0 {
		return errors.New("worker count must be positive")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{RulesPath: %s, DocumentDir: %s, Workers: %d, LogLevel: %s, MaxFileSize: %d}",
		c.RulesPath, c.DocumentDir, c.Workers, c.LogLevel, c.MaxFileSize)
}
