package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/huangfeng15/taizhang-sub000/internal/config"
	"github.com/huangfeng15/taizhang-sub000/internal/decoder"
	"github.com/huangfeng15/taizhang-sub000/internal/rules"
	"github.com/huangfeng15/taizhang-sub000/internal/session"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// buildLogger creates the process logger. Output goes to stderr so the
// extraction result JSON on stdout stays machine-readable.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// loadRules returns the configured rule document, or the built-in default
// set when no path was given.
func loadRules(cfg *config.Config) (*rules.Document, error) {
	if cfg.RulesPath == "" {
		return rules.Default(), nil
	}
	return rules.Load(cfg.RulesPath)
}

// parseAssignments turns repeated --assign type=path flags into the
// explicit type-to-path mapping for a pre-classified session.
func parseAssignments(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	assignments := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		typeName, path, ok := strings.Cut(pair, "=")
		if !ok || typeName == "" || path == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected type=path", pair)
		}
		if _, dup := assignments[typeName]; dup {
			return nil, fmt.Errorf("duplicate assignment for document type %q", typeName)
		}
		assignments[typeName] = path
	}
	return assignments, nil
}

// resolvePath anchors relative paths at the configured document directory.
func resolvePath(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.DocumentDir, path)
}

func run() error {
	assignPairs := pflag.StringArray("assign", nil,
		"Explicit document assignment as type=path, repeatable; skips classification")

	cfg, err := config.LoadFromFlags()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	if cfg.IsDebug() {
		log.Debugf("starting with configuration: %s", cfg.String())
	}

	ruleDoc, err := loadRules(cfg)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	assignments, err := parseAssignments(*assignPairs)
	if err != nil {
		return err
	}
	paths := pflag.Args()
	if len(assignments) == 0 && len(paths) == 0 {
		pflag.Usage()
		return fmt.Errorf("no input documents given")
	}

	provider := decoder.NewPDFProvider(cfg.MaxFileSize)
	sess, err := session.New(ruleDoc, provider, session.Options{
		Workers: cfg.Workers,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var result *session.Result
	if len(assignments) > 0 {
		resolved := make(map[string]string, len(assignments))
		for typeName, path := range assignments {
			resolved[typeName] = resolvePath(cfg, path)
		}
		result, err = sess.RunAssigned(ctx, resolved)
	} else {
		resolved := make([]string, len(paths))
		for i, path := range paths {
			resolved[i] = resolvePath(cfg, path)
		}
		result, err = sess.Run(ctx, resolved)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taizhang-extract: %v\n", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("taizhang-extract\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
