package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/docquery-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/docquery-cli/internal/config"
)

var (
	// Global flags (wired later to config/viper)
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "DocQuery CLI: ask batches of questions across PDF documents",
	Long:  `DocQuery extracts text from PDF documents (with OCR fallback for scanned pages), caches it by content digest, asks every question against every document through a local AI model, and exports the answers to CSV.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.docquery/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on transient errors (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}

// requireConfig guards commands that cannot run without a loaded config.
func requireConfig() error {
	if cfg == nil {
		return fmt.Errorf("configuration not loaded; check ~/.docquery/config.yaml or --config")
	}
	return nil
}

// runtimeConfig maps the loaded config onto runtime construction knobs.
func runtimeConfig() ai.RuntimeConfig {
	return ai.RuntimeConfig{
		HTTPTimeout:  time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMax:     cfg.RetryMaxAttempts,
		BaseDelay:    time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		Host:         cfg.OllamaHost,
		Bin:          cfg.OllamaBin,
		MaxDocTokens: cfg.MaxDocTokens,
	}
}
