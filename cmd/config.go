package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/docquery-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DocQuery configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("default_model: %s\n", cfg.DefaultModel)
		fmt.Printf("default_provider: %s\n", cfg.DefaultProvider)
		fmt.Printf("cache_dir: %s\n", cfg.CacheDir)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("concurrency: %d\n", cfg.Concurrency)
		fmt.Printf("answer_timeout_sec: %d\n", cfg.AnswerTimeoutSec)
		if cfg.MaxDocTokens > 0 {
			fmt.Printf("max_doc_tokens: %d\n", cfg.MaxDocTokens)
		}
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Printf("retry_base_delay_ms: %d\n", cfg.RetryBaseDelayMs)
		fmt.Printf("retry_max_delay_ms: %d\n", cfg.RetryMaxDelayMs)
		fmt.Printf("ollama_host: %s\n", cfg.OllamaHost)
		fmt.Printf("ollama_bin: %s\n", cfg.OllamaBin)
		fmt.Printf("pdftotext_bin: %s\n", cfg.PdftotextBin)
		fmt.Printf("pdftoppm_bin: %s\n", cfg.PdftoppmBin)
		fmt.Printf("tesseract_bin: %s\n", cfg.TesseractBin)
		fmt.Printf("ocr_language: %s\n", cfg.OCRLanguage)
		fmt.Printf("ocr_dpi: %d\n", cfg.OCRDPI)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "default_model":
			cfg.DefaultModel = val
		case "default_provider":
			switch val {
			case "ollama", "Ollama", "local", "LOCAL":
				cfg.DefaultProvider = "ollama"
			case "ollama-cli", "cli", "subprocess":
				cfg.DefaultProvider = "ollama-cli"
			default:
				return fmt.Errorf("invalid default_provider: %s (use ollama or ollama-cli)", val)
			}
		case "cache_dir":
			cfg.CacheDir = val
		case "output_dir":
			cfg.OutputDir = val
		case "concurrency":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for concurrency: %v", val)
			}
			cfg.Concurrency = i
		case "answer_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for answer_timeout_sec: %v", val)
			}
			cfg.AnswerTimeoutSec = i
		case "max_doc_tokens":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_doc_tokens: %v", val)
			}
			cfg.MaxDocTokens = i
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for http_timeout_sec: %w", err)
			}
			cfg.HTTPTimeoutSec = i
		case "retry_max_attempts":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for retry_max_attempts: %w", err)
			}
			cfg.RetryMaxAttempts = i
		case "retry_base_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for retry_base_delay_ms: %v", val)
			}
			cfg.RetryBaseDelayMs = i
		case "retry_max_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for retry_max_delay_ms: %v", val)
			}
			cfg.RetryMaxDelayMs = i
		case "pdftotext_bin":
			cfg.PdftotextBin = val
		case "pdftoppm_bin":
			cfg.PdftoppmBin = val
		case "tesseract_bin":
			cfg.TesseractBin = val
		case "ollama_host":
			cfg.OllamaHost = val
		case "ollama_bin":
			cfg.OllamaBin = val
		case "ocr_language":
			cfg.OCRLanguage = val
		case "ocr_dpi":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for ocr_dpi: %v", val)
			}
			cfg.OCRDPI = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
