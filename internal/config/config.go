package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DefaultModel    string `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`

	// Document cache
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`

	// CSV exports
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Batch orchestration
	Concurrency      int `mapstructure:"concurrency" yaml:"concurrency"`
	AnswerTimeoutSec int `mapstructure:"answer_timeout_sec" yaml:"answer_timeout_sec"`

	// Prompt budget (approximate tokens of document text per question)
	MaxDocTokens int `mapstructure:"max_doc_tokens" yaml:"max_doc_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtime (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaBin  string `mapstructure:"ollama_bin" yaml:"ollama_bin"`

	// Extraction tooling
	PdftotextBin string `mapstructure:"pdftotext_bin" yaml:"pdftotext_bin"`
	PdftoppmBin  string `mapstructure:"pdftoppm_bin" yaml:"pdftoppm_bin"`
	TesseractBin string `mapstructure:"tesseract_bin" yaml:"tesseract_bin"`
	OCRLanguage  string `mapstructure:"ocr_language" yaml:"ocr_language"`
	OCRDPI       int    `mapstructure:"ocr_dpi" yaml:"ocr_dpi"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.docquery/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".docquery")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCQUERY")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("default_model", "gemma2:2b")
	v.SetDefault("default_provider", "ollama")
	v.SetDefault("concurrency", 4)
	v.SetDefault("answer_timeout_sec", 120)
	v.SetDefault("max_doc_tokens", 0)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 120)
	v.SetDefault("retry_max_attempts", 2)
	v.SetDefault("retry_base_delay_ms", 200)
	v.SetDefault("retry_max_delay_ms", 1000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_bin", "ollama")
	// Extraction defaults
	v.SetDefault("pdftotext_bin", "pdftotext")
	v.SetDefault("pdftoppm_bin", "pdftoppm")
	v.SetDefault("tesseract_bin", "tesseract")
	v.SetDefault("ocr_language", "eng")
	v.SetDefault("ocr_dpi", 300)
	v.SetDefault("output_dir", "outputs")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".docquery")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve cache_dir default: ~/.docquery/document_cache
	if c.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.CacheDir = filepath.Join(home, ".docquery", "document_cache")
	}
	return &c, nil
}
