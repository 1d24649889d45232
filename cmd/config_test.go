package cmd

import (
	"os"
	"path/filepath"
	"testing"

	cfgpkg "github.com/KaramelBytes/docquery-cli/internal/config"
)

func TestConfigSetCoversAllKeys(t *testing.T) {
	oldCfg, oldCfgFile := cfg, cfgFile
	defer func() { cfg, cfgFile = oldCfg, oldCfgFile }()
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	cfg = &cfgpkg.Global{}

	sets := [][2]string{
		{"default_model", "llama3:latest"},
		{"default_provider", "ollama-cli"},
		{"cache_dir", "/tmp/cache"},
		{"output_dir", "/tmp/out"},
		{"concurrency", "8"},
		{"answer_timeout_sec", "60"},
		{"max_doc_tokens", "2000"},
		{"http_timeout_sec", "30"},
		{"retry_max_attempts", "5"},
		{"retry_base_delay_ms", "100"},
		{"retry_max_delay_ms", "2000"},
		{"ollama_host", "http://127.0.0.1:11435"},
		{"ollama_bin", "/usr/local/bin/ollama"},
		{"pdftotext_bin", "/opt/poppler/pdftotext"},
		{"pdftoppm_bin", "/opt/poppler/pdftoppm"},
		{"tesseract_bin", "/opt/tesseract/tesseract"},
		{"ocr_language", "deu"},
		{"ocr_dpi", "400"},
	}
	for _, kv := range sets {
		if err := configSetCmd.RunE(configSetCmd, []string{kv[0], kv[1]}); err != nil {
			t.Fatalf("set %s: %v", kv[0], err)
		}
	}

	if cfg.DefaultModel != "llama3:latest" || cfg.DefaultProvider != "ollama-cli" {
		t.Fatalf("model/provider not applied: %+v", cfg)
	}
	if cfg.RetryBaseDelayMs != 100 || cfg.RetryMaxDelayMs != 2000 {
		t.Fatalf("retry delays not applied: %+v", cfg)
	}
	if cfg.PdftotextBin != "/opt/poppler/pdftotext" || cfg.PdftoppmBin != "/opt/poppler/pdftoppm" || cfg.TesseractBin != "/opt/tesseract/tesseract" {
		t.Fatalf("extraction binaries not applied: %+v", cfg)
	}
	if cfg.OCRLanguage != "deu" || cfg.OCRDPI != 400 {
		t.Fatalf("ocr settings not applied: %+v", cfg)
	}
	if _, err := os.Stat(cfgFile); err != nil {
		t.Fatalf("config file not saved: %v", err)
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	oldCfg, oldCfgFile := cfg, cfgFile
	defer func() { cfg, cfgFile = oldCfg, oldCfgFile }()
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	cfg = &cfgpkg.Global{}

	if err := configSetCmd.RunE(configSetCmd, []string{"no_such_key", "x"}); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
