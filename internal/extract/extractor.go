// Package extract pulls text out of PDF documents, falling back to OCR for
// pages without embedded text. The extraction engines (poppler's pdftotext
// and pdftoppm, tesseract) are invoked as external commands through a
// stubable Runner; pdfcpu handles validation and page counting.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnsupported indicates a format this extractor cannot handle.
var ErrUnsupported = errors.New("unsupported document format")

// Config selects the external binaries and OCR tuning knobs.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // tesseract language, default "eng"
	DPI      int    // rasterization DPI for scanned pages, default 300
}

// Result is the outcome of one extraction.
type Result struct {
	Text     string
	Pages    int
	OCRPages int // pages that went through the OCR fallback
	Duration time.Duration
}

// Extractor extracts page-ordered text from PDF files. Identical input bytes
// yield identical output; an empty result is valid for content-free documents.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	// pdfInfo validates the document and returns its page count.
	pdfInfo func(path string) (int, error)
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger, pdfInfo: pdfcpuInfo}
}

// IsSupported reports whether the file extension is one this extractor handles.
func IsSupported(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func pdfcpuInfo(path string) (int, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return api.PageCountFile(path)
}

// Extract returns the concatenated text of all pages in page order, trimmed.
// Pages whose embedded text is empty or whitespace-only are rendered to an
// image and recognized with OCR instead.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	if !IsSupported(path) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	pages, err := e.pdfInfo(path)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	res := Result{Pages: pages}
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		text, err := e.pageText(ctx, path, page)
		if err != nil {
			return Result{}, fmt.Errorf("page %d: %w", page, err)
		}
		if strings.TrimSpace(text) == "" {
			e.logger.Debug("no embedded text, running ocr", "path", path, "page", page)
			text, err = e.pageOCR(ctx, path, page)
			if err != nil {
				return Result{}, fmt.Errorf("page %d ocr: %w", page, err)
			}
			res.OCRPages++
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	res.Text = strings.TrimSpace(sb.String())
	res.Duration = time.Since(start)
	return res, nil
}

func (e *Extractor) pageText(ctx context.Context, path string, page int) (string, error) {
	// pdftotext -f N -l N -enc UTF-8 -eol unix <path> -
	p := fmt.Sprintf("%d", page)
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-f", p, "-l", p, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %v: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func (e *Extractor) pageOCR(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docquery-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	p := fmt.Sprintf("%d", page)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r DPI -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-f", p, "-l", p, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %v: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images")
	}

	// tesseract <img> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, matches[0], "stdout", "-l", e.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %v: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
