// Package pipeline wires document ingestion to batch answering and export.
// Ingestion is content-addressed: a document's digest decides whether its text
// comes from the cache or from a fresh extraction.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/docquery-cli/internal/batch"
	"github.com/KaramelBytes/docquery-cli/internal/cache"
	"github.com/KaramelBytes/docquery-cli/internal/export"
	"github.com/KaramelBytes/docquery-cli/internal/extract"
	"github.com/KaramelBytes/docquery-cli/internal/hashing"
)

// TextExtractor is the slice of extract.Extractor the pipeline needs.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

// DocumentRecord is one ingested document ready for answering.
type DocumentRecord struct {
	SourcePath  string
	DisplayName string
	Digest      string
	Text        string
	WordCount   int
	CharCount   int
	FromCache   bool
}

// DocFailure records a document that could not be ingested. Failures are
// isolated per document and never abort the rest of a batch.
type DocFailure struct {
	Path string
	Err  error
}

// RunRequest describes one full ask run.
type RunRequest struct {
	Paths      []string
	Questions  []string
	Model      string
	Force      bool // bypass the cache and re-extract
	OutputPath string
}

// RunResult carries everything a caller needs to report on a finished run.
type RunResult struct {
	Records    []*DocumentRecord
	Skipped    []DocFailure
	Pairs      []batch.QAPair
	Tally      batch.Tally
	OutputPath string
}

// Service composes the cache, the extractor, and the orchestrator.
type Service struct {
	cache     *cache.Cache
	extractor TextExtractor
	orch      *batch.Orchestrator
	logger    *slog.Logger

	// onIngest, when set, is invoked after each ingestion attempt.
	onIngest func(rec *DocumentRecord, err error)
}

func NewService(c *cache.Cache, ex TextExtractor, orch *batch.Orchestrator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: c, extractor: ex, orch: orch, logger: logger}
}

// SetOnIngest registers a per-document ingestion callback for progress output.
func (s *Service) SetOnIngest(f func(rec *DocumentRecord, err error)) { s.onIngest = f }

// Ingest resolves a document path to its text. The file is digested first;
// on a cache hit no extraction runs at all. Cache write failures degrade to a
// warning because the freshly extracted text is already in hand.
func (s *Service) Ingest(ctx context.Context, path string, force bool) (*DocumentRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("document %s: is a directory", path)
	}
	if !extract.IsSupported(path) {
		return nil, fmt.Errorf("document %s: %w", path, extract.ErrUnsupported)
	}

	digest, err := hashing.SumFile(path)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", path, err)
	}
	name := displayName(path)

	if !force {
		if hit, ok := s.cache.Lookup(digest); ok {
			s.logger.Info("cache hit", "document", name, "digest", digest[:12])
			return &DocumentRecord{
				SourcePath:  path,
				DisplayName: name,
				Digest:      digest,
				Text:        hit.Text,
				WordCount:   hit.Meta.WordCount,
				CharCount:   hit.Meta.CharCount,
				FromCache:   true,
			}, nil
		}
	}

	res, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	rec := &DocumentRecord{
		SourcePath:  path,
		DisplayName: name,
		Digest:      digest,
		Text:        res.Text,
		WordCount:   len(strings.Fields(res.Text)),
		CharCount:   utf8.RuneCountInString(res.Text),
	}
	s.logger.Info("extracted document",
		"document", name,
		"pages", res.Pages,
		"ocr_pages", res.OCRPages,
		"words", rec.WordCount,
		"duration", res.Duration,
	)

	meta := cache.Meta{DisplayName: name, WordCount: rec.WordCount, CharCount: rec.CharCount}
	if err := s.cache.Store(digest, res.Text, meta); err != nil {
		s.logger.Warn("could not cache extracted text", "document", name, "error", err)
	}
	return rec, nil
}

// Run ingests every path, answers every question against every usable
// document, and exports the results to req.OutputPath. Documents that fail
// ingestion are reported in Skipped and excluded from the batch; Run fails as
// a whole only when nothing can proceed or the export itself fails.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	out := &RunResult{OutputPath: req.OutputPath}
	for _, path := range req.Paths {
		rec, err := s.Ingest(ctx, path, req.Force)
		if s.onIngest != nil {
			s.onIngest(rec, err)
		}
		if err != nil {
			s.logger.Error("skipping document", "path", path, "error", err)
			out.Skipped = append(out.Skipped, DocFailure{Path: path, Err: err})
			continue
		}
		out.Records = append(out.Records, rec)
	}

	documents := make([]batch.Document, 0, len(out.Records))
	for _, rec := range out.Records {
		documents = append(documents, batch.Document{Name: rec.DisplayName, Text: rec.Text})
	}

	pairs, err := s.orch.Run(ctx, documents, req.Questions, req.Model)
	if err != nil {
		return out, err
	}
	out.Pairs = pairs
	out.Tally = batch.Summarize(pairs)

	if err := export.WriteCSV(pairs, req.OutputPath); err != nil {
		return out, fmt.Errorf("export results: %w", err)
	}
	return out, nil
}

func displayName(path string) string {
	return filepath.Base(path)
}
