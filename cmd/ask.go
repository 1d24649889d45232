package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/docquery-cli/internal/ai"
	"github.com/KaramelBytes/docquery-cli/internal/batch"
	"github.com/KaramelBytes/docquery-cli/internal/cache"
	"github.com/KaramelBytes/docquery-cli/internal/export"
	"github.com/KaramelBytes/docquery-cli/internal/extract"
	"github.com/KaramelBytes/docquery-cli/internal/pipeline"
)

var (
	askQuestions     []string
	askQuestionsFile string
	askModel         string
	askProvider      string
	askOutput        string
	askForce         bool
	askConcurrency   int
	askTimeoutSec    int
)

var askCmd = &cobra.Command{
	Use:   "ask <document.pdf> [more.pdf ...]",
	Short: "Ask questions against one or more PDF documents and export answers to CSV",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}

		questions := append([]string{}, askQuestions...)
		if askQuestionsFile != "" {
			fromFile, err := readQuestionsFile(askQuestionsFile)
			if err != nil {
				return err
			}
			questions = append(questions, fromFile...)
		}
		if len(questions) == 0 {
			return fmt.Errorf("no questions given (use --question or --questions-file)")
		}

		model := askModel
		if model == "" {
			model = cfg.DefaultModel
		}
		provider := askProvider
		if provider == "" {
			provider = cfg.DefaultProvider
		}
		runtime, ok := ai.GetRuntime(provider, runtimeConfig())
		if !ok {
			names := ai.Providers()
			sort.Strings(names)
			return fmt.Errorf("unknown provider %q (available: %s)", provider, strings.Join(names, ", "))
		}

		store, err := cache.Open(cfg.CacheDir, logger)
		if err != nil {
			return err
		}
		extractor := extract.NewExtractor(extract.Config{
			Pdftotext: cfg.PdftotextBin,
			Pdftoppm:  cfg.PdftoppmBin,
			Tesseract: cfg.TesseractBin,
			Language:  cfg.OCRLanguage,
			DPI:       cfg.OCRDPI,
		}, logger)

		concurrency := askConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Concurrency
		}
		timeout := time.Duration(askTimeoutSec) * time.Second
		if askTimeoutSec <= 0 {
			timeout = time.Duration(cfg.AnswerTimeoutSec) * time.Second
		}

		total := len(args) * len(questions)
		orch := batch.New(runtime, provider,
			batch.WithWorkers(concurrency),
			batch.WithPairTimeout(timeout),
			batch.WithLogger(logger),
			batch.WithOnResult(func(done, total int, pair batch.QAPair) {
				mark := "✓"
				if pair.Status == batch.StatusError {
					mark = "✗"
				}
				fmt.Printf("[%d/%d] %s %s — Q%d\n", done, total, mark, pair.DocumentName, pair.QuestionIndex)
			}),
		)

		svc := pipeline.NewService(store, extractor, orch, logger)
		svc.SetOnIngest(func(rec *pipeline.DocumentRecord, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Skipping: %v\n", err)
				return
			}
			if rec.FromCache {
				fmt.Printf("• %s: %d words (cached)\n", rec.DisplayName, rec.WordCount)
			} else {
				fmt.Printf("• %s: %d words extracted\n", rec.DisplayName, rec.WordCount)
			}
		})

		output := askOutput
		if output == "" {
			output = filepath.Join(cfg.OutputDir, export.Filename(time.Now()))
		}

		fmt.Printf("Asking %d question(s) across %d document(s) with %s (%d pairs)...\n",
			len(questions), len(args), model, total)

		res, err := svc.Run(cmd.Context(), pipeline.RunRequest{
			Paths:      args,
			Questions:  questions,
			Model:      model,
			Force:      askForce,
			OutputPath: output,
		})
		if err != nil {
			return err
		}

		fmt.Printf("\nDone: %d succeeded, %d failed", res.Tally.Succeeded, res.Tally.Failed)
		if len(res.Skipped) > 0 {
			fmt.Printf(", %d document(s) skipped", len(res.Skipped))
		}
		fmt.Println()
		for _, rec := range res.Records {
			dc := res.Tally.ByDocument[rec.DisplayName]
			fmt.Printf("  %s: %d/%d answered\n", rec.DisplayName, dc.Succeeded, dc.Succeeded+dc.Failed)
		}
		fmt.Printf("Results written to %s\n", res.OutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringArrayVarP(&askQuestions, "question", "q", nil, "question to ask (repeatable)")
	askCmd.Flags().StringVar(&askQuestionsFile, "questions-file", "", "file with one question per line (# comments and blanks skipped)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "model to use (default from config)")
	askCmd.Flags().StringVar(&askProvider, "provider", "", "answer backend: ollama or ollama-cli (default from config)")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "", "CSV output path (default outputs/qa_results_<timestamp>.csv)")
	askCmd.Flags().BoolVar(&askForce, "force", false, "re-extract documents even when cached")
	askCmd.Flags().IntVarP(&askConcurrency, "concurrency", "c", 0, "concurrent question workers (default from config)")
	askCmd.Flags().IntVar(&askTimeoutSec, "timeout", 0, "per-answer timeout in seconds (default from config)")
}

// readQuestionsFile parses one question per line, skipping blank lines and
// lines starting with '#'.
func readQuestionsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("questions file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("questions file: %w", err)
	}
	return out, nil
}
