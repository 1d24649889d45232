// Package batch fans a documents × questions cross product out to an
// answering backend through a bounded worker pool. Workers complete in any
// order; result placement is deterministic and a failed pair becomes data,
// never an abort.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/docquery-cli/internal/ai"
)

// Document is the batch view of an ingested document.
type Document struct {
	Name string
	Text string
}

// Status is the terminal state of a QAPair.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// QAPair is one (document, question) unit of work and its outcome. Exactly
// one of Answer/Error is populated, matching Status.
type QAPair struct {
	DocumentName  string
	QuestionIndex int // 1-based, stable within a document
	Question      string
	Answer        string
	Model         string
	Provider      string
	Status        Status
	Error         string
}

// Pre-flight failures. Run produces zero results when these occur.
var (
	ErrNoDocuments = errors.New("no documents to process")
	ErrNoQuestions = errors.New("no questions to ask")
)

// Orchestrator schedules batches against a single backend runtime.
type Orchestrator struct {
	runtime  ai.Runtime
	provider string
	workers  int
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	onResult func(done, total int, pair QAPair)
}

type Option func(*Orchestrator)

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPairTimeout bounds each backend invocation.
func WithPairTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOnResult registers a progress callback invoked once per completed pair.
// Invocations are serialized.
func WithOnResult(f func(done, total int, pair QAPair)) Option {
	return func(o *Orchestrator) { o.onResult = f }
}

func New(runtime ai.Runtime, provider string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runtime:  runtime,
		provider: provider,
		workers:  4,
		timeout:  2 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run answers every question against every document and returns exactly
// len(documents) * len(questions) results: documents in input order, and
// within each document questions in ascending QuestionIndex. A per-pair
// failure is recorded on its QAPair and never cancels sibling pairs; Run only
// fails as a whole on pre-flight conditions.
func (o *Orchestrator) Run(ctx context.Context, documents []Document, questions []string, model string) ([]QAPair, error) {
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if p, ok := o.runtime.(ai.Pinger); ok {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("backend unusable: %w", err)
		}
	}

	runID := uuid.NewString()
	total := len(documents) * len(questions)
	results := make([]QAPair, total)
	o.logger.Info("batch started",
		"run_id", runID,
		"documents", len(documents),
		"questions", len(questions),
		"pairs", total,
		"workers", o.workers,
		"model", model,
	)

	var done int
	var g errgroup.Group
	g.SetLimit(o.workers)
	for di, doc := range documents {
		for qi, question := range questions {
			slot := di*len(questions) + qi
			doc, question, qi := doc, question, qi
			g.Go(func() error {
				pair := o.answerOne(ctx, doc, question, qi+1, model)
				results[slot] = pair

				// The lock is held across the callback so invocations are
				// serialized and done counts arrive in order.
				o.mu.Lock()
				done++
				if o.onResult != nil {
					o.onResult(done, total, pair)
				}
				o.mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait() // workers never return errors; failures live in the pairs

	var failed int
	for i := range results {
		if results[i].Status == StatusError {
			failed++
		}
	}
	o.logger.Info("batch finished",
		"run_id", runID,
		"pairs", total,
		"succeeded", total-failed,
		"failed", failed,
	)
	return results, nil
}

// answerOne owns the terminal write of exactly one QAPair.
func (o *Orchestrator) answerOne(ctx context.Context, doc Document, question string, index int, model string) QAPair {
	pair := QAPair{
		DocumentName:  doc.Name,
		QuestionIndex: index,
		Question:      question,
		Model:         model,
		Provider:      o.provider,
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp, err := o.runtime.Answer(cctx, ai.AnswerRequest{
		DocumentText: doc.Text,
		QuestionText: question,
		Model:        model,
	})
	if err != nil {
		pair.Status = StatusError
		pair.Error = err.Error()
		o.logger.Warn("pair failed",
			"document", doc.Name,
			"question_number", index,
			"error", err,
		)
		return pair
	}
	pair.Status = StatusSuccess
	pair.Answer = resp.Answer
	if resp.Model != "" {
		pair.Model = resp.Model
	}
	if resp.Provider != "" {
		pair.Provider = resp.Provider
	}
	return pair
}

// DocCounts is a per-document progress summary.
type DocCounts struct {
	Succeeded int
	Failed    int
}

// Tally summarizes a finished batch for display.
type Tally struct {
	Total      int
	Succeeded  int
	Failed     int
	ByDocument map[string]DocCounts
}

func Summarize(pairs []QAPair) Tally {
	t := Tally{Total: len(pairs), ByDocument: make(map[string]DocCounts)}
	for _, p := range pairs {
		dc := t.ByDocument[p.DocumentName]
		if p.Status == StatusSuccess {
			t.Succeeded++
			dc.Succeeded++
		} else {
			t.Failed++
			dc.Failed++
		}
		t.ByDocument[p.DocumentName] = dc
	}
	return t
}
