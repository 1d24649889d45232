package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// commandRunner lets tests stub the ollama binary.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execCommandRunner struct{}

func (execCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// SubprocessClient answers questions by invoking the ollama binary per
// request ("ollama run <model> <prompt>"). It exists for hosts where the
// HTTP API is not exposed; the bounded pool in the orchestrator keeps the
// number of live subprocesses in check.
type SubprocessClient struct {
	bin          string
	runner       commandRunner
	maxDocTokens int
}

// NewSubprocessClient creates a client around the given binary name or path.
// maxDocTokens caps the document text embedded per prompt; zero means no cap.
func NewSubprocessClient(bin string, maxDocTokens int) *SubprocessClient {
	if bin == "" {
		bin = "ollama"
	}
	return &SubprocessClient{bin: bin, runner: execCommandRunner{}, maxDocTokens: maxDocTokens}
}

// Answer runs the model once and returns its trimmed stdout.
func (c *SubprocessClient) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if req.QuestionText == "" {
		return nil, errors.New("question cannot be empty")
	}
	prompt := BuildPrompt(req.DocumentText, req.QuestionText, c.maxDocTokens)
	out, errb, err := c.runner.Run(ctx, c.bin, "run", req.Model, prompt)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &UnreachableError{Host: c.bin, Err: err}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("ollama run failed: %s", msg)
	}
	return &AnswerResponse{
		Answer:   strings.TrimSpace(string(out)),
		Model:    req.Model,
		Provider: ProviderOllamaCLI,
	}, nil
}

// ListModels parses `ollama list` output. The first column of each row after
// the header is the model name. An empty installation yields an empty list.
func (c *SubprocessClient) ListModels(ctx context.Context) ([]string, error) {
	out, errb, err := c.runner.Run(ctx, c.bin, "list")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &UnreachableError{Host: c.bin, Err: err}
		}
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("ollama list failed: %s", msg)
	}
	var names []string
	for i, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(fields[0], "NAME") {
			continue
		}
		names = append(names, fields[0])
	}
	sort.Strings(names)
	return names, nil
}

// Ping checks the binary is runnable at all.
func (c *SubprocessClient) Ping(ctx context.Context) error {
	if _, _, err := c.runner.Run(ctx, c.bin, "--version"); err != nil {
		return &UnreachableError{Host: c.bin, Err: err}
	}
	return nil
}
