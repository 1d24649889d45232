package ai

import "context"

// AnswerRequest carries one document/question pair to an answering backend.
type AnswerRequest struct {
	DocumentText string
	QuestionText string
	Model        string
}

// AnswerResponse is a successful backend answer.
type AnswerResponse struct {
	Answer   string
	Model    string
	Provider string
}

// Runtime is the minimal interface implemented by answering backends, such as
// a local Ollama HTTP server or the ollama CLI invoked as a subprocess.
type Runtime interface {
	Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOllama    = "ollama"     // local Ollama HTTP API
	ProviderOllamaCLI = "ollama-cli" // ollama binary invoked per request
)

// ModelLister is an optional extension for backends that can enumerate the
// currently available model identifiers. An empty list is valid; callers fall
// back to a configured default model.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Pinger is an optional extension for backends that can cheaply verify
// reachability before a batch is attempted.
type Pinger interface {
	Ping(ctx context.Context) error
}
