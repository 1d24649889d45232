package ai

import "fmt"

// APIError represents a structured error response from the backend.
type APIError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates a 4xx request problem (e.g., 400 validation).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// RateLimitError indicates the backend is shedding load (429).
type RateLimitError struct{ *APIError }

func (e *RateLimitError) Error() string { return fmt.Sprintf("rate limited: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the backend.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("backend error: %s", e.APIError.Error()) }

// UnreachableError indicates the target runtime is not reachable (e.g., local
// Ollama down). Batches fail pre-flight on this rather than per pair.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v (is the runtime running? try again after starting it)", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}
