package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"
)

// OllamaClient is a minimal HTTP client for a local Ollama runtime.
type OllamaClient struct {
	httpClient       *http.Client
	host             string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	maxDocTokens     int
}

// NewOllamaClient creates a new client targeting the given host
// (e.g., http://127.0.0.1:11434). maxDocTokens caps the document text
// embedded per prompt; zero means no cap.
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, maxDocTokens int) *OllamaClient {
	if host == "" {
		host = "http://127.0.0.1:11434"
	}
	if httpTimeout <= 0 {
		httpTimeout = 120 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &OllamaClient{
		httpClient:       &http.Client{Timeout: httpTimeout},
		host:             host,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		maxDocTokens:     maxDocTokens,
	}
}

// Structures aligned with Ollama /api/chat (non-streaming)
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}
type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	// Other fields omitted
	Done bool `json:"done"`
}

// Answer sends a chat request built from the document and question and maps
// the response to an AnswerResponse.
func (c *OllamaClient) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if req.QuestionText == "" {
		return nil, errors.New("question cannot be empty")
	}

	oreq := ollamaChatRequest{
		Model: req.Model,
		Messages: []ollamaChatMessage{
			{Role: "user", Content: BuildPrompt(req.DocumentText, req.QuestionText, c.maxDocTokens)},
		},
		Stream: false,
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.host + "/api/chat"
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			// Retry transient network errors
			if isRetryableNetErr(err) && attempt < maxAttempts {
				time.Sleep(withJitter(backoff))
				backoff = capDelay(backoff*2, c.retryMaxDelay)
				continue
			}
			return nil, &UnreachableError{Host: c.host, Err: err}
		}
		var out AnswerResponse
		func() {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = decodeOllamaError(resp)
				return
			}
			var oresp ollamaChatResponse
			if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
				lastErr = fmt.Errorf("decode response: %w", err)
				return
			}
			out = AnswerResponse{
				Answer:   strings.TrimSpace(oresp.Message.Content),
				Model:    req.Model,
				Provider: ProviderOllama,
			}
			lastErr = nil
		}()
		if lastErr == nil {
			return &out, nil
		}
		var srvErr *ServerError
		var rlErr *RateLimitError
		if (errors.As(lastErr, &srvErr) || errors.As(lastErr, &rlErr)) && attempt < maxAttempts {
			time.Sleep(withJitter(backoff))
			backoff = capDelay(backoff*2, c.retryMaxDelay)
			continue
		}
		break
	}
	return nil, lastErr
}

// ListModels queries /api/tags and returns the available model names sorted.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeOllamaError(resp)
	}
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Ping verifies the runtime answers at all before a batch is attempted.
func (c *OllamaClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UnreachableError{Host: c.host, Err: fmt.Errorf("status %s", resp.Status)}
	}
	return nil
}

func decodeOllamaError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw}
	if msg, ok := raw["error"].(string); ok {
		apiErr.Message = msg
	}
	if msg, ok := raw["message"].(string); ok && apiErr.Message == "" {
		apiErr.Message = msg
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Likely missing model
		return &ModelNotFoundError{APIError: apiErr}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{APIError: apiErr}
	case resp.StatusCode >= 500:
		return &ServerError{APIError: apiErr}
	case resp.StatusCode == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	}
	return apiErr
}

func isRetryableNetErr(err error) bool {
	// net errors like timeouts
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return true
		}
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) {
		return true
	}
	return false
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 200 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

func capDelay(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}
