package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// GenerateRequest holds the parameters for an LLM generation call.
type GenerateRequest struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
}

// GenerateResponse holds the result of an LLM generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// LLMClient provides access to a language model for text generation.
type LLMClient interface {
	// Generate sends a prompt and returns the raw text response.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Available checks whether the backend is reachable.
	Available(ctx context.Context) bool
}

// NewClient builds the client for cfg.Provider. A hosted provider with no API
// key configured falls back to the offline mock so the tool stays usable
// without credentials.
func NewClient(ctx context.Context, cfg LLMConfig, observer Observer, logger *zap.Logger) (LLMClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = NoopObserver{}
	}

	if cfg.NeedsAPIKey() && cfg.APIKey == "" {
		logger.Warn("no API key configured, using built-in mock responses",
			zap.String("provider", string(cfg.Provider)))
		return NewMockClient(observer), nil
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, observer), nil
	case ProviderOllama:
		return NewOllamaClient(cfg, observer), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, observer)
	case ProviderMock:
		return NewMockClient(observer), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// callParams resolves the per-call sampling parameters.
func callParams(cfg LLMConfig, req GenerateRequest) (temp float64, maxTok int) {
	taskCfg := cfg.Tasks[req.Task]
	temp = taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok = taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	return temp, maxTok
}

// attemptFunc performs one call and returns the text and the model that
// served it.
type attemptFunc func(ctx context.Context) (text, model string, err error)

// generateWithRetries runs attempt under the task timeout, retrying up to
// cfg.MaxRetries times. Credential errors and timeouts are not retried.
func generateWithRetries(ctx context.Context, cfg LLMConfig, task TaskType, observer Observer, attempt attemptFunc) (*GenerateResponse, error) {
	start := time.Now()

	timeoutMs := cfg.TaskTimeout(task)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	var lastErr error
	attempts := 1 + cfg.MaxRetries
	tried := 0

	for i := 0; i < attempts; i++ {
		tried++
		text, model, err := attempt(ctx)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			if model == "" {
				model = cfg.Model
			}
			observer.OnCallComplete(LLMCallEvent{
				Task:      task,
				Provider:  cfg.Provider,
				Model:     model,
				LatencyMs: latency,
				Attempts:  tried,
				Success:   true,
			})
			return &GenerateResponse{Text: text, Model: model, LatencyMs: latency}, nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout or rejected credentials
		if ctx.Err() != nil || isAuthError(err) {
			break
		}
	}

	finalErr := classify(ctx, lastErr)
	observer.OnCallComplete(LLMCallEvent{
		Task:      task,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		LatencyMs: time.Since(start).Milliseconds(),
		Attempts:  tried,
		Success:   false,
		ErrorCode: errorCode(finalErr),
	})
	return nil, finalErr
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("llm request canceled: %w", context.Canceled)
	case isAuthError(err):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	}
}

// statusError is a non-2xx answer from an HTTP backend.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

func isAuthError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
	}
	return false
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrAuth):
		return "AUTH"
	case errors.Is(err, ErrEmptyResponse):
		return "EMPTY"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
		},
	}
}
