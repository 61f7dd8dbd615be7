package llm

import "errors"

var (
	// ErrUnavailable indicates the model server is unreachable.
	ErrUnavailable = errors.New("llm server unavailable")

	// ErrTimeout indicates the LLM request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrAuth indicates the server rejected the configured credentials.
	ErrAuth = errors.New("llm credentials rejected")

	// ErrEmptyResponse indicates the server answered without any choices.
	// An empty completion is a valid answer and is not reported with it.
	ErrEmptyResponse = errors.New("llm returned no content")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")
)
