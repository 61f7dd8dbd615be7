package llm

// Provider names a model backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
	ProviderGemini Provider = "gemini"
	ProviderMock   Provider = "mock"
)

// Default backend: the Ark OpenAI-compatible endpoint.
const (
	DefaultEndpoint = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultModel    = "doubao-seed-1-6-251015"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskPlan TaskType = "plan"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem. It is resolved
// once at startup (see internal/config) and handed to NewClient.
type LLMConfig struct {
	Provider   Provider
	LogCalls   bool
	Endpoint   string
	APIKey     string
	Model      string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// Retries are off: a failed planning call is reported, not repeated.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:   ProviderOpenAI,
		LogCalls:   false,
		Endpoint:   DefaultEndpoint,
		Model:      DefaultModel,
		TimeoutMs:  60000,
		MaxRetries: 0,
		Tasks: map[TaskType]TaskConfig{
			TaskPlan: {Temperature: 0.3, MaxTokens: 4096, TimeoutMs: 0},
		},
	}
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	if c.TimeoutMs > 0 {
		return c.TimeoutMs
	}
	return DefaultConfig().TimeoutMs
}

// DefaultEndpointFor returns the base URL used when none is configured.
// Gemini endpoints are chosen by the SDK.
func DefaultEndpointFor(p Provider) string {
	switch p {
	case ProviderOllama:
		return "http://localhost:11434"
	case ProviderOpenAI:
		return DefaultEndpoint
	default:
		return ""
	}
}

// DefaultModelFor returns the model used when none is configured.
func DefaultModelFor(p Provider) string {
	switch p {
	case ProviderOllama:
		return "llama3.2"
	case ProviderGemini:
		return "gemini-1.5-pro"
	case ProviderMock:
		return "mock"
	default:
		return DefaultModel
	}
}

// NeedsAPIKey reports whether the provider is a hosted API that refuses
// anonymous calls.
func (c LLMConfig) NeedsAPIKey() bool {
	return c.Provider == ProviderOpenAI || c.Provider == ProviderGemini
}
