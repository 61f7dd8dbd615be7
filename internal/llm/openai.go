package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// openAIClient implements LLMClient against an OpenAI-compatible
// /chat/completions endpoint (Ark, LM Studio, vLLM, OpenAI itself).
type openAIClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOpenAIClient creates an LLMClient for an OpenAI-compatible endpoint.
// cfg.Endpoint is the API base, e.g. https://ark.cn-beijing.volces.com/api/v3.
func NewOpenAIClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &openAIClient{cfg: cfg, http: newHTTPClient(), observer: observer}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *openAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	temp, maxTok := callParams(c.cfg, req)

	var msgs []chatMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.UserPrompt})

	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   maxTok,
	}

	return generateWithRetries(ctx, c.cfg, req.Task, c.observer, func(ctx context.Context) (string, string, error) {
		resp, err := c.doRequest(ctx, body)
		if err != nil {
			return "", "", err
		}
		if len(resp.Choices) == 0 {
			return "", resp.Model, ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, resp.Model, nil
	})
}

func (c *openAIClient) doRequest(ctx context.Context, body chatRequest) (*chatResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &statusError{Code: httpResp.StatusCode, Body: string(respBody)}
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// Available lists models; any 200 means the endpoint and key work.
func (c *openAIClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
