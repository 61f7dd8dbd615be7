package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// geminiClient implements LLMClient with the Google Generative AI SDK.
type geminiClient struct {
	cfg      LLMConfig
	client   *genai.Client
	observer Observer
}

// NewGeminiClient creates an LLMClient backed by Gemini. Call Close when done.
func NewGeminiClient(ctx context.Context, cfg LLMConfig, observer Observer) (LLMClient, error) {
	if observer == nil {
		observer = NoopObserver{}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiClient{cfg: cfg, client: client, observer: observer}, nil
}

func (g *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	temp, maxTok := callParams(g.cfg, req)

	model := g.client.GenerativeModel(g.cfg.Model)
	model.SetTemperature(float32(temp))
	if maxTok > 0 {
		model.SetMaxOutputTokens(int32(maxTok))
	}
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}

	return generateWithRetries(ctx, g.cfg, req.Task, g.observer, func(ctx context.Context) (string, string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
		if err != nil {
			return "", "", fmt.Errorf("gemini generate: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", g.cfg.Model, ErrEmptyResponse
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		return sb.String(), g.cfg.Model, nil
	})
}

func (g *geminiClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := g.client.ListModels(ctx).Next()
	return err == nil || err == iterator.Done
}

func (g *geminiClient) Close() error {
	return g.client.Close()
}
