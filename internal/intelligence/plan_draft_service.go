package intelligence

import (
	"context"
	"fmt"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/llm"
)

// PlanDraft is one raw model answer to a planning prompt. It is kept whole so
// the text can be audited even when parsing rejects it.
type PlanDraft struct {
	Prompt    string
	Raw       string
	Model     string
	LatencyMs int64
}

// Parse validates the raw answer.
func (d *PlanDraft) Parse(opts ParseOptions) (*ParsedPlan, error) {
	return ParsePlan(d.Raw, opts)
}

// PlanDraftService asks the model for a full-week plan.
type PlanDraftService interface {
	Draft(ctx context.Context, userRequest string, week *domain.WeekSchedule, longTermPlan string) (*PlanDraft, error)
}

type planDraftService struct {
	client llm.LLMClient
}

// NewPlanDraftService creates a PlanDraftService backed by an LLM client.
func NewPlanDraftService(client llm.LLMClient) PlanDraftService {
	return &planDraftService{client: client}
}

func (s *planDraftService) Draft(ctx context.Context, userRequest string, week *domain.WeekSchedule, longTermPlan string) (*PlanDraft, error) {
	prompt := BuildPlanPrompt(userRequest, week, longTermPlan)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskPlan,
		SystemPrompt: PlanSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("llm plan draft failed: %w", err)
	}

	return &PlanDraft{
		Prompt:    prompt,
		Raw:       resp.Text,
		Model:     resp.Model,
		LatencyMs: resp.LatencyMs,
	}, nil
}
