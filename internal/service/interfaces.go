package service

import (
	"context"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/intelligence"
)

// ApplyRequest is one planning cycle. Existing, when set, is used instead of
// loading the stored week.
type ApplyRequest struct {
	Request      string
	LongTermPlan string
	Mode         domain.PlanMode
	Existing     *domain.WeekSchedule
}

// ApplyResult is a successful cycle: the raw model text exactly as received
// and the week now in the store.
type ApplyResult struct {
	RunID     string
	Raw       string
	Schedule  *domain.WeekSchedule
	Skipped   []intelligence.SkippedEntry
	SavedOnly bool
}

// PlanService reconciles model-proposed weeks with the stored schedule.
type PlanService interface {
	// Plan builds the prompt, calls the model and returns its raw text.
	// Nothing is persisted.
	Plan(ctx context.Context, userRequest string, existing domain.ExistingSchedule, longTermPlan string) (string, error)

	// Apply runs a full load → prompt → model → validate → replace cycle.
	// Calls are serialized; on any error the stored week is left as it was.
	Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error)

	// Schedule loads the stored week including its long-term plan.
	Schedule(ctx context.Context) (*domain.WeekSchedule, error)

	// Replace stores week as a whole, e.g. from an imported file.
	Replace(ctx context.Context, week *domain.WeekSchedule) error

	// History lists recent planning attempts, newest first.
	History(ctx context.Context, limit int) ([]*domain.PlanRun, error)

	// Run returns one recorded attempt, including its raw model output.
	Run(ctx context.Context, id string) (*domain.PlanRun, error)
}
