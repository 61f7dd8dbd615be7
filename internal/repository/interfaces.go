package repository

import (
	"context"
	"errors"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ScheduleStore persists the current week. Save is a full replace of the
// items and free text and must be atomic: a concurrent Load observes either
// the previous week or the new one.
//
// The long-term plan travels with the week: Load fills WeekSchedule.LongTermPlan
// and Save writes it only when it is non-empty, so a save never erases a plan
// the caller did not know about.
type ScheduleStore interface {
	Load(ctx context.Context) (*domain.WeekSchedule, error)
	Save(ctx context.Context, week *domain.WeekSchedule) error
	GetLongTermPlan(ctx context.Context) (string, error)
	SaveLongTermPlan(ctx context.Context, text string) error
}

// PlanRunRepo is the audit log of planning attempts.
type PlanRunRepo interface {
	Create(ctx context.Context, run *domain.PlanRun) error
	GetByID(ctx context.Context, id string) (*domain.PlanRun, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.PlanRun, error)
}
