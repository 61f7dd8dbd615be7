package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/intelligence"
	"github.com/knightqmd/scheduler-app/internal/repository"
)

const defaultHistoryLimit = 20

// PlanServiceConfig tunes a PlanService. The zero value is usable.
type PlanServiceConfig struct {
	Parse  intelligence.ParseOptions
	Logger *zap.Logger
	Now    func() time.Time
}

type planService struct {
	store    repository.ScheduleStore
	runs     repository.PlanRunRepo
	drafts   intelligence.PlanDraftService
	parse    intelligence.ParseOptions
	logger   *zap.Logger
	now      func() time.Time
	observer UseCaseObserver

	// mu serializes every read-modify-write of the store.
	mu sync.Mutex
}

// NewPlanService wires the reconciliation pipeline. runs may be nil, in which
// case attempts are not audited.
func NewPlanService(
	store repository.ScheduleStore,
	runs repository.PlanRunRepo,
	drafts intelligence.PlanDraftService,
	cfg PlanServiceConfig,
	observers ...UseCaseObserver,
) PlanService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &planService{
		store:    store,
		runs:     runs,
		drafts:   drafts,
		parse:    cfg.Parse,
		logger:   logger.Named("plan"),
		now:      now,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *planService) Plan(ctx context.Context, userRequest string, existing domain.ExistingSchedule, longTermPlan string) (raw string, err error) {
	startedAt := s.now().UTC()
	defer func() {
		s.observe(ctx, "plan", startedAt, err, map[string]any{"flat_input": existing.IsFlat()})
	}()

	draft, err := s.drafts.Draft(ctx, userRequest, existing.Normalize(), longTermPlan)
	if err != nil {
		return "", &PlanError{Kind: KindModelCallFailed, Err: err}
	}
	return draft.Raw, nil
}

func (s *planService) Apply(ctx context.Context, req ApplyRequest) (res *ApplyResult, err error) {
	startedAt := s.now().UTC()
	fields := map[string]any{"mode": string(req.Mode)}
	defer func() {
		s.observe(ctx, "apply", startedAt, err, fields)
	}()

	request := strings.TrimSpace(req.Request)
	longTerm := strings.TrimSpace(req.LongTermPlan)
	saveOnly := req.Mode == domain.PlanModeSave || (request == "" && longTerm != "")
	if !saveOnly && request == "" {
		return nil, ErrEmptyRequest
	}
	fields["save_only"] = saveOnly

	s.mu.Lock()
	defer s.mu.Unlock()

	run := &domain.PlanRun{
		ID:           uuid.NewString(),
		Mode:         domain.PlanModeSmart,
		Request:      request,
		LongTermPlan: longTerm,
	}
	if saveOnly {
		run.Mode = domain.PlanModeSave
	}
	fields["run_id"] = run.ID

	week, err := s.current(ctx, req.Existing)
	if err != nil {
		s.record(ctx, run, domain.PlanRunStoreFailed, err)
		return nil, &PlanError{Kind: KindStoreUnavailable, Err: err}
	}

	if longTerm != "" {
		if err = s.store.SaveLongTermPlan(ctx, longTerm); err != nil {
			s.record(ctx, run, domain.PlanRunStoreFailed, err)
			return nil, &PlanError{Kind: KindStoreUnavailable, Schedule: week, Err: err}
		}
		week.LongTermPlan = longTerm
	}

	if saveOnly {
		if err = s.store.Save(ctx, week); err != nil {
			s.record(ctx, run, domain.PlanRunStoreFailed, err)
			return nil, &PlanError{Kind: KindStoreUnavailable, Schedule: week, Err: err}
		}
		run.ItemCount = week.ItemCount()
		s.record(ctx, run, domain.PlanRunSaved, nil)
		return &ApplyResult{RunID: run.ID, Schedule: week, SavedOnly: true}, nil
	}

	draft, err := s.drafts.Draft(ctx, request, week, week.LongTermPlan)
	if err != nil {
		s.record(ctx, run, domain.PlanRunModelFailed, err)
		return nil, &PlanError{Kind: KindModelCallFailed, Schedule: week, Err: err}
	}
	run.Raw = draft.Raw

	parsed, err := draft.Parse(s.parse)
	if err != nil {
		s.record(ctx, run, domain.PlanRunRejected, err)
		return nil, &PlanError{Kind: KindPlanRejected, Raw: draft.Raw, Schedule: week, Err: err}
	}
	for _, sk := range parsed.Skipped {
		s.logger.Warn("skipped model entry",
			zap.String("run_id", run.ID),
			zap.Int("index", sk.Index),
			zap.String("reason", string(sk.Reason)),
			zap.String("detail", sk.Detail))
	}

	updated := week.Clone()
	updated.SetFreeText("")
	updated.ReplaceDays(parsed.Days)

	if err = s.store.Save(ctx, updated); err != nil {
		s.record(ctx, run, domain.PlanRunStoreFailed, err)
		return nil, &PlanError{Kind: KindStoreUnavailable, Raw: draft.Raw, Schedule: week, Err: err}
	}

	run.ItemCount = updated.ItemCount()
	fields["items"] = run.ItemCount
	fields["skipped"] = len(parsed.Skipped)
	s.record(ctx, run, domain.PlanRunApplied, nil)

	return &ApplyResult{
		RunID:    run.ID,
		Raw:      draft.Raw,
		Schedule: updated,
		Skipped:  parsed.Skipped,
	}, nil
}

func (s *planService) Schedule(ctx context.Context) (*domain.WeekSchedule, error) {
	week, err := s.store.Load(ctx)
	if err != nil {
		return nil, &PlanError{Kind: KindStoreUnavailable, Err: err}
	}
	return week, nil
}

func (s *planService) Replace(ctx context.Context, week *domain.WeekSchedule) (err error) {
	startedAt := s.now().UTC()
	defer func() {
		s.observe(ctx, "replace", startedAt, err, map[string]any{"items": week.ItemCount()})
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.store.Save(ctx, week); err != nil {
		return &PlanError{Kind: KindStoreUnavailable, Err: err}
	}
	return nil
}

func (s *planService) History(ctx context.Context, limit int) ([]*domain.PlanRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing plan runs: %w", err)
	}
	return runs, nil
}

func (s *planService) Run(ctx context.Context, id string) (*domain.PlanRun, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	run, err := s.runs.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan run: %w", err)
	}
	return run, nil
}

// current returns a private copy of the week to work on.
func (s *planService) current(ctx context.Context, existing *domain.WeekSchedule) (*domain.WeekSchedule, error) {
	if existing != nil {
		return existing.Clone(), nil
	}
	return s.store.Load(ctx)
}

// record writes the audit row. Failures are logged and never change the
// outcome of the attempt.
func (s *planService) record(ctx context.Context, run *domain.PlanRun, status domain.PlanRunStatus, cause error) {
	run.Status = status
	run.CreatedAt = s.now().UTC()
	if cause != nil {
		run.Error = cause.Error()
	}
	if s.runs == nil {
		return
	}
	if err := s.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("recording plan run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *planService) observe(ctx context.Context, name string, startedAt time.Time, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  s.now().UTC().Sub(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
