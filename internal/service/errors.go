package service

import (
	"errors"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/intelligence"
)

// PlanErrorKind classifies a failed planning cycle.
type PlanErrorKind string

const (
	KindModelCallFailed  PlanErrorKind = "model_call_failed"
	KindPlanRejected     PlanErrorKind = "plan_rejected"
	KindStoreUnavailable PlanErrorKind = "store_unavailable"
)

var (
	// ErrEmptyRequest is returned when there is neither a request nor a
	// long-term plan to act on.
	ErrEmptyRequest = errors.New("empty request: nothing to plan or save")

	// ErrRunNotFound is returned by Run for an unknown id, or when no audit
	// log is configured.
	ErrRunNotFound = errors.New("plan run not found")

	ErrModelCallFailed  = errors.New("model call failed")
	ErrStoreUnavailable = errors.New("schedule store unavailable")

	// ErrPlanRejected is shared with the parser so either layer's error matches.
	ErrPlanRejected = intelligence.ErrPlanRejected
)

// PlanError is the single error shape a planning cycle reports. Raw holds the
// model text when there was one. Schedule is the stored week, unchanged by
// the failed attempt; it is nil when the store could not be read.
type PlanError struct {
	Kind     PlanErrorKind
	Raw      string
	Schedule *domain.WeekSchedule
	Err      error
}

func (e *PlanError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

func (e *PlanError) Is(target error) bool {
	switch e.Kind {
	case KindModelCallFailed:
		return target == ErrModelCallFailed
	case KindPlanRejected:
		return target == ErrPlanRejected
	case KindStoreUnavailable:
		return target == ErrStoreUnavailable
	}
	return false
}

// RawOutput returns the model text attached to err, if any.
func RawOutput(err error) string {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Raw
	}
	return ""
}
