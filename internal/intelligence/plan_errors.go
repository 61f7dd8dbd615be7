package intelligence

import (
	"errors"
	"fmt"
)

// RejectKind says why model output was rejected as a whole.
type RejectKind string

const (
	RejectNoArrayFound  RejectKind = "no_array_found"
	RejectMalformedJSON RejectKind = "malformed_json"
	RejectNotAList      RejectKind = "not_a_list"
	RejectEmptyResult   RejectKind = "empty_result"
)

var (
	// ErrPlanRejected matches every *PlanRejectedError.
	ErrPlanRejected = errors.New("plan rejected")

	ErrNoArrayFound  = errors.New("no JSON array found in model output")
	ErrMalformedJSON = errors.New("model output is not valid JSON")
	ErrNotAList      = errors.New("model output is not a JSON array")
	ErrEmptyResult   = errors.New("model output contains no valid schedule entries")
)

var rejectSentinels = map[RejectKind]error{
	RejectNoArrayFound:  ErrNoArrayFound,
	RejectMalformedJSON: ErrMalformedJSON,
	RejectNotAList:      ErrNotAList,
	RejectEmptyResult:   ErrEmptyResult,
}

// PlanRejectedError reports model output that produced no usable items.
// errors.Is matches ErrPlanRejected and the sentinel of Kind.
type PlanRejectedError struct {
	Kind    RejectKind
	Detail  string
	Skipped []SkippedEntry
	cause   error
}

func newRejected(kind RejectKind, detail string, cause error) *PlanRejectedError {
	return &PlanRejectedError{Kind: kind, Detail: detail, cause: cause}
}

func (e *PlanRejectedError) Error() string {
	msg := "plan rejected: " + rejectSentinels[e.Kind].Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if n := len(e.Skipped); n > 0 {
		msg += fmt.Sprintf(" (%d entries skipped)", n)
	}
	return msg
}

func (e *PlanRejectedError) Is(target error) bool {
	return target == ErrPlanRejected || target == rejectSentinels[e.Kind]
}

// Unwrap exposes the decoder error for malformed JSON.
func (e *PlanRejectedError) Unwrap() error {
	return e.cause
}
