package domain

import "time"

// PlanMode selects how a planning request is handled.
type PlanMode string

const (
	// PlanModeSmart builds a prompt, calls the model and replaces the week.
	PlanModeSmart PlanMode = "smart"
	// PlanModeSave only persists the long-term plan; the model is not called.
	PlanModeSave PlanMode = "save"
)

// ParsePlanMode maps user input to a mode; anything unknown is smart.
func ParsePlanMode(s string) PlanMode {
	if PlanMode(s) == PlanModeSave {
		return PlanModeSave
	}
	return PlanModeSmart
}

// PlanRunStatus is the outcome of one reconciliation attempt.
type PlanRunStatus string

const (
	PlanRunApplied     PlanRunStatus = "applied"
	PlanRunRejected    PlanRunStatus = "rejected"
	PlanRunModelFailed PlanRunStatus = "model_failed"
	PlanRunStoreFailed PlanRunStatus = "store_failed"
	PlanRunSaved       PlanRunStatus = "saved"
)

// PlanRun is the audit record of one planning attempt, kept so the raw model
// output can be inspected after the fact.
type PlanRun struct {
	ID           string
	Mode         PlanMode
	Request      string
	LongTermPlan string
	Raw          string
	Status       PlanRunStatus
	Error        string
	ItemCount    int
	CreatedAt    time.Time
}
