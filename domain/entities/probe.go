package entities

import "time"

// ProbeOutcome represents how a step ended
type ProbeOutcome string

const (
	OutcomePassed  ProbeOutcome = "passed"
	OutcomeFailed  ProbeOutcome = "failed"
	OutcomeSkipped ProbeOutcome = "skipped"
)

// ProbeResult represents the result of one step
type ProbeResult struct {
	Name     string        `json:"name"`
	Kind     StepKind      `json:"kind"`
	Outcome  ProbeOutcome  `json:"outcome"`
	Required bool          `json:"required"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
	Artifact string        `json:"artifact,omitempty"`
}

// Blocking reports whether this result makes the run fail
func (r ProbeResult) Blocking() bool {
	return r.Required && r.Outcome != OutcomePassed
}
