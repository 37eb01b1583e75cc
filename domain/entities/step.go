package entities

import "time"

// StepKind represents the type of probe a step performs
type StepKind string

const (
	StepNavigate        StepKind = "navigate"
	StepWaitForSelector StepKind = "wait_for_selector"
	StepExpectVisible   StepKind = "expect_visible"
	StepClick           StepKind = "click"
	StepPress           StepKind = "press"
	StepType            StepKind = "type"
	StepPause           StepKind = "pause"
	StepWaitForText     StepKind = "wait_for_text"
	StepEvaluate        StepKind = "evaluate"
	StepScreenshot      StepKind = "screenshot"
)

// Step represents a single probe issued against the page under test
type Step struct {
	Name     string        `json:"name" yaml:"name"`
	Kind     StepKind      `json:"kind" yaml:"kind"`
	Selector string        `json:"selector,omitempty" yaml:"selector,omitempty"`
	Keys     string        `json:"keys,omitempty" yaml:"keys,omitempty"`
	Text     string        `json:"text,omitempty" yaml:"text,omitempty"`
	// Script may hold several statements; the value of the last one is returned.
	Script   string        `json:"script,omitempty" yaml:"script,omitempty"`
	Path     string        `json:"path,omitempty" yaml:"path,omitempty"`
	URL      string        `json:"url,omitempty" yaml:"url,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	Pattern  string        `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Reject   string        `json:"reject,omitempty" yaml:"reject,omitempty"`

	// Critical steps stop the sequence when they fail.
	Critical bool `json:"critical,omitempty" yaml:"critical,omitempty"`
	// Required steps make the run fail when they fail; the rest are soft.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// Label returns the step name, falling back to kind and selector
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Selector != "" {
		return string(s.Kind) + " " + s.Selector
	}
	return string(s.Kind)
}

// Scenario is an ordered list of steps executed once per session
type Scenario struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}
