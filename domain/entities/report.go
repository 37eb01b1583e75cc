package entities

import "time"

// Report is the machine-readable outcome of one scenario run
type Report struct {
	RunID      string         `json:"run_id"`
	Scenario   string         `json:"scenario"`
	Target     string         `json:"target"`
	Backend    string         `json:"backend"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Probes     []ProbeResult  `json:"probes"`
	Artifacts  []string       `json:"artifacts"`
	Console    []ConsoleEvent `json:"console,omitempty"`
	Error      string         `json:"error,omitempty"`
	Passed     bool           `json:"passed"`
}

// Failures returns the probes that make the run fail
func (r *Report) Failures() []ProbeResult {
	var failed []ProbeResult
	for _, p := range r.Probes {
		if p.Blocking() {
			failed = append(failed, p)
		}
	}
	return failed
}

// Count returns how many probes ended with the given outcome
func (r *Report) Count(outcome ProbeOutcome) int {
	n := 0
	for _, p := range r.Probes {
		if p.Outcome == outcome {
			n++
		}
	}
	return n
}

// Finish stamps the end time and computes Passed
func (r *Report) Finish(at time.Time) {
	r.FinishedAt = at
	r.Passed = r.Error == "" && len(r.Failures()) == 0
}
