package models

import "time"

// CheckResult is the outcome of one invariant checker.
type CheckResult struct {
	Name        string   `json:"name" msgpack:"name"`
	Passed      bool     `json:"passed" msgpack:"passed"`
	Diagnostics []string `json:"diagnostics" msgpack:"diagnostics"`
}

// NewCheckResult creates a passing result with no diagnostics.
func NewCheckResult(name string) CheckResult {
	return CheckResult{
		Name:        name,
		Passed:      true,
		Diagnostics: make([]string, 0),
	}
}

// Fail appends a diagnostic and marks the result failed.
func (r *CheckResult) Fail(diagnostic string) {
	r.Passed = false
	r.Diagnostics = append(r.Diagnostics, diagnostic)
}

// Note appends a diagnostic without changing the verdict.
func (r *CheckResult) Note(diagnostic string) {
	r.Diagnostics = append(r.Diagnostics, diagnostic)
}

// Report aggregates every checker run against one log.
type Report struct {
	RunID         string        `json:"runId" msgpack:"runId"`
	Source        string        `json:"source" msgpack:"source"`
	StartedAt     time.Time     `json:"startedAt" msgpack:"startedAt"`
	DurationMs    int64         `json:"durationMs" msgpack:"durationMs"`
	Passed        bool          `json:"passed" msgpack:"passed"`
	EventCount    int           `json:"eventCount" msgpack:"eventCount"`
	RejectedLines []ParseError  `json:"rejectedLines,omitempty" msgpack:"rejectedLines,omitempty"`
	Results       []CheckResult `json:"results" msgpack:"results"`
}

// Result returns the named check result.
func (r *Report) Result(name string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return CheckResult{}, false
}

// Failed returns the names of failing checks in report order.
func (r *Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Passed {
			names = append(names, res.Name)
		}
	}
	return names
}
