package sandbox

import "time"

// Channel tags a captured output line
type Channel string

const (
	ChannelLog   Channel = "log"
	ChannelWarn  Channel = "warn"
	ChannelError Channel = "error"
)

// OutputLine is one captured console line
type OutputLine struct {
	Channel Channel `json:"channel"`
	Text    string  `json:"text"`
}

// TestResult is the outcome of a single assertion
type TestResult struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message,omitempty"`
}

// RunResult is the full outcome of a playground run
type RunResult struct {
	OK       bool          `json:"ok"`
	Lines    []OutputLine  `json:"lines"`
	Tests    []TestResult  `json:"tests,omitempty"`
	Preview  string        `json:"preview,omitempty"` // markup languages only
	TimedOut bool          `json:"timed_out,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Passed reports whether every assertion passed. A run with no assertions
// never counts as passed.
func (r *RunResult) Passed() bool {
	if len(r.Tests) == 0 {
		return false
	}
	for _, t := range r.Tests {
		if !t.Passed {
			return false
		}
	}
	return true
}
