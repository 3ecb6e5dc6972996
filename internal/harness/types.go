package harness

import (
	"github.com/roach88/shipledger/internal/engine"
	"github.com/roach88/shipledger/internal/model"
)

// TraceEvent is one message received from a build.
type TraceEvent struct {
	Build   int    `json:"build"` // 1-based build index
	Type    string `json:"type"`  // "progress", "completed" or "failed"
	Seq     int64  `json:"seq"`
	Stage   string `json:"stage,omitempty"`
	Percent int    `json:"percent,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every build message in order of receipt.
	Trace []TraceEvent `json:"trace"`

	// Summaries holds one summary per build, in step order.
	Summaries []engine.Summary `json:"summaries"`

	// Ledger is the final ledger in transaction order.
	Ledger []model.LookupEntry `json:"ledger"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addMessage records a build message in the trace.
func (r *Result) addMessage(build int, msg engine.Message) {
	ev := TraceEvent{Build: build, Seq: msg.Sequence()}
	switch m := msg.(type) {
	case engine.Progress:
		ev.Type = "progress"
		ev.Stage = string(m.Stage)
		ev.Percent = m.Percent
	case engine.Completed:
		ev.Type = "completed"
		r.Summaries = append(r.Summaries, m.Summary)
	case engine.Failed:
		ev.Type = "failed"
	}
	r.Trace = append(r.Trace, ev)
}
