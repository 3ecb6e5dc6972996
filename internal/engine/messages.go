package engine

import "time"

// Message is sent from a running build to its coordinator.
// It is one of Progress, Completed or Failed.
type Message interface {
	// Sequence is the message's position on its build's channel, from 1.
	Sequence() int64
	message()
}

// Stage names the phase a Progress message reports on.
type Stage string

const (
	StageLoading    Stage = "loading"
	StageIndexing   Stage = "indexing"
	StageMatching   Stage = "matching"
	StageFinalizing Stage = "finalizing"
)

// Progress is a periodic snapshot of a running build.
// Processed and Total are only set during matching.
type Progress struct {
	Seq       int64  `json:"seq"`
	BuildID   string `json:"build_id"`
	Stage     Stage  `json:"stage"`
	Percent   int    `json:"percent"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
}

// Completed is the terminal message of a successful build.
type Completed struct {
	Seq     int64   `json:"seq"`
	Summary Summary `json:"summary"`
}

// Failed is the terminal message of a failed build.
type Failed struct {
	Seq int64       `json:"seq"`
	Err *BuildError `json:"-"`
}

func (m Progress) Sequence() int64  { return m.Seq }
func (m Completed) Sequence() int64 { return m.Seq }
func (m Failed) Sequence() int64    { return m.Seq }

func (Progress) message()  {}
func (Completed) message() {}
func (Failed) message()    {}

// Kind returns the failure category.
func (m Failed) Kind() FailureKind { return m.Err.Kind }

// Message returns the failure text shown to the coordinator.
func (m Failed) Message() string { return m.Err.Message }

// Summary describes a finished build.
type Summary struct {
	BuildID               string        `json:"build_id"`
	FullRebuild           bool          `json:"full_rebuild"`
	NewEntries            int           `json:"new_entries"`
	RematchedEntries      int           `json:"rematched_entries"`
	TotalEntries          int           `json:"total_entries"`
	MatchedOperationCount int           `json:"matched_operation_count"`
	MatchedDepartureCount int           `json:"matched_departure_count"`
	TransactionCount      int           `json:"transaction_count"`
	OperationLogCount     int           `json:"operation_log_count"`
	DepartureCount        int           `json:"departure_count"`
	Duration              time.Duration `json:"duration_ns"`
}
