package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/engine"
	"github.com/roach88/shipledger/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Build trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nBuild trace:\n")
		for _, event := range e.Trace {
			if event.Type == "progress" {
				fmt.Fprintf(&buf, "  [build %d #%d] %s %d%%\n", event.Build, event.Seq, event.Stage, event.Percent)
			} else {
				fmt.Fprintf(&buf, "  [build %d #%d] %s\n", event.Build, event.Seq, event.Type)
			}
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages, prefixed with the assertion index.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEntry:
			err = assertEntry(result.Ledger, a)
		case AssertUnmatched:
			err = assertUnmatched(result.Ledger, a)
		case AssertSummary:
			err = assertSummary(result.Summaries, a)
		case AssertStageOrder:
			err = assertStageOrder(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// entryFields flattens a ledger row into the field names entry assertions use.
func entryFields(e model.LookupEntry) map[string]interface{} {
	fields := map[string]interface{}{
		"pod2_id":              e.Pod2ID,
		"pod3_id":              e.Pod3ID,
		"context":              e.Context,
		"classified_kind":      e.ClassifiedKind,
		"classified_direction": string(e.ClassifiedDirection),
		"cash_amount":          e.CashAmount,
		"cash_confirmed":       e.CashConfirmed,
		"fully_matched":        e.FullyMatched(classify.IsDepartureClass(e.Context)),
		"pod2_vessel_id":       nil,
		"pod3_vessel_id":       nil,
	}
	if e.Pod2VesselSnapshot != nil {
		fields["pod2_vessel_id"] = e.Pod2VesselSnapshot.VesselID
	}
	if e.Pod3VesselSnapshot != nil {
		fields["pod3_vessel_id"] = e.Pod3VesselSnapshot.VesselID
	}
	return fields
}

// summaryFields flattens a build summary. Duration and build id are left out:
// the first varies run to run and the second is fixed by the harness.
func summaryFields(s engine.Summary) map[string]interface{} {
	return map[string]interface{}{
		"full_rebuild":            s.FullRebuild,
		"new_entries":             int64(s.NewEntries),
		"rematched_entries":       int64(s.RematchedEntries),
		"total_entries":           int64(s.TotalEntries),
		"matched_operation_count": int64(s.MatchedOperationCount),
		"matched_departure_count": int64(s.MatchedDepartureCount),
		"transaction_count":       int64(s.TransactionCount),
		"operation_log_count":     int64(s.OperationLogCount),
		"departure_count":         int64(s.DepartureCount),
	}
}

// assertEntry checks the fields of one ledger row (subset match).
func assertEntry(ledger []model.LookupEntry, a Assertion) error {
	for _, e := range ledger {
		if e.Pod1ID == a.Pod1 {
			return compareFields(AssertEntry, "row "+a.Pod1, entryFields(e), a.Expect)
		}
	}
	return &AssertionError{
		Type:     AssertEntry,
		Expected: fmt.Sprintf("ledger row for %s", a.Pod1),
		Actual:   "row not found",
	}
}

// assertUnmatched checks the exact set of rows that are not fully matched.
func assertUnmatched(ledger []model.LookupEntry, a Assertion) error {
	var actual []string
	for _, e := range ledger {
		if !e.FullyMatched(classify.IsDepartureClass(e.Context)) {
			actual = append(actual, e.Pod1ID)
		}
	}
	expected := append([]string(nil), a.IDs...)
	sort.Strings(actual)
	sort.Strings(expected)

	if strings.Join(actual, ",") != strings.Join(expected, ",") {
		return &AssertionError{
			Type:     AssertUnmatched,
			Expected: fmt.Sprintf("unmatched rows %v", expected),
			Actual:   fmt.Sprintf("unmatched rows %v", actual),
		}
	}
	return nil
}

// assertSummary checks one build's summary (subset match).
func assertSummary(summaries []engine.Summary, a Assertion) error {
	if a.Build > len(summaries) {
		return &AssertionError{
			Type:     AssertSummary,
			Expected: fmt.Sprintf("summary for build %d", a.Build),
			Actual:   fmt.Sprintf("%d builds completed", len(summaries)),
		}
	}
	return compareFields(AssertSummary, fmt.Sprintf("build %d", a.Build), summaryFields(summaries[a.Build-1]), a.Expect)
}

// assertStageOrder checks that the stages appear in the build's progress
// messages in the given order. Stages need not be consecutive.
func assertStageOrder(trace []TraceEvent, a Assertion) error {
	var seen []TraceEvent
	for _, ev := range trace {
		if ev.Build == a.Build && ev.Type == "progress" {
			seen = append(seen, ev)
		}
	}

	next := 0
	for _, ev := range seen {
		if next < len(a.Stages) && ev.Stage == a.Stages[next] {
			next++
		}
	}
	if next < len(a.Stages) {
		return &AssertionError{
			Type:     AssertStageOrder,
			Expected: fmt.Sprintf("stages in order: %v", a.Stages),
			Actual:   fmt.Sprintf("stage %s not reached in order", a.Stages[next]),
			Trace:    seen,
		}
	}
	return nil
}

// compareFields checks every expected key against actual. Keys are checked
// in sorted order so the first reported failure is deterministic.
func compareFields(kind, subject string, actual, expect map[string]interface{}) error {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("%s field %q to exist", subject, key),
				Actual:   fmt.Sprintf("unknown field %q", key),
			}
		}
		if !valuesEqual(expect[key], actualValue) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("%s field %q = %v (type %T)", subject, key, expect[key], expect[key]),
				Actual:   fmt.Sprintf("%s field %q = %v (type %T)", subject, key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// valuesEqual compares a YAML-decoded expected value with an actual field.
// YAML integers decode as int; ledger fields are int64. An expected empty
// string matches a missing id.
func valuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil {
		s, ok := actual.(string)
		return ok && s == ""
	}
	if actual == nil {
		return false
	}

	switch exp := expected.(type) {
	case int:
		if actualInt, ok := actual.(int64); ok {
			return int64(exp) == actualInt
		}
		return false
	case int64:
		if actualInt, ok := actual.(int64); ok {
			return exp == actualInt
		}
		return false
	case string:
		if actualStr, ok := actual.(string); ok {
			return exp == actualStr
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}
