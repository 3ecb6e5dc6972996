package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shipledger/internal/engine"
	"github.com/roach88/shipledger/internal/model"
)

func sampleLedger() []model.LookupEntry {
	return []model.LookupEntry{
		{
			Pod1ID:              "t1",
			Pod2ID:              "l2",
			Pod2VesselSnapshot:  &model.VesselSnapshot{VesselID: 7},
			Context:             "vessels_departed",
			ClassifiedKind:      "Departure",
			ClassifiedDirection: model.DirectionIncome,
			CashAmount:          1200,
			CashConfirmed:       true,
		},
		{
			Pod1ID:              "t2",
			Pod2ID:              "l1",
			Context:             "fuel_purchased",
			ClassifiedKind:      "Fuel",
			ClassifiedDirection: model.DirectionExpense,
			CashAmount:          -500,
			CashConfirmed:       true,
		},
	}
}

func TestAssertEntry(t *testing.T) {
	ledger := sampleLedger()

	err := assertEntry(ledger, Assertion{Pod1: "t1", Expect: map[string]interface{}{
		"pod2_id":              "l2",
		"pod3_id":              "",
		"pod2_vessel_id":       7,
		"pod3_vessel_id":       nil,
		"cash_amount":          1200,
		"classified_direction": "INCOME",
		"fully_matched":        false,
	}})
	assert.NoError(t, err)

	err = assertEntry(ledger, Assertion{Pod1: "t2", Expect: map[string]interface{}{"fully_matched": true}})
	assert.NoError(t, err)
}

func TestAssertEntry_Failures(t *testing.T) {
	ledger := sampleLedger()

	err := assertEntry(ledger, Assertion{Pod1: "t9", Expect: map[string]interface{}{"pod2_id": "l1"}})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "row not found", aerr.Actual)

	err = assertEntry(ledger, Assertion{Pod1: "t1", Expect: map[string]interface{}{"cash_amount": 1000}})
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Expected, `field "cash_amount" = 1000`)
	assert.Contains(t, aerr.Actual, "1200")

	err = assertEntry(ledger, Assertion{Pod1: "t1", Expect: map[string]interface{}{"nonsense": 1}})
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Actual, `unknown field "nonsense"`)
}

func TestAssertUnmatched(t *testing.T) {
	ledger := sampleLedger()

	assert.NoError(t, assertUnmatched(ledger, Assertion{IDs: []string{"t1"}}))
	assert.Error(t, assertUnmatched(ledger, Assertion{IDs: []string{}}))
	assert.Error(t, assertUnmatched(ledger, Assertion{IDs: []string{"t1", "t2"}}))
}

func TestAssertSummary(t *testing.T) {
	summaries := []engine.Summary{
		{NewEntries: 3, TotalEntries: 3},
		{RematchedEntries: 1, TotalEntries: 3, FullRebuild: true},
	}

	assert.NoError(t, assertSummary(summaries, Assertion{Build: 2, Expect: map[string]interface{}{
		"rematched_entries": 1,
		"full_rebuild":      true,
	}}))
	assert.Error(t, assertSummary(summaries, Assertion{Build: 1, Expect: map[string]interface{}{"new_entries": 2}}))

	err := assertSummary(summaries, Assertion{Build: 3, Expect: map[string]interface{}{"new_entries": 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 builds completed")
}

func TestAssertStageOrder(t *testing.T) {
	trace := []TraceEvent{
		{Build: 1, Type: "progress", Seq: 1, Stage: "loading"},
		{Build: 1, Type: "progress", Seq: 2, Stage: "indexing"},
		{Build: 1, Type: "progress", Seq: 3, Stage: "matching"},
		{Build: 1, Type: "completed", Seq: 4},
		{Build: 2, Type: "progress", Seq: 1, Stage: "finalizing"},
	}

	assert.NoError(t, assertStageOrder(trace, Assertion{Build: 1, Stages: []string{"loading", "matching"}}))

	err := assertStageOrder(trace, Assertion{Build: 1, Stages: []string{"matching", "loading"}})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Actual, "loading")
	assert.Len(t, aerr.Trace, 3)
	assert.Contains(t, err.Error(), "Build trace:")

	assert.Error(t, assertStageOrder(trace, Assertion{Build: 1, Stages: []string{"finalizing"}}))
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{Ledger: sampleLedger(), Summaries: []engine.Summary{{NewEntries: 2}}}

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertUnmatched, IDs: []string{"t1"}},
		{Type: AssertSummary, Build: 1, Expect: map[string]interface{}{"new_entries": 5}},
		{Type: "bogus"},
	})

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[1], `assertions[2]: unknown assertion type "bogus"`)
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"int vs int64", 5, int64(5), true},
		{"int mismatch", 5, int64(6), false},
		{"int64", int64(5), int64(5), true},
		{"string", "l1", "l1", true},
		{"string vs int", "5", int64(5), false},
		{"bool", true, true, true},
		{"nil vs empty string", nil, "", true},
		{"nil vs nil", nil, nil, true},
		{"nil vs value", nil, int64(7), false},
		{"value vs nil", 7, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.expected, tt.actual))
		})
	}
}
