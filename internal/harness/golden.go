package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/shipledger/internal/classify"
)

// GoldenDir is where scenario golden files live, relative to the package
// under test.
const GoldenDir = "testdata/scenarios/golden"

// Snapshot renders the deterministic part of a scenario result: one line per
// build summary followed by one line per ledger row in transaction order.
// Durations and wall-clock ids are left out.
func Snapshot(scenarioName string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	for _, s := range result.Summaries {
		fmt.Fprintf(&buf, "%s full=%t new=%d rematched=%d total=%d operations=%d departures=%d\n",
			s.BuildID, s.FullRebuild, s.NewEntries, s.RematchedEntries, s.TotalEntries,
			s.MatchedOperationCount, s.MatchedDepartureCount)
	}
	for _, e := range result.Ledger {
		fmt.Fprintf(&buf, "%s %s %q %s %d pod2=%s pod3=%s matched=%t\n",
			e.Pod1ID, e.Context, e.ClassifiedKind, e.ClassifiedDirection, e.CashAmount,
			orDash(e.Pod2ID), orDash(e.Pod3ID),
			e.FullyMatched(classify.IsDepartureClass(e.Context)))
	}
	return buf.Bytes()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/scenarios/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Assertion failures and golden
// mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
