// Package harness runs ledger scenarios: scripted sequences of source
// imports and builds checked by assertions and a golden ledger snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	now_ms: 1700000000000   # optional; fixes the clock for window_days
//	steps:
//	  - import:
//	      transactions: [...]
//	      operation_logs: [...]
//	      departures: [...]
//	  - build: {full: false, window_days: 0}
//	assertions:
//	  - type: entry
//	    pod1: t1
//	    expect: {pod2_id: l1, fully_matched: true}
//	  - type: unmatched
//	    ids: [t3]
//	  - type: summary
//	    build: 1
//	    expect: {new_entries: 3}
//	  - type: stage_order
//	    build: 1
//	    stages: [loading, matching, finalizing]
//
// # Assertion Types
//
//   - entry: a ledger row has the expected field values (subset match)
//   - unmatched: exactly these rows are not fully matched
//   - summary: the Nth build's summary has the expected values (subset match)
//   - stage_order: the Nth build reported progress for these stages in order
//
// # Golden Snapshots
//
// Snapshot renders the build summaries and the final ledger as text, without
// durations, so it is identical across runs. Build ids come from a fixed
// generator ("build-1", "build-2", ...).
//
// Each scenario runs against a fresh store in a temporary directory.
package harness
