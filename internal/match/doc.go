// Package match correlates transactions with operation-log and departure
// records.
//
// An Index is built once per build run from the operation logs in scope and
// owns the run's dedup state. A Matcher walks the index for one transaction
// at a time, gating candidates by time and then applying the value rule that
// the transaction's category selects from the strategy table.
//
// Scan order is chronological and the first eligible candidate wins.
// Candidates are never re-ranked by closeness.
package match
