// Package engine runs ledger builds.
//
// A build reads the three source logs, indexes the operation log, matches
// every transaction in chronological order and writes the results to the
// ledger table. Builds run on a worker goroutine owned by a Host and report
// back over a channel of Message values:
//
//	Progress*  (Completed | Failed)
//
// Progress percentages never decrease and the terminal message is always
// last; the channel is closed after it.
//
// HOST STATES:
//
//	Idle -> Starting -> LoadingSources -> BuildingIndex -> Matching -> Finalizing -> Completed
//	                 \________________\______________\___________\___________\-> Failed
//
// Starting fails fast when the store does not exist. A build is not
// cancellable once started.
//
// CONCURRENCY:
//
// The engine performs no locking of its own. A Coordinator enforces at most
// one build per store; overlapping requests get ErrBuildInProgress. Every
// ledger write is an independent idempotent statement, so a failed build
// leaves the ledger valid and the next build resumes from it.
package engine
