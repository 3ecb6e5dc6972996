// Package store provides SQLite-backed storage for the three source logs and
// the reconciled ledger.
//
// The store holds:
//   - transactions: the authoritative cash ledger (POD1), append-only
//   - operation_logs: automated/manual operations (POD2), append-only
//   - departures: vessel departure events (POD3), append-only
//   - lookup_entries: the reconciled ledger, owned by the build engine
//
// # Critical Patterns
//
// One ledger row per transaction:
//   - UNIQUE(pod1_id) on lookup_entries
//   - UpsertNew uses ON CONFLICT(pod1_id) DO NOTHING, so retries never duplicate
//
// Matched rows are frozen:
//   - UpdatePartial only fills empty match columns and only while the row is
//     not fully matched; the guard lives in the UPDATE's WHERE clause
//   - cash_amount, classification and context are never updated
//
// Deterministic reads:
//   - Source queries ORDER BY timestamp ASC, id ASC COLLATE BINARY
//   - Ledger queries ORDER BY pod1_timestamp ASC, pod1_id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Every mutation is a single autocommitted statement, or one explicit
// transaction for ClearAll, so a build that dies midway leaves only complete rows.
package store
