package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

// fullyMatchedSQL is the SQL form of model.LookupEntry.FullyMatched.
const fullyMatchedSQL = `(pod2_id IS NOT NULL AND (pod3_id IS NOT NULL OR departure_class = 0))`

const entryColumns = `id, timestamp, pod1_id, pod2_id, pod3_id,
	pod1_timestamp, pod2_timestamp, pod3_timestamp,
	pod2_vessel_snapshot, pod3_vessel_snapshot,
	cash_amount, cash_confirmed, classified_kind, classified_direction, context`

// MatchState is the ledger's match status captured once at the start of a build.
type MatchState struct {
	// FullyMatched holds pod1 ids whose rows are frozen.
	FullyMatched map[string]struct{}
	// NeedsRematch maps pod1 ids to rows still missing a required match.
	NeedsRematch map[string]model.LookupEntry
	// UsedOperationIDs holds pod2 ids already claimed by rows of
	// single-match contexts; they stay out of candidacy.
	UsedOperationIDs map[string]struct{}
}

// SnapshotMatchState reads the match status of every ledger row.
func (s *Store) SnapshotMatchState(ctx context.Context) (MatchState, error) {
	state := MatchState{
		FullyMatched:     make(map[string]struct{}),
		NeedsRematch:     make(map[string]model.LookupEntry),
		UsedOperationIDs: make(map[string]struct{}),
	}

	entries, err := s.ListEntries(ctx, ListFilter{})
	if err != nil {
		return MatchState{}, fmt.Errorf("snapshot match state: %w", err)
	}

	for _, e := range entries {
		if e.Pod2ID != "" && !classify.IsMultiMatch(e.Context) {
			state.UsedOperationIDs[e.Pod2ID] = struct{}{}
		}
		if e.FullyMatched(classify.IsDepartureClass(e.Context)) {
			state.FullyMatched[e.Pod1ID] = struct{}{}
			continue
		}
		state.NeedsRematch[e.Pod1ID] = e
	}

	return state, nil
}

// UpsertNew inserts a new ledger row.
// Uses ON CONFLICT(pod1_id) DO NOTHING: an existing row for the same
// transaction is left untouched and inserted=false is returned.
func (s *Store) UpsertNew(ctx context.Context, e model.LookupEntry) (bool, error) {
	pod2Snap, err := marshalSnapshot(e.Pod2VesselSnapshot)
	if err != nil {
		return false, fmt.Errorf("upsert entry %s: %w", e.Pod1ID, err)
	}
	pod3Snap, err := marshalSnapshot(e.Pod3VesselSnapshot)
	if err != nil {
		return false, fmt.Errorf("upsert entry %s: %w", e.Pod1ID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO lookup_entries
		(timestamp, pod1_id, pod2_id, pod3_id,
		 pod1_timestamp, pod2_timestamp, pod3_timestamp,
		 pod2_vessel_snapshot, pod3_vessel_snapshot,
		 cash_amount, cash_confirmed, classified_kind, classified_direction, context, departure_class)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(pod1_id) DO NOTHING
	`,
		e.Timestamp,
		e.Pod1ID,
		nullString(e.Pod2ID),
		nullString(e.Pod3ID),
		e.Pod1Timestamp,
		nullInt(e.Pod2Timestamp, e.Pod2ID != ""),
		nullInt(e.Pod3Timestamp, e.Pod3ID != ""),
		pod2Snap,
		pod3Snap,
		e.CashAmount,
		e.ClassifiedKind,
		string(e.ClassifiedDirection),
		e.Context,
		boolInt(classify.IsDepartureClass(e.Context)),
	)
	if err != nil {
		return false, fmt.Errorf("upsert entry %s: %w", e.Pod1ID, err)
	}
	return affected(res, "upsert entry")
}

// UpdatePartial fills the empty match columns of a row that is not yet fully
// matched. Columns that already hold a match are kept; cash and
// classification columns are never touched. Returns updated=false when the
// row does not exist or is already fully matched.
func (s *Store) UpdatePartial(ctx context.Context, pod1ID string, op *model.OperationMatch, dep *model.DepartureMatch) (bool, error) {
	var (
		pod2ID, pod3ID     sql.NullString
		pod2Ts, pod3Ts     sql.NullInt64
		pod2Snap, pod3Snap sql.NullString
		err                error
	)
	if op != nil {
		pod2ID = nullString(op.LogID)
		pod2Ts = nullInt(op.TimestampMs, true)
		if pod2Snap, err = marshalSnapshot(op.Vessel); err != nil {
			return false, fmt.Errorf("update entry %s: %w", pod1ID, err)
		}
	}
	if dep != nil {
		pod3ID = nullString(dep.DepartureID)
		pod3Ts = nullInt(dep.TimestampMs, true)
		if pod3Snap, err = marshalSnapshot(dep.Vessel); err != nil {
			return false, fmt.Errorf("update entry %s: %w", pod1ID, err)
		}
	}

	// SET expressions see the pre-update row, so every CASE tests the old value.
	res, err := s.db.ExecContext(ctx, `
		UPDATE lookup_entries SET
			pod2_id              = COALESCE(pod2_id, ?),
			pod2_timestamp       = CASE WHEN pod2_id IS NULL THEN ? ELSE pod2_timestamp END,
			pod2_vessel_snapshot = CASE WHEN pod2_id IS NULL THEN ? ELSE pod2_vessel_snapshot END,
			pod3_id              = COALESCE(pod3_id, ?),
			pod3_timestamp       = CASE WHEN pod3_id IS NULL THEN ? ELSE pod3_timestamp END,
			pod3_vessel_snapshot = CASE WHEN pod3_id IS NULL THEN ? ELSE pod3_vessel_snapshot END
		WHERE pod1_id = ? AND NOT `+fullyMatchedSQL,
		pod2ID, pod2Ts, pod2Snap,
		pod3ID, pod3Ts, pod3Snap,
		pod1ID,
	)
	if err != nil {
		return false, fmt.Errorf("update entry %s: %w", pod1ID, err)
	}
	return affected(res, "update entry")
}

// ClearAll drops and recreates the ledger table in one transaction.
// Only a full rebuild calls this.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear ledger: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS lookup_entries`); err != nil {
		return fmt.Errorf("clear ledger: drop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ledgerSQL); err != nil {
		return fmt.Errorf("clear ledger: recreate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear ledger: commit: %w", err)
	}
	return nil
}

// CountEntries returns the number of ledger rows.
func (s *Store) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookup_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CountMatched returns how many rows carry an operation match and how many
// carry a departure match.
func (s *Store) CountMatched(ctx context.Context) (ops, deps int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(pod2_id), COUNT(pod3_id) FROM lookup_entries
	`).Scan(&ops, &deps)
	if err != nil {
		return 0, 0, fmt.Errorf("count matched: %w", err)
	}
	return ops, deps, nil
}

// ListFilter narrows ListEntries. The zero value lists every row.
type ListFilter struct {
	UnmatchedOnly bool
	Context       string
	Limit         int
}

// ListEntries returns ledger rows ordered by transaction time, then pod1 id.
func (s *Store) ListEntries(ctx context.Context, f ListFilter) ([]model.LookupEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.UnmatchedOnly {
		where = append(where, "NOT "+fullyMatchedSQL)
	}
	if f.Context != "" {
		where = append(where, "context = ?")
		args = append(args, f.Context)
	}

	query := `SELECT ` + entryColumns + ` FROM lookup_entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY pod1_timestamp ASC, pod1_id COLLATE BINARY ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []model.LookupEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// GetEntry returns the ledger row for a transaction.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetEntry(ctx context.Context, pod1ID string) (model.LookupEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM lookup_entries WHERE pod1_id = ?`, pod1ID)
	if err != nil {
		return model.LookupEntry{}, fmt.Errorf("query entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.LookupEntry{}, fmt.Errorf("query entry: %w", err)
		}
		return model.LookupEntry{}, sql.ErrNoRows
	}
	return scanEntry(rows)
}

func scanEntry(rows *sql.Rows) (model.LookupEntry, error) {
	var (
		e                  model.LookupEntry
		pod2ID, pod3ID     sql.NullString
		pod2Ts, pod3Ts     sql.NullInt64
		pod2Snap, pod3Snap sql.NullString
		confirmed          int
		direction          string
	)

	if err := rows.Scan(
		&e.ID, &e.Timestamp, &e.Pod1ID, &pod2ID, &pod3ID,
		&e.Pod1Timestamp, &pod2Ts, &pod3Ts,
		&pod2Snap, &pod3Snap,
		&e.CashAmount, &confirmed, &e.ClassifiedKind, &direction, &e.Context,
	); err != nil {
		return model.LookupEntry{}, fmt.Errorf("scan entry: %w", err)
	}

	e.Pod2ID = pod2ID.String
	e.Pod3ID = pod3ID.String
	e.Pod2Timestamp = pod2Ts.Int64
	e.Pod3Timestamp = pod3Ts.Int64
	e.CashConfirmed = confirmed != 0
	e.ClassifiedDirection = model.Direction(direction)

	var err error
	if e.Pod2VesselSnapshot, err = unmarshalSnapshot(pod2Snap); err != nil {
		return model.LookupEntry{}, fmt.Errorf("entry %s: %w", e.Pod1ID, err)
	}
	if e.Pod3VesselSnapshot, err = unmarshalSnapshot(pod3Snap); err != nil {
		return model.LookupEntry{}, fmt.Errorf("entry %s: %w", e.Pod1ID, err)
	}

	return e, nil
}
