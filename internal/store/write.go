package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

// AppendTransaction inserts a transaction into the source log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently
// ignored and reported as inserted=false.
func (s *Store) AppendTransaction(ctx context.Context, tx model.TransactionRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, timestamp_sec, context, cash_delta)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, tx.ID, tx.TimestampSec, tx.Context, tx.CashDelta)
	if err != nil {
		return false, fmt.Errorf("append transaction: %w", err)
	}
	return affected(res, "append transaction")
}

// AppendOperationLog inserts an operation-log record.
// The detail payload is parsed before writing so that malformed payloads are
// rejected at ingestion instead of failing a later build.
func (s *Store) AppendOperationLog(ctx context.Context, rec model.OperationLogRecord) (bool, error) {
	if _, err := model.ParseDetails(classify.DetailsKindFor(rec.OperationName), rec.DetailsRaw); err != nil {
		return false, fmt.Errorf("append operation log %s: %w", rec.ID, err)
	}

	var details sql.NullString
	if len(rec.DetailsRaw) > 0 {
		details = sql.NullString{String: string(rec.DetailsRaw), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO operation_logs (id, timestamp_ms, operation_name, status, summary, details)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.TimestampMs, rec.OperationName, rec.Status, rec.Summary, details)
	if err != nil {
		return false, fmt.Errorf("append operation log: %w", err)
	}
	return affected(res, "append operation log")
}

// AppendDeparture inserts a departure record.
func (s *Store) AppendDeparture(ctx context.Context, d model.DepartureRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO departures
		(id, timestamp_ms, vessel_id, vessel_name, origin, destination, route_name, income, harbor_fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		d.ID,
		d.TimestampMs,
		d.VesselID,
		d.VesselName,
		d.Origin,
		d.Destination,
		d.RouteName,
		d.Income,
		d.HarborFee,
	)
	if err != nil {
		return false, fmt.Errorf("append departure: %w", err)
	}
	return affected(res, "append departure")
}

func affected(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n > 0, nil
}
