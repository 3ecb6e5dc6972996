package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

// ReadTransactions returns transactions at or after since, oldest first.
// A zero since reads the whole log.
func (s *Store) ReadTransactions(ctx context.Context, since time.Time) ([]model.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_sec, context, cash_delta
		FROM transactions
		WHERE timestamp_sec >= ?
		ORDER BY timestamp_sec ASC, id COLLATE BINARY ASC
	`, sinceSeconds(since))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []model.TransactionRecord{}
	for rows.Next() {
		var tx model.TransactionRecord
		if err := rows.Scan(&tx.ID, &tx.TimestampSec, &tx.Context, &tx.CashDelta); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// ReadOperationLogs returns operation-log records at or after since, oldest
// first, with their detail payloads parsed. A malformed payload is an error.
func (s *Store) ReadOperationLogs(ctx context.Context, since time.Time) ([]model.OperationLogRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_ms, operation_name, status, summary, details
		FROM operation_logs
		WHERE timestamp_ms >= ?
		ORDER BY timestamp_ms ASC, id COLLATE BINARY ASC
	`, sinceMillis(since))
	if err != nil {
		return nil, fmt.Errorf("query operation logs: %w", err)
	}
	defer rows.Close()

	logs := []model.OperationLogRecord{}
	for rows.Next() {
		rec, err := scanOperationLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation logs: %w", err)
	}

	return logs, nil
}

// ReadDepartures returns departure records at or after since, oldest first.
func (s *Store) ReadDepartures(ctx context.Context, since time.Time) ([]model.DepartureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_ms, vessel_id, vessel_name, origin, destination, route_name, income, harbor_fee
		FROM departures
		WHERE timestamp_ms >= ?
		ORDER BY timestamp_ms ASC, id COLLATE BINARY ASC
	`, sinceMillis(since))
	if err != nil {
		return nil, fmt.Errorf("query departures: %w", err)
	}
	defer rows.Close()

	deps := []model.DepartureRecord{}
	for rows.Next() {
		var d model.DepartureRecord
		if err := rows.Scan(
			&d.ID, &d.TimestampMs, &d.VesselID, &d.VesselName,
			&d.Origin, &d.Destination, &d.RouteName, &d.Income, &d.HarborFee,
		); err != nil {
			return nil, fmt.Errorf("scan departure: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departures: %w", err)
	}

	return deps, nil
}

func scanOperationLog(rows *sql.Rows) (model.OperationLogRecord, error) {
	var rec model.OperationLogRecord
	var details sql.NullString

	if err := rows.Scan(
		&rec.ID, &rec.TimestampMs, &rec.OperationName, &rec.Status, &rec.Summary, &details,
	); err != nil {
		return model.OperationLogRecord{}, fmt.Errorf("scan operation log: %w", err)
	}

	if details.Valid {
		rec.DetailsRaw = []byte(details.String)
	}
	parsed, err := model.ParseDetails(classify.DetailsKindFor(rec.OperationName), rec.DetailsRaw)
	if err != nil {
		return model.OperationLogRecord{}, fmt.Errorf("operation log %s: %w", rec.ID, err)
	}
	rec.Details = parsed

	return rec, nil
}

func sinceSeconds(since time.Time) int64 {
	if since.IsZero() {
		return 0
	}
	return since.Unix()
}

func sinceMillis(since time.Time) int64 {
	if since.IsZero() {
		return 0
	}
	return since.UnixMilli()
}
