package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/shipledger/internal/model"
	"github.com/roach88/shipledger/internal/store"
)

// Sources is a set of source records to seed a store with.
type Sources struct {
	Transactions  []model.TransactionRecord
	OperationLogs []model.OperationLogRecord
	Departures    []model.DepartureRecord
}

// Tx builds a transaction record.
func Tx(id string, tsSec int64, context string, cash int64) model.TransactionRecord {
	return model.TransactionRecord{ID: id, TimestampSec: tsSec, Context: context, CashDelta: cash}
}

// OpLog builds an operation-log record with a raw JSON payload. The payload is
// parsed when the record is read back from a store.
func OpLog(id string, tsMs int64, operation, details string) model.OperationLogRecord {
	return model.OperationLogRecord{
		ID:            id,
		TimestampMs:   tsMs,
		OperationName: operation,
		Status:        "success",
		DetailsRaw:    []byte(details),
	}
}

// Departure builds a departure record.
func Departure(id string, tsMs, vesselID, income, harborFee int64) model.DepartureRecord {
	return model.DepartureRecord{
		ID:          id,
		TimestampMs: tsMs,
		VesselID:    vesselID,
		Income:      income,
		HarborFee:   harborFee,
	}
}

// NewStorePath creates an empty store in a temp dir and returns its path.
// The store is closed again so a build can open it.
func NewStorePath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("store.Close() failed: %v", err)
	}
	return path
}

// Seed appends src to the store at path.
func Seed(t *testing.T, path string, src Sources) {
	t.Helper()
	WithStore(t, path, func(st *store.Store) {
		ctx := context.Background()
		for _, tx := range src.Transactions {
			if _, err := st.AppendTransaction(ctx, tx); err != nil {
				t.Fatalf("AppendTransaction(%s) failed: %v", tx.ID, err)
			}
		}
		for _, rec := range src.OperationLogs {
			if _, err := st.AppendOperationLog(ctx, rec); err != nil {
				t.Fatalf("AppendOperationLog(%s) failed: %v", rec.ID, err)
			}
		}
		for _, d := range src.Departures {
			if _, err := st.AppendDeparture(ctx, d); err != nil {
				t.Fatalf("AppendDeparture(%s) failed: %v", d.ID, err)
			}
		}
	})
}

// WithStore opens the store at path, runs fn and closes it.
func WithStore(t *testing.T, path string, fn func(st *store.Store)) {
	t.Helper()
	st, err := store.OpenExisting(path)
	if err != nil {
		t.Fatalf("store.OpenExisting() failed: %v", err)
	}
	defer st.Close()
	fn(st)
}

// Ledger returns every ledger row of the store at path.
func Ledger(t *testing.T, path string) []model.LookupEntry {
	t.Helper()
	var entries []model.LookupEntry
	WithStore(t, path, func(st *store.Store) {
		var err error
		entries, err = st.ListEntries(context.Background(), store.ListFilter{})
		if err != nil {
			t.Fatalf("ListEntries() failed: %v", err)
		}
	})
	return entries
}
