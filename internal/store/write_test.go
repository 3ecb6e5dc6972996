package store

import (
	"context"
	"testing"

	"github.com/roach88/shipledger/internal/model"
)

func TestAppendTransaction_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tx := model.TransactionRecord{ID: "t1", TimestampSec: 1000, Context: "fuel_purchased", CashDelta: -500}

	inserted, err := s.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("first AppendTransaction() failed: %v", err)
	}
	if !inserted {
		t.Error("first AppendTransaction() inserted = false, want true")
	}

	tx.CashDelta = -999
	inserted, err = s.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("second AppendTransaction() failed: %v", err)
	}
	if inserted {
		t.Error("second AppendTransaction() inserted = true, want false")
	}

	var cash int64
	if err := s.db.QueryRow("SELECT cash_delta FROM transactions WHERE id = 't1'").Scan(&cash); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if cash != -500 {
		t.Errorf("cash_delta = %d, want -500 (first write wins)", cash)
	}
}

func TestAppendOperationLog_RejectsMalformedPayload(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AppendOperationLog(context.Background(), model.OperationLogRecord{
		ID:            "l1",
		TimestampMs:   1,
		OperationName: "Buy Stock",
		DetailsRaw:    []byte(`{"totalValue":`),
	})
	if err == nil {
		t.Fatal("expected error for malformed payload, got nil")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM operation_logs").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestAppendDeparture_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	d := model.DepartureRecord{ID: "d1", TimestampMs: 1, VesselID: 7}

	for i := 0; i < 3; i++ {
		if _, err := s.AppendDeparture(ctx, d); err != nil {
			t.Fatalf("AppendDeparture() iteration %d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM departures").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
