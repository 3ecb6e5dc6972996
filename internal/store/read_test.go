package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/shipledger/internal/model"
)

func TestReadTransactions_Empty(t *testing.T) {
	s := createTestStore(t)

	txs, err := s.ReadTransactions(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	// Should return empty slice, not nil
	if txs == nil {
		t.Error("transactions is nil, want empty slice")
	}
}

func TestReadTransactions_OrderedAndWindowed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, tx := range []model.TransactionRecord{
		{ID: "t3", TimestampSec: 3000, Context: "fuel_purchased", CashDelta: -1},
		{ID: "t1b", TimestampSec: 1000, Context: "fuel_purchased", CashDelta: -2},
		{ID: "t1a", TimestampSec: 1000, Context: "fuel_purchased", CashDelta: -3},
		{ID: "t2", TimestampSec: 2000, Context: "fuel_purchased", CashDelta: -4},
	} {
		if _, err := s.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("AppendTransaction(%s) failed: %v", tx.ID, err)
		}
	}

	all, err := s.ReadTransactions(ctx, time.Time{})
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	want := []string{"t1a", "t1b", "t2", "t3"}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("all[%d].ID = %q, want %q", i, all[i].ID, id)
		}
	}

	windowed, err := s.ReadTransactions(ctx, time.Unix(2000, 0))
	if err != nil {
		t.Fatalf("ReadTransactions(since) failed: %v", err)
	}
	if len(windowed) != 2 || windowed[0].ID != "t2" || windowed[1].ID != "t3" {
		t.Errorf("windowed = %+v, want [t2 t3]", windowed)
	}
}

func TestReadOperationLogs_ParsesDetails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.AppendOperationLog(ctx, model.OperationLogRecord{
		ID:            "l1",
		TimestampMs:   1_000_000,
		OperationName: "Auto-Fuel",
		Status:        "success",
		DetailsRaw:    []byte(`{"totalCost":500}`),
	})
	if err != nil {
		t.Fatalf("AppendOperationLog() failed: %v", err)
	}

	logs, err := s.ReadOperationLogs(ctx, time.Time{})
	if err != nil {
		t.Fatalf("ReadOperationLogs() failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len = %d, want 1", len(logs))
	}

	d, ok := logs[0].Details.(model.PurchaseDetails)
	if !ok {
		t.Fatalf("Details = %T, want model.PurchaseDetails", logs[0].Details)
	}
	if f := d.Figures(); !f.HasTotal || f.Total != 500 {
		t.Errorf("Figures() = %+v, want total 500", f)
	}
	if logs[0].Status != "success" {
		t.Errorf("Status = %q, want success", logs[0].Status)
	}
}

func TestReadOperationLogs_MalformedStoredPayload(t *testing.T) {
	s := createTestStore(t)

	// Bypass AppendOperationLog validation to simulate a collaborator's bad write
	_, err := s.db.Exec(`
		INSERT INTO operation_logs (id, timestamp_ms, operation_name, details)
		VALUES ('bad', 1, 'Auto-Depart', '{"vessels":[')
	`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if _, err := s.ReadOperationLogs(context.Background(), time.Time{}); err == nil {
		t.Error("expected error for malformed payload, got nil")
	}
}

func TestReadOperationLogs_NullDetails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendOperationLog(ctx, model.OperationLogRecord{
		ID: "l1", TimestampMs: 5, OperationName: "Auto-Depart",
	}); err != nil {
		t.Fatalf("AppendOperationLog() failed: %v", err)
	}

	logs, err := s.ReadOperationLogs(ctx, time.Time{})
	if err != nil {
		t.Fatalf("ReadOperationLogs() failed: %v", err)
	}
	if _, ok := logs[0].Details.(model.DepartureDetails); !ok {
		t.Errorf("Details = %T, want model.DepartureDetails", logs[0].Details)
	}
}

func TestReadDepartures_Windowed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, d := range []model.DepartureRecord{
		{ID: "d1", TimestampMs: 1_000_000, VesselID: 7, VesselName: "Aurora", Income: 1000, HarborFee: -200},
		{ID: "d2", TimestampMs: 9_000_000, VesselID: 8, RouteName: "HAM-RTM", Income: 50},
	} {
		if _, err := s.AppendDeparture(ctx, d); err != nil {
			t.Fatalf("AppendDeparture(%s) failed: %v", d.ID, err)
		}
	}

	deps, err := s.ReadDepartures(ctx, time.UnixMilli(5_000_000))
	if err != nil {
		t.Fatalf("ReadDepartures() failed: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != "d2" {
		t.Fatalf("deps = %+v, want [d2]", deps)
	}
	if deps[0].RouteName != "HAM-RTM" || deps[0].VesselID != 8 {
		t.Errorf("deps[0] = %+v", deps[0])
	}
}
