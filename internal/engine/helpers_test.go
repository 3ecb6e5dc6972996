package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/roach88/shipledger/internal/model"
	"github.com/roach88/shipledger/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHost(opts ...HostOption) *Host {
	return NewHost(append([]HostOption{WithLogger(discardLogger())}, opts...)...)
}

// collect drains a build channel, failing the test if it never closes.
func collect(t *testing.T, ch <-chan Message) []Message {
	t.Helper()
	var msgs []Message
	timeout := time.After(10 * time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		case <-timeout:
			t.Fatalf("build channel not closed after %d messages", len(msgs))
			return nil
		}
	}
}

// runBuild runs one build to completion and returns all its messages.
func runBuild(t *testing.T, h *Host, req Request) []Message {
	t.Helper()
	msgs := collect(t, h.Start(req))
	if len(msgs) == 0 {
		t.Fatal("build produced no messages")
	}
	return msgs
}

// mustComplete runs a build and returns its summary, failing on any failure.
func mustComplete(t *testing.T, h *Host, req Request) Summary {
	t.Helper()
	msgs := runBuild(t, h, req)
	switch m := msgs[len(msgs)-1].(type) {
	case Completed:
		return m.Summary
	case Failed:
		t.Fatalf("build failed: %v", m.Err)
	default:
		t.Fatalf("last message is %T, want terminal", m)
	}
	return Summary{}
}

func entryByPod1(entries []model.LookupEntry) map[string]model.LookupEntry {
	out := make(map[string]model.LookupEntry, len(entries))
	for _, e := range entries {
		out[e.Pod1ID] = e
	}
	return out
}

// mixedSources covers every strategy plus unmatched and unknown contexts.
func mixedSources() testutil.Sources {
	return testutil.Sources{
		Transactions: []model.TransactionRecord{
			testutil.Tx("t1", 1000, "fuel_purchased", -500),
			testutil.Tx("t2", 2000, "vessels_departed", 1200),
			testutil.Tx("t3", 2000, "harbor_fee_on_depart", -200),
			testutil.Tx("t4", 2001, "guard_payment_on_depart", -1400),
			testutil.Tx("t5", 5010, "purchase_stock", -99750),
			testutil.Tx("t6", 5020, "purchase_stock", -50000),
			testutil.Tx("t7", 7000, "bulk_repair", -300),
			testutil.Tx("t8", 8000, "weird_tag", 42),
		},
		OperationLogs: []model.OperationLogRecord{
			testutil.OpLog("l1", 1_000_000, "Auto-Fuel", `{"totalCost":500}`),
			testutil.OpLog("l2", 2_000_000, "Auto-Depart",
				`{"vessels":[{"vesselId":7,"name":"Aurora","income":1000,"harborFee":-200,"guards":2}]}`),
			testutil.OpLog("l3", 5_000_000, "Buy Stock", `{"totalValue":95000}`),
			testutil.OpLog("l4", 7_061_000, "Auto-Repair", `{"totalCost":900,"items":[{"vesselId":1,"price":300}]}`),
		},
		Departures: []model.DepartureRecord{
			testutil.Departure("d1", 2_000_500, 7, 1000, -200),
		},
	}
}
