package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/shipledger/internal/model"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry creates an unmatched ledger row with minimal required fields.
func createTestEntry(pod1ID, ctx string, tsSec, cash int64) model.LookupEntry {
	return model.LookupEntry{
		Timestamp:           tsSec,
		Pod1ID:              pod1ID,
		Pod1Timestamp:       tsSec * 1000,
		CashAmount:          cash,
		CashConfirmed:       true,
		ClassifiedKind:      "Test",
		ClassifiedDirection: model.DirectionOf(cash),
		Context:             ctx,
	}
}

func mustUpsert(t *testing.T, s *Store, e model.LookupEntry) {
	t.Helper()
	if _, err := s.UpsertNew(context.Background(), e); err != nil {
		t.Fatalf("UpsertNew(%s) failed: %v", e.Pod1ID, err)
	}
}
