package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

// makeLog builds an operation-log record with its payload parsed the way
// ingestion parses it.
func makeLog(t *testing.T, id string, tsMs int64, operation, raw string) model.OperationLogRecord {
	t.Helper()
	d, err := model.ParseDetails(classify.DetailsKindFor(operation), []byte(raw))
	require.NoError(t, err)
	return model.OperationLogRecord{
		ID:            id,
		TimestampMs:   tsMs,
		OperationName: operation,
		Status:        "success",
		DetailsRaw:    []byte(raw),
		Details:       d,
	}
}

func makeTx(id string, tsSec int64, ctx string, cash int64) model.TransactionRecord {
	return model.TransactionRecord{ID: id, TimestampSec: tsSec, Context: ctx, CashDelta: cash}
}
