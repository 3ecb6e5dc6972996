package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shipledger/internal/engine"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestObserveCompleted(t *testing.T) {
	m := New()
	m.ObserveCompleted(engine.Summary{
		NewEntries:            3,
		RematchedEntries:      1,
		TotalEntries:          8,
		MatchedOperationCount: 5,
		MatchedDepartureCount: 3,
		TransactionCount:      8,
		Duration:              250 * time.Millisecond,
	}, 1_700_000_000)

	f := gather(t, m)
	assert.Equal(t, 8.0, f["shipledger_ledger_entries"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1_700_000_000.0, f["shipledger_last_success_timestamp_seconds"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(1), f["shipledger_build_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Len(t, f["shipledger_ledger_matched_entries"].GetMetric(), 2)

	builds := f["shipledger_last_build_result"].GetMetric()
	require.Len(t, builds, 1)
	assert.Equal(t, "completed", builds[0].GetLabel()[0].GetValue())
	assert.Equal(t, 1.0, builds[0].GetGauge().GetValue())
}

func TestObserveFailed(t *testing.T) {
	m := New()
	m.ObserveFailed(engine.FailureStoreNotFound)
	m.ObserveFailed(engine.FailureStoreNotFound)

	builds := gather(t, m)["shipledger_last_build_result"].GetMetric()
	require.Len(t, builds, 1)
	assert.Equal(t, "STORE_NOT_FOUND", builds[0].GetLabel()[0].GetValue())
	assert.Equal(t, 1.0, builds[0].GetGauge().GetValue(), "a result is a state, not a count")
}

func TestLastBuildResult_KeepsOnlyLatest(t *testing.T) {
	m := New()
	m.ObserveFailed(engine.FailureRuntime)
	m.ObserveCompleted(engine.Summary{}, 1)

	builds := gather(t, m)["shipledger_last_build_result"].GetMetric()
	require.Len(t, builds, 1)
	assert.Equal(t, "completed", builds[0].GetLabel()[0].GetValue())
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveCompleted(engine.Summary{TotalEntries: 4}, 1)

	path := filepath.Join(t.TempDir(), "shipledger.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shipledger_ledger_entries 4")
	assert.Contains(t, string(data), `shipledger_last_build_result{result="completed"} 1`)
}
