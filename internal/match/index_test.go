package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

func ids(recs []*model.OperationLogRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestNewIndex_BucketsByEveryContext(t *testing.T) {
	logs := []model.OperationLogRecord{
		makeLog(t, "dep", 1000, "Auto-Depart", `{"vessels":[]}`),
		makeLog(t, "fuel", 1000, "Auto-Fuel", `{"totalCost":5}`),
		makeLog(t, "mystery", 1000, "Rename Vessel", `{"name":"x"}`),
	}
	ix := NewIndex(logs)

	assert.Equal(t, 2, ix.Len(), "unknown operations are not indexed")
	for _, c := range []string{classify.ContextVesselsDeparted, classify.ContextHarborFee, classify.ContextGuardFee} {
		assert.Equal(t, []string{"dep"}, ids(ix.Candidates(c, 0, 2000)), c)
	}
	assert.Equal(t, []string{"fuel"}, ids(ix.Candidates("fuel_purchased", 0, 2000)))
	assert.Empty(t, ix.Candidates("unknown_tag", 0, 2000))
}

func TestIndex_CandidatesChronologicalWithinWindow(t *testing.T) {
	logs := []model.OperationLogRecord{
		makeLog(t, "c", 3000, "Auto-Fuel", `{}`),
		makeLog(t, "b", 2000, "Auto-Fuel", `{}`),
		makeLog(t, "a", 2000, "Auto-Fuel", `{}`),
		makeLog(t, "z", 9000, "Auto-Fuel", `{}`),
	}
	ix := NewIndex(logs)

	assert.Equal(t, []string{"a", "b", "c"}, ids(ix.Candidates("fuel_purchased", 2000, 3000)))
	assert.Equal(t, []string{"c"}, ids(ix.Candidates("fuel_purchased", 2001, 8999)))
}

func TestIndex_CandidatesNormalizesContext(t *testing.T) {
	ix := NewIndex([]model.OperationLogRecord{makeLog(t, "a", 1, "Auto-Fuel", `{}`)})
	assert.Equal(t, []string{"a"}, ids(ix.Candidates("  Fuel_Purchased ", 0, 10)))
}

func TestIndex_ConsumeRemovesFromEveryBucket(t *testing.T) {
	ix := NewIndex([]model.OperationLogRecord{
		makeLog(t, "dep", 1000, "Auto-Depart", `{}`),
		makeLog(t, "dep2", 1001, "Auto-Depart", `{}`),
	})

	ix.Consume("dep")
	assert.True(t, ix.IsUsed("dep"))
	assert.Equal(t, []string{"dep2"}, ids(ix.Candidates(classify.ContextVesselsDeparted, 0, 5000)))
	assert.Equal(t, []string{"dep2"}, ids(ix.Candidates(classify.ContextGuardFee, 0, 5000)))
}

func TestIndex_MarkUsed(t *testing.T) {
	ix := NewIndex([]model.OperationLogRecord{
		makeLog(t, "a", 1, "Auto-Fuel", `{}`),
		makeLog(t, "b", 2, "Auto-Fuel", `{}`),
	})
	ix.MarkUsed(map[string]struct{}{"a": {}, "never-indexed": {}})

	got := ix.Candidates("fuel_purchased", 0, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
