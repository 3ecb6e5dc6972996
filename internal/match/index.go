package match

import (
	"sort"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

// Index maps context tags to the operation-log records that could have
// produced them. Buckets are ordered by (timestamp, id).
//
// An Index belongs to a single build run and is not safe for concurrent use.
type Index struct {
	buckets map[string][]*model.OperationLogRecord
	used    map[string]struct{}
	size    int
}

// NewIndex buckets logs by every context tag their operation can produce.
// Records whose operation is unknown to the classifier are not indexed.
func NewIndex(logs []model.OperationLogRecord) *Index {
	ix := &Index{
		buckets: make(map[string][]*model.OperationLogRecord),
		used:    make(map[string]struct{}),
	}

	for i := range logs {
		rec := &logs[i]
		ctxs := classify.ContextsFor(rec.OperationName)
		if len(ctxs) == 0 {
			continue
		}
		ix.size++
		for _, c := range ctxs {
			ix.buckets[c] = append(ix.buckets[c], rec)
		}
	}

	for _, bucket := range ix.buckets {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].TimestampMs != bucket[j].TimestampMs {
				return bucket[i].TimestampMs < bucket[j].TimestampMs
			}
			return bucket[i].ID < bucket[j].ID
		})
	}
	return ix
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return ix.size
}

// Candidates returns the unconsumed records for a context whose timestamps
// fall within [fromMs, toMs], in chronological order.
func (ix *Index) Candidates(context string, fromMs, toMs int64) []*model.OperationLogRecord {
	bucket := ix.buckets[classify.Normalize(context)]
	start := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].TimestampMs >= fromMs
	})

	var out []*model.OperationLogRecord
	for _, rec := range bucket[start:] {
		if rec.TimestampMs > toMs {
			break
		}
		if ix.IsUsed(rec.ID) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Consume removes a record from further candidacy in every bucket.
func (ix *Index) Consume(id string) {
	ix.used[id] = struct{}{}
}

// MarkUsed consumes records claimed by earlier builds.
func (ix *Index) MarkUsed(ids map[string]struct{}) {
	for id := range ids {
		ix.used[id] = struct{}{}
	}
}

// IsUsed reports whether a record has been consumed.
func (ix *Index) IsUsed(id string) bool {
	_, ok := ix.used[id]
	return ok
}
