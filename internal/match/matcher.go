package match

import (
	"sort"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/model"
)

// Tolerance is the widest time gap, in milliseconds, at which two records may
// still be correlated. The bound is inclusive.
const Tolerance int64 = 60_000

// Matcher finds operation-log and departure matches for transactions.
type Matcher struct {
	index      *Index
	departures []model.DepartureRecord
	strategies map[classify.Category]Strategy
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithStrategy overrides the strategy for one category.
func WithStrategy(c classify.Category, s Strategy) Option {
	return func(m *Matcher) {
		m.strategies[c] = s
	}
}

// New creates a Matcher over an index and the departures in scope.
// The departures slice is copied and sorted by (timestamp, id).
func New(ix *Index, departures []model.DepartureRecord, opts ...Option) *Matcher {
	deps := make([]model.DepartureRecord, len(departures))
	copy(deps, departures)
	sort.SliceStable(deps, func(i, j int) bool {
		if deps[i].TimestampMs != deps[j].TimestampMs {
			return deps[i].TimestampMs < deps[j].TimestampMs
		}
		return deps[i].ID < deps[j].ID
	})

	m := &Matcher{
		index:      ix,
		departures: deps,
		strategies: Strategies(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchOperation returns the first operation-log record in chronological
// order that passes the time gate and the category's value rule, or nil.
// A record matched for a single-match context is consumed.
func (m *Matcher) MatchOperation(tx model.TransactionRecord) *model.OperationMatch {
	strategy, ok := m.strategies[classify.CategoryOf(tx.Context)]
	if !ok {
		strategy = MatchGeneric
	}

	ts := tx.TimestampMs()
	for _, rec := range m.index.Candidates(tx.Context, ts-Tolerance, ts+Tolerance) {
		vessel, ok := strategy(tx, rec)
		if !ok {
			continue
		}
		if !classify.IsMultiMatch(tx.Context) {
			m.index.Consume(rec.ID)
		}
		return &model.OperationMatch{
			LogID:       rec.ID,
			TimestampMs: rec.TimestampMs,
			Vessel:      vessel,
		}
	}
	return nil
}

// MatchDeparture returns the departure that explains a departure-class
// transaction, or nil. The lookup is keyed on the vessel id of the accepted
// operation sub-record. Without one it falls back to income equality: the
// sub-record's income when known, otherwise the cash of a proceeds
// transaction compared against a departure's income or gross.
// Departures are never consumed.
func (m *Matcher) MatchDeparture(tx model.TransactionRecord, vessel *model.VesselSnapshot) *model.DepartureMatch {
	if !classify.IsDepartureClass(tx.Context) {
		return nil
	}

	var accept func(d *model.DepartureRecord) bool
	switch {
	case vessel != nil && vessel.VesselID != 0:
		accept = func(d *model.DepartureRecord) bool { return d.VesselID == vessel.VesselID }
	case vessel != nil && vessel.Income != 0:
		accept = func(d *model.DepartureRecord) bool { return d.Income == vessel.Income }
	case classify.CategoryOf(tx.Context) == classify.CategoryDepartureProceeds:
		cash := model.Abs(tx.CashDelta)
		accept = func(d *model.DepartureRecord) bool {
			return d.Income == cash || d.Snapshot().Gross() == cash
		}
	default:
		return nil
	}

	ts := tx.TimestampMs()
	start := sort.Search(len(m.departures), func(i int) bool {
		return m.departures[i].TimestampMs >= ts-Tolerance
	})
	for i := start; i < len(m.departures); i++ {
		d := &m.departures[i]
		if d.TimestampMs > ts+Tolerance {
			break
		}
		if accept(d) {
			return &model.DepartureMatch{
				DepartureID: d.ID,
				TimestampMs: d.TimestampMs,
				Vessel:      d.Snapshot(),
			}
		}
	}
	return nil
}

// Match runs both lookups for a transaction with no prior matches.
func (m *Matcher) Match(tx model.TransactionRecord) (*model.OperationMatch, *model.DepartureMatch) {
	op := m.MatchOperation(tx)
	var vessel *model.VesselSnapshot
	if op != nil {
		vessel = op.Vessel
	}
	return op, m.MatchDeparture(tx, vessel)
}
