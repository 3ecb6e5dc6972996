package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/shipledger/internal/classify"
	"github.com/roach88/shipledger/internal/match"
	"github.com/roach88/shipledger/internal/model"
	"github.com/roach88/shipledger/internal/store"
)

// Request describes one build.
type Request struct {
	// StoreIdentity is the path of the SQLite store holding the sources and
	// the ledger. The store must already exist.
	StoreIdentity string
	// WindowDays limits the sources to the trailing N days. 0 means unbounded.
	WindowDays int
	// FullRebuild clears the ledger before scanning.
	FullRebuild bool
}

// Progress bands per stage, in percent.
const (
	loadingDone  = 10
	indexingDone = 15
	matchingDone = 95
)

// build is the state of one build run. Nothing in it outlives the run.
type build struct {
	id      string
	req     Request
	logger  *slog.Logger
	now     time.Time
	step    int
	seq     int64 // last message sequence number; the build goroutine owns it
	emit    func(Message)
	observe func(State)

	state       State
	lastPercent int
	lastStage   Stage
	st          *store.Store
	summary     Summary
}

// nextSeq returns the sequence number of the build's next message, from 1.
func (b *build) nextSeq() int64 {
	b.seq++
	return b.seq
}

// transition moves the build to next. Illegal transitions are programming
// errors and panic; the host recovers them as runtime failures.
func (b *build) transition(next State) {
	if !b.state.CanTransition(next) {
		panic(fmt.Sprintf("illegal state transition %s -> %s", b.state, next))
	}
	b.logger.Debug("build state changed",
		"build_id", b.id,
		"from", b.state.String(),
		"to", next.String(),
	)
	b.state = next
	if b.observe != nil {
		b.observe(next)
	}
}

// progress emits a Progress message when the stage changes or the percentage
// has advanced by at least one step since the last message. Percentages are
// clamped so they never decrease.
func (b *build) progress(stage Stage, percent, processed, total int) {
	if percent < b.lastPercent {
		percent = b.lastPercent
	}
	if percent > 100 {
		percent = 100
	}
	if stage == b.lastStage && percent-b.lastPercent < b.step && percent != 100 {
		return
	}
	b.lastStage = stage
	b.lastPercent = percent
	b.emit(Progress{
		Seq:       b.nextSeq(),
		BuildID:   b.id,
		Stage:     stage,
		Percent:   percent,
		Processed: processed,
		Total:     total,
	})
}

// since returns the lower time bound for source reads.
func (b *build) since() time.Time {
	if b.req.WindowDays <= 0 {
		return time.Time{}
	}
	return b.now.Add(-time.Duration(b.req.WindowDays) * 24 * time.Hour)
}

// candidateSince widens a window's lower bound by the match tolerance, so a
// transaction at the start of the window still sees the records just before
// it.
func candidateSince(since time.Time) time.Time {
	if since.IsZero() {
		return since
	}
	return since.Add(-time.Duration(match.Tolerance) * time.Millisecond)
}

// run executes the build. The store is closed before run returns.
func (b *build) run(ctx context.Context) (err error) {
	start := time.Now()
	b.summary.BuildID = b.id
	b.summary.FullRebuild = b.req.FullRebuild

	b.transition(StateStarting)
	b.st, err = store.OpenExisting(b.req.StoreIdentity)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.st.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()
	unlock, err := lockStore(b.req.StoreIdentity)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			b.logger.Warn("release build lock", "build_id", b.id, "error", uerr)
		}
	}()

	b.transition(StateLoadingSources)
	b.progress(StageLoading, 0, 0, 0)
	since := b.since()
	txs, err := b.st.ReadTransactions(ctx, since)
	if err != nil {
		return err
	}
	logs, err := b.st.ReadOperationLogs(ctx, candidateSince(since))
	if err != nil {
		return err
	}
	deps, err := b.st.ReadDepartures(ctx, candidateSince(since))
	if err != nil {
		return err
	}
	b.summary.TransactionCount = len(txs)
	b.summary.OperationLogCount = len(logs)
	b.summary.DepartureCount = len(deps)

	if b.req.FullRebuild {
		if err := b.st.ClearAll(ctx); err != nil {
			return err
		}
	}
	state, err := b.st.SnapshotMatchState(ctx)
	if err != nil {
		return err
	}
	b.logger.Debug("sources loaded",
		"build_id", b.id,
		"transactions", len(txs),
		"operation_logs", len(logs),
		"departures", len(deps),
		"fully_matched", len(state.FullyMatched),
		"needs_rematch", len(state.NeedsRematch),
	)
	b.progress(StageLoading, loadingDone, 0, 0)

	b.transition(StateBuildingIndex)
	ix := match.NewIndex(logs)
	ix.MarkUsed(state.UsedOperationIDs)
	m := match.New(ix, deps)
	b.progress(StageIndexing, indexingDone, 0, 0)

	b.transition(StateMatching)
	if err := b.matchAll(ctx, m, txs, state); err != nil {
		return err
	}

	b.transition(StateFinalizing)
	if b.summary.TotalEntries, err = b.st.CountEntries(ctx); err != nil {
		return err
	}
	if b.summary.MatchedOperationCount, b.summary.MatchedDepartureCount, err = b.st.CountMatched(ctx); err != nil {
		return err
	}
	b.summary.Duration = time.Since(start)
	b.progress(StageFinalizing, 100, len(txs), len(txs))
	return nil
}

// matchAll scans transactions in chronological order. Fully matched rows are
// skipped, partially matched rows get their missing columns filled, and
// everything else becomes a new row.
func (b *build) matchAll(ctx context.Context, m *match.Matcher, txs []model.TransactionRecord, state store.MatchState) error {
	total := len(txs)
	b.progress(StageMatching, indexingDone, 0, total)

	for i, tx := range txs {
		if _, done := state.FullyMatched[tx.ID]; !done {
			if prior, ok := state.NeedsRematch[tx.ID]; ok {
				if err := b.rematch(ctx, m, tx, prior); err != nil {
					return err
				}
			} else if err := b.insert(ctx, m, tx); err != nil {
				return err
			}
		}
		b.progress(StageMatching, indexingDone+(i+1)*(matchingDone-indexingDone)/total, i+1, total)
	}
	return nil
}

func (b *build) insert(ctx context.Context, m *match.Matcher, tx model.TransactionRecord) error {
	op, dep := m.Match(tx)
	inserted, err := b.st.UpsertNew(ctx, newEntry(tx, op, dep))
	if err != nil {
		return err
	}
	if inserted {
		b.summary.NewEntries++
	}
	return nil
}

// rematch looks only for the matches prior is missing. A departure lookup
// reuses the vessel of an existing operation match.
func (b *build) rematch(ctx context.Context, m *match.Matcher, tx model.TransactionRecord, prior model.LookupEntry) error {
	var op *model.OperationMatch
	vessel := prior.Pod2VesselSnapshot
	if prior.Pod2ID == "" {
		if op = m.MatchOperation(tx); op != nil {
			vessel = op.Vessel
		}
	}

	var dep *model.DepartureMatch
	if prior.Pod3ID == "" {
		dep = m.MatchDeparture(tx, vessel)
	}
	if op == nil && dep == nil {
		return nil
	}

	updated, err := b.st.UpdatePartial(ctx, tx.ID, op, dep)
	if err != nil {
		return err
	}
	if updated {
		b.summary.RematchedEntries++
	}
	return nil
}

// newEntry builds the ledger row for a transaction seen for the first time.
// Cash and classification always come from the transaction.
func newEntry(tx model.TransactionRecord, op *model.OperationMatch, dep *model.DepartureMatch) model.LookupEntry {
	kind, dir := classify.Classify(tx.Context, tx.CashDelta)
	e := model.LookupEntry{
		Timestamp:           tx.TimestampSec,
		Pod1ID:              tx.ID,
		Pod1Timestamp:       tx.TimestampMs(),
		CashAmount:          tx.CashDelta,
		CashConfirmed:       true,
		ClassifiedKind:      kind,
		ClassifiedDirection: dir,
		Context:             tx.Context,
	}
	if op != nil {
		e.Pod2ID = op.LogID
		e.Pod2Timestamp = op.TimestampMs
		e.Pod2VesselSnapshot = op.Vessel
	}
	if dep != nil {
		e.Pod3ID = dep.DepartureID
		e.Pod3Timestamp = dep.TimestampMs
		e.Pod3VesselSnapshot = dep.Vessel
	}
	return e
}
