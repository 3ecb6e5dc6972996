package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultProgressStep is the smallest percentage advance reported between
// two Progress messages of the same stage.
const DefaultProgressStep = 1

// Host runs builds on worker goroutines.
//
// Each build owns its own store handle, index and dedup state; nothing is
// shared between builds. Each build holds an advisory lock file next to its
// store, which keeps builds in separate processes apart; within one process,
// use a Coordinator to reject an overlapping build before it starts.
type Host struct {
	logger  *slog.Logger
	ids     BuildIDGenerator
	now     func() time.Time
	step    int
	observe func(buildID string, s State)
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the host's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = l
	}
}

// WithBuildIDGenerator sets the build id source. Defaults to UUIDv7Generator.
func WithBuildIDGenerator(g BuildIDGenerator) HostOption {
	return func(h *Host) {
		h.ids = g
	}
}

// WithClock sets the wall clock used to compute the source window.
func WithClock(now func() time.Time) HostOption {
	return func(h *Host) {
		h.now = now
	}
}

// WithProgressStep bounds progress message volume: within a stage a new
// message is sent only after the percentage advances by at least step.
func WithProgressStep(step int) HostOption {
	return func(h *Host) {
		if step > 0 {
			h.step = step
		}
	}
}

// WithStateObserver registers a callback for every state transition.
// It runs on the build's goroutine.
func WithStateObserver(fn func(buildID string, s State)) HostOption {
	return func(h *Host) {
		h.observe = fn
	}
}

// NewHost creates a Host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
		now:    time.Now,
		step:   DefaultProgressStep,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start launches a build and returns its message channel. The channel
// carries zero or more Progress messages followed by exactly one Completed
// or Failed, and is closed afterwards.
func (h *Host) Start(req Request) <-chan Message {
	return h.start(req, nil)
}

// start runs the build. release, if set, runs after the store is closed and
// before the terminal message is queued.
func (h *Host) start(req Request, release func()) <-chan Message {
	q := newMessageQueue()
	out := make(chan Message)
	go q.pump(out)

	b := &build{
		id:     h.ids.Generate(),
		req:    req,
		logger: h.logger,
		now:    h.now(),
		step:   h.step,
		emit:   func(m Message) { q.Enqueue(m) },
	}
	if h.observe != nil {
		b.observe = func(s State) { h.observe(b.id, s) }
	}

	go func() {
		defer q.Close()

		err := h.execute(b)
		if release != nil {
			release()
		}

		if err != nil {
			be := newBuildError(b.id, err)
			h.logger.Error("build failed",
				"build_id", b.id,
				"store", req.StoreIdentity,
				"kind", string(be.Kind),
				"error", be.Message,
			)
			q.Enqueue(Failed{Seq: b.nextSeq(), Err: be})
			return
		}

		h.logger.Info("build completed",
			"build_id", b.id,
			"store", req.StoreIdentity,
			"full_rebuild", req.FullRebuild,
			"new_entries", b.summary.NewEntries,
			"rematched_entries", b.summary.RematchedEntries,
			"total_entries", b.summary.TotalEntries,
			"duration", b.summary.Duration,
		)
		q.Enqueue(Completed{Seq: b.nextSeq(), Summary: b.summary})
	}()

	return out
}

// execute runs the build to a terminal state. Panics are recovered into
// errors; the store has been closed by the time execute returns.
func (h *Host) execute(b *build) (err error) {
	h.logger.Debug("build starting",
		"build_id", b.id,
		"store", b.req.StoreIdentity,
		"window_days", b.req.WindowDays,
		"full_rebuild", b.req.FullRebuild,
	)

	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
		switch {
		case err != nil && b.state.CanTransition(StateFailed):
			b.transition(StateFailed)
		case err == nil:
			b.transition(StateCompleted)
		}
	}()

	return b.run(context.Background())
}
