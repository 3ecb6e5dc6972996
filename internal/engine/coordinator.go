package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// Coordinator starts builds on a Host and allows at most one build per store
// at a time within this process. Builds in other processes are kept out by
// the store lock file each build holds.
//
// Thread-safety: Coordinator is safe for concurrent use.
type Coordinator struct {
	host *Host

	mu     sync.Mutex
	active map[string]struct{}
}

// NewCoordinator creates a Coordinator over host.
func NewCoordinator(host *Host) *Coordinator {
	return &Coordinator{
		host:   host,
		active: make(map[string]struct{}),
	}
}

// StoreKey returns the key builds are guarded on: the cleaned absolute path
// of the store.
func StoreKey(identity string) string {
	abs, err := filepath.Abs(identity)
	if err != nil {
		return filepath.Clean(identity)
	}
	return abs
}

// Start launches a build unless one is already running for the same store,
// in which case it returns ErrBuildInProgress. The guard is released before
// the build's terminal message is delivered.
func (c *Coordinator) Start(req Request) (<-chan Message, error) {
	key := StoreKey(req.StoreIdentity)

	c.mu.Lock()
	if _, busy := c.active[key]; busy {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBuildInProgress, req.StoreIdentity)
	}
	c.active[key] = struct{}{}
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		delete(c.active, key)
		c.mu.Unlock()
	}
	return c.host.start(req, release), nil
}

// running reports whether a build is running for the store.
func (c *Coordinator) running(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.active[StoreKey(identity)]
	return busy
}

// Run starts a build and waits for its result. onProgress, if set, is called
// for every Progress message.
//
// Cancelling ctx stops the wait, not the build: the build runs to completion
// and keeps its store guarded until it does.
func (c *Coordinator) Run(ctx context.Context, req Request, onProgress func(Progress)) (Summary, error) {
	ch, err := c.Start(req)
	if err != nil {
		return Summary{}, err
	}

	for {
		select {
		case <-ctx.Done():
			// Drain so the pump goroutine can finish.
			go func() {
				for range ch {
				}
			}()
			return Summary{}, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return Summary{}, errors.New("build ended without a result")
			}
			switch m := msg.(type) {
			case Progress:
				if onProgress != nil {
					onProgress(m)
				}
			case Completed:
				return m.Summary, nil
			case Failed:
				return Summary{}, m.Err
			}
		}
	}
}
