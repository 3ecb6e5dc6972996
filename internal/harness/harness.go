package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/shipledger/internal/engine"
	"github.com/roach88/shipledger/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh store in a temporary directory. Builds get
// fixed ids and, when NowMs is set, a fixed clock, so results are
// reproducible.
//
// Execution flow:
// 1. Create the store
// 2. Run the steps in order: imports append records, builds run to completion
// 3. Read the final ledger
// 4. Evaluate assertions
//
// An error is returned when a step cannot run, including a failed build;
// assertion failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "shipledger-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, "ledger.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	// Builds open their own handle.
	if err := st.Close(); err != nil {
		return nil, fmt.Errorf("failed to close store: %w", err)
	}

	ids := make([]string, scenario.builds())
	for i := range ids {
		ids[i] = fmt.Sprintf("build-%d", i+1)
	}
	hostOpts := []engine.HostOption{
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs
		engine.WithBuildIDGenerator(engine.NewFixedGenerator(ids...)),
	}
	if scenario.NowMs > 0 {
		now := time.UnixMilli(scenario.NowMs)
		hostOpts = append(hostOpts, engine.WithClock(func() time.Time { return now }))
	}
	host := engine.NewHost(hostOpts...)

	ctx := context.Background()
	result := NewResult()

	build := 0
	for i, step := range scenario.Steps {
		switch {
		case step.Import != nil:
			if err := importStep(ctx, dbPath, step); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		case step.Build != nil:
			build++
			if err := buildStep(host, dbPath, build, step.Build, result); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	}

	st, err = store.OpenExisting(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen store: %w", err)
	}
	defer st.Close()

	result.Ledger, err = st.ListEntries(ctx, store.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func importStep(ctx context.Context, dbPath string, step Step) error {
	st, err := store.OpenExisting(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := step.Import.Apply(ctx, st); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

func buildStep(host *engine.Host, dbPath string, n int, b *BuildStep, result *Result) error {
	req := engine.Request{
		StoreIdentity: dbPath,
		WindowDays:    b.WindowDays,
		FullRebuild:   b.Full,
	}

	var failure error
	for msg := range host.Start(req) {
		result.addMessage(n, msg)
		if f, ok := msg.(engine.Failed); ok {
			failure = f.Err
		}
	}
	if failure != nil {
		return fmt.Errorf("build %d: %w", n, failure)
	}
	return nil
}
