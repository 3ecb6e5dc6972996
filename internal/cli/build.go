package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/shipledger/internal/engine"
	"github.com/roach88/shipledger/internal/metrics"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Database        string
	WindowDays      int
	Full            bool
	ProgressStep    int
	MetricsTextfile string

	// BuildIDs allows overriding the build id generator (for testing).
	// If nil, the host's UUIDv7 generator is used.
	BuildIDs engine.BuildIDGenerator
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	return newBuildCommand(&BuildOptions{RootOptions: rootOpts})
}

func newBuildCommand(opts *BuildOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Reconcile the sources into the lookup ledger",
		Long: `Run one ledger build against an existing store.

An incremental build (the default) adds rows for new transactions and
retries matches for rows that are not fully matched. A full rebuild clears
the ledger first. Progress is written to stderr; the summary to stdout.

Examples:
  shipledger build --db ./ledger.db
  shipledger build --db ./ledger.db --full --format json
  shipledger build --config ./shipledger.yaml --window-days 7`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite store (default from config)")
	cmd.Flags().IntVar(&opts.WindowDays, "window-days", 0, "only read sources from the last N days (0 = all)")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "clear the ledger and rebuild from scratch")
	cmd.Flags().IntVar(&opts.ProgressStep, "progress-step", engine.DefaultProgressStep, "minimum percent between progress lines")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the build")

	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	cfg, dbPath, err := opts.storePath(cmd, opts.Database)
	if err != nil {
		return err
	}

	// Flags override the config file.
	flags := cmd.Flags()
	if flags.Changed("window-days") {
		cfg.WindowDays = opts.WindowDays
	}
	if flags.Changed("full") {
		cfg.FullRebuild = opts.Full
	}
	if flags.Changed("progress-step") {
		cfg.ProgressStep = opts.ProgressStep
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = opts.MetricsTextfile
	}
	if cfg.WindowDays < 0 {
		return NewExitError(ExitCommandError, "--window-days must not be negative")
	}
	if cfg.ProgressStep < 1 || cfg.ProgressStep > 100 {
		return NewExitError(ExitCommandError, "--progress-step must be between 1 and 100")
	}

	out := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr(), cfg.LogLevel)

	hostOpts := []engine.HostOption{
		engine.WithLogger(logger),
		engine.WithProgressStep(cfg.ProgressStep),
	}
	if opts.BuildIDs != nil {
		hostOpts = append(hostOpts, engine.WithBuildIDGenerator(opts.BuildIDs))
	}
	coord := engine.NewCoordinator(engine.NewHost(hostOpts...))

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := engine.Request{
		StoreIdentity: dbPath,
		WindowDays:    cfg.WindowDays,
		FullRebuild:   cfg.FullRebuild,
	}
	out.VerboseLog("building %s (full=%t window_days=%d)", dbPath, req.FullRebuild, req.WindowDays)

	summary, err := coord.Run(ctx, req, func(p engine.Progress) {
		writeProgress(out.GetErrWriter(), p)
	})

	if cfg.Metrics.Textfile != "" && !errors.Is(err, context.Canceled) {
		if mErr := writeBuildMetrics(cfg.Metrics.Textfile, summary, err); mErr != nil {
			logger.Warn("failed to write metrics", "path", cfg.Metrics.Textfile, "error", mErr)
		} else {
			logger.Debug("metrics written", "path", cfg.Metrics.Textfile)
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "build interrupted", err)
		}
		exitErr := buildExitError(err)
		if opts.Format == "json" {
			code := exitErr.Message
			var be *engine.BuildError
			if errors.As(err, &be) {
				code = string(be.Kind)
			}
			_ = out.Error(code, err.Error(), nil)
		}
		return exitErr
	}

	if opts.Format == "json" {
		return out.Success(summary)
	}
	writeSummary(out.Writer, summary)
	return nil
}

func writeProgress(w io.Writer, p engine.Progress) {
	if p.Total > 0 {
		fmt.Fprintf(w, "%-10s %3d%% (%d/%d)\n", p.Stage, p.Percent, p.Processed, p.Total)
		return
	}
	fmt.Fprintf(w, "%-10s %3d%%\n", p.Stage, p.Percent)
}

func writeSummary(w io.Writer, s engine.Summary) {
	mode := "incremental"
	if s.FullRebuild {
		mode = "full rebuild"
	}
	fmt.Fprintf(w, "Build %s completed in %s (%s)\n", s.BuildID, s.Duration.Round(time.Millisecond), mode)
	fmt.Fprintf(w, "  sources:    %d transactions, %d operation logs, %d departures\n",
		s.TransactionCount, s.OperationLogCount, s.DepartureCount)
	fmt.Fprintf(w, "  entries:    %d new, %d rematched, %d total\n",
		s.NewEntries, s.RematchedEntries, s.TotalEntries)
	fmt.Fprintf(w, "  matched:    %d operations, %d departures\n",
		s.MatchedOperationCount, s.MatchedDepartureCount)
}

// writeBuildMetrics records the outcome of one build to a textfile.
func writeBuildMetrics(path string, s engine.Summary, buildErr error) error {
	m := metrics.New()
	if buildErr == nil {
		m.ObserveCompleted(s, float64(time.Now().Unix()))
	} else {
		var be *engine.BuildError
		if errors.As(buildErr, &be) {
			m.ObserveFailed(be.Kind)
		} else {
			m.ObserveFailed(engine.FailureRuntime)
		}
	}
	return m.WriteTextfile(path)
}
