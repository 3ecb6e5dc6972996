package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/shipledger/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario file name filter (substring)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run ledger scenarios",
		Long: `Run ledger scenarios from a directory.

Each scenario imports source records into a fresh store, runs one or more
builds and checks the resulting ledger against its assertions. When
golden/<name>.golden exists next to the scenario the ledger snapshot must
match it as well.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  shipledger test ./scenarios
  shipledger test ./scenarios --filter rematch
  shipledger test ./scenarios --update
  shipledger test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only scenario files whose name contains this text")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	out := opts.formatter(cmd)
	w := cmd.OutOrStdout()
	if len(files) == 0 {
		if opts.Format == "json" {
			return out.Success(&harness.SuiteResult{Scenarios: []harness.ScenarioOutcome{}})
		}
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	out.VerboseLog("running %d scenario(s) from %s", len(files), scenariosDir)
	result := harness.RunSuite(files, opts.Update)
	if opts.Format != "json" {
		for _, o := range result.Scenarios {
			writeOutcome(cmd, o)
		}
	}

	if opts.Format == "json" {
		if result.Failed > 0 {
			if err := out.Error("E_TEST_FAILED", fmt.Sprintf("%d scenario(s) failed", result.Failed), result); err != nil {
				return err
			}
		} else if err := out.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func writeOutcome(cmd *cobra.Command, o harness.ScenarioOutcome) {
	w := cmd.OutOrStdout()
	if !o.Pass {
		fmt.Fprintf(w, "✗ %s\n", o.Name)
		for _, e := range o.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if o.Golden == "mismatch" {
			fmt.Fprintln(w, "  Golden file mismatch (run with --update to regenerate)")
		}
		return
	}
	switch o.Golden {
	case "updated":
		fmt.Fprintf(w, "✓ %s (golden updated)\n", o.Name)
	case "missing":
		fmt.Fprintf(w, "✓ %s (no golden file)\n", o.Name)
	default:
		fmt.Fprintf(w, "✓ %s\n", o.Name)
	}
}
