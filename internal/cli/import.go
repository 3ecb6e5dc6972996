package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shipledger/internal/fixture"
	"github.com/roach88/shipledger/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportResult is the outcome of one import.
type ImportResult struct {
	Store string `json:"store"`
	fixture.Result
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixture>",
		Short: "Append source records from a fixture file",
		Long: `Append transactions, operation logs and departures from a YAML, JSON
or CUE fixture to the store, creating the store if it does not exist.

Records are append-only: a record whose id is already stored is skipped.
The whole fixture, including operation-log details, is validated before
anything is written.

Example:
  shipledger import --db ./ledger.db ./fixtures/day1.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite store (default from config)")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	_, dbPath, err := opts.storePath(cmd, opts.Database)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	fx, err := fixture.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}
	out.VerboseLog("loaded %d records from %s", fx.Len(), path)

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	applied, err := fx.Apply(ctx, st)
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	res := ImportResult{Store: dbPath, Result: applied}

	if opts.Format == "json" {
		return out.Success(res)
	}
	fmt.Fprintf(out.Writer, "Imported into %s\n", dbPath)
	fmt.Fprintf(out.Writer, "  transactions:    %d new, %d skipped\n", res.Transactions.Inserted, res.Transactions.Skipped)
	fmt.Fprintf(out.Writer, "  operation logs:  %d new, %d skipped\n", res.OperationLogs.Inserted, res.OperationLogs.Skipped)
	fmt.Fprintf(out.Writer, "  departures:      %d new, %d skipped\n", res.Departures.Inserted, res.Departures.Skipped)
	return nil
}
