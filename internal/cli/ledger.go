package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/shipledger/internal/model"
	"github.com/roach88/shipledger/internal/store"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Database      string
	UnmatchedOnly bool
	Context       string
	Limit         int
}

// LedgerResult is the JSON payload of the ledger command.
type LedgerResult struct {
	Entries []model.LookupEntry `json:"entries"`
	Count   int                 `json:"count"`
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List lookup ledger rows",
		Long: `List the rows of the lookup ledger in transaction order.

Examples:
  shipledger ledger --db ./ledger.db
  shipledger ledger --db ./ledger.db --unmatched
  shipledger ledger --db ./ledger.db --context vessels_departed --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite store (default from config)")
	cmd.Flags().BoolVar(&opts.UnmatchedOnly, "unmatched", false, "only rows that are not fully matched")
	cmd.Flags().StringVar(&opts.Context, "context", "", "only rows with this context tag")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of rows (0 = all)")

	return cmd
}

func runLedger(opts *LedgerOptions, cmd *cobra.Command) error {
	_, dbPath, err := opts.storePath(cmd, opts.Database)
	if err != nil {
		return err
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	out := opts.formatter(cmd)

	st, err := store.OpenExisting(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := st.ListEntries(ctx, store.ListFilter{
		UnmatchedOnly: opts.UnmatchedOnly,
		Context:       opts.Context,
		Limit:         opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list ledger", err)
	}

	if opts.Format == "json" {
		return out.Success(LedgerResult{Entries: entries, Count: len(entries)})
	}
	if len(entries) == 0 {
		return out.Success("No ledger entries")
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Pod1ID,
			strconv.FormatInt(e.Pod1Timestamp, 10),
			e.Context,
			e.ClassifiedKind,
			strconv.FormatInt(e.CashAmount, 10),
			orDash(e.Pod2ID),
			orDash(e.Pod3ID),
		})
	}
	return out.Table([]string{"POD1", "TIMESTAMP", "CONTEXT", "KIND", "CASH", "POD2", "POD3"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
