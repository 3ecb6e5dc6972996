package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shipledger/internal/export"
	"github.com/roach88/shipledger/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database      string
	UnmatchedOnly bool
	Context       string
	Region        string
	Endpoint      string
	PathStyle     bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <target>",
		Short: "Write the ledger as JSON lines to a file or S3",
		Long: `Write ledger rows as JSON lines, one object per row.

The target is a local path or an s3://bucket/key URL. S3 credentials come
from the default AWS chain (environment, shared config, instance role).

Examples:
  shipledger export --db ./ledger.db ./ledger.jsonl
  shipledger export --db ./ledger.db --unmatched s3://reports/unmatched.jsonl
  shipledger export --endpoint http://localhost:9000 --path-style s3://ledger/all.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite store (default from config)")
	cmd.Flags().BoolVar(&opts.UnmatchedOnly, "unmatched", false, "only rows that are not fully matched")
	cmd.Flags().StringVar(&opts.Context, "context", "", "only rows with this context tag")
	cmd.Flags().StringVar(&opts.Region, "region", "", "AWS region for s3 targets (default from config)")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().BoolVar(&opts.PathStyle, "path-style", false, "use path-style S3 addressing")

	return cmd
}

func runExport(opts *ExportOptions, target string, cmd *cobra.Command) error {
	cfg, dbPath, err := opts.storePath(cmd, opts.Database)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	s3cfg := export.S3Config{
		Region:    cfg.Export.Region,
		Endpoint:  cfg.Export.Endpoint,
		PathStyle: cfg.Export.PathStyle,
	}
	flags := cmd.Flags()
	if flags.Changed("region") {
		s3cfg.Region = opts.Region
	}
	if flags.Changed("endpoint") {
		s3cfg.Endpoint = opts.Endpoint
	}
	if flags.Changed("path-style") {
		s3cfg.PathStyle = opts.PathStyle
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sink, err := export.Open(ctx, target, s3cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid export target", err)
	}

	st, err := store.OpenExisting(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	res, err := export.Ledger(ctx, st, store.ListFilter{
		UnmatchedOnly: opts.UnmatchedOnly,
		Context:       opts.Context,
	}, sink)
	if err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}

	if opts.Format == "json" {
		return out.Success(res)
	}
	return out.Success(fmt.Sprintf("Exported %d rows (%d bytes) to %s", res.Rows, res.Bytes, res.Location))
}
