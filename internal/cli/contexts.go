package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/shipledger/internal/classify"
)

// ContextRow is the JSON form of one classification table row.
type ContextRow struct {
	Context        string `json:"context"`
	Kind           string `json:"kind"`
	Direction      string `json:"direction"`
	Category       string `json:"category"`
	MultiMatch     bool   `json:"multi_match"`
	DepartureClass bool   `json:"departure_class"`
}

// NewContextsCommand creates the contexts command.
func NewContextsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contexts",
		Short: "Print the context classification table",
		Long: `Print every known transaction context tag with its kind, cash direction,
matching category and whether one operation log may explain many rows.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Format == "json" {
				var rows []ContextRow
				for _, info := range classify.Table() {
					rows = append(rows, ContextRow{
						Context:        info.Context,
						Kind:           info.Kind,
						Direction:      string(info.Direction),
						Category:       info.Category.String(),
						MultiMatch:     info.MultiMatch,
						DepartureClass: classify.IsDepartureClass(info.Context),
					})
				}
				return rootOpts.formatter(cmd).Success(rows)
			}
			return classify.Render(cmd.OutOrStdout())
		},
	}
	return cmd
}
