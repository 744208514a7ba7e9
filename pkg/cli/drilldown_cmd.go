package cli

import (
	"context"

	"github.com/spf13/cobra"

	"duck-olap/internal/app"
	"duck-olap/internal/declarative"
)

func newDrilldownCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "drilldown SUBJECT DIMENSION=CATEGORY...",
		Short: "List the records behind a cube cell",
		Example: `  olap drilldown people age_group=young gender=F
  olap drilldown people region=US -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cell, err := declarative.ParseCell(args[1:])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				records, err := a.Service.DrilldownRecordsByName(ctx, args[0], cell)
				if err != nil {
					return err
				}
				view := declarative.NewRecordsView(records)
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), view)
				}
				return printRecords(cmd.OutOrStdout(), view)
			})
		},
	}
}
