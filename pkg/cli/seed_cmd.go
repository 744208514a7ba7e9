package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"duck-olap/internal/app"
)

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample dataset into the record database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := opts.openDB()
			if err != nil {
				return err
			}
			defer h.Close() //nolint:errcheck

			if err := app.Seed(cmd.Context(), h, opts.logger(cmd)); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"seeded": opts.cfg.DBPath})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sample data loaded into %s database %q.\n", h.Driver, opts.cfg.DBPath)
			return nil
		},
	}
}
