// Package cli implements the olap command-line tool. Commands open the
// record database and catalog locally; no server is involved.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"duck-olap/internal/config"
	"duck-olap/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if getOutputFormat(rootCmd) == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{
				"error": err.Error(),
				"kind":  errorKind(err),
			})
		} else {
			_, _ = color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "Error: ")
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func errorKind(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsNotFound(err):
		return "not_found"
	default:
		return "internal"
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "olap",
		Short:         "OLAP cubes over a record database",
		Long:          "Runs cube queries, drilldowns and plan explanations against the subjects declared in an OLAP catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.catalog, "catalog", "", "Catalog file (default $CATALOG_PATH or catalog.yaml)")
	flags.StringVar(&opts.driver, "driver", "", "Record database driver: sqlite or duckdb (default $DB_DRIVER or sqlite)")
	flags.StringVar(&opts.dbPath, "db", "", "Record database path (default $DB_PATH)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output format (table, json); defaults to table on a terminal")
	flags.BoolVar(&opts.seed, "seed", false, "Load the sample dataset before running the command")
	flags.BoolVar(&opts.rawSQL, "allow-raw-sql", false, "Accept raw SQL predicates and aggregates in query documents")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	rootCmd.AddCommand(newSubjectsCmd(opts))
	rootCmd.AddCommand(newQueryCmd(opts))
	rootCmd.AddCommand(newExplainCmd(opts))
	rootCmd.AddCommand(newDrilldownCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "olap version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
