package cli

import (
	"context"

	"github.com/spf13/cobra"

	"duck-olap/internal/app"
	"duck-olap/internal/declarative"
)

func newSubjectsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "subjects [SUBJECT]",
		Aliases: []string{"describe"},
		Short:   "List subjects, or describe one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(_ context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					cfg, err := a.Registry.Subject(args[0])
					if err != nil {
						return err
					}
					view := declarative.NewSubjectView(cfg)
					if getOutputFormat(cmd) == "json" {
						return printJSON(out, view)
					}
					return printSubject(out, view)
				}

				var views []declarative.SubjectView
				for _, name := range a.Registry.Subjects() {
					cfg, err := a.Registry.Subject(name)
					if err != nil {
						return err
					}
					views = append(views, declarative.NewSubjectView(cfg))
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(out, map[string]interface{}{"data": views})
				}
				return printSubjects(out, views)
			})
		},
	}
}
