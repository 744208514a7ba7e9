package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"duck-olap/internal/app"
	"duck-olap/internal/declarative"
	"duck-olap/internal/service/olap"
)

// queryFlags are shared by query and explain.
type queryFlags struct {
	dims    []string
	aggs    []string
	request string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&f.dims, "dim", "d", nil, "Named dimension, in cube order (repeatable)")
	fs.StringArrayVarP(&f.aggs, "agg", "a", nil, "Named aggregate (repeatable); defaults to a distinct count")
	fs.StringVarP(&f.request, "request", "f", "", "YAML or JSON request file with inline dimensions and aggregates")
}

func (f *queryFlags) attach(cmd *cobra.Command) {
	f.register(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("request", "dim")
	cmd.MarkFlagsMutuallyExclusive("request", "agg")
}

func (f *queryFlags) toRequest() (olap.QueryRequest, error) {
	doc := &declarative.QueryDoc{}
	if f.request != "" {
		var err error
		if doc, err = declarative.LoadQuery(f.request); err != nil {
			return olap.QueryRequest{}, err
		}
	} else {
		for _, d := range f.dims {
			doc.Dimensions = append(doc.Dimensions, declarative.DimensionDoc{Name: d})
		}
		for _, a := range f.aggs {
			doc.Aggregates = append(doc.Aggregates, declarative.AggregateDoc{Name: a})
		}
	}
	return doc.ToQueryRequest()
}

func newQueryCmd(opts *options) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "query SUBJECT",
		Short: "Build a cube over a subject",
		Example: `  olap query people --dim age_group --dim gender
  olap query people -d region -a total_salary -a average_age
  olap query people -f request.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.toRequest()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				cube, err := a.Service.Query(ctx, args[0], req)
				if err != nil {
					return err
				}
				view := declarative.NewCubeView(cube)
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), view)
				}
				return printCube(cmd.OutOrStdout(), view)
			})
		},
	}
	flags.attach(cmd)
	return cmd
}

func newExplainCmd(opts *options) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "explain SUBJECT",
		Short: "Show the SQL a cube query compiles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.toRequest()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Service.Explain(ctx, args[0], req)
				if err != nil {
					return err
				}
				view := declarative.NewExplainView(out)
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), view)
				}
				if view.SQL == "" {
					return fmt.Errorf("the %s store cannot render SQL", a.Store.Dialect())
				}
				return printExplain(cmd.OutOrStdout(), view)
			})
		},
	}
	flags.attach(cmd)
	return cmd
}
