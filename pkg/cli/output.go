package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"duck-olap/internal/declarative"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable renders a markdown table followed by a row count.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", color.New(color.Faint).Sprintf("(%d rows)", len(rows)))
	return err
}

func printHeading(w io.Writer, title string) {
	_, _ = color.New(color.Bold).Fprintln(w, title)
}

// printCube renders one row per cell: the cell's labels followed by its
// measures.
func printCube(w io.Writer, v declarative.CubeView) error {
	depth := len(v.Dimensions)
	if v.Overlapping {
		depth--
	}
	headers := make([]string, 0, depth+len(v.Measures))
	for _, d := range v.Dimensions[:depth] {
		headers = append(headers, d.Name)
	}
	headers = append(headers, v.Measures...)

	rows := make([][]string, len(v.Cells))
	for i, cell := range v.Cells {
		row := append([]string(nil), cell.Labels...)
		for _, m := range v.Measures {
			row = append(row, formatValue(cell.Values[m]))
		}
		rows[i] = row
	}
	return printTable(w, headers, rows)
}

func printRecords(w io.Writer, v declarative.RecordsView) error {
	rows := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		row := make([]string, len(v.Columns))
		for j, col := range v.Columns {
			row[j] = formatValue(r[col])
		}
		rows[i] = row
	}
	return printTable(w, v.Columns, rows)
}

func printSubjects(w io.Writer, subjects []declarative.SubjectView) error {
	rows := make([][]string, len(subjects))
	for i, s := range subjects {
		rows[i] = []string{s.Name, s.Table, strings.Join(s.Dimensions, ", "), strings.Join(s.Aggregates, ", ")}
	}
	return printTable(w, []string{"name", "table", "dimensions", "aggregates"}, rows)
}

func printSubject(w io.Writer, s declarative.SubjectView) error {
	rows := [][]string{
		{"name", s.Name},
		{"table", s.Table},
		{"identity", s.Identity},
		{"fields", strings.Join(s.Fields, ", ")},
		{"relations", strings.Join(s.Relations, ", ")},
		{"dimensions", strings.Join(s.Dimensions, ", ")},
		{"aggregates", strings.Join(s.Aggregates, ", ")},
	}
	return printTable(w, []string{"property", "value"}, rows)
}

func printExplain(w io.Writer, v declarative.ExplainView) error {
	printHeading(w, "SQL")
	_, _ = fmt.Fprintln(w, v.SQL)
	if len(v.Args) > 0 {
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = formatValue(a)
		}
		printHeading(w, "Args")
		_, _ = fmt.Fprintln(w, strings.Join(args, ", "))
	}
	if len(v.Joins) > 0 {
		printHeading(w, "Joins")
		_, _ = fmt.Fprintln(w, strings.Join(v.Joins, ", "))
	}
	printHeading(w, "Selects")
	_, err := fmt.Fprintln(w, strings.Join(v.Selects, ", "))
	return err
}

// formatValue converts a cell or record value to its display form.
func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
