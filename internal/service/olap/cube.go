package olap

import (
	"fmt"
	"strconv"
	"strings"

	"duck-olap/internal/domain"
)

// Cell is one populated combination of grouped-dimension labels.
type Cell struct {
	Labels []string
	Values []any
}

// Cube is the read-only result of an analytical query: one cell per
// combination of categories that has at least one record.
type Cube struct {
	subject    string
	dimensions []*domain.Dimension
	aggregates []domain.Aggregate
	selects    []domain.Select
	rows       []domain.Row

	measureCols []int
	keyCols     []int
	measures    []string
	cells       []Cell
	index       map[string]int
}

// NewCube indexes rows read for a plan with the given selects. Every row must
// have one value per select.
func NewCube(subject string, dims []*domain.Dimension, aggs []domain.Aggregate, selects []domain.Select, rows []domain.Row) (*Cube, error) {
	c := &Cube{
		subject:    subject,
		dimensions: dims,
		aggregates: aggs,
		selects:    selects,
		rows:       rows,
		index:      make(map[string]int, len(rows)),
	}
	for i, s := range selects {
		if s.Role == domain.RoleGroupKey {
			c.keyCols = append(c.keyCols, i)
			continue
		}
		c.measureCols = append(c.measureCols, i)
		c.measures = append(c.measures, s.Alias)
	}
	if len(c.keyCols) > len(dims) {
		return nil, domain.ErrInvalidSpec("cube has %d group keys for %d dimensions", len(c.keyCols), len(dims))
	}

	c.cells = make([]Cell, 0, len(rows))
	for n, row := range rows {
		if len(row) != len(selects) {
			return nil, domain.ErrInvalidSpec("row %d has %d values, expected %d", n, len(row), len(selects))
		}
		cell := Cell{Labels: make([]string, len(c.keyCols)), Values: make([]any, len(c.measureCols))}
		for i, col := range c.keyCols {
			cell.Labels[i] = label(row[col])
		}
		for i, col := range c.measureCols {
			cell.Values[i] = row[col]
		}
		c.index[cellKey(cell.Labels)] = len(c.cells)
		c.cells = append(c.cells, cell)
	}
	return c, nil
}

// NewCubeFromCompiled builds the cube for rows returned by a compiled plan.
func NewCubeFromCompiled(compiled *Compiled, rows []domain.Row) (*Cube, error) {
	return NewCube(compiled.Plan.Subject, compiled.Dimensions, compiled.Aggregates, compiled.Plan.Selects, rows)
}

// Subject returns the subject type the cube was computed over.
func (c *Cube) Subject() string { return c.subject }

// Dimensions returns copies of the query's dimensions, including an
// overlapping last one.
func (c *Cube) Dimensions() []*domain.Dimension {
	out := make([]*domain.Dimension, len(c.dimensions))
	for i, d := range c.dimensions {
		out[i] = d.Clone()
	}
	return out
}

// Aggregates returns the computed aggregates. It is empty when the last
// dimension overlaps.
func (c *Cube) Aggregates() []domain.Aggregate { return c.aggregates }

// Rows returns the raw rows, aligned with the plan's selects.
func (c *Cube) Rows() []domain.Row { return c.rows }

// Selects returns the select list the rows are aligned with.
func (c *Cube) Selects() []domain.Select { return c.selects }

// Cells returns the populated cells in row order.
func (c *Cube) Cells() []Cell { return c.cells }

// Measures names the values of each cell: aggregate aliases, or the category
// names of an overlapping last dimension.
func (c *Cube) Measures() []string { return c.measures }

// GroupedDepth is the number of labels that address a cell.
func (c *Cube) GroupedDepth() int { return len(c.keyCols) }

// Overlapping reports whether the last dimension was counted per category.
func (c *Cube) Overlapping() bool { return len(c.keyCols) < len(c.dimensions) }

// Categories lists the labels present for grouped dimension i, in order of
// first appearance.
func (c *Cube) Categories(i int) []string {
	if i < 0 || i >= len(c.keyCols) {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, cell := range c.cells {
		l := cell.Labels[i]
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// Lookup returns the measure values of the cell addressed by labels, one
// label per grouped dimension.
func (c *Cube) Lookup(labels ...string) ([]any, error) {
	if len(labels) != len(c.keyCols) {
		return nil, domain.ErrValidation("cube is addressed by %d labels, got %d", len(c.keyCols), len(labels))
	}
	i, ok := c.index[cellKey(labels)]
	if !ok {
		return nil, &domain.CellNotFoundError{Labels: labels}
	}
	return c.cells[i].Values, nil
}

// Value returns one measure of the cell addressed by labels.
func (c *Cube) Value(measure string, labels ...string) (any, error) {
	pos := -1
	for i, m := range c.measures {
		if m == measure {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, domain.ErrValidation("measure %q is not part of this cube (have %s)", measure, strings.Join(c.measures, ", "))
	}
	values, err := c.Lookup(labels...)
	if err != nil {
		return nil, err
	}
	return values[pos], nil
}

// Selectors returns the drilldown selection behind a cell. When the last
// dimension overlaps, one extra trailing label names its category.
func (c *Cube) Selectors(labels ...string) ([]CellSelector, error) {
	want := len(c.dimensions)
	if len(labels) != want {
		return nil, domain.ErrValidation("drilldown needs %d labels, got %d", want, len(labels))
	}
	sels := make([]CellSelector, len(labels))
	for i, l := range labels {
		sels[i] = CellSelector{Dimension: resolvedDimension{dim: c.dimensions[i]}, Category: l}
	}
	return sels, nil
}

func label(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// cellKey prefixes each label with its length so that no two label tuples
// share a key, whatever bytes the labels hold.
func cellKey(labels []string) string {
	var b strings.Builder
	for _, l := range labels {
		b.WriteString(strconv.Itoa(len(l)))
		b.WriteByte(':')
		b.WriteString(l)
	}
	return b.String()
}
