package declarative

import (
	"duck-olap/internal/domain"
	"duck-olap/internal/service/olap"
)

// CubeView is the serialized form of a cube.
type CubeView struct {
	Subject     string          `json:"subject"`
	Dimensions  []DimensionView `json:"dimensions"`
	Measures    []string        `json:"measures"`
	Overlapping bool            `json:"overlapping,omitempty"`
	Cells       []CellView      `json:"cells"`
}

// DimensionView lists a dimension's categories. For grouped dimensions only
// the categories present in the cube are listed.
type DimensionView struct {
	Name        string   `json:"name"`
	Overlapping bool     `json:"overlapping,omitempty"`
	Categories  []string `json:"categories"`
}

// CellView is one populated cell.
type CellView struct {
	Labels []string       `json:"labels"`
	Values map[string]any `json:"values"`
}

// NewCubeView serializes a cube.
func NewCubeView(c *olap.Cube) CubeView {
	v := CubeView{
		Subject:     c.Subject(),
		Measures:    c.Measures(),
		Overlapping: c.Overlapping(),
		Cells:       make([]CellView, len(c.Cells())),
	}
	for i, d := range c.Dimensions() {
		cats := c.Categories(i)
		if i >= c.GroupedDepth() {
			cats = d.CategoryNames()
		}
		if cats == nil {
			cats = []string{}
		}
		v.Dimensions = append(v.Dimensions, DimensionView{Name: d.Name, Overlapping: d.Overlapping, Categories: cats})
	}
	for i, cell := range c.Cells() {
		values := make(map[string]any, len(cell.Values))
		for j, m := range v.Measures {
			values[m] = cell.Values[j]
		}
		v.Cells[i] = CellView{Labels: cell.Labels, Values: values}
	}
	return v
}

// RecordsView is the serialized form of drilldown records.
type RecordsView struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// NewRecordsView serializes a record set with one object per row.
func NewRecordsView(rs *domain.RecordSet) RecordsView {
	v := RecordsView{Columns: rs.Columns, Rows: make([]map[string]any, len(rs.Rows)), RowCount: rs.RowCount}
	for i, row := range rs.Rows {
		m := make(map[string]any, len(rs.Columns))
		for j, col := range rs.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		v.Rows[i] = m
	}
	return v
}

// SubjectView describes a registered subject.
type SubjectView struct {
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	Identity   string   `json:"identity"`
	Fields     []string `json:"fields"`
	Relations  []string `json:"relations,omitempty"`
	Dimensions []string `json:"dimensions"`
	Aggregates []string `json:"aggregates"`
}

// NewSubjectView describes a subject's registration.
func NewSubjectView(cfg *olap.SubjectConfig) SubjectView {
	s := cfg.Schema()
	v := SubjectView{
		Name:       s.SubjectName(),
		Table:      s.Table(),
		Identity:   s.IdentityField(),
		Fields:     s.Columns(),
		Dimensions: nonNil(cfg.DimensionNames()),
		Aggregates: nonNil(cfg.AggregateNames()),
	}
	for _, r := range s.Relations() {
		v.Relations = append(v.Relations, r.Name)
	}
	return v
}

// ExplainView is the serialized form of an explanation.
type ExplainView struct {
	Subject string   `json:"subject"`
	SQL     string   `json:"sql,omitempty"`
	Args    []any    `json:"args,omitempty"`
	Joins   []string `json:"joins,omitempty"`
	Selects []string `json:"selects"`
	Groups  []string `json:"groups,omitempty"`
}

// NewExplainView serializes an explanation.
func NewExplainView(e *olap.Explanation) ExplainView {
	v := ExplainView{Subject: e.Plan.Subject, SQL: e.SQL, Args: e.Args, Groups: e.Plan.Groups}
	for _, j := range e.Plan.Joins {
		v.Joins = append(v.Joins, string(j))
	}
	for _, s := range e.Plan.Selects {
		v.Selects = append(v.Selects, s.Alias)
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
