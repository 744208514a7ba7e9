package declarative

// SupportedAPIVersion is the only apiVersion accepted in catalog files.
const SupportedAPIVersion = "olap/v1"

// KindNameCatalog is the kind of a catalog document.
const KindNameCatalog = "Catalog"

// Document is the generic envelope parsed first to determine Kind.
type Document struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// CatalogDoc declares the subjects available for OLAP queries together with
// their named dimensions and aggregates.
type CatalogDoc struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Subjects   []SubjectDoc `yaml:"subjects"`
}

// SubjectDoc describes a queryable record type backed by one table.
type SubjectDoc struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table,omitempty"`
	Identity   string         `yaml:"identity,omitempty"`
	Fields     []string       `yaml:"fields"`
	Relations  []RelationDoc  `yaml:"relations,omitempty"`
	Dimensions []DimensionDoc `yaml:"dimensions,omitempty"`
	Aggregates []AggregateDoc `yaml:"aggregates,omitempty"`
}

// RelationDoc declares a table the subject can be joined to.
type RelationDoc struct {
	Name       string   `yaml:"name"`
	Table      string   `yaml:"table"`
	ForeignKey string   `yaml:"foreign_key"`
	PrimaryKey string   `yaml:"primary_key,omitempty"`
	Columns    []string `yaml:"columns,omitempty"`
	Outer      bool     `yaml:"outer,omitempty"` // LEFT JOIN
}

// DimensionDoc is a dimension definition or reference. The string shorthand
// "gender" is the same as {name: gender} and refers to a registered dimension.
// Exactly one of Field, Categories or Period selects the other forms.
type DimensionDoc struct {
	Name        string        `yaml:"name,omitempty" json:"name,omitempty"`
	Field       string        `yaml:"field,omitempty" json:"field,omitempty"`
	Categories  []CategoryDoc `yaml:"categories,omitempty" json:"categories,omitempty"`
	Overlapping bool          `yaml:"overlapping,omitempty" json:"overlapping,omitempty"`
	Period      *PeriodDoc    `yaml:"period,omitempty" json:"period,omitempty"`
}

// CategoryDoc is one named condition of an inline dimension.
type CategoryDoc struct {
	Name  string        `yaml:"name" json:"name"`
	Where *PredicateDoc `yaml:"where,omitempty" json:"where,omitempty"`
}

// PeriodDoc buckets a time field into consecutive periods. Length accepts Go
// durations plus a "d" suffix for days, e.g. "30d".
type PeriodDoc struct {
	Field  string `yaml:"field" json:"field"`
	Start  string `yaml:"start" json:"start"`
	Length string `yaml:"length" json:"length"`
	Count  int    `yaml:"count" json:"count"`
	Layout string `yaml:"layout,omitempty" json:"layout,omitempty"`
}

// PredicateDoc is a condition. Exactly one form may be used: a comparison on
// Field (Op defaults to eq), a combinator (All, Any, Not), Always, or a raw
// SQL fragment.
type PredicateDoc struct {
	Field   string         `yaml:"field,omitempty" json:"field,omitempty"`
	Op      string         `yaml:"op,omitempty" json:"op,omitempty"` // eq, neq, lt, lte, gt, gte, between, in, is_null, not_null, like
	Value   any            `yaml:"value,omitempty" json:"value,omitempty"`
	Values  []any          `yaml:"values,omitempty" json:"values,omitempty"`
	Low     any            `yaml:"low,omitempty" json:"low,omitempty"`
	High    any            `yaml:"high,omitempty" json:"high,omitempty"`
	Pattern string         `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	All     []PredicateDoc `yaml:"all,omitempty" json:"all,omitempty"`
	Any     []PredicateDoc `yaml:"any,omitempty" json:"any,omitempty"`
	Not     *PredicateDoc  `yaml:"not,omitempty" json:"not,omitempty"`
	Always  bool           `yaml:"always,omitempty" json:"always,omitempty"`
	SQL     string         `yaml:"sql,omitempty" json:"sql,omitempty"`
	Args    []any          `yaml:"args,omitempty" json:"args,omitempty"`
	Joins   []string       `yaml:"joins,omitempty" json:"joins,omitempty"`
}

// AggregateDoc is an aggregate definition or reference. The string shorthand
// "total_salary" refers to a registered aggregate.
type AggregateDoc struct {
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`
	Kind   string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Target string   `yaml:"target,omitempty" json:"target,omitempty"`
	Alias  string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	SQL    string   `yaml:"sql,omitempty" json:"sql,omitempty"`
	Args   []any    `yaml:"args,omitempty" json:"args,omitempty"`
	Joins  []string `yaml:"joins,omitempty" json:"joins,omitempty"`
}

// QueryDoc is a cube request. A nil Aggregates list selects the default
// distinct count.
type QueryDoc struct {
	Dimensions []DimensionDoc `yaml:"dimensions" json:"dimensions"`
	Aggregates []AggregateDoc `yaml:"aggregates,omitempty" json:"aggregates,omitempty"`
}

// SelectorDoc picks one category of a dimension.
type SelectorDoc struct {
	Dimension DimensionDoc `yaml:"dimension" json:"dimension"`
	Category  string       `yaml:"category" json:"category"`
}

// DrilldownDoc selects the records behind a cell, either by dimension name
// (Cell) or with explicit selectors. Selectors win when both are given.
type DrilldownDoc struct {
	Cell      map[string]string `yaml:"cell,omitempty" json:"cell,omitempty"`
	Selectors []SelectorDoc     `yaml:"selectors,omitempty" json:"selectors,omitempty"`
}

// BatchDoc runs several queries against one subject.
type BatchDoc struct {
	Queries []QueryDoc `yaml:"queries" json:"queries"`
}
