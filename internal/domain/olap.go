package domain

import "duck-olap/internal/sqlexpr"

// AggregateKind names one of the supported aggregate computations.
type AggregateKind string

const (
	AggregateCount         AggregateKind = "count"
	AggregateCountDistinct AggregateKind = "count_distinct"
	AggregateSum           AggregateKind = "sum"
	AggregateAverage       AggregateKind = "average"
	AggregateMin           AggregateKind = "min"
	AggregateMax           AggregateKind = "max"
	AggregateRaw           AggregateKind = "raw"
)

var aggregateKinds = []AggregateKind{
	AggregateCount, AggregateCountDistinct, AggregateSum,
	AggregateAverage, AggregateMin, AggregateMax, AggregateRaw,
}

// AggregateKindNames lists the supported kinds in a stable order.
func AggregateKindNames() []string {
	names := make([]string, len(aggregateKinds))
	for i, k := range aggregateKinds {
		names[i] = string(k)
	}
	return names
}

// ParseAggregateKind accepts a kind name, plus "avg" and "distinct" as aliases.
func ParseAggregateKind(name string) (AggregateKind, error) {
	switch AggregateKind(name) {
	case "avg":
		return AggregateAverage, nil
	case "distinct", "count_distinct":
		return AggregateCountDistinct, nil
	}
	for _, k := range aggregateKinds {
		if AggregateKind(name) == k {
			return k, nil
		}
	}
	return "", &UnknownAggregateKindError{Kind: name}
}

// DefaultAggregateAlias is the alias of the aggregate used when a query
// supplies none and its last dimension does not overlap.
const DefaultAggregateAlias = "the_count_field"

// JoinRef names a relation of the subject that an expression needs joined.
// Two refs are the same join when their names are equal.
type JoinRef string

// Row is one result tuple, positionally aligned with QueryPlan.Selects.
type Row []any

// Category is a named condition that places a record in a dimension.
type Category struct {
	Name      string
	Predicate sqlexpr.Expr
	Joins     []JoinRef
}

// Dimension is an ordered list of categories over one axis. Category order
// is label priority: a record takes the first category it matches.
type Dimension struct {
	Name        string
	Source      string
	Categories  []Category
	Overlapping bool

	// GroupKey, when set, replaces the CASE expression built from the
	// categories (field dimensions group by the column itself).
	GroupKey sqlexpr.Expr
	// Coverage, when set, replaces the OR of category predicates.
	Coverage sqlexpr.Expr
	// Joins needed by GroupKey and Coverage.
	Joins []JoinRef
	// Open dimensions accept any category label at drilldown time; the
	// categories present are only known after execution.
	Open bool
	// Match builds the predicate for a label of an open dimension.
	Match func(label string) Category
}

// Category returns the category with the given name.
func (d *Dimension) Category(name string) (Category, bool) {
	for _, c := range d.Categories {
		if c.Name == name {
			return c, true
		}
	}
	if d.Open && d.Match != nil {
		return d.Match(name), true
	}
	return Category{}, false
}

// RequiredJoins lists the joins of every category, then Joins, in order.
// Duplicates are left for the caller to remove.
func (d *Dimension) RequiredJoins() []JoinRef {
	var out []JoinRef
	for _, c := range d.Categories {
		out = append(out, c.Joins...)
	}
	return append(out, d.Joins...)
}

// Clone returns a deep copy of d. Match is shared; it builds fresh
// categories on every call.
func (d *Dimension) Clone() *Dimension {
	out := *d
	out.GroupKey = d.GroupKey.Clone()
	out.Coverage = d.Coverage.Clone()
	out.Joins = cloneJoins(d.Joins)
	if d.Categories != nil {
		out.Categories = make([]Category, len(d.Categories))
		for i, c := range d.Categories {
			out.Categories[i] = Category{Name: c.Name, Predicate: c.Predicate.Clone(), Joins: cloneJoins(c.Joins)}
		}
	}
	return &out
}

func cloneJoins(joins []JoinRef) []JoinRef {
	if joins == nil {
		return nil
	}
	return append([]JoinRef(nil), joins...)
}

// CategoryNames lists category names in declared order.
func (d *Dimension) CategoryNames() []string {
	names := make([]string, len(d.Categories))
	for i, c := range d.Categories {
		names[i] = c.Name
	}
	return names
}

// Aggregate is a named computation evaluated per group.
type Aggregate struct {
	Alias  string
	Kind   AggregateKind
	Target string
	Expr   sqlexpr.Expr
	Joins  []JoinRef
}

// Clone returns a deep copy of a.
func (a *Aggregate) Clone() *Aggregate {
	out := *a
	out.Expr = a.Expr.Clone()
	out.Joins = cloneJoins(a.Joins)
	return &out
}

// ColumnRole says how a select column is read back from a result row.
type ColumnRole int

const (
	// RoleMeasure columns hold aggregate values or per-category counts.
	RoleMeasure ColumnRole = iota
	// RoleGroupKey columns hold the category label of a grouped dimension.
	RoleGroupKey
)

func (r ColumnRole) String() string {
	if r == RoleGroupKey {
		return "group_key"
	}
	return "measure"
}

// Select is one expression of a plan's select list.
type Select struct {
	Expr  sqlexpr.Expr
	Alias string
	Role  ColumnRole
}

// QueryPlan is the store-agnostic description of one analytical query.
type QueryPlan struct {
	Subject string
	Filter  sqlexpr.Expr
	Joins   []JoinRef
	Selects []Select
	Groups  []string
	Order   []string
}

// Filter selects the raw records behind a cube cell.
type Filter struct {
	Subject   string
	Condition sqlexpr.Expr
	Joins     []JoinRef
}

// RecordSet holds raw records returned for a drilldown.
type RecordSet struct {
	Columns  []string
	Rows     [][]interface{}
	RowCount int
}
