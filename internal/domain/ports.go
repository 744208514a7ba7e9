package domain

import (
	"context"

	"duck-olap/internal/sqlexpr"
)

// Relation is a named join from a subject to another table.
type Relation struct {
	Name       string
	Table      string
	ForeignKey string // column on the subject table
	PrimaryKey string // column on the related table
	Columns    []string
	Outer      bool // LEFT JOIN instead of INNER JOIN
}

// Schema is the capability a subject type exposes to the OLAP compiler:
// field lookup and the metadata the record store needs for rendering.
// Implemented by olap.Subject.
type Schema interface {
	SubjectName() string
	Table() string
	IdentityField() string
	// Columns lists the native columns of the subject table.
	Columns() []string
	// ResolveField turns a field reference ("age", "department.region")
	// into a column expression and the joins it requires.
	ResolveField(ref string) (sqlexpr.Expr, []JoinRef, error)
	Relation(name JoinRef) (Relation, bool)
}

// RecordStore executes compiled plans. The OLAP core never renders SQL
// statements itself; implementations own dialect, join resolution and
// cancellation. Implemented by store.SQLStore.
type RecordStore interface {
	Execute(ctx context.Context, schema Schema, plan *QueryPlan) ([]Row, error)
	Fetch(ctx context.Context, schema Schema, filter *Filter) (*RecordSet, error)
}

// Renderer is implemented by stores that can show the statement they would run.
type Renderer interface {
	RenderPlan(schema Schema, plan *QueryPlan) (string, []any, error)
	RenderFilter(schema Schema, filter *Filter) (string, []any, error)
}
