package olap

import (
	"fmt"
	"strconv"
	"strings"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

const groupAliasPrefix = "dimension_"

// QueryRequest is one analytical query over a subject. A nil Aggregates means
// none were supplied; a non-nil empty slice is rejected.
type QueryRequest struct {
	Dimensions []DimensionSpec
	Aggregates []AggregateSpec
}

// Compiled is a plan together with the dimensions and aggregates it was
// built from, as needed to read its rows back.
type Compiled struct {
	Plan       *domain.QueryPlan
	Dimensions []*domain.Dimension
	Aggregates []domain.Aggregate
	// Overlap is set when the last dimension overlaps and the plan counts
	// one column per category instead of grouping by it.
	Overlap bool
}

// Compiler compiles queries against the subjects of a sealed registry.
type Compiler struct {
	registry *Registry
}

// NewCompiler creates a compiler over registry.
func NewCompiler(registry *Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Compile compiles req for the named subject.
func (c *Compiler) Compile(subject string, req QueryRequest) (*Compiled, error) {
	cfg, err := c.registry.Subject(subject)
	if err != nil {
		return nil, err
	}
	return Compile(cfg.Schema(), cfg, req)
}

// Compile validates req against schema and builds its query plan. Named
// dimensions and aggregates are looked up in catalog, which may be nil.
//
// Validation runs in a fixed order and stops at the first failure: no
// dimensions, an overlapping dimension before the last position, then
// aggregates supplied alongside an overlapping last dimension.
func Compile(schema domain.Schema, catalog Catalog, req QueryRequest) (*Compiled, error) {
	if len(req.Dimensions) == 0 {
		return nil, &domain.NoDimensionsError{}
	}

	dims := make([]*domain.Dimension, len(req.Dimensions))
	for i, spec := range req.Dimensions {
		dim, err := resolveDimension(schema, catalog, spec)
		if err != nil {
			return nil, err
		}
		dims[i] = dim
	}
	last := len(dims) - 1
	for i, dim := range dims[:last] {
		if dim.Overlapping {
			return nil, &domain.OverlapPlacementError{Dimension: dim.Name, Position: i}
		}
	}
	overlap := dims[last].Overlapping
	supplied := req.Aggregates != nil
	if overlap && supplied {
		return nil, &domain.AggregateOverlapConflictError{Dimension: dims[last].Name}
	}

	var aggs []domain.Aggregate
	switch {
	case supplied:
		if len(req.Aggregates) == 0 {
			return nil, domain.ErrInvalidSpec("aggregates were supplied but the list is empty")
		}
		resolved, err := resolveAggregates(schema, catalog, req.Aggregates)
		if err != nil {
			return nil, err
		}
		aggs = resolved
	case !overlap:
		def, err := defaultAggregate(schema)
		if err != nil {
			return nil, err
		}
		aggs = []domain.Aggregate{def}
	}

	plan := &domain.QueryPlan{Subject: schema.SubjectName()}

	conds := make([]sqlexpr.Expr, len(dims))
	var joins joinSet
	for i, dim := range dims {
		conds[i] = coverage(dim)
		joins.add(dim.RequiredJoins()...)
	}
	for _, a := range aggs {
		joins.add(a.Joins...)
	}
	plan.Filter = sqlexpr.And(conds...)
	plan.Joins = joins.list()

	grouped := dims
	if overlap {
		grouped = dims[:last]
		sels, err := overlapCounts(schema, dims[last], len(grouped))
		if err != nil {
			return nil, err
		}
		plan.Selects = append(plan.Selects, sels...)
	} else {
		for _, a := range aggs {
			plan.Selects = append(plan.Selects, domain.Select{Expr: a.Expr, Alias: a.Alias, Role: domain.RoleMeasure})
		}
	}
	for i, dim := range grouped {
		alias := groupAlias(i)
		plan.Selects = append(plan.Selects, domain.Select{Expr: groupKey(dim), Alias: alias, Role: domain.RoleGroupKey})
		plan.Groups = append(plan.Groups, alias)
	}
	plan.Order = append([]string(nil), plan.Groups...)

	return &Compiled{Plan: plan, Dimensions: dims, Aggregates: aggs, Overlap: overlap}, nil
}

// overlapCounts counts, per category, the distinct records matching it.
func overlapCounts(schema domain.Schema, dim *domain.Dimension, groupDepth int) ([]domain.Select, error) {
	id, _, err := schema.ResolveField(schema.IdentityField())
	if err != nil {
		return nil, err
	}
	sels := make([]domain.Select, 0, len(dim.Categories))
	for _, c := range dim.Categories {
		if n, ok := groupIndex(c.Name); ok && n < groupDepth {
			return nil, domain.ErrInvalidSpec("category %q of dimension %q collides with a group key", c.Name, dim.Name)
		}
		count := sqlexpr.Call("count", sqlexpr.Distinct(sqlexpr.Case([]sqlexpr.When{{Cond: c.Predicate, Then: id}}, sqlexpr.Expr{})))
		sels = append(sels, domain.Select{Expr: count, Alias: c.Name, Role: domain.RoleMeasure})
	}
	return sels, nil
}

func groupAlias(i int) string {
	return fmt.Sprintf("%s%d", groupAliasPrefix, i)
}

func groupIndex(alias string) (int, bool) {
	rest, ok := strings.CutPrefix(alias, groupAliasPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func isGroupAlias(alias string) bool {
	_, ok := groupIndex(alias)
	return ok
}
