package olap

import (
	"strings"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// AggregateSpec describes a computed measure. Implementations:
// NamedAggregate, AggregateDef and RawAggregate.
type AggregateSpec interface {
	aggregateSpec()
}

// NamedAggregate refers to an aggregate registered for the subject.
type NamedAggregate struct {
	Name string
}

// AggregateDef computes Kind over Target. Alias defaults to
// "<kind>_<target>" with dots replaced by underscores.
type AggregateDef struct {
	Kind   string
	Target string
	Alias  string
}

// RawAggregate is a caller-written aggregate expression. Alias is required.
type RawAggregate struct {
	SQL   string
	Args  []any
	Joins []string
	Alias string
}

func (NamedAggregate) aggregateSpec() {}
func (AggregateDef) aggregateSpec()   {}
func (RawAggregate) aggregateSpec()   {}

// resolveAggregates resolves specs in order, rejecting duplicate aliases.
func resolveAggregates(schema domain.Schema, catalog Catalog, specs []AggregateSpec) ([]domain.Aggregate, error) {
	out := make([]domain.Aggregate, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		agg, err := resolveAggregate(schema, catalog, spec)
		if err != nil {
			return nil, err
		}
		if seen[agg.Alias] {
			return nil, domain.ErrInvalidSpec("aggregate alias %q is used twice", agg.Alias)
		}
		seen[agg.Alias] = true
		out = append(out, *agg)
	}
	return out, nil
}

func resolveAggregate(schema domain.Schema, catalog Catalog, spec AggregateSpec) (*domain.Aggregate, error) {
	switch a := spec.(type) {
	case nil:
		return nil, domain.ErrInvalidSpec("aggregate is required")

	case NamedAggregate:
		if catalog == nil {
			return nil, &domain.UnknownAggregateError{Subject: schema.SubjectName(), Name: a.Name}
		}
		return catalog.LookupAggregate(a.Name)

	case AggregateDef:
		return resolveAggregateDef(schema, a)

	case RawAggregate:
		if a.Alias == "" {
			return nil, domain.ErrInvalidSpec("raw aggregate needs an alias")
		}
		if err := validateAlias(a.Alias); err != nil {
			return nil, err
		}
		e, err := sqlexpr.Fragment(a.SQL, a.Args...)
		if err != nil {
			return nil, domain.ErrInvalidSpec("raw aggregate %q: %v", a.Alias, err)
		}
		joins, err := declaredJoins(schema, a.Joins)
		if err != nil {
			return nil, err
		}
		return &domain.Aggregate{Alias: a.Alias, Kind: domain.AggregateRaw, Target: a.SQL, Expr: e, Joins: joins}, nil

	default:
		return nil, domain.ErrInvalidSpec("unsupported aggregate %T", spec)
	}
}

func resolveAggregateDef(schema domain.Schema, a AggregateDef) (*domain.Aggregate, error) {
	kind, err := domain.ParseAggregateKind(a.Kind)
	if err != nil {
		return nil, err
	}
	if kind == domain.AggregateRaw {
		return nil, domain.ErrInvalidSpec("raw aggregates take an sql expression, not a target")
	}

	target := a.Target
	var arg sqlexpr.Expr
	var joins []domain.JoinRef
	switch {
	case kind == domain.AggregateCount && (target == "" || target == "*"):
		target = "*"
		arg = sqlexpr.Star()
	case target == "" && kind == domain.AggregateCountDistinct:
		target = schema.IdentityField()
		fallthrough
	default:
		if target == "" {
			return nil, domain.ErrInvalidSpec("%s aggregate needs a target field", kind)
		}
		col, j, err := schema.ResolveField(target)
		if err != nil {
			return nil, &domain.UnknownAggregateFieldError{Subject: schema.SubjectName(), Field: target}
		}
		arg, joins = col, j
	}

	alias := a.Alias
	if alias == "" {
		alias = defaultAlias(kind, target)
	}
	if err := validateAlias(alias); err != nil {
		return nil, err
	}
	return &domain.Aggregate{Alias: alias, Kind: kind, Target: target, Expr: aggregateExpr(kind, arg), Joins: joins}, nil
}

func aggregateExpr(kind domain.AggregateKind, arg sqlexpr.Expr) sqlexpr.Expr {
	switch kind {
	case domain.AggregateCountDistinct:
		return sqlexpr.Call("count", sqlexpr.Distinct(arg))
	case domain.AggregateSum:
		return sqlexpr.Call("sum", arg)
	case domain.AggregateAverage:
		return sqlexpr.Call("avg", arg)
	case domain.AggregateMin:
		return sqlexpr.Call("min", arg)
	case domain.AggregateMax:
		return sqlexpr.Call("max", arg)
	default:
		return sqlexpr.Call("count", arg)
	}
}

func defaultAlias(kind domain.AggregateKind, target string) string {
	if target == "*" {
		return string(kind) + "_all"
	}
	return string(kind) + "_" + strings.ReplaceAll(target, ".", "_")
}

// validateAlias keeps measure aliases clear of the group key aliases.
func validateAlias(alias string) error {
	if err := sqlexpr.ValidateIdentifier(alias); err != nil {
		return domain.ErrInvalidSpec("aggregate alias %v", err)
	}
	if isGroupAlias(alias) {
		return domain.ErrInvalidSpec("aggregate alias %q is reserved for group keys", alias)
	}
	return nil
}

// defaultAggregate counts distinct identities.
func defaultAggregate(schema domain.Schema) (domain.Aggregate, error) {
	id, joins, err := schema.ResolveField(schema.IdentityField())
	if err != nil {
		return domain.Aggregate{}, err
	}
	return domain.Aggregate{
		Alias:  domain.DefaultAggregateAlias,
		Kind:   domain.AggregateCountDistinct,
		Target: schema.IdentityField(),
		Expr:   sqlexpr.Call("count", sqlexpr.Distinct(id)),
		Joins:  joins,
	}, nil
}
