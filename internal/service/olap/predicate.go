package olap

import (
	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// PredicateSpec is a declarative boolean condition over a subject's fields.
// Implementations: Compare, Between, In, IsNull, NotNull, Like, All, Any,
// Not, Always and SQL.
type PredicateSpec interface {
	predicateSpec()
}

// Compare matches records where Field Op Value holds. Op is one of
// eq, neq, lt, lte, gt, gte.
type Compare struct {
	Field string
	Op    string
	Value any
}

// Between matches Low <= Field <= High.
type Between struct {
	Field string
	Low   any
	High  any
}

// In matches records whose Field is one of Values. An empty list matches nothing.
type In struct {
	Field  string
	Values []any
}

// IsNull matches records where Field is NULL.
type IsNull struct{ Field string }

// NotNull matches records where Field is not NULL.
type NotNull struct{ Field string }

// Like matches Field against a SQL LIKE pattern.
type Like struct {
	Field   string
	Pattern string
}

// All matches when every predicate matches. An empty All always matches.
type All []PredicateSpec

// Any matches when at least one predicate matches. An empty Any never matches.
type Any []PredicateSpec

// Not negates a predicate.
type Not struct{ Predicate PredicateSpec }

// Always matches every record.
type Always struct{}

// SQL is a raw condition fragment with "?" placeholders. Joins names the
// relations the fragment references.
type SQL struct {
	Fragment string
	Args     []any
	Joins    []string
}

func (Compare) predicateSpec() {}
func (Between) predicateSpec() {}
func (In) predicateSpec()      {}
func (IsNull) predicateSpec()  {}
func (NotNull) predicateSpec() {}
func (Like) predicateSpec()    {}
func (All) predicateSpec()     {}
func (Any) predicateSpec()     {}
func (Not) predicateSpec()     {}
func (Always) predicateSpec()  {}
func (SQL) predicateSpec()     {}

var predicateOps = map[string]bool{
	sqlexpr.OpEqual: true, sqlexpr.OpNotEqual: true,
	sqlexpr.OpLessThan: true, sqlexpr.OpLessEqual: true,
	sqlexpr.OpGreaterThan: true, sqlexpr.OpGreaterEqual: true,
}

// resolvePredicate compiles a predicate spec into a sanitized condition and
// the joins its fields need, in first-occurrence order.
func resolvePredicate(schema domain.Schema, spec PredicateSpec) (sqlexpr.Expr, []domain.JoinRef, error) {
	switch p := spec.(type) {
	case nil:
		return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("predicate is required")

	case Compare:
		if !predicateOps[p.Op] {
			return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("unsupported operator %q (use eq, neq, lt, lte, gt or gte)", p.Op)
		}
		if p.Value == nil {
			return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("comparison on %q has no value (use is_null)", p.Field)
		}
		col, joins, err := schema.ResolveField(p.Field)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		e, err := sqlexpr.Compare(col, p.Op, p.Value)
		if err != nil {
			return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("%v", err)
		}
		return e, joins, nil

	case Between:
		if p.Low == nil || p.High == nil {
			return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("between on %q needs both bounds", p.Field)
		}
		col, joins, err := schema.ResolveField(p.Field)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.Between(col, p.Low, p.High), joins, nil

	case In:
		col, joins, err := schema.ResolveField(p.Field)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.In(col, p.Values), joins, nil

	case IsNull:
		col, joins, err := schema.ResolveField(p.Field)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.IsNull(col), joins, nil

	case NotNull:
		col, joins, err := schema.ResolveField(p.Field)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.NotNull(col), joins, nil

	case Like:
		col, joins, err := schema.ResolveField(p.Field)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.Like(col, p.Pattern), joins, nil

	case All:
		exprs, joins, err := resolvePredicates(schema, p)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.And(exprs...), joins, nil

	case Any:
		exprs, joins, err := resolvePredicates(schema, p)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.Or(exprs...), joins, nil

	case Not:
		e, joins, err := resolvePredicate(schema, p.Predicate)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return sqlexpr.Not(e), joins, nil

	case Always:
		return sqlexpr.True(), nil, nil

	case SQL:
		e, err := sqlexpr.Fragment(p.Fragment, p.Args...)
		if err != nil {
			return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("sql predicate: %v", err)
		}
		joins, err := declaredJoins(schema, p.Joins)
		if err != nil {
			return sqlexpr.Expr{}, nil, err
		}
		return e, joins, nil

	default:
		return sqlexpr.Expr{}, nil, domain.ErrInvalidSpec("unsupported predicate %T", spec)
	}
}

func resolvePredicates(schema domain.Schema, specs []PredicateSpec) ([]sqlexpr.Expr, []domain.JoinRef, error) {
	exprs := make([]sqlexpr.Expr, 0, len(specs))
	var joins joinSet
	for _, s := range specs {
		e, j, err := resolvePredicate(schema, s)
		if err != nil {
			return nil, nil, err
		}
		exprs = append(exprs, e)
		joins.add(j...)
	}
	return exprs, joins.list(), nil
}

// declaredJoins checks that every named relation exists on the subject.
func declaredJoins(schema domain.Schema, names []string) ([]domain.JoinRef, error) {
	var joins joinSet
	for _, n := range names {
		ref := domain.JoinRef(n)
		if _, ok := schema.Relation(ref); !ok {
			return nil, domain.ErrInvalidSpec("relation %q is not declared for %q", n, schema.SubjectName())
		}
		joins.add(ref)
	}
	return joins.list(), nil
}

// joinSet keeps join refs unique in first-occurrence order.
type joinSet struct {
	seen  map[domain.JoinRef]bool
	order []domain.JoinRef
}

func (s *joinSet) add(refs ...domain.JoinRef) {
	if s.seen == nil {
		s.seen = make(map[domain.JoinRef]bool)
	}
	for _, r := range refs {
		if s.seen[r] {
			continue
		}
		s.seen[r] = true
		s.order = append(s.order, r)
	}
}

func (s *joinSet) list() []domain.JoinRef {
	return append([]domain.JoinRef(nil), s.order...)
}
