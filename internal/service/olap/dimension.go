package olap

import (
	"time"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// PeriodLabelLayout formats the category names of period dimensions.
const PeriodLabelLayout = time.RFC3339

// MaxCategories bounds the categories of one dimension, period buckets
// included.
const MaxCategories = 1000

// DimensionSpec describes a dimension in a query. Implementations:
// NamedDimension, InlineDimension, FieldDimension and PeriodDimension.
type DimensionSpec interface {
	dimensionSpec()
}

// NamedDimension refers to a dimension registered for the subject.
type NamedDimension struct {
	Name string
}

// CategorySpec is one named condition of an inline dimension.
type CategorySpec struct {
	Name  string
	Where PredicateSpec
}

// InlineDimension lists its categories in priority order. A record takes the
// first category it matches unless Overlapping is set, in which case it is
// counted in every category it matches.
type InlineDimension struct {
	Name        string
	Categories  []CategorySpec
	Overlapping bool
}

// FieldDimension groups records by the distinct non-NULL values of a field.
type FieldDimension struct {
	Field string
}

// PeriodDimension buckets a time field into Count consecutive half-open
// periods of Length, the first one starting at Start. When Layout is set the
// bounds are bound as text in that layout, for stores that keep times as text.
type PeriodDimension struct {
	Name   string
	Field  string
	Start  time.Time
	Length time.Duration
	Count  int
	Layout string
}

// resolvedDimension carries an already resolved dimension, as handed out by
// Cube.Selectors.
type resolvedDimension struct {
	dim *domain.Dimension
}

func (NamedDimension) dimensionSpec()    {}
func (InlineDimension) dimensionSpec()   {}
func (FieldDimension) dimensionSpec()    {}
func (PeriodDimension) dimensionSpec()   {}
func (resolvedDimension) dimensionSpec() {}

// Catalog looks up the dimensions and aggregates registered for one subject.
// Implemented by *SubjectConfig.
type Catalog interface {
	LookupDimension(name string) (*domain.Dimension, error)
	LookupAggregate(name string) (*domain.Aggregate, error)
}

// resolveDimension turns a spec into a dimension of schema. catalog may be nil,
// in which case named dimensions are unknown.
func resolveDimension(schema domain.Schema, catalog Catalog, spec DimensionSpec) (*domain.Dimension, error) {
	switch d := spec.(type) {
	case nil:
		return nil, domain.ErrInvalidSpec("dimension is required")

	case NamedDimension:
		if catalog == nil {
			return nil, &domain.UnknownDimensionError{Subject: schema.SubjectName(), Name: d.Name}
		}
		return catalog.LookupDimension(d.Name)

	case InlineDimension:
		return resolveInline(schema, d)

	case FieldDimension:
		return resolveField(schema, d)

	case PeriodDimension:
		return resolvePeriod(schema, d)

	case resolvedDimension:
		if d.dim == nil {
			return nil, domain.ErrInvalidSpec("dimension is required")
		}
		return d.dim, nil

	default:
		return nil, domain.ErrInvalidSpec("unsupported dimension %T", spec)
	}
}

func resolveInline(schema domain.Schema, d InlineDimension) (*domain.Dimension, error) {
	name := d.Name
	if name == "" {
		name = "inline"
	}
	if err := sqlexpr.ValidateIdentifier(name); err != nil {
		return nil, domain.ErrInvalidSpec("dimension %v", err)
	}
	if len(d.Categories) == 0 {
		return nil, domain.ErrInvalidSpec("dimension %q has no categories", name)
	}
	if len(d.Categories) > MaxCategories {
		return nil, domain.ErrInvalidSpec("dimension %q has %d categories, at most %d are allowed", name, len(d.Categories), MaxCategories)
	}

	dim := &domain.Dimension{
		Name:        name,
		Source:      schema.SubjectName(),
		Overlapping: d.Overlapping,
		Categories:  make([]domain.Category, 0, len(d.Categories)),
	}
	seen := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		if c.Name == "" {
			return nil, domain.ErrInvalidSpec("dimension %q has a category without a name", name)
		}
		if seen[c.Name] {
			return nil, domain.ErrInvalidSpec("dimension %q declares category %q twice", name, c.Name)
		}
		seen[c.Name] = true

		pred, joins, err := resolvePredicate(schema, c.Where)
		if err != nil {
			return nil, err
		}
		dim.Categories = append(dim.Categories, domain.Category{Name: c.Name, Predicate: pred, Joins: joins})
	}
	return dim, nil
}

func resolveField(schema domain.Schema, d FieldDimension) (*domain.Dimension, error) {
	col, joins, err := schema.ResolveField(d.Field)
	if err != nil {
		return nil, err
	}
	return &domain.Dimension{
		Name:     d.Field,
		Source:   schema.SubjectName(),
		GroupKey: col,
		Coverage: sqlexpr.NotNull(col),
		Joins:    joins,
		Open:     true,
		Match: func(label string) domain.Category {
			pred, _ := sqlexpr.Compare(col, sqlexpr.OpEqual, label)
			return domain.Category{Name: label, Predicate: pred, Joins: joins}
		},
	}, nil
}

func resolvePeriod(schema domain.Schema, d PeriodDimension) (*domain.Dimension, error) {
	name := d.Name
	if name == "" {
		name = d.Field
	}
	if d.Count <= 0 {
		return nil, domain.ErrInvalidSpec("period dimension %q needs a positive count", name)
	}
	if d.Count > MaxCategories {
		return nil, domain.ErrInvalidSpec("period dimension %q has %d periods, at most %d are allowed", name, d.Count, MaxCategories)
	}
	if d.Length <= 0 {
		return nil, domain.ErrInvalidSpec("period dimension %q needs a positive length", name)
	}
	if d.Start.IsZero() {
		return nil, domain.ErrInvalidSpec("period dimension %q needs a start", name)
	}
	col, joins, err := schema.ResolveField(d.Field)
	if err != nil {
		return nil, err
	}

	bound := func(t time.Time) any {
		if d.Layout != "" {
			return t.Format(d.Layout)
		}
		return t
	}

	dim := &domain.Dimension{
		Name:       name,
		Source:     schema.SubjectName(),
		Categories: make([]domain.Category, 0, d.Count),
	}
	for i := 0; i < d.Count; i++ {
		lo := d.Start.Add(time.Duration(i) * d.Length)
		hi := lo.Add(d.Length)
		from, _ := sqlexpr.Compare(col, sqlexpr.OpGreaterEqual, bound(lo))
		until, _ := sqlexpr.Compare(col, sqlexpr.OpLessThan, bound(hi))
		dim.Categories = append(dim.Categories, domain.Category{
			Name:      lo.Format(PeriodLabelLayout),
			Predicate: sqlexpr.And(from, until),
			Joins:     joins,
		})
	}
	return dim, nil
}

// coverage is the condition a record must meet to land in any category.
func coverage(dim *domain.Dimension) sqlexpr.Expr {
	if !dim.Coverage.IsZero() {
		return dim.Coverage
	}
	preds := make([]sqlexpr.Expr, len(dim.Categories))
	for i, c := range dim.Categories {
		preds[i] = c.Predicate
	}
	return sqlexpr.Or(preds...)
}

// groupKey labels a record with the first category it matches.
func groupKey(dim *domain.Dimension) sqlexpr.Expr {
	if !dim.GroupKey.IsZero() {
		return dim.GroupKey
	}
	whens := make([]sqlexpr.When, len(dim.Categories))
	for i, c := range dim.Categories {
		whens[i] = sqlexpr.When{Cond: c.Predicate, Then: sqlexpr.Literal(c.Name)}
	}
	return sqlexpr.Case(whens, sqlexpr.Null())
}
