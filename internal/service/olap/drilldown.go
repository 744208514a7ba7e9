package olap

import (
	"sort"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// CellSelector picks one category of one dimension.
type CellSelector struct {
	Dimension DimensionSpec
	Category  string
}

// CompileDrilldown builds the filter selecting the records behind the chosen
// categories. A category of a non-overlapping dimension only matches records
// that no earlier category of that dimension claimed, so the records found
// are exactly those counted in the cube cell.
func CompileDrilldown(schema domain.Schema, catalog Catalog, selectors []CellSelector) (*domain.Filter, error) {
	if len(selectors) == 0 {
		return nil, &domain.EmptySelectorError{}
	}

	conds := make([]sqlexpr.Expr, 0, len(selectors))
	var joins joinSet
	for _, sel := range selectors {
		dim, err := resolveDimension(schema, catalog, sel.Dimension)
		if err != nil {
			return nil, err
		}
		cat, ok := dim.Category(sel.Category)
		if !ok {
			return nil, &domain.UnknownCategoryError{Dimension: dim.Name, Category: sel.Category}
		}
		cond, err := categoryCondition(dim, cat)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
		joins.add(dim.RequiredJoins()...)
	}

	return &domain.Filter{
		Subject:   schema.SubjectName(),
		Condition: sqlexpr.And(conds...),
		Joins:     joins.list(),
	}, nil
}

// categoryCondition is the category's own predicate when nothing can claim
// its records first, else the group key compared with its label.
func categoryCondition(dim *domain.Dimension, cat domain.Category) (sqlexpr.Expr, error) {
	if dim.Overlapping || dim.Open || len(dim.Categories) == 0 || dim.Categories[0].Name == cat.Name {
		return cat.Predicate, nil
	}
	return sqlexpr.Compare(groupKey(dim), sqlexpr.OpEqual, cat.Name)
}

// selectorsByName turns a dimension-name to category mapping into selectors in
// sorted key order. Keys name registered dimensions, or fields of the subject.
func selectorsByName(cfg *SubjectConfig, mapping map[string]string) []CellSelector {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sels := make([]CellSelector, len(keys))
	for i, k := range keys {
		var spec DimensionSpec = NamedDimension{Name: k}
		if !cfg.HasDimension(k) {
			if _, _, err := cfg.Schema().ResolveField(k); err == nil {
				spec = FieldDimension{Field: k}
			}
		}
		sels[i] = CellSelector{Dimension: spec, Category: mapping[k]}
	}
	return sels
}
