package olap

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-olap/internal/domain"
)

func compileNamed(t *testing.T, req QueryRequest) (*Compiled, error) {
	t.Helper()
	return NewCompiler(newTestRegistry(t)).Compile("people", req)
}

func TestCompile_NoDimensions(t *testing.T) {
	for _, aggs := range [][]AggregateSpec{nil, {NamedAggregate{Name: "headcount"}}} {
		_, err := compileNamed(t, QueryRequest{Aggregates: aggs})
		var target *domain.NoDimensionsError
		require.ErrorAs(t, err, &target)
	}
}

func TestCompile_OverlapNotLast(t *testing.T) {
	_, err := compileNamed(t, QueryRequest{Dimensions: named("languages", "gender")})

	var target *domain.OverlapPlacementError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "languages", target.Dimension)
	assert.Equal(t, 0, target.Position)
}

func TestCompile_OverlapWithAggregates(t *testing.T) {
	_, err := compileNamed(t, QueryRequest{
		Dimensions: named("gender", "languages"),
		Aggregates: []AggregateSpec{NamedAggregate{Name: "total_salary"}},
	})

	var target *domain.AggregateOverlapConflictError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "languages", target.Dimension)
}

func TestCompile_ValidationOrder(t *testing.T) {
	// Overlap placement is reported before the aggregate conflict.
	_, err := compileNamed(t, QueryRequest{
		Dimensions: named("languages", "languages"),
		Aggregates: []AggregateSpec{NamedAggregate{Name: "total_salary"}},
	})
	var target *domain.OverlapPlacementError
	require.ErrorAs(t, err, &target)
}

func TestCompile_OverlapCountsPerCategory(t *testing.T) {
	c, err := compileNamed(t, QueryRequest{Dimensions: named("gender", "languages")})
	require.NoError(t, err)

	plan := c.Plan
	assert.True(t, c.Overlap)
	assert.Empty(t, c.Aggregates)
	require.Len(t, plan.Selects, 4)

	for i, cat := range []string{"english", "german", "french"} {
		assert.Equal(t, cat, plan.Selects[i].Alias)
		assert.Equal(t, domain.RoleMeasure, plan.Selects[i].Role)
	}
	assert.Equal(t, `COUNT(DISTINCT CASE WHEN "people"."english" = ? THEN "people"."id" END)`, plan.Selects[0].Expr.SQL)
	assert.Equal(t, []any{1}, plan.Selects[0].Expr.Args)

	assert.Equal(t, "dimension_0", plan.Selects[3].Alias)
	assert.Equal(t, domain.RoleGroupKey, plan.Selects[3].Role)
	assert.Equal(t, []string{"dimension_0"}, plan.Groups)
	assert.Equal(t, plan.Groups, plan.Order)
}

func TestCompile_DefaultAggregate(t *testing.T) {
	c, err := compileNamed(t, QueryRequest{Dimensions: named("age_group")})
	require.NoError(t, err)

	plan := c.Plan
	require.Len(t, plan.Selects, 2)
	assert.Equal(t, domain.DefaultAggregateAlias, plan.Selects[0].Alias)
	assert.Equal(t, `COUNT(DISTINCT "people"."id")`, plan.Selects[0].Expr.SQL)
	assert.Equal(t, domain.RoleMeasure, plan.Selects[0].Role)

	key := plan.Selects[1]
	assert.Equal(t, "dimension_0", key.Alias)
	assert.Equal(t,
		`CASE WHEN "people"."age" < ? THEN 'young' WHEN "people"."age" BETWEEN ? AND ? THEN 'middle' WHEN "people"."age" >= ? THEN 'senior' ELSE NULL END`,
		key.Expr.SQL)
	assert.Equal(t, []any{30, 30, 44, 45}, key.Expr.Args)

	assert.Equal(t, `("people"."age" < ?) OR ("people"."age" BETWEEN ? AND ?) OR ("people"."age" >= ?)`, plan.Filter.SQL)
	assert.Equal(t, []any{30, 30, 44, 45}, plan.Filter.Args)
	assert.Empty(t, plan.Joins)
	assert.Equal(t, []string{"dimension_0"}, plan.Groups)
}

func TestCompile_AggregatesThenGroupKeys(t *testing.T) {
	c, err := compileNamed(t, QueryRequest{
		Dimensions: named("age_group", "gender"),
		Aggregates: []AggregateSpec{
			NamedAggregate{Name: "total_salary"},
			AggregateDef{Kind: "avg", Target: "age"},
		},
	})
	require.NoError(t, err)

	var aliases []string
	var roles []domain.ColumnRole
	for _, s := range c.Plan.Selects {
		aliases = append(aliases, s.Alias)
		roles = append(roles, s.Role)
	}
	assert.Equal(t, []string{"total_salary", "average_age", "dimension_0", "dimension_1"}, aliases)
	assert.Equal(t, []domain.ColumnRole{domain.RoleMeasure, domain.RoleMeasure, domain.RoleGroupKey, domain.RoleGroupKey}, roles)
	assert.Equal(t, `SUM("people"."salary")`, c.Plan.Selects[0].Expr.SQL)
	assert.Equal(t, `AVG("people"."age")`, c.Plan.Selects[1].Expr.SQL)
	assert.Equal(t, []string{"dimension_0", "dimension_1"}, c.Plan.Groups)
	assert.Contains(t, c.Plan.Filter.SQL, ") AND (")
}

func TestCompile_PriorityCaseOrder(t *testing.T) {
	c, err := compileNamed(t, QueryRequest{Dimensions: named("priority")})
	require.NoError(t, err)

	assert.Equal(t, `CASE WHEN "people"."age" < ? THEN 'young' WHEN 1 = 1 THEN 'any' ELSE NULL END`, c.Plan.Selects[1].Expr.SQL)
}

func TestCompile_JoinsDeduplicated(t *testing.T) {
	teamKind := InlineDimension{Name: "team_kind", Categories: []CategorySpec{
		{Name: "platform", Where: Compare{Field: "team.kind", Op: "eq", Value: "platform"}},
		{Name: "eu_product", Where: All{
			Compare{Field: "team.kind", Op: "eq", Value: "product"},
			Compare{Field: "department.region", Op: "eq", Value: "EU"},
		}},
	}}
	c, err := compileNamed(t, QueryRequest{
		Dimensions: []DimensionSpec{NamedDimension{Name: "region"}, teamKind, NamedDimension{Name: "region"}},
		Aggregates: []AggregateSpec{
			RawAggregate{SQL: `SUM("department"."budget")`, Joins: []string{"department"}, Alias: "budget"},
			AggregateDef{Kind: "max", Target: "team.size"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.JoinRef{"department", "team"}, c.Plan.Joins)
	assert.Equal(t, "max_team_size", c.Plan.Selects[1].Alias)
}

func TestCompile_AggregateErrors(t *testing.T) {
	tests := []struct {
		name  string
		aggs  []AggregateSpec
		check func(t *testing.T, err error)
	}{
		{
			name: "empty_list",
			aggs: []AggregateSpec{},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "unknown_kind",
			aggs: []AggregateSpec{AggregateDef{Kind: "median", Target: "age"}},
			check: func(t *testing.T, err error) {
				var target *domain.UnknownAggregateKindError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "median", target.Kind)
			},
		},
		{
			name: "unknown_field",
			aggs: []AggregateSpec{AggregateDef{Kind: "sum", Target: "shoe_size"}},
			check: func(t *testing.T, err error) {
				var target *domain.UnknownAggregateFieldError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "shoe_size", target.Field)
			},
		},
		{
			name: "unknown_named",
			aggs: []AggregateSpec{NamedAggregate{Name: "nope"}},
			check: func(t *testing.T, err error) {
				var target *domain.UnknownAggregateError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "duplicate_alias",
			aggs: []AggregateSpec{NamedAggregate{Name: "headcount"}, AggregateDef{Kind: "count", Alias: "headcount"}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
				assert.Contains(t, target.Message, "used twice")
			},
		},
		{
			name: "reserved_alias",
			aggs: []AggregateSpec{AggregateDef{Kind: "count", Alias: "dimension_0"}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "raw_without_alias",
			aggs: []AggregateSpec{RawAggregate{SQL: "COUNT(*)"}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "raw_with_statement",
			aggs: []AggregateSpec{RawAggregate{SQL: "COUNT(*); DROP TABLE people", Alias: "n"}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
				assert.Contains(t, target.Message, "semicolons")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileNamed(t, QueryRequest{Dimensions: named("gender"), Aggregates: tt.aggs})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCompile_CountStar(t *testing.T) {
	c, err := compileNamed(t, QueryRequest{
		Dimensions: named("gender"),
		Aggregates: []AggregateSpec{AggregateDef{Kind: "count", Target: "*"}, AggregateDef{Kind: "count_distinct", Target: "department.name"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "COUNT(*)", c.Plan.Selects[0].Expr.SQL)
	assert.Equal(t, "count_all", c.Plan.Selects[0].Alias)
	assert.Equal(t, `COUNT(DISTINCT "department"."name")`, c.Plan.Selects[1].Expr.SQL)
	assert.Equal(t, "count_distinct_department_name", c.Plan.Selects[1].Alias)
	assert.Equal(t, []domain.JoinRef{"department"}, c.Plan.Joins)
}

func TestCompile_DimensionErrors(t *testing.T) {
	tests := []struct {
		name  string
		dim   DimensionSpec
		check func(t *testing.T, err error)
	}{
		{
			name: "unknown_named",
			dim:  NamedDimension{Name: "shoe_size"},
			check: func(t *testing.T, err error) {
				var target *domain.UnknownDimensionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "people", target.Subject)
			},
		},
		{
			name: "no_categories",
			dim:  InlineDimension{Name: "empty"},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "duplicate_category",
			dim: InlineDimension{Name: "dup", Categories: []CategorySpec{
				{Name: "a", Where: Always{}}, {Name: "a", Where: Always{}},
			}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "unknown_field",
			dim: InlineDimension{Name: "x", Categories: []CategorySpec{
				{Name: "a", Where: Compare{Field: "shoe_size", Op: "gt", Value: 40}},
			}},
			check: func(t *testing.T, err error) {
				var target *domain.UnknownFieldError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "shoe_size", target.Field)
			},
		},
		{
			name: "bad_operator",
			dim: InlineDimension{Name: "x", Categories: []CategorySpec{
				{Name: "a", Where: Compare{Field: "age", Op: "~", Value: 40}},
			}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "undeclared_sql_join",
			dim: InlineDimension{Name: "x", Categories: []CategorySpec{
				{Name: "a", Where: SQL{Fragment: `"office"."floor" > 2`, Joins: []string{"office"}}},
			}},
			check: func(t *testing.T, err error) {
				var target *domain.InvalidSpecError
				require.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{tt.dim}})
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			tt.check(t, err)
		})
	}
}

func TestCompile_FieldDimension(t *testing.T) {
	c, err := compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{FieldDimension{Field: "department.region"}}})
	require.NoError(t, err)

	assert.Equal(t, `"department"."region" IS NOT NULL`, c.Plan.Filter.SQL)
	assert.Equal(t, `"department"."region"`, c.Plan.Selects[1].Expr.SQL)
	assert.Equal(t, []domain.JoinRef{"department"}, c.Plan.Joins)
	assert.True(t, c.Dimensions[0].Open)
}

func TestCompile_PeriodDimension(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{PeriodDimension{
		Name: "hired", Field: "hired_on", Start: start, Length: 24 * time.Hour, Count: 3, Layout: "2006-01-02",
	}}})
	require.NoError(t, err)

	dim := c.Dimensions[0]
	assert.Equal(t, []string{"2021-01-01T00:00:00Z", "2021-01-02T00:00:00Z", "2021-01-03T00:00:00Z"}, dim.CategoryNames())
	assert.Equal(t, `("people"."hired_on" >= ?) AND ("people"."hired_on" < ?)`, dim.Categories[1].Predicate.SQL)
	assert.Equal(t, []any{"2021-01-02", "2021-01-03"}, dim.Categories[1].Predicate.Args)

	_, err = compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{PeriodDimension{Field: "hired_on", Start: start, Length: time.Hour}}})
	var target *domain.InvalidSpecError
	require.ErrorAs(t, err, &target)
}

func TestCompile_CategoryLimit(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{PeriodDimension{
		Name: "hired", Field: "hired_on", Start: start, Length: time.Hour, Count: MaxCategories + 1,
	}}})
	var target *domain.InvalidSpecError
	require.ErrorAs(t, err, &target)
	assert.Contains(t, err.Error(), "at most 1000")

	cats := make([]CategorySpec, MaxCategories+1)
	for i := range cats {
		cats[i] = CategorySpec{Name: fmt.Sprintf("c%d", i), Where: Always{}}
	}
	_, err = compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{InlineDimension{Name: "wide", Categories: cats}}})
	require.ErrorAs(t, err, &target)

	c, err := compileNamed(t, QueryRequest{Dimensions: []DimensionSpec{InlineDimension{Name: "wide", Categories: cats[:MaxCategories]}}})
	require.NoError(t, err)
	assert.Len(t, c.Dimensions[0].Categories, MaxCategories)
}

func TestCompile_PlansAreFresh(t *testing.T) {
	compiler := NewCompiler(newTestRegistry(t))
	a, err := compiler.Compile("people", QueryRequest{Dimensions: named("gender")})
	require.NoError(t, err)
	b, err := compiler.Compile("people", QueryRequest{Dimensions: named("gender")})
	require.NoError(t, err)

	a.Plan.Groups[0] = "mutated"
	a.Plan.Filter.Args[0] = "X"
	assert.Equal(t, "dimension_0", b.Plan.Groups[0])
	assert.Equal(t, "F", b.Plan.Filter.Args[0])
}

func TestCompile_UnknownSubject(t *testing.T) {
	_, err := NewCompiler(newTestRegistry(t)).Compile("ghosts", QueryRequest{Dimensions: named("gender")})
	var target *domain.UnknownSubjectError
	require.ErrorAs(t, err, &target)
	assert.True(t, domain.IsNotFound(err))
}
