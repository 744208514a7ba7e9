package olap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-olap/internal/domain"
)

func peopleConfig(t *testing.T) *SubjectConfig {
	t.Helper()
	cfg, err := newTestRegistry(t).Subject("people")
	require.NoError(t, err)
	return cfg
}

func TestCompileDrilldown_Empty(t *testing.T) {
	cfg := peopleConfig(t)
	_, err := CompileDrilldown(cfg.Schema(), cfg, nil)

	var target *domain.EmptySelectorError
	require.ErrorAs(t, err, &target)
}

func TestCompileDrilldown_UnknownCategory(t *testing.T) {
	cfg := peopleConfig(t)
	_, err := CompileDrilldown(cfg.Schema(), cfg, []CellSelector{
		{Dimension: NamedDimension{Name: "age_group"}, Category: "ancient"},
	})

	var target *domain.UnknownCategoryError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "age_group", target.Dimension)
	assert.Equal(t, "ancient", target.Category)
}

func TestCompileDrilldown_ConjunctionOfCategories(t *testing.T) {
	cfg := peopleConfig(t)
	filter, err := CompileDrilldown(cfg.Schema(), cfg, []CellSelector{
		{Dimension: NamedDimension{Name: "region"}, Category: "EU"},
		{Dimension: NamedDimension{Name: "gender"}, Category: "F"},
		{Dimension: NamedDimension{Name: "languages"}, Category: "french"},
	})
	require.NoError(t, err)

	assert.Equal(t, "people", filter.Subject)
	assert.Equal(t,
		`("department"."region" = ?) AND ("people"."gender" = ?) AND ("people"."french" = ?)`,
		filter.Condition.SQL)
	assert.Equal(t, []any{"EU", "F", 1}, filter.Condition.Args)
	assert.Equal(t, []domain.JoinRef{"department"}, filter.Joins)
}

func TestCompileDrilldown_LaterCategoryHonorsPriority(t *testing.T) {
	cfg := peopleConfig(t)
	filter, err := CompileDrilldown(cfg.Schema(), cfg, []CellSelector{
		{Dimension: NamedDimension{Name: "priority"}, Category: "any"},
	})
	require.NoError(t, err)

	assert.Equal(t, `CASE WHEN "people"."age" < ? THEN 'young' WHEN 1 = 1 THEN 'any' ELSE NULL END = ?`, filter.Condition.SQL)
	assert.Equal(t, []any{30, "any"}, filter.Condition.Args)
}

func TestCompileDrilldown_InlineAndFieldDimensions(t *testing.T) {
	cfg := peopleConfig(t)
	filter, err := CompileDrilldown(cfg.Schema(), cfg, []CellSelector{
		{Dimension: FieldDimension{Field: "department.name"}, Category: "Sales"},
		{Dimension: InlineDimension{Name: "adult", Categories: []CategorySpec{
			{Name: "yes", Where: Compare{Field: "age", Op: "gte", Value: 18}},
		}}, Category: "yes"},
	})
	require.NoError(t, err)

	assert.Equal(t, `("department"."name" = ?) AND ("people"."age" >= ?)`, filter.Condition.SQL)
	assert.Equal(t, []any{"Sales", 18}, filter.Condition.Args)
	assert.Equal(t, []domain.JoinRef{"department"}, filter.Joins)
}

func TestDrilldownByName_SortedKeys(t *testing.T) {
	cfg := peopleConfig(t)
	sels := selectorsByName(cfg, map[string]string{"gender": "F", "dept_id": "2", "age_group": "young"})

	require.Len(t, sels, 3)
	assert.Equal(t, NamedDimension{Name: "age_group"}, sels[0].Dimension)
	assert.Equal(t, FieldDimension{Field: "dept_id"}, sels[1].Dimension)
	assert.Equal(t, NamedDimension{Name: "gender"}, sels[2].Dimension)

	filter, err := CompileDrilldown(cfg.Schema(), cfg, sels)
	require.NoError(t, err)
	assert.Equal(t, `("people"."age" < ?) AND ("people"."dept_id" = ?) AND ("people"."gender" = ?)`, filter.Condition.SQL)
	assert.Equal(t, []any{30, "2", "F"}, filter.Condition.Args)

	_, err = CompileDrilldown(cfg.Schema(), cfg, selectorsByName(cfg, map[string]string{"shoe_size": "44"}))
	var target *domain.UnknownDimensionError
	require.ErrorAs(t, err, &target)
}
