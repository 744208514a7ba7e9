package olap

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"duck-olap/internal/domain"
)

func peopleDef() SubjectDef {
	return SubjectDef{
		Name:     "people",
		Table:    "people",
		Identity: "id",
		Fields:   []string{"name", "age", "gender", "salary", "dept_id", "team_id", "english", "german", "french", "hired_on"},
		Relations: []domain.Relation{
			{Name: "department", Table: "departments", ForeignKey: "dept_id", PrimaryKey: "id", Columns: []string{"name", "region"}},
			{Name: "team", Table: "teams", ForeignKey: "team_id", Outer: true},
		},
	}
}

func ageGroup() InlineDimension {
	return InlineDimension{Name: "age_group", Categories: []CategorySpec{
		{Name: "young", Where: Compare{Field: "age", Op: "lt", Value: 30}},
		{Name: "middle", Where: Between{Field: "age", Low: 30, High: 44}},
		{Name: "senior", Where: Compare{Field: "age", Op: "gte", Value: 45}},
	}}
}

func genderDim() InlineDimension {
	return InlineDimension{Name: "gender", Categories: []CategorySpec{
		{Name: "F", Where: Compare{Field: "gender", Op: "eq", Value: "F"}},
		{Name: "M", Where: Compare{Field: "gender", Op: "eq", Value: "M"}},
	}}
}

func languagesDim() InlineDimension {
	return InlineDimension{Name: "languages", Overlapping: true, Categories: []CategorySpec{
		{Name: "english", Where: Compare{Field: "english", Op: "eq", Value: 1}},
		{Name: "german", Where: Compare{Field: "german", Op: "eq", Value: 1}},
		{Name: "french", Where: Compare{Field: "french", Op: "eq", Value: 1}},
	}}
}

func regionDim() InlineDimension {
	return InlineDimension{Name: "region", Categories: []CategorySpec{
		{Name: "EU", Where: Compare{Field: "department.region", Op: "eq", Value: "EU"}},
		{Name: "US", Where: Compare{Field: "department.region", Op: "eq", Value: "US"}},
	}}
}

func priorityDim() InlineDimension {
	return InlineDimension{Name: "priority", Categories: []CategorySpec{
		{Name: "young", Where: Compare{Field: "age", Op: "lt", Value: 30}},
		{Name: "any", Where: Always{}},
	}}
}

// newTestRegistry registers the people subject with its usual dimensions and
// aggregates, then seals the registry.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	cfg, err := r.Register(peopleDef())
	require.NoError(t, err)

	require.NoError(t, cfg.DefineDimension("age_group", ageGroup()))
	require.NoError(t, cfg.DefineDimension("gender", genderDim()))
	require.NoError(t, cfg.DefineDimension("languages", languagesDim()))
	require.NoError(t, cfg.DefineDimension("region", regionDim()))
	require.NoError(t, cfg.DefineDimension("priority", priorityDim()))
	require.NoError(t, cfg.DefineAggregate("total_salary", AggregateDef{Kind: "sum", Target: "salary"}))
	require.NoError(t, cfg.DefineAggregate("headcount", AggregateDef{Kind: "count"}))

	r.Seal()
	return r
}

func named(names ...string) []DimensionSpec {
	out := make([]DimensionSpec, len(names))
	for i, n := range names {
		out[i] = NamedDimension{Name: n}
	}
	return out
}

// fakeStore records what it was asked and returns canned results.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string][]domain.Row
	records *domain.RecordSet
	err     error

	plans   []*domain.QueryPlan
	filters []*domain.Filter
}

func (f *fakeStore) Execute(_ context.Context, schema domain.Schema, plan *domain.QueryPlan) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[schema.SubjectName()], nil
}

func (f *fakeStore) Fetch(_ context.Context, _ domain.Schema, filter *domain.Filter) (*domain.RecordSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakeRenderer also renders, like the SQL store does.
type fakeRenderer struct {
	fakeStore
}

func (f *fakeRenderer) RenderPlan(schema domain.Schema, plan *domain.QueryPlan) (string, []any, error) {
	return "SELECT ... FROM " + schema.Table(), []any{len(plan.Selects)}, nil
}

func (f *fakeRenderer) RenderFilter(schema domain.Schema, _ *domain.Filter) (string, []any, error) {
	return "SELECT * FROM " + schema.Table(), nil, nil
}
