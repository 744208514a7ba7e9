package declarative

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"duck-olap/internal/domain"
	"duck-olap/internal/service/olap"
)

func TestQueryDoc_JSONShorthand(t *testing.T) {
	body := `{
		"dimensions": ["age_group", {"field": "department.name"}, {"name": "langs", "overlapping": true,
			"categories": [{"name": "en", "where": {"field": "english", "value": 1}}]}],
		"aggregates": ["total_salary", {"kind": "max", "target": "age"}, {"sql": "SUM(\"people\".\"salary\") / ?", "args": [1000], "alias": "payroll_k"}]
	}`
	var doc QueryDoc
	require.NoError(t, DecodeJSON(strings.NewReader(body), &doc))

	req, err := doc.ToQueryRequest()
	require.NoError(t, err)
	require.Len(t, req.Dimensions, 3)
	assert.Equal(t, olap.NamedDimension{Name: "age_group"}, req.Dimensions[0])
	assert.Equal(t, olap.FieldDimension{Field: "department.name"}, req.Dimensions[1])
	assert.Equal(t, olap.InlineDimension{
		Name:        "langs",
		Overlapping: true,
		Categories:  []olap.CategorySpec{{Name: "en", Where: olap.Compare{Field: "english", Op: "eq", Value: int64(1)}}},
	}, req.Dimensions[2])

	require.Len(t, req.Aggregates, 3)
	assert.Equal(t, olap.NamedAggregate{Name: "total_salary"}, req.Aggregates[0])
	assert.Equal(t, olap.AggregateDef{Kind: "max", Target: "age"}, req.Aggregates[1])
	assert.Equal(t, olap.RawAggregate{SQL: `SUM("people"."salary") / ?`, Args: []any{int64(1000)}, Alias: "payroll_k"}, req.Aggregates[2])
}

func TestQueryDoc_AggregatesNilVersusEmpty(t *testing.T) {
	var doc QueryDoc
	require.NoError(t, DecodeJSON(strings.NewReader(`{"dimensions": ["gender"]}`), &doc))
	req, err := doc.ToQueryRequest()
	require.NoError(t, err)
	assert.Nil(t, req.Aggregates)

	require.NoError(t, DecodeJSON(strings.NewReader(`{"dimensions": ["gender"], "aggregates": []}`), &doc))
	req, err = doc.ToQueryRequest()
	require.NoError(t, err)
	assert.NotNil(t, req.Aggregates)
	assert.Empty(t, req.Aggregates)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var doc QueryDoc
	err := DecodeJSON(strings.NewReader(`{"dimensions": [{"name": "x", "colour": "red"}]}`), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")

	err = DecodeJSON(strings.NewReader(`{"dims": ["gender"]}`), &doc)
	require.Error(t, err)
}

func TestDimensionDoc_YAMLShorthand(t *testing.T) {
	var doc QueryDoc
	require.NoError(t, yaml.Unmarshal([]byte("dimensions: [gender, {field: age}]\naggregates: [headcount]\n"), &doc))
	assert.Equal(t, []DimensionDoc{{Name: "gender"}, {Field: "age"}}, doc.Dimensions)
	assert.Equal(t, []AggregateDoc{{Name: "headcount"}}, doc.Aggregates)
}

func TestToPredicateSpec(t *testing.T) {
	tests := []struct {
		name string
		doc  PredicateDoc
		want olap.PredicateSpec
	}{
		{"default op", PredicateDoc{Field: "gender", Value: "F"}, olap.Compare{Field: "gender", Op: "eq", Value: "F"}},
		{"upper op", PredicateDoc{Field: "age", Op: "GTE", Value: 45}, olap.Compare{Field: "age", Op: "gte", Value: int64(45)}},
		{"between", PredicateDoc{Field: "age", Op: "between", Low: 30, High: 44}, olap.Between{Field: "age", Low: int64(30), High: int64(44)}},
		{"in", PredicateDoc{Field: "dept_id", Op: "in", Values: []any{1, 2}}, olap.In{Field: "dept_id", Values: []any{int64(1), int64(2)}}},
		{"is_null", PredicateDoc{Field: "salary", Op: "is_null"}, olap.IsNull{Field: "salary"}},
		{"not_null", PredicateDoc{Field: "salary", Op: "not_null"}, olap.NotNull{Field: "salary"}},
		{"like", PredicateDoc{Field: "name", Op: "like", Pattern: "A%"}, olap.Like{Field: "name", Pattern: "A%"}},
		{"always", PredicateDoc{Always: true}, olap.Always{}},
		{"sql", PredicateDoc{SQL: `"people"."age" > ?`, Args: []any{1.5}}, olap.SQL{Fragment: `"people"."age" > ?`, Args: []any{1.5}}},
		{
			"any of not",
			PredicateDoc{Any: []PredicateDoc{{Not: &PredicateDoc{Field: "english", Value: 1}}, {Always: true}}},
			olap.Any{olap.Not{Predicate: olap.Compare{Field: "english", Op: "eq", Value: int64(1)}}, olap.Always{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPredicateSpec(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToPredicateSpec_Invalid(t *testing.T) {
	_, err := ToPredicateSpec(PredicateDoc{})
	var target *domain.InvalidSpecError
	require.ErrorAs(t, err, &target)
	assert.Contains(t, err.Error(), "predicate is empty")

	_, err = ToPredicateSpec(PredicateDoc{Field: "age", Always: true})
	require.ErrorAs(t, err, &target)
	assert.Contains(t, err.Error(), "predicate mixes field and always")
}

func TestToDimensionSpec(t *testing.T) {
	spec, err := ToDimensionSpec(DimensionDoc{Name: "hired", Period: &PeriodDoc{
		Field: "hired_on", Start: "2018-01-01", Length: "30d", Count: 3, Layout: "2006-01-02",
	}})
	require.NoError(t, err)
	assert.Equal(t, olap.PeriodDimension{
		Name:   "hired",
		Field:  "hired_on",
		Start:  time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		Length: 30 * 24 * time.Hour,
		Count:  3,
		Layout: "2006-01-02",
	}, spec)

	_, err = ToDimensionSpec(DimensionDoc{})
	assert.True(t, domain.IsValidation(err))

	_, err = ToDimensionSpec(DimensionDoc{Field: "age", Categories: []CategoryDoc{{Name: "a", Where: &PredicateDoc{Always: true}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	_, err = ToDimensionSpec(DimensionDoc{Period: &PeriodDoc{Field: "hired_on", Start: "yesterday", Length: "-1h", Count: 0}})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestToDimensionSpec_Limits(t *testing.T) {
	_, err := ToDimensionSpec(DimensionDoc{Name: "hired", Period: &PeriodDoc{
		Field: "hired_on", Start: "2018-01-01", Length: "1d", Count: 50000,
	}})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "exceeds the limit")

	cats := make([]CategoryDoc, olap.MaxCategories+1)
	for i := range cats {
		cats[i] = CategoryDoc{Name: fmt.Sprintf("c%d", i), Where: &PredicateDoc{Always: true}}
	}
	_, err = ToDimensionSpec(DimensionDoc{Name: "wide", Categories: cats})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "exceed the limit")
}

func TestToAggregateSpec_Invalid(t *testing.T) {
	_, err := ToAggregateSpec(AggregateDoc{})
	assert.True(t, domain.IsValidation(err))

	_, err = ToAggregateSpec(AggregateDoc{Kind: "sum", SQL: "SUM(1)"})
	assert.True(t, domain.IsValidation(err))
}

func TestParseCell(t *testing.T) {
	got, err := ParseCell([]string{"age_group=young", " gender = F "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"age_group": "young", "gender": "F"}, got)

	_, err = ParseCell([]string{"young"})
	assert.True(t, domain.IsValidation(err))

	_, err = ParseCell([]string{"gender=F", "gender=M"})
	assert.True(t, domain.IsValidation(err))
}

func TestParseLength(t *testing.T) {
	d, err := parseLength("720h")
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, d)

	d, err = parseLength("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	for _, bad := range []string{"", "0d", "xd", "soon"} {
		_, err := parseLength(bad)
		assert.Error(t, err, bad)
	}
}
