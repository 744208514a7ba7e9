package declarative

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdataDir returns the absolute path to testdata relative to this test file.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Join(filepath.Dir(filename), "testdata")
}

func TestLoadCatalog_Valid(t *testing.T) {
	doc, err := LoadCatalog(filepath.Join(testdataDir(t), "catalog.yaml"))
	require.NoError(t, err)
	require.Len(t, doc.Subjects, 1)

	people := doc.Subjects[0]
	assert.Equal(t, "people", people.Name)
	assert.Len(t, people.Fields, 9)

	t.Run("relations loaded", func(t *testing.T) {
		require.Len(t, people.Relations, 1)
		assert.Equal(t, "departments", people.Relations[0].Table)
		assert.Equal(t, []string{"name", "region"}, people.Relations[0].Columns)
	})

	t.Run("dimensions loaded", func(t *testing.T) {
		require.Len(t, people.Dimensions, 6)
		age := people.Dimensions[0]
		require.Len(t, age.Categories, 3)
		assert.Equal(t, "between", age.Categories[1].Where.Op)
		assert.Equal(t, 30, age.Categories[1].Where.Low)
		assert.True(t, people.Dimensions[2].Overlapping)
		assert.Equal(t, "department.name", people.Dimensions[4].Field)
		require.NotNil(t, people.Dimensions[5].Period)
		assert.Equal(t, 5, people.Dimensions[5].Period.Count)
	})

	t.Run("aggregates loaded", func(t *testing.T) {
		require.Len(t, people.Aggregates, 3)
		assert.Equal(t, "sum", people.Aggregates[0].Kind)
		assert.Equal(t, []any{1000}, people.Aggregates[2].Args)
	})
}

func TestLoadCatalog_ExampleFileMatchesTestdata(t *testing.T) {
	doc, err := LoadCatalog(filepath.Join(testdataDir(t), "..", "..", "..", "catalog.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "people", doc.Subjects[0].Name)
}

func TestLoadCatalog_Errors(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "invalid")

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read ")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "unknown_field.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("structure", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "structure.yaml"))
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, "subject[people].relation[team]: table is required")
		assert.Contains(t, msg, "subject[people].relation[team]: foreign_key is required")
		assert.Contains(t, msg, "category[young]: where is required")
		assert.Contains(t, msg, "dimension[broken]: field, categories and period are mutually exclusive")
		assert.Contains(t, msg, "aggregate[total]: kind or sql is required")
		assert.Contains(t, msg, "duplicate subject name")
	})
}

func TestParseCatalog_Envelope(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"wrong version", "apiVersion: v2\nkind: Catalog\nsubjects: [{name: a}]\n", `unsupported apiVersion "v2"`},
		{"wrong kind", "apiVersion: olap/v1\nkind: Cube\nsubjects: [{name: a}]\n", `unexpected kind "Cube"`},
		{"empty", "apiVersion: olap/v1\nkind: Catalog\n", "catalog declares no subjects"},
		{"not yaml", "subjects: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCatalog_NestedPredicates(t *testing.T) {
	data := []byte(`
apiVersion: olap/v1
kind: Catalog
subjects:
  - name: people
    fields: [age]
    dimensions:
      - name: adult
        categories:
          - name: "yes"
            where: {all: [{field: age, op: gte, value: 18}, {not: {field: age, op: is_null}}]}
          - name: "no"
            where: {always: true}
`)
	doc, err := ParseCatalog(data)
	require.NoError(t, err)
	where := doc.Subjects[0].Dimensions[0].Categories[0].Where
	require.Len(t, where.All, 2)
	require.NotNil(t, where.All[1].Not)
	assert.Equal(t, "is_null", where.All[1].Not.Op)
}

func TestLoadQuery(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "requests")

	doc, err := LoadQuery(filepath.Join(dir, "by_region.yaml"))
	require.NoError(t, err)
	require.Len(t, doc.Dimensions, 2)
	assert.Equal(t, "region", doc.Dimensions[0].Name)
	require.Len(t, doc.Dimensions[1].Categories, 2)
	assert.Equal(t, "lt", doc.Dimensions[1].Categories[0].Where.Op)
	require.Len(t, doc.Aggregates, 2)
	assert.Equal(t, "max", doc.Aggregates[1].Kind)

	req, err := doc.ToQueryRequest()
	require.NoError(t, err)
	assert.Len(t, req.Dimensions, 2)

	doc, err = LoadQuery(filepath.Join(dir, "count.json"))
	require.NoError(t, err)
	assert.NotNil(t, doc.Aggregates)
	assert.Empty(t, doc.Aggregates)

	_, err = LoadQuery(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
