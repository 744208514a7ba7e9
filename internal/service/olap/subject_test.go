package olap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-olap/internal/domain"
)

func TestNewSubject_Defaults(t *testing.T) {
	s, err := NewSubject(SubjectDef{Name: "orders", Fields: []string{"total", "id"}})
	require.NoError(t, err)

	assert.Equal(t, "orders", s.Table())
	assert.Equal(t, "id", s.IdentityField())
	assert.Equal(t, []string{"id", "total"}, s.Columns())
	assert.Equal(t, `"orders"."id"`, s.IdentityExpr().SQL)
}

func TestNewSubject_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  SubjectDef
	}{
		{name: "bad_name", def: SubjectDef{Name: "or ders"}},
		{name: "bad_field", def: SubjectDef{Name: "orders", Fields: []string{"to-tal"}}},
		{name: "bad_relation_table", def: SubjectDef{Name: "orders", Relations: []domain.Relation{
			{Name: "customer", Table: "cust;omers", ForeignKey: "customer_id"},
		}}},
		{name: "duplicate_relation", def: SubjectDef{Name: "orders", Relations: []domain.Relation{
			{Name: "customer", Table: "customers", ForeignKey: "customer_id"},
			{Name: "customer", Table: "customers", ForeignKey: "customer_id"},
		}}},
		{name: "relation_shadows_field", def: SubjectDef{Name: "orders", Fields: []string{"customer"}, Relations: []domain.Relation{
			{Name: "customer", Table: "customers", ForeignKey: "customer_id"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSubject(tt.def)
			var target *domain.InvalidSpecError
			require.ErrorAs(t, err, &target)
		})
	}
}

func TestSubject_ResolveField(t *testing.T) {
	s, err := NewSubject(peopleDef())
	require.NoError(t, err)

	tests := []struct {
		ref       string
		wantSQL   string
		wantJoins []domain.JoinRef
		wantErr   bool
	}{
		{ref: "age", wantSQL: `"people"."age"`},
		{ref: "people.age", wantSQL: `"people"."age"`},
		{ref: "department.region", wantSQL: `"department"."region"`, wantJoins: []domain.JoinRef{"department"}},
		{ref: "team.anything", wantSQL: `"team"."anything"`, wantJoins: []domain.JoinRef{"team"}},
		{ref: "department.budget", wantErr: true},
		{ref: "office.floor", wantErr: true},
		{ref: "shoe_size", wantErr: true},
		{ref: `team.x"y`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			e, joins, err := s.ResolveField(tt.ref)
			if tt.wantErr {
				var target *domain.UnknownFieldError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, tt.ref, target.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, e.SQL)
			assert.Equal(t, tt.wantJoins, joins)
		})
	}

	rel, ok := s.Relation("team")
	require.True(t, ok)
	assert.Equal(t, "id", rel.PrimaryKey)
	assert.True(t, rel.Outer)
	assert.Len(t, s.Relations(), 2)
}
