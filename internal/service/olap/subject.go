// Package olap compiles multi-dimensional category queries into store-agnostic
// query plans, assembles the returned rows into cubes and turns cube cells
// back into record filters.
package olap

import (
	"fmt"
	"strings"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// SubjectDef describes a subject type: the table its records live in, the
// field that identifies a record, its native fields and its relations.
type SubjectDef struct {
	Name      string
	Table     string
	Identity  string
	Fields    []string
	Relations []domain.Relation
}

// Subject is the schema of one subject type. It implements domain.Schema.
type Subject struct {
	name      string
	table     string
	identity  string
	fields    []string
	fieldSet  map[string]bool
	relations map[domain.JoinRef]domain.Relation
	relOrder  []domain.JoinRef
}

var _ domain.Schema = (*Subject)(nil)

// NewSubject validates def and builds the subject schema. Table defaults to
// the subject name and Identity to "id"; the identity field is always a field.
func NewSubject(def SubjectDef) (*Subject, error) {
	if err := sqlexpr.ValidateIdentifier(def.Name); err != nil {
		return nil, domain.ErrInvalidSpec("subject %v", err)
	}
	s := &Subject{
		name:      def.Name,
		table:     def.Table,
		identity:  def.Identity,
		fieldSet:  make(map[string]bool),
		relations: make(map[domain.JoinRef]domain.Relation),
	}
	if s.table == "" {
		s.table = def.Name
	}
	if s.identity == "" {
		s.identity = "id"
	}
	if err := sqlexpr.ValidateIdentifier(s.table); err != nil {
		return nil, domain.ErrInvalidSpec("subject %q table %v", def.Name, err)
	}

	for _, f := range append([]string{s.identity}, def.Fields...) {
		if err := sqlexpr.ValidateIdentifier(f); err != nil {
			return nil, domain.ErrInvalidSpec("subject %q field %v", def.Name, err)
		}
		if s.fieldSet[f] {
			continue
		}
		s.fieldSet[f] = true
		s.fields = append(s.fields, f)
	}

	for _, rel := range def.Relations {
		if err := validateRelation(def.Name, rel); err != nil {
			return nil, err
		}
		ref := domain.JoinRef(rel.Name)
		if _, dup := s.relations[ref]; dup {
			return nil, domain.ErrInvalidSpec("subject %q declares relation %q twice", def.Name, rel.Name)
		}
		if rel.Name == s.name || s.fieldSet[rel.Name] {
			return nil, domain.ErrInvalidSpec("subject %q relation %q shadows a field or the subject itself", def.Name, rel.Name)
		}
		if rel.PrimaryKey == "" {
			rel.PrimaryKey = "id"
		}
		rel.Columns = append([]string(nil), rel.Columns...)
		s.relations[ref] = rel
		s.relOrder = append(s.relOrder, ref)
	}
	return s, nil
}

func validateRelation(subject string, rel domain.Relation) error {
	if err := sqlexpr.ValidateIdentifier(rel.Name); err != nil {
		return domain.ErrInvalidSpec("subject %q relation %v", subject, err)
	}
	checks := map[string]string{"table": rel.Table, "foreign_key": rel.ForeignKey}
	if rel.PrimaryKey != "" {
		checks["primary_key"] = rel.PrimaryKey
	}
	for what, v := range checks {
		if err := sqlexpr.ValidateIdentifier(v); err != nil {
			return domain.ErrInvalidSpec("subject %q relation %q %s %v", subject, rel.Name, what, err)
		}
	}
	for _, c := range rel.Columns {
		if err := sqlexpr.ValidateIdentifier(c); err != nil {
			return domain.ErrInvalidSpec("subject %q relation %q column %v", subject, rel.Name, err)
		}
	}
	return nil
}

// SubjectName returns the subject type name.
func (s *Subject) SubjectName() string { return s.name }

// Table returns the table holding the subject's records.
func (s *Subject) Table() string { return s.table }

// IdentityField returns the field that identifies a record.
func (s *Subject) IdentityField() string { return s.identity }

// Columns returns the subject's native fields, identity first.
func (s *Subject) Columns() []string { return append([]string(nil), s.fields...) }

// Relation returns the named relation.
func (s *Subject) Relation(name domain.JoinRef) (domain.Relation, bool) {
	rel, ok := s.relations[name]
	return rel, ok
}

// Relations returns the declared relations in declaration order.
func (s *Subject) Relations() []domain.Relation {
	out := make([]domain.Relation, len(s.relOrder))
	for i, ref := range s.relOrder {
		out[i] = s.relations[ref]
	}
	return out
}

// ResolveField resolves "field" to a column of the subject table and
// "relation.field" to a column of a related table plus the join it needs.
// A relation with no declared columns accepts any valid column name.
func (s *Subject) ResolveField(ref string) (sqlexpr.Expr, []domain.JoinRef, error) {
	relName, field, qualified := strings.Cut(ref, ".")
	if !qualified {
		if !s.fieldSet[ref] {
			return sqlexpr.Expr{}, nil, &domain.UnknownFieldError{Subject: s.name, Field: ref}
		}
		return sqlexpr.Column(s.table, ref), nil, nil
	}

	if relName == s.name || relName == s.table {
		return s.ResolveField(field)
	}
	rel, ok := s.relations[domain.JoinRef(relName)]
	if !ok || sqlexpr.ValidateIdentifier(field) != nil {
		return sqlexpr.Expr{}, nil, &domain.UnknownFieldError{Subject: s.name, Field: ref}
	}
	if len(rel.Columns) > 0 && !contains(rel.Columns, field) {
		return sqlexpr.Expr{}, nil, &domain.UnknownFieldError{Subject: s.name, Field: ref}
	}
	return sqlexpr.Column(rel.Name, field), []domain.JoinRef{domain.JoinRef(rel.Name)}, nil
}

// IdentityExpr is the qualified identity column.
func (s *Subject) IdentityExpr() sqlexpr.Expr {
	return sqlexpr.Column(s.table, s.identity)
}

func (s *Subject) String() string {
	return fmt.Sprintf("%s(%s)", s.name, s.table)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
