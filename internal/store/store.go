// Package store executes OLAP query plans and drilldown filters against a
// SQL database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"duck-olap/internal/domain"
	"duck-olap/internal/sqlexpr"
)

// Dialect selects how plans are rendered.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectDuckDB Dialect = "duckdb"
)

// ParseDialect validates a dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case DialectSQLite, DialectDuckDB:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q: must be %q or %q", name, DialectSQLite, DialectDuckDB)
	}
}

// SQLStore is a domain.RecordStore over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var (
	_ domain.RecordStore = (*SQLStore)(nil)
	_ domain.Renderer    = (*SQLStore)(nil)
)

// New creates a store rendering for dialect.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, dialect: dialect, logger: logger}
}

// Dialect returns the store's dialect.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Execute runs a query plan. Rows are aligned with plan.Selects.
func (s *SQLStore) Execute(ctx context.Context, schema domain.Schema, plan *domain.QueryPlan) ([]domain.Row, error) {
	query, args, err := s.RenderPlan(schema, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("executing olap plan", "subject", plan.Subject, "sql", query, "args", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", plan.Subject, err)
	}
	defer rows.Close()

	cols, records, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", plan.Subject, err)
	}
	if len(cols) != len(plan.Selects) {
		return nil, fmt.Errorf("query %s returned %d columns for %d selects", plan.Subject, len(cols), len(plan.Selects))
	}
	out := make([]domain.Row, len(records))
	for i, r := range records {
		out[i] = domain.Row(r)
	}
	return out, nil
}

// Fetch returns the records matching a drilldown filter, ordered by identity.
func (s *SQLStore) Fetch(ctx context.Context, schema domain.Schema, filter *domain.Filter) (*domain.RecordSet, error) {
	query, args, err := s.RenderFilter(schema, filter)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetching drilldown records", "subject", filter.Subject, "sql", query, "args", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", filter.Subject, err)
	}
	defer rows.Close()

	cols, records, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", filter.Subject, err)
	}
	return &domain.RecordSet{Columns: cols, Rows: records, RowCount: len(records)}, nil
}

// RenderPlan renders a plan as a single SELECT statement. Arguments are
// ordered as their placeholders appear: select expressions, then the filter.
func (s *SQLStore) RenderPlan(schema domain.Schema, plan *domain.QueryPlan) (string, []any, error) {
	if len(plan.Selects) == 0 {
		return "", nil, fmt.Errorf("plan for %s selects nothing", plan.Subject)
	}
	exprs := make([]sqlexpr.Expr, len(plan.Selects))
	position := make(map[string]int, len(plan.Selects))
	for i, sel := range plan.Selects {
		exprs[i] = sqlexpr.As(sel.Expr, sel.Alias)
		position[sel.Alias] = i + 1
	}
	selects := sqlexpr.List(exprs...)

	joins, err := renderJoins(schema, plan.Joins)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selects.SQL)
	b.WriteString(" FROM ")
	b.WriteString(sqlexpr.QuoteIdentifier(schema.Table()))
	b.WriteString(joins)
	if !plan.Filter.IsZero() {
		b.WriteString(" WHERE ")
		b.WriteString(plan.Filter.SQL)
	}

	groups, err := s.groupTerms(plan.Groups, position)
	if err != nil {
		return "", nil, err
	}
	order, err := s.groupTerms(plan.Order, position)
	if err != nil {
		return "", nil, err
	}
	if len(groups) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groups, ", "))
	}
	if len(order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}

	args := make([]any, 0, len(selects.Args)+len(plan.Filter.Args))
	args = append(args, selects.Args...)
	args = append(args, plan.Filter.Args...)
	return b.String(), args, nil
}

// RenderFilter renders a drilldown filter as a SELECT of the subject's own
// columns.
func (s *SQLStore) RenderFilter(schema domain.Schema, filter *domain.Filter) (string, []any, error) {
	joins, err := renderJoins(schema, filter.Joins)
	if err != nil {
		return "", nil, err
	}
	table := sqlexpr.QuoteIdentifier(schema.Table())

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(table)
	b.WriteString(".* FROM ")
	b.WriteString(table)
	b.WriteString(joins)
	if !filter.Condition.IsZero() {
		b.WriteString(" WHERE ")
		b.WriteString(filter.Condition.SQL)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(sqlexpr.QuoteQualified(schema.Table(), schema.IdentityField()))

	return b.String(), append([]any(nil), filter.Condition.Args...), nil
}

// groupTerms renders group or order keys. SQLite groups by select alias;
// DuckDB groups by select position, which keeps parameterized select
// expressions out of group matching.
func (s *SQLStore) groupTerms(aliases []string, position map[string]int) ([]string, error) {
	out := make([]string, len(aliases))
	for i, a := range aliases {
		pos, ok := position[a]
		if !ok {
			return nil, fmt.Errorf("group key %q is not selected", a)
		}
		if s.dialect == DialectDuckDB {
			out[i] = strconv.Itoa(pos)
		} else {
			out[i] = sqlexpr.QuoteIdentifier(a)
		}
	}
	return out, nil
}

func renderJoins(schema domain.Schema, refs []domain.JoinRef) (string, error) {
	var b strings.Builder
	for _, ref := range refs {
		rel, ok := schema.Relation(ref)
		if !ok {
			return "", domain.ErrInvalidSpec("relation %q is not declared for %q", ref, schema.SubjectName())
		}
		if rel.Outer {
			b.WriteString(" LEFT JOIN ")
		} else {
			b.WriteString(" INNER JOIN ")
		}
		fmt.Fprintf(&b, "%s AS %s ON %s = %s",
			sqlexpr.QuoteIdentifier(rel.Table),
			sqlexpr.QuoteIdentifier(rel.Name),
			sqlexpr.QuoteQualified(rel.Name, rel.PrimaryKey),
			sqlexpr.QuoteQualified(schema.Table(), rel.ForeignKey))
	}
	return b.String(), nil
}

func scanRows(rows *sql.Rows) ([]string, [][]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}

// normalize converts driver values to plain Go values: byte slices to
// strings, DuckDB HUGEINT sums to int64 where they fit, and narrower
// integers to int64.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case int:
		return int64(x)
	case uint32:
		return int64(x)
	default:
		return v
	}
}
