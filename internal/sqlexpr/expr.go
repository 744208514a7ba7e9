package sqlexpr

import (
	"fmt"
	"strings"

	"duck-olap/internal/duckdbsql"
)

// Comparison operator names accepted by Compare, in addition to their SQL symbols.
const (
	OpEqual        = "eq"
	OpNotEqual     = "neq"
	OpLessThan     = "lt"
	OpLessEqual    = "lte"
	OpGreaterThan  = "gt"
	OpGreaterEqual = "gte"
)

var comparisonOps = map[string]string{
	OpEqual:        "=",
	OpNotEqual:     "<>",
	OpLessThan:     "<",
	OpLessEqual:    "<=",
	OpGreaterThan:  ">",
	OpGreaterEqual: ">=",
	"=":            "=",
	"!=":           "<>",
	"<>":           "<>",
	"<":            "<",
	"<=":           "<=",
	">":            ">",
	">=":           ">=",
}

// Expr is a sanitized SQL expression. SQL holds the text with one "?" per
// bound argument; Args holds those arguments in textual order.
type Expr struct {
	SQL  string
	Args []any
}

// IsZero reports whether e carries no SQL.
func (e Expr) IsZero() bool { return e.SQL == "" }

// Clone returns e with its own copy of Args.
func (e Expr) Clone() Expr {
	if e.Args != nil {
		e.Args = append([]any(nil), e.Args...)
	}
	return e
}

// String returns the SQL text.
func (e Expr) String() string { return e.SQL }

// Raw wraps trusted SQL text. Callers must only pass text built by this
// package or validated with Fragment.
func Raw(sql string, args ...any) Expr {
	return Expr{SQL: sql, Args: args}
}

// Fragment validates a caller-supplied SQL fragment and wraps it. The
// fragment must be a single row-level or aggregate expression with exactly
// one "?" per arg. Subqueries, table references, comments and functions
// outside the expression allowlist are rejected.
func Fragment(sql string, args ...any) (Expr, error) {
	info, err := duckdbsql.InspectExpr(sql)
	if err != nil {
		return Expr{}, err
	}
	if info.Params != len(args) {
		return Expr{}, fmt.Errorf("expression has %d placeholders but %d arguments", info.Params, len(args))
	}
	return Expr{SQL: strings.TrimSpace(sql), Args: args}, nil
}

// Column renders a quoted, optionally qualified column reference.
func Column(parts ...string) Expr {
	return Expr{SQL: QuoteQualified(parts...)}
}

// Literal renders a quoted string literal.
func Literal(value string) Expr {
	return Expr{SQL: QuoteLiteral(value)}
}

// Null is the SQL NULL literal.
func Null() Expr { return Expr{SQL: "NULL"} }

// True is an always-true condition that every supported dialect accepts.
func True() Expr { return Expr{SQL: "1 = 1"} }

// False is an always-false condition.
func False() Expr { return Expr{SQL: "1 = 0"} }

// Star is the bare "*" used by COUNT(*).
func Star() Expr { return Expr{SQL: "*"} }

// ComparisonOperator maps an operator name or symbol to its SQL symbol.
func ComparisonOperator(op string) (string, error) {
	sym, ok := comparisonOps[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return "", fmt.Errorf("unsupported operator: %q", op)
	}
	return sym, nil
}

// Compare renders "left op ?" binding value.
func Compare(left Expr, op string, value any) (Expr, error) {
	sym, err := ComparisonOperator(op)
	if err != nil {
		return Expr{}, err
	}
	return Expr{
		SQL:  left.SQL + " " + sym + " ?",
		Args: appendArgs(left.Args, value),
	}, nil
}

// Between renders "left BETWEEN ? AND ?".
func Between(left Expr, low, high any) Expr {
	return Expr{
		SQL:  left.SQL + " BETWEEN ? AND ?",
		Args: appendArgs(left.Args, low, high),
	}
}

// In renders "left IN (?, ?, ...)". An empty value list never matches.
func In(left Expr, values []any) Expr {
	if len(values) == 0 {
		return False()
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return Expr{
		SQL:  left.SQL + " IN (" + marks + ")",
		Args: appendArgs(left.Args, values...),
	}
}

// IsNull renders "left IS NULL".
func IsNull(left Expr) Expr {
	return Expr{SQL: left.SQL + " IS NULL", Args: left.Args}
}

// NotNull renders "left IS NOT NULL".
func NotNull(left Expr) Expr {
	return Expr{SQL: left.SQL + " IS NOT NULL", Args: left.Args}
}

// Like renders "left LIKE ?".
func Like(left Expr, pattern string) Expr {
	return Expr{SQL: left.SQL + " LIKE ?", Args: appendArgs(left.Args, pattern)}
}

// And joins conditions with AND. No conditions yields True, one condition
// is returned unchanged.
func And(exprs ...Expr) Expr {
	return combine(" AND ", True(), exprs)
}

// Or joins conditions with OR. No conditions yields False, one condition
// is returned unchanged.
func Or(exprs ...Expr) Expr {
	return combine(" OR ", False(), exprs)
}

// Not negates a condition.
func Not(e Expr) Expr {
	return Expr{SQL: "NOT (" + e.SQL + ")", Args: e.Args}
}

// When is one branch of a CASE expression.
type When struct {
	Cond Expr
	Then Expr
}

// Case renders a searched CASE expression. Branches are evaluated in order,
// so the first matching condition wins.
func Case(whens []When, otherwise Expr) Expr {
	var b strings.Builder
	parts := make([]Expr, 0, 2*len(whens)+1)
	b.WriteString("CASE")
	for _, w := range whens {
		b.WriteString(" WHEN ")
		b.WriteString(w.Cond.SQL)
		b.WriteString(" THEN ")
		b.WriteString(w.Then.SQL)
		parts = append(parts, w.Cond, w.Then)
	}
	if !otherwise.IsZero() {
		b.WriteString(" ELSE ")
		b.WriteString(otherwise.SQL)
		parts = append(parts, otherwise)
	}
	b.WriteString(" END")
	return Expr{SQL: b.String(), Args: collectArgs(parts)}
}

// Call renders fn(arg, ...). fn must be a plain identifier.
func Call(fn string, args ...Expr) Expr {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.SQL
	}
	return Expr{SQL: strings.ToUpper(fn) + "(" + strings.Join(parts, ", ") + ")", Args: collectArgs(args)}
}

// Distinct prefixes an aggregate argument with DISTINCT.
func Distinct(e Expr) Expr {
	return Expr{SQL: "DISTINCT " + e.SQL, Args: e.Args}
}

// List joins expressions with ", " keeping argument order.
func List(exprs ...Expr) Expr {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL
	}
	return Expr{SQL: strings.Join(parts, ", "), Args: collectArgs(exprs)}
}

// As renders "e AS "alias"".
func As(e Expr, alias string) Expr {
	return Expr{SQL: e.SQL + " AS " + QuoteIdentifier(alias), Args: e.Args}
}

func combine(sep string, empty Expr, exprs []Expr) Expr {
	switch len(exprs) {
	case 0:
		return empty
	case 1:
		return Expr{SQL: exprs[0].SQL, Args: appendArgs(nil, exprs[0].Args...)}
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = "(" + e.SQL + ")"
	}
	return Expr{SQL: strings.Join(parts, sep), Args: collectArgs(exprs)}
}

// appendArgs always copies so expressions never share a backing array.
func appendArgs(dst []any, more ...any) []any {
	if len(more) == 0 {
		return dst
	}
	out := make([]any, 0, len(dst)+len(more))
	out = append(out, dst...)
	return append(out, more...)
}

// collectArgs concatenates the args of exprs into one new slice, sized once.
func collectArgs(exprs []Expr) []any {
	n := 0
	for _, e := range exprs {
		n += len(e.Args)
	}
	if n == 0 {
		return nil
	}
	out := make([]any, 0, n)
	for _, e := range exprs {
		out = append(out, e.Args...)
	}
	return out
}
