package duckdbsql

import (
	"fmt"
	"strings"
)

// ExprInfo describes an expression fragment accepted by InspectExpr.
type ExprInfo struct {
	Params    int      // "?" placeholders
	Functions []string // functions called, lower case, first-occurrence order
}

// dangerousFunctions is the blocklist of DuckDB functions that can read the
// filesystem, leak internal metadata, or escape the query sandbox.
var dangerousFunctions = map[string]bool{
	"read_csv":             true,
	"read_csv_auto":        true,
	"read_parquet":         true,
	"parquet_scan":         true,
	"parquet_metadata":     true,
	"parquet_schema":       true,
	"read_json":            true,
	"read_json_auto":       true,
	"read_json_objects":    true,
	"read_ndjson":          true,
	"read_ndjson_auto":     true,
	"read_text":            true,
	"read_blob":            true,
	"sniff_csv":            true,
	"glob":                 true,
	"sqlite_scan":          true,
	"query":                true,
	"query_table":          true,
	"getenv":               true,
	"getvariable":          true,
	"current_setting":      true,
	"duckdb_extensions":    true,
	"duckdb_settings":      true,
	"duckdb_databases":     true,
	"duckdb_secrets":       true,
	"duckdb_tables":        true,
	"duckdb_columns":       true,
	"pragma_database_list": true,
	"load_extension":       true,
}

// expressionFunctions are the scalar and aggregate functions a fragment may
// call. Names are shared by DuckDB and SQLite unless noted.
var expressionFunctions = map[string]bool{
	// aggregates
	"count": true, "sum": true, "avg": true, "mean": true, "min": true, "max": true,
	"total": true, "median": true, "mode": true, "product": true,
	"stddev": true, "stddev_pop": true, "stddev_samp": true,
	"variance": true, "var_pop": true, "var_samp": true,
	"string_agg": true, "group_concat": true, "bool_and": true, "bool_or": true,
	"any_value": true, "first": true, "last": true, "arg_min": true, "arg_max": true,
	"quantile_cont": true, "quantile_disc": true, "approx_count_distinct": true,

	// numeric
	"abs": true, "round": true, "floor": true, "ceil": true, "ceiling": true,
	"sign": true, "sqrt": true, "power": true, "pow": true, "exp": true,
	"ln": true, "log": true, "log2": true, "log10": true,
	"greatest": true, "least": true,

	// conditional
	"coalesce": true, "ifnull": true, "nullif": true, "if": true, "iif": true,

	// text
	"lower": true, "upper": true, "length": true, "trim": true, "ltrim": true, "rtrim": true,
	"substr": true, "substring": true, "replace": true, "concat": true, "concat_ws": true,
	"left": true, "right": true, "instr": true, "strpos": true, "contains": true,
	"starts_with": true, "ends_with": true, "prefix": true, "suffix": true,
	"lpad": true, "rpad": true, "reverse": true, "printf": true, "format": true,
	"regexp_matches": true, "regexp_replace": true, "regexp_extract": true,

	// time
	"date": true, "datetime": true, "julianday": true, "strftime": true, "strptime": true,
	"date_part": true, "datepart": true, "date_trunc": true, "datetrunc": true,
	"date_diff": true, "datediff": true, "date_add": true, "make_date": true,
	"year": true, "quarter": true, "month": true, "week": true, "day": true,
	"dayofweek": true, "dayofyear": true, "hour": true, "minute": true, "second": true,
	"epoch": true, "to_timestamp": true,
}

// expressionKeywords may appear in a fragment. Any other keyword is rejected.
var expressionKeywords = map[TokenType]bool{
	TOKEN_AND: true, TOKEN_OR: true, TOKEN_NOT: true, TOKEN_IS: true,
	TOKEN_NULL: true, TOKEN_TRUE: true, TOKEN_FALSE: true,
	TOKEN_IN: true, TOKEN_BETWEEN: true, TOKEN_LIKE: true, TOKEN_ILIKE: true,
	TOKEN_GLOB: true, TOKEN_SIMILAR: true,
	TOKEN_CASE: true, TOKEN_WHEN: true, TOKEN_THEN: true, TOKEN_ELSE: true, TOKEN_END: true,
	TOKEN_CAST: true, TOKEN_TRY_CAST: true, TOKEN_AS: true,
	TOKEN_DISTINCT: true, TOKEN_EXTRACT: true, TOKEN_INTERVAL: true, TOKEN_FILTER: true,
	TOKEN_ORDER: true, TOKEN_BY: true, TOKEN_ASC: true, TOKEN_DESC: true,
	TOKEN_NULLS: true, TOKEN_FIRST: true, TOKEN_LAST: true,
	TOKEN_FROM: true, TOKEN_WHERE: true,
}

// subqueryKeywords start a statement or a table source.
var subqueryKeywords = map[TokenType]bool{
	TOKEN_SELECT: true, TOKEN_WITH: true, TOKEN_VALUES: true, TOKEN_TABLE: true,
	TOKEN_EXISTS: true, TOKEN_PIVOT: true, TOKEN_UNPIVOT: true, TOKEN_SUMMARIZE: true,
	TOKEN_DESCRIBE: true, TOKEN_SHOW: true, TOKEN_UNION: true, TOKEN_INTERSECT: true,
	TOKEN_EXCEPT: true, TOKEN_JOIN: true, TOKEN_LATERAL: true,
}

// InspectExpr vets a single scalar or aggregate expression fragment. It
// rejects anything that reaches beyond the row being evaluated: statements,
// subqueries, table references and functions outside the expression
// allowlist, including the file and metadata readers.
func InspectExpr(sql string) (*ExprInfo, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, fmt.Errorf("expression is empty")
	}

	l := NewLexer(sql)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			break
		}
		toks = append(toks, tok)
	}
	if l.Comments() > 0 {
		return nil, fmt.Errorf("expression must not contain comments")
	}
	if l.Unterminated() {
		return nil, fmt.Errorf("expression has an unterminated quote")
	}

	info := &ExprInfo{}
	seen := make(map[string]bool)
	var frames []string // enclosing parentheses, named by the call that opened them
	for i, tok := range toks {
		var prev, next Token
		if i > 0 {
			prev = toks[i-1]
		}
		if i+1 < len(toks) {
			next = toks[i+1]
		}

		switch tok.Type {
		case TOKEN_ILLEGAL:
			return nil, fmt.Errorf("unexpected character %q in expression", tok.Literal)
		case TOKEN_SEMICOLON:
			return nil, fmt.Errorf("expression must not contain semicolons")
		case TOKEN_QMARK:
			info.Params++
			continue
		case TOKEN_DOLLAR:
			return nil, fmt.Errorf("parameter %s is not supported, use ?", tok.Literal)
		case TOKEN_LPAREN:
			frames = append(frames, frameName(prev, toks, i))
			continue
		case TOKEN_RPAREN:
			if len(frames) == 0 {
				return nil, fmt.Errorf("expression has unbalanced parentheses")
			}
			frames = frames[:len(frames)-1]
			continue
		case TOKEN_FROM:
			// IS [NOT] DISTINCT FROM and EXTRACT(field FROM x) are expressions.
			if prev.Type == TOKEN_DISTINCT || (len(frames) > 0 && frames[len(frames)-1] == "extract") {
				continue
			}
			return nil, fmt.Errorf("subqueries and table references are not allowed")
		case TOKEN_WHERE:
			// aggregate FILTER (WHERE ...)
			if i >= 2 && prev.Type == TOKEN_LPAREN && toks[i-2].Type == TOKEN_FILTER {
				continue
			}
			return nil, fmt.Errorf("subqueries and table references are not allowed")
		}

		if subqueryKeywords[tok.Type] {
			return nil, fmt.Errorf("subqueries and table references are not allowed")
		}

		if next.Type == TOKEN_LPAREN && isCallName(tok, prev) {
			name := strings.ToLower(tok.Literal)
			if prev.Type == TOKEN_DOT {
				return nil, fmt.Errorf("qualified function %q is not allowed", tok.Literal)
			}
			if dangerousFunctions[name] {
				return nil, fmt.Errorf("prohibited function: %s", name)
			}
			if !expressionFunctions[name] {
				return nil, fmt.Errorf("function %q is not allowed in an expression", name)
			}
			if !seen[name] {
				seen[name] = true
				info.Functions = append(info.Functions, name)
			}
			continue
		}

		if tok.Type >= TOKEN_ALL && !expressionKeywords[tok.Type] {
			return nil, fmt.Errorf("%s is not allowed in an expression", strings.ToUpper(tok.Literal))
		}
	}
	if len(frames) != 0 {
		return nil, fmt.Errorf("expression has unbalanced parentheses")
	}
	return info, nil
}

// isCallName reports whether tok, followed by "(", names a function call
// rather than a type, an operator or a keyword construct.
func isCallName(tok, prev Token) bool {
	if prev.Type == TOKEN_DCOLON || prev.Type == TOKEN_AS {
		return false // DECIMAL(10, 2) in a cast
	}
	switch {
	case tok.Type == TOKEN_IDENT:
		return true
	case tok.Type == TOKEN_GLOB:
		// glob('...') is the table function, x GLOB (...) is not.
		return prev.Type == TOKEN_EOF || prev.Type == TOKEN_LPAREN || prev.Type == TOKEN_COMMA
	case tok.Type >= TOKEN_ALL:
		return !expressionKeywords[tok.Type] && !subqueryKeywords[tok.Type]
	}
	return false
}

// frameName names the parenthesis opened at toks[i].
func frameName(prev Token, toks []Token, i int) string {
	if i == 0 {
		return ""
	}
	if prev.Type == TOKEN_EXTRACT {
		return "extract"
	}
	var before Token
	if i >= 2 {
		before = toks[i-2]
	}
	if isCallName(prev, before) {
		return strings.ToLower(prev.Literal)
	}
	return ""
}
