package duckdbsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectExpr_Accepts(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantParams int
		wantFuncs  []string
	}{
		{"comparison", `"people"."age" > 30`, 0, nil},
		{"placeholder", `lower("department"."name") = ?`, 1, []string{"lower"}},
		{"aggregate_ratio", `SUM("people"."salary") / ?`, 1, []string{"sum"}},
		{"count_star", `COUNT(*)`, 0, []string{"count"}},
		{"count_distinct", `count(DISTINCT "people"."id")`, 0, []string{"count"}},
		{"filter", `count(*) FILTER (WHERE "age" > ?)`, 1, []string{"count"}},
		{"case", `SUM(CASE WHEN "gender" = 'F' THEN 1 ELSE 0 END)`, 0, []string{"sum"}},
		{"cast", `CAST("salary" AS DECIMAL(10, 2)) > ?`, 1, nil},
		{"double_colon", `"salary"::DOUBLE / 1000`, 0, nil},
		{"extract", `EXTRACT(year FROM "hired_on") = 2020`, 0, nil},
		{"distinct_from", `"region" IS DISTINCT FROM 'EU'`, 0, nil},
		{"in_list", `"gender" IN ('F', 'M') AND "age" BETWEEN ? AND ?`, 2, nil},
		{"keyword_function", `replace(left("name", 3), 'a', 'b') = ?`, 1, []string{"replace", "left"}},
		{"quoted_text", `"name" = 'SELECT * FROM t; -- x'`, 0, nil},
		{"string_placeholder", `"name" = '?'`, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := InspectExpr(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.wantParams, info.Params)
			assert.Equal(t, tt.wantFuncs, info.Functions)
		})
	}
}

func TestInspectExpr_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr string
	}{
		{"empty", "  ", "empty"},
		{"semicolon", `1 = 1; DROP TABLE people`, "semicolons"},
		{"line_comment", `1 = 1 -- x`, "comments"},
		{"block_comment", `1 = 1 /* x */`, "comments"},
		{"open_quote", `"name" = 'x`, "unterminated"},
		{"unbalanced", `(1 = 1`, "unbalanced"},
		{"close_first", `1 = 1) OR (1 = 1`, "unbalanced"},
		{"file_reader", `(SELECT max(content) FROM read_text('/etc/hostname'))`, "subqueries"},
		{"bare_file_reader", `read_text('/etc/hostname')`, "prohibited function: read_text"},
		{"glob", `glob('/etc/*')`, "prohibited function: glob"},
		{"getenv", `getenv('HOME') = ?`, "prohibited function: getenv"},
		{"scalar_subquery", `"age" > (SELECT avg(age) FROM people)`, "subqueries"},
		{"exists", `EXISTS (SELECT 1 FROM departments)`, "subqueries"},
		{"in_subquery", `"id" IN (SELECT id FROM people)`, "subqueries"},
		{"from_statement", `"age" > (FROM people)`, "subqueries"},
		{"union", `1 UNION SELECT 2`, "subqueries"},
		{"unknown_function", `pg_sleep(10) = 1`, `function "pg_sleep" is not allowed`},
		{"qualified_function", `main.lower("name") = ?`, "qualified function"},
		{"dollar_param", `"age" > $1`, "use ?"},
		{"ddl_keyword", `DROP`, "DROP is not allowed"},
		{"window", `sum("salary") OVER ()`, `function "over" is not allowed`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InspectExpr(tt.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
