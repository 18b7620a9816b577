// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package sqlx holds helpers shared by the SQL dialects: introspection
// scanning, identifier quoting strategies, LIKE escaping, and the
// common DDL renderer the dialects parameterize.
package sqlx

import (
	"database/sql"
	"strings"
)

// ScanColumns scans (table, column, data_type) rows into the live-state
// map the migration planner diffs against. Data types are lowercased.
func ScanColumns(rows *sql.Rows) (map[string]map[string]string, error) {
	defer rows.Close()
	out := make(map[string]map[string]string)
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, err
		}
		t, ok := out[table]
		if !ok {
			t = make(map[string]string)
			out[table] = t
		}
		t[column] = strings.ToLower(dataType)
	}
	return out, rows.Err()
}

// QuoteDouble quotes an identifier with double quotes (Postgres,
// SQLite).
func QuoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteBacktick quotes an identifier with backticks (MySQL).
func QuoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteBracket quotes an identifier with brackets (SQL Server).
func QuoteBracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// EscapeLike escapes the LIKE metacharacters of a literal substring so
// that pattern operators never match wildcards. Drivers building LIKE
// expressions must pass values through here and use ESCAPE '\'.
func EscapeLike(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BaseType strips a size suffix from a column type: "varchar(255)"
// yields "varchar".
func BaseType(t string) string {
	if i := strings.IndexByte(t, '('); i > 0 {
		return t[:i]
	}
	return t
}

// TypeEqual compares an expected column type against a live
// introspected one through a dialect alias table.
func TypeEqual(want, live string, aliases map[string]string) bool {
	w := strings.ToLower(BaseType(want))
	l := strings.ToLower(BaseType(live))
	if w == l {
		return true
	}
	if a, ok := aliases[l]; ok && a == w {
		return true
	}
	return false
}
