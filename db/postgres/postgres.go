// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package postgres implements the Postgres migration dialect.
package postgres

import (
	"context"

	"github.com/gatekit/gatekit/db/internal/sqlx"
	"github.com/gatekit/gatekit/db/migrate"
	"github.com/gatekit/gatekit/db/schema"
)

// A Dialect maps the logical schema onto Postgres column types and
// introspects the schema on the current search_path.
type Dialect struct {
	ddl sqlx.DDL
}

// New returns the Postgres dialect.
func New() *Dialect {
	d := &Dialect{}
	d.ddl = sqlx.DDL{
		Quote:       sqlx.QuoteDouble,
		TypeFor:     d.ColumnTypeOf,
		IDClause:    idClause,
		DateDefault: "CURRENT_TIMESTAMP",
	}
	return d
}

func (*Dialect) Name() string { return "postgres" }

// ColumnType implements migrate.Dialect.
func (d *Dialect) ColumnType(c *migrate.Column, numberID bool) string {
	if c.ID {
		if numberID {
			return "serial"
		}
		return "text"
	}
	return d.ColumnTypeOf(c, numberID)
}

// ColumnTypeOf is the fixed logical-to-Postgres type table.
func (*Dialect) ColumnTypeOf(c *migrate.Column, numberID bool) string {
	f := c.Field
	if numberID && f.References != nil {
		if f.Bigint {
			return "bigint"
		}
		return "integer"
	}
	switch f.Type {
	case schema.TypeString:
		if f.Sortable {
			return "varchar(255)"
		}
		return "text"
	case schema.TypeNumber:
		if f.Bigint {
			return "bigint"
		}
		return "integer"
	case schema.TypeBool:
		return "boolean"
	case schema.TypeDate:
		return "timestamp"
	case schema.TypeJSON:
		return "jsonb"
	case schema.TypeStringArray:
		return "text[]"
	case schema.TypeNumberArray:
		return "integer[]"
	default:
		return "text"
	}
}

func idClause(numberID bool) string {
	if numberID {
		return "serial PRIMARY KEY"
	}
	return "text NOT NULL PRIMARY KEY"
}

// Live types report differently than their DDL spelling.
var typeAliases = map[string]string{
	"character varying":           "varchar",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamp",
	"int4":                        "integer",
	"int8":                        "bigint",
	"bool":                        "boolean",
	"array":                       "text[]",
}

// TypeMatches implements migrate.Dialect.
func (d *Dialect) TypeMatches(c *migrate.Column, liveType string, numberID bool) bool {
	want := d.ColumnType(c, numberID)
	if c.ID && numberID {
		// serial introspects as integer.
		want = "integer"
	}
	return sqlx.TypeEqual(want, liveType, typeAliases)
}

// Introspect restricts to the current search_path schema.
func (d *Dialect) Introspect(ctx context.Context, db migrate.ExecQuerier) (map[string]map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema()
ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, err
	}
	return sqlx.ScanColumns(rows)
}

// SQL implements migrate.Dialect.
func (d *Dialect) SQL(c migrate.Change, numberID bool) string {
	return d.ddl.SQL(c, numberID)
}
