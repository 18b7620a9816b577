// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package sqlite implements the SQLite migration dialect.
package sqlite

import (
	"context"

	"github.com/gatekit/gatekit/db/internal/sqlx"
	"github.com/gatekit/gatekit/db/migrate"
	"github.com/gatekit/gatekit/db/schema"
)

// A Dialect maps the logical schema onto SQLite storage classes.
// SQLite stores booleans as integers, dates and json as text.
type Dialect struct {
	ddl sqlx.DDL
}

// New returns the SQLite dialect.
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

func (*Dialect) Name() string { return "sqlite" }

// ColumnType implements migrate.Dialect.
func (d *Dialect) ColumnType(c *migrate.Column, numberID bool) string {
	if c.ID {
		if numberID {
			return "integer"
		}
		return "text"
	}
	return d.ColumnTypeOf(c, numberID)
}

// ColumnTypeOf is the fixed logical-to-SQLite type table.
func (*Dialect) ColumnTypeOf(c *migrate.Column, numberID bool) string {
	f := c.Field
	if numberID && f.References != nil {
		return "integer"
	}
	switch f.Type {
	case schema.TypeNumber:
		return "integer"
	case schema.TypeBool:
		return "integer"
	case schema.TypeDate:
		return "date"
	default:
		// Strings, json and arrays all land in text.
		return "text"
	}
}

func idClause(numberID bool) string {
	if numberID {
		return "integer PRIMARY KEY AUTOINCREMENT"
	}
	return "text NOT NULL PRIMARY KEY"
}

var typeAliases = map[string]string{
	"int":      "integer",
	"datetime": "date",
	"varchar":  "text",
}

// TypeMatches implements migrate.Dialect.
func (d *Dialect) TypeMatches(c *migrate.Column, liveType string, numberID bool) bool {
	return sqlx.TypeEqual(d.ColumnType(c, numberID), liveType, typeAliases)
}

// Introspect joins sqlite_master with pragma_table_info.
func (d *Dialect) Introspect(ctx context.Context, db migrate.ExecQuerier) (map[string]map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT m.name, p.name, p.type
FROM sqlite_master AS m
JOIN pragma_table_info(m.name) AS p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`)
	if err != nil {
		return nil, err
	}
	return sqlx.ScanColumns(rows)
}

// SQL implements migrate.Dialect.
func (d *Dialect) SQL(c migrate.Change, numberID bool) string {
	return d.ddl.SQL(c, numberID)
}
