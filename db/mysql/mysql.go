// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package mysql implements the MySQL migration dialect.
package mysql

import (
	"context"

	"golang.org/x/mod/semver"

	"github.com/gatekit/gatekit/db/internal/sqlx"
	"github.com/gatekit/gatekit/db/migrate"
	"github.com/gatekit/gatekit/db/schema"
)

// fractionalVersion is the first server version with fractional
// second precision on DATETIME and CURRENT_TIMESTAMP.
const fractionalVersion = "v5.6.4"

// A Dialect maps the logical schema onto MySQL column types.
// Fractional datetime precision is gated on the server version.
type Dialect struct {
	ddl        sqlx.DDL
	fractional bool
}

// New returns the MySQL dialect for the given server version
// (e.g. "8.0.30"). An empty version assumes a modern server.
func New(version string) *Dialect {
	d := &Dialect{fractional: version == "" || semver.Compare("v"+version, fractionalVersion) >= 0}
	dateDefault := "CURRENT_TIMESTAMP"
	if d.fractional {
		dateDefault = "CURRENT_TIMESTAMP(3)"
	}
	d.ddl = sqlx.DDL{
		Quote:       sqlx.QuoteBacktick,
		TypeFor:     d.ColumnTypeOf,
		IDClause:    idClause,
		DateDefault: dateDefault,
	}
	return d
}

func (*Dialect) Name() string { return "mysql" }

// ColumnType implements migrate.Dialect.
func (d *Dialect) ColumnType(c *migrate.Column, numberID bool) string {
	if c.ID {
		if numberID {
			return "integer"
		}
		// Text keys need a bounded length to be indexable.
		return "varchar(36)"
	}
	return d.ColumnTypeOf(c, numberID)
}

// ColumnTypeOf is the fixed logical-to-MySQL type table.
func (d *Dialect) ColumnTypeOf(c *migrate.Column, numberID bool) string {
	f := c.Field
	if numberID && f.References != nil {
		if f.Bigint {
			return "bigint"
		}
		return "integer"
	}
	switch f.Type {
	case schema.TypeString:
		if f.Unique || f.Sortable {
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
		if d.fractional {
			return "datetime(3)"
		}
		return "datetime"
	case schema.TypeJSON, schema.TypeStringArray, schema.TypeNumberArray:
		return "json"
	default:
		return "text"
	}
}

func idClause(numberID bool) string {
	if numberID {
		return "integer NOT NULL AUTO_INCREMENT PRIMARY KEY"
	}
	return "varchar(36) NOT NULL PRIMARY KEY"
}

var typeAliases = map[string]string{
	"tinyint": "boolean",
	"int":     "integer",
	"bool":    "boolean",
}

// TypeMatches implements migrate.Dialect.
func (d *Dialect) TypeMatches(c *migrate.Column, liveType string, numberID bool) bool {
	return sqlx.TypeEqual(d.ColumnType(c, numberID), liveType, typeAliases)
}

// Introspect restricts to the connection's default database.
func (d *Dialect) Introspect(ctx context.Context, db migrate.ExecQuerier) (map[string]map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = DATABASE()
ORDER BY TABLE_NAME, ORDINAL_POSITION`)
	if err != nil {
		return nil, err
	}
	return sqlx.ScanColumns(rows)
}

// SQL implements migrate.Dialect.
func (d *Dialect) SQL(c migrate.Change, numberID bool) string {
	return d.ddl.SQL(c, numberID)
}
