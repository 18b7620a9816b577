// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package mssql implements the SQL Server migration dialect.
package mssql

import (
	"context"

	"github.com/gatekit/gatekit/db/internal/sqlx"
	"github.com/gatekit/gatekit/db/migrate"
	"github.com/gatekit/gatekit/db/schema"
)

// A Dialect maps the logical schema onto SQL Server column types.
type Dialect struct {
	ddl sqlx.DDL
}

// New returns the SQL Server dialect.
func New() *Dialect {
	d := &Dialect{}
	d.ddl = sqlx.DDL{
		Quote:       sqlx.QuoteBracket,
		TypeFor:     d.ColumnTypeOf,
		IDClause:    idClause,
		DateDefault: "CURRENT_TIMESTAMP",
	}
	return d
}

func (*Dialect) Name() string { return "mssql" }

// ColumnType implements migrate.Dialect.
func (d *Dialect) ColumnType(c *migrate.Column, numberID bool) string {
	if c.ID {
		if numberID {
			return "int"
		}
		return "varchar(36)"
	}
	return d.ColumnTypeOf(c, numberID)
}

// ColumnTypeOf is the fixed logical-to-SQL-Server type table.
func (*Dialect) ColumnTypeOf(c *migrate.Column, numberID bool) string {
	f := c.Field
	if numberID && f.References != nil {
		if f.Bigint {
			return "bigint"
		}
		return "int"
	}
	switch f.Type {
	case schema.TypeString:
		if f.Unique || f.Sortable {
			return "nvarchar(255)"
		}
		return "nvarchar(max)"
	case schema.TypeNumber:
		if f.Bigint {
			return "bigint"
		}
		return "int"
	case schema.TypeBool:
		return "bit"
	case schema.TypeDate:
		return "datetime2"
	case schema.TypeJSON, schema.TypeStringArray, schema.TypeNumberArray:
		return "nvarchar(max)"
	default:
		return "nvarchar(max)"
	}
}

func idClause(numberID bool) string {
	if numberID {
		return "int IDENTITY(1,1) PRIMARY KEY"
	}
	return "varchar(36) NOT NULL PRIMARY KEY"
}

var typeAliases = map[string]string{
	"integer": "int",
}

// TypeMatches implements migrate.Dialect.
func (d *Dialect) TypeMatches(c *migrate.Column, liveType string, numberID bool) bool {
	return sqlx.TypeEqual(d.ColumnType(c, numberID), liveType, typeAliases)
}

// Introspect restricts to the connection's default schema.
func (d *Dialect) Introspect(ctx context.Context, db migrate.ExecQuerier) (map[string]map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME()
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
