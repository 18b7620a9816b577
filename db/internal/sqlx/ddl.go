// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlx

import (
	"fmt"
	"strings"

	"github.com/gatekit/gatekit/db/migrate"
	"github.com/gatekit/gatekit/db/schema"
)

// DDL renders migration changes as SQL, parameterized by the dialect
// strategies (quoting, type mapping, id clause, date default).
type DDL struct {
	Quote func(string) string
	// TypeFor maps a non-id column to its concrete type.
	TypeFor func(c *migrate.Column, numberID bool) string
	// IDClause is the full clause after the id column name.
	IDClause func(numberID bool) string
	// DateDefault is the expression used when a date field declares a
	// callable default.
	DateDefault string
}

// SQL renders one change.
func (d *DDL) SQL(c migrate.Change, numberID bool) string {
	switch c := c.(type) {
	case *migrate.CreateTable:
		return d.createTable(c, numberID)
	case *migrate.AddColumn:
		return d.addColumn(c, numberID)
	default:
		panic(fmt.Sprintf("sqlx: unexpected change type %T", c))
	}
}

func (d *DDL) createTable(t *migrate.CreateTable, numberID bool) string {
	lines := make([]string, 0, len(t.Columns)+len(t.ForeignKeys))
	for _, c := range t.Columns {
		if c.ID {
			lines = append(lines, d.Quote(c.Name)+" "+d.IDClause(numberID))
			continue
		}
		lines = append(lines, d.column(c, numberID, true))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s",
			d.Quote(fk.Column), d.Quote(fk.RefTable), d.Quote(fk.RefColumn), fk.OnDelete))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", d.Quote(t.Table), strings.Join(lines, ",\n  "))
}

func (d *DDL) addColumn(c *migrate.AddColumn, numberID bool) string {
	// NOT NULL is only safe on a live table when a default fills
	// existing rows.
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;",
		d.Quote(c.Table), d.column(c.Column, numberID, dateDefault(c.Column.Field)))
}

func (d *DDL) column(c *migrate.Column, numberID bool, notNull bool) string {
	var b strings.Builder
	b.WriteString(d.Quote(c.Name))
	b.WriteByte(' ')
	b.WriteString(d.TypeFor(c, numberID))
	if c.Field.Required && notNull {
		b.WriteString(" NOT NULL")
	}
	if c.Field.Unique {
		b.WriteString(" UNIQUE")
	}
	if dateDefault(c.Field) {
		b.WriteString(" DEFAULT ")
		b.WriteString(d.DateDefault)
	}
	return b.String()
}

// dateDefault reports whether the field is a date with a callable
// default, which DDL renders as the dialect's CURRENT_TIMESTAMP.
func dateDefault(f *schema.Field) bool {
	if f.Type != schema.TypeDate {
		return false
	}
	_, ok := f.Default.(func() any)
	return ok
}
