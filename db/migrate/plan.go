// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gatekit/gatekit/db/schema"
)

// A Planner diffs the composed schema against a live connection.
type Planner struct {
	Registry *schema.Registry
	Dialect  Dialect
	DB       ExecQuerier
	// NumberID selects serial/identity id columns.
	NumberID bool
	Logger   *slog.Logger
}

// Plan introspects the live tables and returns the ordered changes
// needed to reach the composed schema. An up-to-date database yields
// an empty plan. Live columns whose type does not match the expected
// mapping are logged and left alone.
func (p *Planner) Plan(ctx context.Context) ([]Change, error) {
	live, err := p.Dialect.Introspect(ctx, p.DB)
	if err != nil {
		return nil, fmt.Errorf("migrate: introspecting %s: %w", p.Dialect.Name(), err)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var changes []Change
	for _, name := range p.Registry.Models() {
		m, err := p.Registry.Model(name)
		if err != nil {
			return nil, err
		}
		if m.DisableMigrations {
			continue
		}
		table, err := p.Registry.ModelName(name)
		if err != nil {
			return nil, err
		}
		cols, fks, err := p.columns(name, m)
		if err != nil {
			return nil, err
		}
		liveCols, ok := live[table]
		if !ok {
			changes = append(changes, &CreateTable{Model: name, Table: table, Columns: cols, ForeignKeys: fks})
			continue
		}
		for _, c := range cols {
			liveType, ok := liveCols[c.Name]
			if !ok {
				changes = append(changes, &AddColumn{Table: table, Column: c})
				continue
			}
			if !p.Dialect.TypeMatches(c, liveType, p.NumberID) {
				logger.Warn("migrate: column type mismatch left untouched",
					"table", table, "column", c.Name,
					"live", liveType, "want", p.Dialect.ColumnType(c, p.NumberID))
			}
		}
	}
	return changes, nil
}

// columns lists the physical columns of a model, id first, then
// fields in a stable name order, with resolved foreign keys.
func (p *Planner) columns(name string, m *schema.Model) ([]*Column, []*ForeignKey, error) {
	fields := make([]string, 0, len(m.Fields))
	for f := range m.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	cols := make([]*Column, 0, len(fields)+1)
	cols = append(cols, &Column{Name: "id", ID: true, Field: &schema.Field{Type: schema.TypeString, Required: true}})
	var fks []*ForeignKey
	for _, fname := range fields {
		f := m.Fields[fname]
		cols = append(cols, &Column{Name: f.Column(fname), Field: f})
		if r := f.References; r != nil {
			refTable, err := p.Registry.ModelName(r.Model)
			if err != nil {
				return nil, nil, err
			}
			refField := r.Field
			if refField == "" {
				refField = "id"
			}
			refColumn, err := p.Registry.FieldName(r.Model, refField)
			if err != nil {
				return nil, nil, err
			}
			onDelete := r.OnDelete
			if onDelete == "" {
				onDelete = "cascade"
			}
			fks = append(fks, &ForeignKey{
				Column:    f.Column(fname),
				RefTable:  refTable,
				RefColumn: refColumn,
				OnDelete:  onDelete,
			})
		}
	}
	return cols, fks, nil
}

// SQL renders the plan as ordered DDL statements.
func (p *Planner) SQL(changes []Change) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, p.Dialect.SQL(c, p.NumberID))
	}
	return out
}

// Apply executes the plan. Migration errors are fatal and halt the
// migrator at the failed statement.
func (p *Planner) Apply(ctx context.Context, changes []Change) error {
	for _, stmt := range p.SQL(changes) {
		if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: executing %q: %w", stmt, err)
		}
	}
	return nil
}
