// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package migrate plans schema migrations: it diffs the composed
// schema against live database introspection and emits ordered
// create-table and add-column changes for a dialect to render. There
// are no drops, no renames, and no down-migrations.
package migrate

import (
	"context"
	"database/sql"

	"github.com/gatekit/gatekit/db/schema"
)

type (
	// A Change represents one planned schema change.
	Change interface {
		change()
	}

	// CreateTable describes a missing table to be created with all
	// of its columns, unique constraints, and foreign keys.
	CreateTable struct {
		Model       string // Logical model name.
		Table       string // Physical table name.
		Columns     []*Column
		ForeignKeys []*ForeignKey
	}

	// AddColumn describes a single column to add to a live table.
	AddColumn struct {
		Table  string
		Column *Column
	}

	// A Column pairs a physical column name with the field attributes
	// driving its type mapping. ID marks the primary id column.
	Column struct {
		Name  string
		Field *schema.Field
		ID    bool
	}

	// A ForeignKey is a resolved reference: all names physical.
	ForeignKey struct {
		Column    string
		RefTable  string
		RefColumn string
		OnDelete  string
	}

	// A Dialect renders changes as DDL and introspects live state.
	Dialect interface {
		Name() string
		// ColumnType maps a column to its concrete type, honoring
		// the numeric-id policy for id and foreign-key-id columns.
		ColumnType(c *Column, numberID bool) string
		// TypeMatches reports whether a live data type satisfies
		// the expected mapping for the column.
		TypeMatches(c *Column, liveType string, numberID bool) bool
		// Introspect returns live tables mapped to their columns'
		// lowercased data types.
		Introspect(ctx context.Context, db ExecQuerier) (map[string]map[string]string, error)
		// SQL renders one change as an executable statement.
		SQL(c Change, numberID bool) string
	}

	// ExecQuerier wraps the standard sql.DB methods the planner and
	// dialects need.
	ExecQuerier interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	}
)

// changes.
func (*CreateTable) change() {}
func (*AddColumn) change()   {}
