// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/db/migrate"
	"github.com/gatekit/gatekit/db/postgres"
	"github.com/gatekit/gatekit/db/schema"
	"github.com/gatekit/gatekit/db/sqlite"
)

func baseRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	s, err := schema.Compose(schema.Base(), schema.ComposeOptions{})
	require.NoError(t, err)
	return schema.NewRegistry(s, false)
}

// liveRows renders the full expected live state of a registry through
// the dialect's own type table, so an up-to-date database diffs clean.
func liveRows(t *testing.T, reg *schema.Registry, d migrate.Dialect) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{"table_name", "column_name", "data_type"})
	for _, name := range reg.Models() {
		m, err := reg.Model(name)
		require.NoError(t, err)
		table, err := reg.ModelName(name)
		require.NoError(t, err)
		rows.AddRow(table, "id", d.ColumnType(&migrate.Column{Name: "id", ID: true, Field: &schema.Field{Type: schema.TypeString}}, false))
		fields := make([]string, 0, len(m.Fields))
		for f := range m.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, fname := range fields {
			f := m.Fields[fname]
			rows.AddRow(table, f.Column(fname), d.ColumnType(&migrate.Column{Name: f.Column(fname), Field: f}, false))
		}
	}
	return rows
}

func TestPlanEmptyDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	p := &migrate.Planner{Registry: baseRegistry(t), Dialect: postgres.New(), DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 4)

	var tables []string
	for _, c := range changes {
		ct, ok := c.(*migrate.CreateTable)
		require.True(t, ok)
		tables = append(tables, ct.Table)
	}
	// Referenced tables are created before their referents.
	require.Equal(t, []string{"user", "session", "account", "verification"}, tables)

	stmts := p.SQL(changes)
	require.Contains(t, stmts[0], `CREATE TABLE "user"`)
	require.Contains(t, stmts[0], `"id" text NOT NULL PRIMARY KEY`)
	require.Contains(t, stmts[0], `"email" varchar(255) NOT NULL UNIQUE`)
	require.Contains(t, stmts[0], `"createdAt" timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP`)
	require.Contains(t, stmts[1], `FOREIGN KEY ("userId") REFERENCES "user" ("id") ON DELETE cascade`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanUpToDateDatabase(t *testing.T) {
	reg := baseRegistry(t)
	d := postgres.New()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnRows(liveRows(t, reg, d))

	p := &migrate.Planner{Registry: reg, Dialect: d, DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)
	require.Empty(t, changes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanIntrospectionAliases(t *testing.T) {
	reg := baseRegistry(t)
	d := postgres.New()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Postgres reports varchar(255) as "character varying" and
	// timestamp as "timestamp without time zone"; neither is a diff.
	rows := liveRows(t, reg, d)
	mock.ExpectQuery("SELECT table_name, column_name, data_type").WillReturnRows(rows)

	p := &migrate.Planner{Registry: reg, Dialect: d, DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestPlanAddsMissingColumn(t *testing.T) {
	s, err := schema.Compose(schema.Base(), schema.ComposeOptions{
		Overrides: map[string]schema.ModelOverride{
			"user": {AdditionalFields: map[string]*schema.Field{
				"nickname": {Type: schema.TypeString},
			}},
		},
	})
	require.NoError(t, err)
	reg := schema.NewRegistry(s, false)
	d := postgres.New()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	// Live state matches the base schema, without the new field.
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnRows(liveRows(t, baseRegistry(t), d))

	p := &migrate.Planner{Registry: reg, Dialect: d, DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 1)

	ac, ok := changes[0].(*migrate.AddColumn)
	require.True(t, ok)
	require.Equal(t, "user", ac.Table)
	require.Equal(t, "nickname", ac.Column.Name)
	require.Equal(t, `ALTER TABLE "user" ADD COLUMN "nickname" text;`, p.SQL(changes)[0])
}

func TestPlanSkipsDisabledModels(t *testing.T) {
	s, err := schema.Compose(schema.Base(), schema.ComposeOptions{
		Plugins: []schema.Schema{{
			"externallyManaged": {
				DisableMigrations: true,
				Fields: map[string]*schema.Field{
					"payload": {Type: schema.TypeJSON},
				},
			},
		}},
	})
	require.NoError(t, err)
	reg := schema.NewRegistry(s, false)
	d := sqlite.New()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT m.name, p.name, p.type").
		WillReturnRows(sqlmock.NewRows([]string{"name", "name", "type"}))

	p := &migrate.Planner{Registry: reg, Dialect: d, DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)
	for _, c := range changes {
		ct, ok := c.(*migrate.CreateTable)
		require.True(t, ok)
		require.NotEqual(t, "externallyManaged", ct.Model)
	}
}

func TestPlanLeavesMismatchedTypesAlone(t *testing.T) {
	reg := baseRegistry(t)
	d := postgres.New()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_name", "column_name", "data_type"})
	// user exists with every column, but emailVerified is an integer.
	m, err := reg.Model("user")
	require.NoError(t, err)
	rows.AddRow("user", "id", "text")
	for fname, f := range m.Fields {
		typ := d.ColumnType(&migrate.Column{Name: fname, Field: f}, false)
		if fname == "emailVerified" {
			typ = "integer"
		}
		rows.AddRow("user", f.Column(fname), typ)
	}
	mock.ExpectQuery("SELECT table_name, column_name, data_type").WillReturnRows(rows)

	p := &migrate.Planner{Registry: reg, Dialect: d, DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)
	// The mismatch is logged, never altered; the three missing tables
	// are still planned.
	require.Len(t, changes, 3)
	for _, c := range changes {
		_, ok := c.(*migrate.CreateTable)
		require.True(t, ok)
	}
}

func TestApplyExecutesPlanInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	p := &migrate.Planner{Registry: baseRegistry(t), Dialect: postgres.New(), DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)

	for _, table := range []string{"user", "session", "account", "verification"} {
		mock.ExpectExec(`CREATE TABLE "` + table + `"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, p.Apply(context.Background(), changes))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStopsAtFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	p := &migrate.Planner{Registry: baseRegistry(t), Dialect: postgres.New(), DB: db}
	changes, err := p.Plan(context.Background())
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE "user"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "session"`).WillReturnError(errors.New("permission denied"))
	err = p.Apply(context.Background(), changes)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "session"))
	require.NoError(t, mock.ExpectationsWereMet())
}
