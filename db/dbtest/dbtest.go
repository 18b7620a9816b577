// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package dbtest runs the shared driver conformance suite. Driver
// packages call Run from their own tests to prove the contract: id
// handling, nil results on missing rows, predicate evaluation,
// pagination, and counting.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/db/adapter"
)

// Factory builds a fresh, empty driver for one subtest.
type Factory func(t *testing.T) (adapter.Driver, adapter.Config)

// Run exercises the driver contract through the full adapter stack.
func Run(t *testing.T, factory Factory) {
	t.Run("CreateReturnsRow", func(t *testing.T) { testCreate(t, newAdapter(t, factory)) })
	t.Run("MissingRowsAreNil", func(t *testing.T) { testMissing(t, newAdapter(t, factory)) })
	t.Run("PredicateOperators", func(t *testing.T) { testPredicates(t, newAdapter(t, factory)) })
	t.Run("Pagination", func(t *testing.T) { testPagination(t, newAdapter(t, factory)) })
	t.Run("CountAndDeleteMany", func(t *testing.T) { testCounting(t, newAdapter(t, factory)) })
}

func newAdapter(t *testing.T, factory Factory) *adapter.Adapter {
	t.Helper()
	driver, cfg := factory(t)
	a, err := adapter.New(driver, cfg, adapter.Options{})
	require.NoError(t, err)
	return a
}

func seedUsers(t *testing.T, a *adapter.Adapter, n int) []adapter.Row {
	t.Helper()
	out := make([]adapter.Row, 0, n)
	for i := 0; i < n; i++ {
		row, err := a.Create(context.Background(), &adapter.CreateParams{
			Model: "user",
			Data: adapter.Row{
				"name":  fmt.Sprintf("user-%02d", i),
				"email": fmt.Sprintf("user-%02d@example.com", i),
			},
		})
		require.NoError(t, err)
		out = append(out, row)
	}
	return out
}

func testCreate(t *testing.T, a *adapter.Adapter) {
	ctx := context.Background()
	row, err := a.Create(ctx, &adapter.CreateParams{
		Model: "user",
		Data:  adapter.Row{"name": "conf", "email": "conf@example.com"},
	})
	require.NoError(t, err)
	require.IsType(t, "", row["id"])
	require.NotEmpty(t, row["id"])
	require.Equal(t, false, row["emailVerified"])
	require.IsType(t, time.Time{}, row["createdAt"])

	// The row is immediately readable by id.
	found, err := a.FindOne(ctx, &adapter.FindParams{
		Model: "user",
		Where: []adapter.Where{{Field: "id", Value: row["id"]}},
	})
	require.NoError(t, err)
	require.NotNil(t, found)
}

func testMissing(t *testing.T, a *adapter.Adapter) {
	ctx := context.Background()
	where := []adapter.Where{{Field: "email", Value: "nobody@example.com"}}

	row, err := a.FindOne(ctx, &adapter.FindParams{Model: "user", Where: where})
	require.NoError(t, err)
	require.Nil(t, row)

	row, err = a.Update(ctx, &adapter.UpdateParams{Model: "user", Where: where, Update: adapter.Row{"name": "x"}})
	require.NoError(t, err)
	require.Nil(t, row)

	require.NoError(t, a.Delete(ctx, &adapter.DeleteParams{Model: "user", Where: where}))

	rows, err := a.FindMany(ctx, &adapter.FindParams{Model: "user", Where: where})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func testPredicates(t *testing.T, a *adapter.Adapter) {
	ctx := context.Background()
	seedUsers(t, a, 5)

	for _, tt := range []struct {
		name  string
		where []adapter.Where
		want  int
	}{
		{"eq", []adapter.Where{{Field: "name", Value: "user-03"}}, 1},
		{"ne", []adapter.Where{{Field: "name", Operator: adapter.OpNE, Value: "user-03"}}, 4},
		{"in", []adapter.Where{{Field: "name", Operator: adapter.OpIn, Value: []any{"user-00", "user-04"}}}, 2},
		{"contains", []adapter.Where{{Field: "email", Operator: adapter.OpContains, Value: "-02@"}}, 1},
		{"starts_with", []adapter.Where{{Field: "name", Operator: adapter.OpStartsWith, Value: "user-"}}, 5},
		{"ends_with", []adapter.Where{{Field: "name", Operator: adapter.OpEndsWith, Value: "-01"}}, 1},
		// Pattern values are literal; metacharacters match nothing.
		{"literal metacharacters", []adapter.Where{{Field: "name", Operator: adapter.OpStartsWith, Value: ".*"}}, 0},
		{"or group", []adapter.Where{
			{Field: "name", Value: "user-00", Connector: adapter.Or},
			{Field: "name", Value: "user-01", Connector: adapter.Or},
		}, 2},
	} {
		t.Run(tt.name, func(t *testing.T) {
			n, err := a.Count(ctx, &adapter.FindParams{Model: "user", Where: tt.where})
			require.NoError(t, err)
			require.Equal(t, tt.want, n)
		})
	}
}

func testPagination(t *testing.T, a *adapter.Adapter) {
	ctx := context.Background()
	seedUsers(t, a, 10)

	rows, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Sort:  &adapter.SortBy{Field: "name"},
		Limit: 3, Offset: 4,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "user-04", rows[0]["name"])
	require.Equal(t, "user-06", rows[2]["name"])

	rows, err = a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Sort:  &adapter.SortBy{Field: "name", Direction: "desc"},
		Limit: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "user-09", rows[0]["name"])
}

func testCounting(t *testing.T, a *adapter.Adapter) {
	ctx := context.Background()
	seedUsers(t, a, 6)

	n, err := a.Count(ctx, &adapter.FindParams{Model: "user"})
	require.NoError(t, err)
	require.Equal(t, 6, n)

	n, err = a.DeleteMany(ctx, &adapter.DeleteParams{
		Model: "user",
		Where: []adapter.Where{{Field: "name", Operator: adapter.OpStartsWith, Value: "user-0"}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, n)

	n, err = a.Count(ctx, &adapter.FindParams{Model: "user"})
	require.NoError(t, err)
	require.Zero(t, n)
}
