// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/db/adapter"
)

// countingDriver counts FindMany calls so join tests can assert the
// batching behavior.
type countingDriver struct {
	*Driver
	findMany int
}

func (d *countingDriver) FindMany(ctx context.Context, q *adapter.FindQuery) ([]adapter.Row, error) {
	d.findMany++
	return d.Driver.FindMany(ctx, q)
}

func joinFixture(t *testing.T) (*adapter.Adapter, *countingDriver, []string) {
	t.Helper()
	ctx := context.Background()
	mem, cfg := New()
	driver := &countingDriver{Driver: mem}
	a, err := adapter.New(driver, cfg, adapter.Options{})
	require.NoError(t, err)

	userIDs := make([]string, 0, 3)
	for i, name := range []string{"alice", "bob", "carol"} {
		u, err := a.Create(ctx, &adapter.CreateParams{
			Model: "user",
			Data:  adapter.Row{"name": name, "email": name + "@example.com"},
		})
		require.NoError(t, err)
		userIDs = append(userIDs, u["id"].(string))

		// alice gets two sessions, bob one, carol none.
		for j := 0; j < 2-i; j++ {
			_, err := a.Create(ctx, &adapter.CreateParams{
				Model: "session",
				Data: adapter.Row{
					"userId":    u["id"],
					"token":     name + "-token-" + time.Now().Format("150405.000000000") + string(rune('a'+j)),
					"expiresAt": time.Now().Add(time.Hour),
				},
			})
			require.NoError(t, err)
		}
	}
	driver.findMany = 0
	return a, driver, userIDs
}

func TestJoinOneToMany(t *testing.T) {
	ctx := context.Background()
	a, driver, _ := joinFixture(t)

	rows, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Sort:  &adapter.SortBy{Field: "name"},
		Join:  adapter.Join{"session": nil},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// One parent query plus one batched secondary query.
	require.Equal(t, 2, driver.findMany)

	require.Len(t, rows[0]["session"], 2)
	require.Len(t, rows[1]["session"], 1)
	// No matches attach as an empty array, not nil.
	require.Equal(t, []adapter.Row{}, rows[2]["session"])

	// Joined rows are in logical form.
	child := rows[0]["session"].([]adapter.Row)[0]
	require.IsType(t, "", child["id"])
	require.IsType(t, time.Time{}, child["expiresAt"])
	require.Equal(t, rows[0]["id"], child["userId"])
}

func TestJoinManyToOne(t *testing.T) {
	ctx := context.Background()
	a, driver, _ := joinFixture(t)

	rows, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "session",
		Join:  adapter.Join{"user": nil},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, 2, driver.findMany)

	for _, row := range rows {
		parent, ok := row["user"].(adapter.Row)
		require.True(t, ok)
		require.Equal(t, row["userId"], parent["id"])
	}
}

func TestJoinWithSelect(t *testing.T) {
	ctx := context.Background()
	a, _, _ := joinFixture(t)

	rows, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Sort:  &adapter.SortBy{Field: "name"},
		Join:  adapter.Join{"session": {Select: []string{"token"}}},
	})
	require.NoError(t, err)

	children := rows[0]["session"].([]adapter.Row)
	require.Len(t, children, 2)
	for _, c := range children {
		require.Contains(t, c, "token")
		require.NotContains(t, c, "ipAddress")
		// The bucketing key survives the narrowed select.
		require.Contains(t, c, "userId")
	}
}

func TestJoinWithPerParentLimit(t *testing.T) {
	ctx := context.Background()
	a, driver, _ := joinFixture(t)

	rows, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Sort:  &adapter.SortBy{Field: "name"},
		Join:  adapter.Join{"session": {Limit: 1}},
	})
	require.NoError(t, err)

	// A per-parent limit falls back to one query per parent.
	require.Equal(t, 1+len(rows), driver.findMany)
	require.Len(t, rows[0]["session"], 1)
	require.Equal(t, []adapter.Row{}, rows[2]["session"])
}

func TestJoinOnFindOne(t *testing.T) {
	ctx := context.Background()
	a, _, _ := joinFixture(t)

	row, err := a.FindOne(ctx, &adapter.FindParams{
		Model: "user",
		Where: []adapter.Where{{Field: "email", Value: "alice@example.com"}},
		Join:  adapter.Join{"session": nil},
	})
	require.NoError(t, err)
	require.Len(t, row["session"], 2)
}

func TestJoinMissingParentSkipsSecondaryQueries(t *testing.T) {
	ctx := context.Background()
	a, driver, _ := joinFixture(t)

	row, err := a.FindOne(ctx, &adapter.FindParams{
		Model: "user",
		Where: []adapter.Where{{Field: "email", Value: "nobody@example.com"}},
		Join:  adapter.Join{"session": nil},
	})
	require.NoError(t, err)
	require.Nil(t, row)
	require.Equal(t, 0, driver.findMany)
}

func TestJoinUnrelatedModelFails(t *testing.T) {
	ctx := context.Background()
	a, _, _ := joinFixture(t)

	_, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Join:  adapter.Join{"verification": nil},
	})
	require.Error(t, err)
}

func TestJoinUncappedByDefaultLimit(t *testing.T) {
	ctx := context.Background()
	mem, cfg := New()
	a, err := adapter.New(mem, cfg, adapter.Options{})
	require.NoError(t, err)

	u, err := a.Create(ctx, &adapter.CreateParams{
		Model: "user",
		Data:  adapter.Row{"name": "busy", "email": "busy@example.com"},
	})
	require.NoError(t, err)
	for i := 0; i < 120; i++ {
		_, err := a.Create(ctx, &adapter.CreateParams{
			Model: "session",
			Data: adapter.Row{
				"userId":    u["id"],
				"token":     "t-" + time.Now().Format("150405.000000000") + string(rune('a'+i%26)) + string(rune('a'+i/26)),
				"expiresAt": time.Now().Add(time.Hour),
			},
		})
		require.NoError(t, err)
	}

	rows, err := a.FindMany(ctx, &adapter.FindParams{
		Model: "user",
		Join:  adapter.Join{"session": nil},
	})
	require.NoError(t, err)
	// The default findMany cap applies to the parent query only.
	require.Len(t, rows[0]["session"], 120)
}
