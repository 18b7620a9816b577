// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/db/adapter"
)

func TestEvalPredicates(t *testing.T) {
	row := adapter.Row{
		"name":  "Riley",
		"email": ".*special@example.com",
		"count": int64(5),
		"since": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, tt := range []struct {
		name  string
		where adapter.Where
		want  bool
	}{
		{"eq", adapter.Where{Field: "name", Operator: adapter.OpEQ, Value: "Riley"}, true},
		{"eq default operator", adapter.Where{Field: "name", Value: "Riley"}, true},
		{"ne", adapter.Where{Field: "name", Operator: adapter.OpNE, Value: "Riley"}, false},
		{"lt", adapter.Where{Field: "count", Operator: adapter.OpLT, Value: 6}, true},
		{"lte boundary", adapter.Where{Field: "count", Operator: adapter.OpLTE, Value: 5}, true},
		{"gt", adapter.Where{Field: "count", Operator: adapter.OpGT, Value: 5}, false},
		{"gte date", adapter.Where{Field: "since", Operator: adapter.OpGTE, Value: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)}, true},
		{"in", adapter.Where{Field: "name", Operator: adapter.OpIn, Value: []any{"Riley", "Drew"}}, true},
		{"not_in", adapter.Where{Field: "name", Operator: adapter.OpNotIn, Value: []any{"Drew"}}, true},
		{"contains", adapter.Where{Field: "email", Operator: adapter.OpContains, Value: "special"}, true},
		// ".*" is two literal characters, not a wildcard.
		{"starts_with literal metacharacters", adapter.Where{Field: "email", Operator: adapter.OpStartsWith, Value: ".*"}, true},
		{"starts_with no wildcard match", adapter.Where{Field: "name", Operator: adapter.OpStartsWith, Value: ".*"}, false},
		{"ends_with", adapter.Where{Field: "email", Operator: adapter.OpEndsWith, Value: ".com"}, true},
		{"numeric equality across int widths", adapter.Where{Field: "count", Operator: adapter.OpEQ, Value: 5}, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, evalPredicate(row, tt.where))
		})
	}
}

func TestMatchesGrouping(t *testing.T) {
	row := adapter.Row{"a": 1, "b": 2, "c": 3}
	and := func(field string, v any) adapter.Where {
		return adapter.Where{Field: field, Value: v, Connector: adapter.And}
	}
	or := func(field string, v any) adapter.Where {
		return adapter.Where{Field: field, Value: v, Connector: adapter.Or}
	}

	// All AND predicates must hold.
	require.True(t, matches(row, []adapter.Where{and("a", 1), and("b", 2)}))
	require.False(t, matches(row, []adapter.Where{and("a", 1), and("b", 99)}))

	// At least one OR predicate must hold.
	require.True(t, matches(row, []adapter.Where{or("a", 99), or("b", 2)}))
	require.False(t, matches(row, []adapter.Where{or("a", 99), or("b", 99)}))

	// Mixed: the AND group and the OR group are AND-ed together.
	require.True(t, matches(row, []adapter.Where{and("a", 1), or("b", 99), or("c", 3)}))
	require.False(t, matches(row, []adapter.Where{and("a", 99), or("b", 2)}))

	// Empty where matches everything.
	require.True(t, matches(row, nil))
}

func TestSortRows(t *testing.T) {
	rows := []adapter.Row{
		{"n": int64(2)}, {"n": int64(3)}, {"n": int64(1)},
	}
	sortRows(rows, &adapter.SortBy{Field: "n"})
	require.Equal(t, int64(1), rows[0]["n"])
	require.Equal(t, int64(3), rows[2]["n"])

	sortRows(rows, &adapter.SortBy{Field: "n", Direction: "desc"})
	require.Equal(t, int64(3), rows[0]["n"])
}
