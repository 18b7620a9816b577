// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/db/schema"
)

func TestTransformWhereDefaults(t *testing.T) {
	a := newTestAdapter(t, fullCaps(), Options{})
	out, err := a.transformWhere("user", []Where{{Field: "email", Value: "x@y.z"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, OpEQ, out[0].Operator)
	require.Equal(t, And, out[0].Connector)
	require.Equal(t, "email", out[0].Field)
}

func TestTransformWhereRenamedField(t *testing.T) {
	a := newTestAdapter(t, fullCaps(), Options{
		Overrides: map[string]schema.ModelOverride{
			"user": {FieldNames: map[string]string{"email": "email_address"}},
		},
	})

	// Both the logical and the physical spelling compile to the
	// physical column.
	for _, field := range []string{"email", "email_address"} {
		out, err := a.transformWhere("user", []Where{{Field: field, Value: "x@y.z"}})
		require.NoError(t, err)
		require.Equal(t, "email_address", out[0].Field)
	}
}

func TestTransformWhereValidation(t *testing.T) {
	a := newTestAdapter(t, fullCaps(), Options{})
	for _, tt := range []struct {
		name  string
		where []Where
	}{
		{
			name:  "unknown operator",
			where: []Where{{Field: "email", Operator: "like", Value: "x"}},
		},
		{
			name:  "unknown connector",
			where: []Where{{Field: "email", Connector: "XOR", Value: "x"}},
		},
		{
			name:  "in requires a slice",
			where: []Where{{Field: "email", Operator: OpIn, Value: "x"}},
		},
		{
			name:  "not_in requires a slice",
			where: []Where{{Field: "email", Operator: OpNotIn, Value: nil}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.transformWhere("user", tt.where)
			require.True(t, IsInvalidArgument(err), "got %v", err)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		_, err := a.transformWhere("user", []Where{{Field: "nickname", Value: "x"}})
		require.True(t, schema.IsLookupError(err))
	})
}

func TestTransformWherePatternValuesStayLiteral(t *testing.T) {
	a := newTestAdapter(t, fullCaps(), Options{})

	// Regex metacharacters pass through untouched; pattern matching is
	// substring-literal at the driver.
	out, err := a.transformWhere("user", []Where{
		{Field: "name", Operator: OpStartsWith, Value: ".*"},
	})
	require.NoError(t, err)
	require.Equal(t, ".*", out[0].Value)
	require.Equal(t, OpStartsWith, out[0].Operator)
}

func TestTransformWhereNumericIDs(t *testing.T) {
	a := newTestAdapter(t, fullCaps(), Options{UseNumberID: true})

	t.Run("id value", func(t *testing.T) {
		out, err := a.transformWhere("user", []Where{{Field: "id", Value: "42"}})
		require.NoError(t, err)
		require.Equal(t, int64(42), out[0].Value)
	})

	t.Run("foreign key value", func(t *testing.T) {
		out, err := a.transformWhere("session", []Where{{Field: "userId", Value: "7"}})
		require.NoError(t, err)
		require.Equal(t, int64(7), out[0].Value)
	})

	t.Run("id list", func(t *testing.T) {
		out, err := a.transformWhere("user", []Where{
			{Field: "id", Operator: OpIn, Value: []string{"1", "2"}},
		})
		require.NoError(t, err)
		require.Equal(t, []any{int64(1), int64(2)}, out[0].Value)
	})

	t.Run("unparsable id", func(t *testing.T) {
		_, err := a.transformWhere("user", []Where{{Field: "id", Value: "abc"}})
		require.True(t, IsInvalidArgument(err))
	})

	t.Run("non-id fields untouched", func(t *testing.T) {
		out, err := a.transformWhere("user", []Where{{Field: "email", Value: "42"}})
		require.NoError(t, err)
		require.Equal(t, "42", out[0].Value)
	})
}

func TestTransformWherePluralModel(t *testing.T) {
	cfg := fullCaps()
	cfg.UsePlural = true
	a := newTestAdapter(t, cfg, Options{})

	// Callers may address the model by its plural physical name.
	out, err := a.transformWhere("users", []Where{{Field: "email", Value: "x@y.z"}})
	require.NoError(t, err)
	require.Equal(t, "email", out[0].Field)
}
