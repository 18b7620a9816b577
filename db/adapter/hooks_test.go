// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeforeHookReplacesPayload(t *testing.T) {
	hooks := HookSet{
		"user": {Create: OpHooks{Before: []BeforeHook{
			func(_ context.Context, _ string, data Row) (Row, error) {
				data["name"] = "hooked"
				return data, nil
			},
			func(_ context.Context, _ string, data Row) (Row, error) {
				// Returning nil keeps the previous payload.
				return nil, nil
			},
		}}},
	}
	a := newTestAdapter(t, fullCaps(), Options{Hooks: []HookSet{hooks}})

	out, err := a.Create(context.Background(), &CreateParams{
		Model: "user",
		Data:  Row{"name": "original", "email": "x@y.z"},
	})
	require.NoError(t, err)
	require.Equal(t, "hooked", out["name"])
}

func TestBeforeHookAborts(t *testing.T) {
	boom := errors.New("nope")
	hooks := HookSet{
		"user": {Create: OpHooks{Before: []BeforeHook{
			func(context.Context, string, Row) (Row, error) { return nil, boom },
		}}},
	}
	a := newTestAdapter(t, fullCaps(), Options{Hooks: []HookSet{hooks}})

	_, err := a.Create(context.Background(), &CreateParams{
		Model: "user",
		Data:  Row{"name": "x", "email": "x@y.z"},
	})
	require.True(t, IsHookAbort(err))
	require.ErrorIs(t, err, boom)
}

func TestAfterHookSeesTransformedResult(t *testing.T) {
	var seen Row
	hooks := HookSet{
		"user": {Create: OpHooks{After: []AfterHook{
			func(_ context.Context, _ string, data Row) error {
				seen = data
				return nil
			},
		}}},
	}
	a := newTestAdapter(t, fullCaps(), Options{Hooks: []HookSet{hooks}})

	out, err := a.Create(context.Background(), &CreateParams{
		Model: "user",
		Data:  Row{"name": "x", "email": "x@y.z"},
	})
	require.NoError(t, err)
	require.Equal(t, out, seen)
	require.IsType(t, "", seen["id"])
}

func TestDeleteHooksRunWithNilData(t *testing.T) {
	var before, after bool
	hooks := HookSet{
		"user": {Delete: OpHooks{
			Before: []BeforeHook{func(_ context.Context, _ string, data Row) (Row, error) {
				require.Nil(t, data)
				before = true
				return nil, nil
			}},
			After: []AfterHook{func(_ context.Context, _ string, data Row) error {
				require.Nil(t, data)
				after = true
				return nil
			}},
		}},
	}
	a := newTestAdapter(t, fullCaps(), Options{Hooks: []HookSet{hooks}})

	err := a.Delete(context.Background(), &DeleteParams{
		Model: "user",
		Where: []Where{{Field: "id", Value: "u1"}},
	})
	require.NoError(t, err)
	require.True(t, before)
	require.True(t, after)
}

func TestHookSetsRunInRegistrationOrder(t *testing.T) {
	var order []string
	mk := func(tag string) BeforeHook {
		return func(_ context.Context, _ string, data Row) (Row, error) {
			order = append(order, tag)
			return nil, nil
		}
	}
	a := newTestAdapter(t, fullCaps(), Options{Hooks: []HookSet{
		{"user": {Create: OpHooks{Before: []BeforeHook{mk("options")}}}},
		{"user": {Create: OpHooks{Before: []BeforeHook{mk("plugin")}}}},
	}})

	_, err := a.Create(context.Background(), &CreateParams{
		Model: "user",
		Data:  Row{"name": "x", "email": "x@y.z"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"options", "plugin"}, order)
}

func TestHooksScopedToModel(t *testing.T) {
	called := false
	hooks := HookSet{
		"session": {Create: OpHooks{Before: []BeforeHook{
			func(context.Context, string, Row) (Row, error) {
				called = true
				return nil, nil
			},
		}}},
	}
	a := newTestAdapter(t, fullCaps(), Options{Hooks: []HookSet{hooks}})

	_, err := a.Create(context.Background(), &CreateParams{
		Model: "user",
		Data:  Row{"name": "x", "email": "x@y.z"},
	})
	require.NoError(t, err)
	require.False(t, called)
}
