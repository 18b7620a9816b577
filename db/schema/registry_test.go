// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryModelNames(t *testing.T) {
	s, err := Compose(Base(), ComposeOptions{})
	require.NoError(t, err)

	t.Run("singular", func(t *testing.T) {
		r := NewRegistry(s, false)
		name, err := r.ModelName("user")
		require.NoError(t, err)
		require.Equal(t, "user", name)

		logical, err := r.DefaultModelName("user")
		require.NoError(t, err)
		require.Equal(t, "user", logical)

		_, err = r.ModelName("widget")
		require.True(t, IsLookupError(err))
	})

	t.Run("plural", func(t *testing.T) {
		r := NewRegistry(s, true)
		for model, want := range map[string]string{
			"user":         "users",
			"session":      "sessions",
			"account":      "accounts",
			"verification": "verifications",
		} {
			name, err := r.ModelName(model)
			require.NoError(t, err)
			require.Equal(t, want, name)

			// Physical names resolve back to the logical key.
			logical, err := r.DefaultModelName(name)
			require.NoError(t, err)
			require.Equal(t, model, logical)
		}
	})

	t.Run("explicit model name wins over plural", func(t *testing.T) {
		s, err := Compose(Base(), ComposeOptions{
			Overrides: map[string]ModelOverride{
				"user": {ModelName: "app_users"},
			},
		})
		require.NoError(t, err)
		r := NewRegistry(s, true)
		name, err := r.ModelName("user")
		require.NoError(t, err)
		require.Equal(t, "app_users", name)

		logical, err := r.DefaultModelName("app_users")
		require.NoError(t, err)
		require.Equal(t, "user", logical)
	})
}

func TestRegistryModelOrder(t *testing.T) {
	s, err := Compose(Base(), ComposeOptions{RateLimitTable: true})
	require.NoError(t, err)
	r := NewRegistry(s, false)
	require.Equal(t, []string{"user", "session", "account", "verification", "ratelimit"}, r.Models())
}

func TestRegistryFieldNames(t *testing.T) {
	s, err := Compose(Base(), ComposeOptions{
		Overrides: map[string]ModelOverride{
			"user": {FieldNames: map[string]string{"email": "email_address"}},
		},
	})
	require.NoError(t, err)
	r := NewRegistry(s, false)

	t.Run("physical name", func(t *testing.T) {
		col, err := r.FieldName("user", "email")
		require.NoError(t, err)
		require.Equal(t, "email_address", col)

		col, err = r.FieldName("user", "name")
		require.NoError(t, err)
		require.Equal(t, "name", col)
	})

	t.Run("round trip", func(t *testing.T) {
		logical, err := r.DefaultFieldName("user", "email_address")
		require.NoError(t, err)
		require.Equal(t, "email", logical)

		logical, err = r.DefaultFieldName("user", "email")
		require.NoError(t, err)
		require.Equal(t, "email", logical)
	})

	t.Run("id aliases", func(t *testing.T) {
		for _, alias := range []string{"id", "_id"} {
			logical, err := r.DefaultFieldName("user", alias)
			require.NoError(t, err)
			require.Equal(t, "id", logical)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := r.FieldName("user", "nickname")
		require.True(t, IsLookupError(err))
		require.EqualError(t, err, `schema: unknown field "nickname" on model "user"`)
	})
}

func TestRegistrySyntheticIDField(t *testing.T) {
	s, err := Compose(Base(), ComposeOptions{})
	require.NoError(t, err)
	r := NewRegistry(s, false)

	// No model declares id, yet it resolves everywhere.
	for _, model := range r.Models() {
		f, err := r.Field(model, "id")
		require.NoError(t, err)
		require.Equal(t, TypeString, f.Type)
		require.True(t, f.Required)
	}
}
