// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHCL(t *testing.T) {
	src := []byte(`
model "organization" {
  model_name = "orgs"
  order      = 10
  field "name" {
    type     = "string"
    required = true
    sortable = true
  }
  field "seats" {
    type    = "number"
    default = 5
  }
  field "metadata" {
    type = "json"
  }
}

model "member" {
  field "orgId" {
    type     = "string"
    required = true
    references {
      model     = "organization"
      on_delete = "cascade"
    }
  }
  field "role" {
    type       = "string"
    field_name = "member_role"
    default    = "viewer"
  }
}
`)
	s, err := ParseHCL(src, "plugin.hcl")
	require.NoError(t, err)
	require.Len(t, s, 2)

	org := s["organization"]
	require.NotNil(t, org)
	require.Equal(t, "orgs", org.ModelName)
	require.Equal(t, 10, org.Order)
	require.True(t, org.Fields["name"].Required)
	require.True(t, org.Fields["name"].Sortable)
	require.Equal(t, float64(5), s["organization"].Fields["seats"].Default)
	require.Equal(t, TypeJSON, org.Fields["metadata"].Type)

	member := s["member"]
	require.NotNil(t, member)
	ref := member.Fields["orgId"].References
	require.NotNil(t, ref)
	require.Equal(t, "organization", ref.Model)
	require.Equal(t, "cascade", ref.OnDelete)
	require.Equal(t, "member_role", member.Fields["role"].FieldName)
	require.Equal(t, "viewer", member.Fields["role"].Default)

	// The parsed schema composes like a programmatic plugin.
	composed, err := Compose(Base(), ComposeOptions{Plugins: []Schema{s}})
	require.NoError(t, err)
	require.Contains(t, composed, "organization")
	require.Contains(t, composed, "member")
}

func TestParseHCLErrors(t *testing.T) {
	for _, tt := range []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "invalid field type",
			src: `
model "a" {
  field "x" {
    type = "decimal"
  }
}
`,
			wantErr: `invalid type "decimal"`,
		},
		{
			name: "duplicate model",
			src: `
model "a" {
  field "x" {
    type = "string"
  }
}
model "a" {
  field "y" {
    type = "string"
  }
}
`,
			wantErr: `duplicate model "a"`,
		},
		{
			name:    "syntax error",
			src:     `model "a" {`,
			wantErr: "",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCL([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
