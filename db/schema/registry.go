// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
)

// A LookupError reports a model or field name that could not be
// resolved after all alias attempts.
type LookupError struct {
	Model string
	Field string // Empty on model lookups.
}

func (e *LookupError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: unknown model %q", e.Model)
	}
	return fmt.Sprintf("schema: unknown field %q on model %q", e.Field, e.Model)
}

// IsLookupError reports whether err is a LookupError.
func IsLookupError(err error) bool {
	var e *LookupError
	return errors.As(err, &e)
}

// A Registry wraps a composed schema and resolves names in both
// directions. It is built once at init and read-only afterwards.
type Registry struct {
	schema Schema
	plural bool
	// byPhysical maps physical table names back to logical keys.
	byPhysical map[string]string
}

// NewRegistry indexes the composed schema. When usePlural is set,
// physical table names carry a plural suffix unless the model declares
// an explicit ModelName.
func NewRegistry(s Schema, usePlural bool) *Registry {
	r := &Registry{schema: s, plural: usePlural, byPhysical: make(map[string]string, len(s))}
	for name := range s {
		r.byPhysical[r.physical(name)] = name
	}
	return r
}

// Schema returns the composed schema.
func (r *Registry) Schema() Schema { return r.schema }

// Models returns the logical model names ordered by their DDL order hint.
func (r *Registry) Models() []string {
	names := make([]string, 0, len(r.schema))
	for name := range r.schema {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oj := r.schema[names[i]].Order, r.schema[names[j]].Order
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

// Model returns the model under the given logical key.
func (r *Registry) Model(name string) (*Model, error) {
	m, ok := r.schema[name]
	if !ok {
		return nil, &LookupError{Model: name}
	}
	return m, nil
}

// DefaultModelName resolves a logical name, a physical table name, or a
// pluralized form to the logical key used to index the schema. When
// usePlural is enabled and the name ends in "s", the singular form is
// tried before the literal one.
func (r *Registry) DefaultModelName(name string) (string, error) {
	if r.plural && strings.HasSuffix(name, "s") {
		trimmed := strings.TrimSuffix(name, "s")
		if _, ok := r.schema[trimmed]; ok {
			return trimmed, nil
		}
	}
	if _, ok := r.schema[name]; ok {
		return name, nil
	}
	if logical, ok := r.byPhysical[name]; ok {
		return logical, nil
	}
	return "", &LookupError{Model: name}
}

// ModelName returns the physical name the driver should see for the
// given logical model, including the plural suffix if configured.
func (r *Registry) ModelName(logical string) (string, error) {
	if _, ok := r.schema[logical]; !ok {
		return "", &LookupError{Model: logical}
	}
	return r.physical(logical), nil
}

func (r *Registry) physical(logical string) string {
	m := r.schema[logical]
	if m.ModelName != "" {
		return m.ModelName
	}
	if r.plural {
		return inflect.Pluralize(logical)
	}
	return logical
}

// DefaultFieldName resolves either a logical field key or a physical
// column name to the logical key. "id" and "_id" always normalize to
// "id".
func (r *Registry) DefaultFieldName(model, field string) (string, error) {
	logical, err := r.DefaultModelName(model)
	if err != nil {
		return "", err
	}
	if field == "id" || field == "_id" {
		return "id", nil
	}
	m := r.schema[logical]
	if _, ok := m.Fields[field]; ok {
		return field, nil
	}
	for name, f := range m.Fields {
		if f.FieldName == field {
			return name, nil
		}
	}
	return "", &LookupError{Model: logical, Field: field}
}

// FieldName returns the physical column name of the given logical
// field.
func (r *Registry) FieldName(model, field string) (string, error) {
	logical, err := r.DefaultModelName(model)
	if err != nil {
		return "", err
	}
	if field == "id" {
		return "id", nil
	}
	f, ok := r.schema[logical].Fields[field]
	if !ok {
		return "", &LookupError{Model: logical, Field: field}
	}
	return f.Column(field), nil
}

// Field returns the attributes of the given logical field. The id
// field resolves on every model even though schemas never declare it.
func (r *Registry) Field(model, field string) (*Field, error) {
	logical, err := r.DefaultModelName(model)
	if err != nil {
		return nil, err
	}
	if field == "id" || field == "_id" {
		return &Field{Type: TypeString, Required: true}, nil
	}
	f, ok := r.schema[logical].Fields[field]
	if !ok {
		return nil, &LookupError{Model: logical, Field: field}
	}
	return f, nil
}
