// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package schema defines the logical data model of the framework: models,
// field attributes, the base auth schema, and the registry that resolves
// logical names to the physical names a storage driver sees.
package schema

type (
	// A Type represents the logical type of a field. Drivers that cannot
	// store a type natively receive a coerced value (see db/adapter).
	Type string

	// A Reference declares a foreign key from the declaring field to a
	// field of another model. Model is a logical model name; Field
	// defaults to "id" when empty.
	Reference struct {
		Model    string
		Field    string
		OnDelete string // Referential action; defaults to "cascade" on DDL emission.
	}

	// A Transform holds user hooks applied to a single field value on its
	// way in (create/update) and out (read). A nil func is a no-op.
	Transform struct {
		Input  func(v any) (any, error)
		Output func(v any) (any, error)
	}

	// A Field describes a single model field.
	Field struct {
		Type      Type
		FieldName string // Physical column name; defaults to the logical key.
		Required  bool
		Unique    bool
		Sortable  bool // Hints a bounded varchar on SQL dialects.
		Bigint    bool
		// NoInput marks a server-managed field. Caller-supplied values
		// are dropped on create and update.
		NoInput    bool
		References *Reference
		// Default is a literal, or a func() any invoked per create.
		Default   any
		OnUpdate  func() any
		Transform *Transform
	}

	// A Model maps logical field names to their attributes.
	Model struct {
		ModelName         string // Physical table/collection name; defaults to the logical key.
		Fields            map[string]*Field
		Order             int // DDL emission order hint (foreign-key dependencies).
		DisableMigrations bool
	}

	// A Schema maps logical model names to models. Logical names are
	// unique; physical names need not be.
	Schema map[string]*Model
)

// Logical field types.
const (
	TypeString      Type = "string"
	TypeNumber      Type = "number"
	TypeBool        Type = "boolean"
	TypeDate        Type = "date"
	TypeJSON        Type = "json"
	TypeStringArray Type = "string[]"
	TypeNumberArray Type = "number[]"
)

// Array reports whether the type is an array type.
func (t Type) Array() bool { return t == TypeStringArray || t == TypeNumberArray }

// Field returns the attributes of the given logical field name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.Fields[name]
	return f, ok
}

// DefaultValue resolves the field default for a create: a func() any
// default is invoked, a literal is returned as is. The second return
// value reports whether a default was declared.
func (f *Field) DefaultValue() (any, bool) {
	switch d := f.Default.(type) {
	case nil:
		return nil, false
	case func() any:
		return d(), true
	default:
		return d, true
	}
}

// Column returns the physical column name of the field declared
// under the given logical key.
func (f *Field) Column(logical string) string {
	if f.FieldName != "" {
		return f.FieldName
	}
	return logical
}

// clone returns a deep copy of the model. Field values are copied so
// that composition never aliases plugin-owned attributes.
func (m *Model) clone() *Model {
	c := &Model{
		ModelName:         m.ModelName,
		Order:             m.Order,
		DisableMigrations: m.DisableMigrations,
		Fields:            make(map[string]*Field, len(m.Fields)),
	}
	for k, f := range m.Fields {
		cf := *f
		if f.References != nil {
			r := *f.References
			cf.References = &r
		}
		c.Fields[k] = &cf
	}
	return c
}
