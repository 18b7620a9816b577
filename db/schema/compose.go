// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import "fmt"

type (
	// A ModelOverride carries user customizations for one model:
	// a physical table name, physical renames of existing fields,
	// and additional fields merged last.
	ModelOverride struct {
		ModelName        string
		FieldNames       map[string]string // logical field -> physical column
		AdditionalFields map[string]*Field
	}

	// ComposeOptions configures schema composition.
	ComposeOptions struct {
		// Plugins are merged in registration order after the base schema.
		Plugins []Schema
		// Overrides are applied last and win.
		Overrides map[string]ModelOverride
		// RateLimitTable appends the rate-limit model when set.
		RateLimitTable bool
	}
)

// Compose merges the base schema with plugin schemas and user overrides
// into the final schema served by a Registry. Merge rules:
//
//   - Plugin-only models are added verbatim.
//   - Plugin fields shallow-merge into an existing model. A plugin may
//     replace a base field only when the base field is not required;
//     redefining a required base field is an init-time error.
//   - No schema may redefine "id"; it is implicit on every model.
//   - User overrides merge last and win.
func Compose(base Schema, opts ComposeOptions) (Schema, error) {
	out := make(Schema, len(base))
	order := 0
	for name, m := range base {
		out[name] = m.clone()
		if m.Order > order {
			order = m.Order
		}
	}
	for _, p := range opts.Plugins {
		for name, pm := range p {
			if err := validateFields(name, pm); err != nil {
				return nil, err
			}
			m, ok := out[name]
			if !ok {
				c := pm.clone()
				if c.Order == 0 {
					order++
					c.Order = order
				}
				out[name] = c
				continue
			}
			for fname, f := range pm.Fields {
				if prev, ok := m.Fields[fname]; ok && prev.Required {
					return nil, fmt.Errorf("schema: plugin redefines required field %q of model %q", fname, name)
				}
				cf := *f
				m.Fields[fname] = &cf
			}
			if pm.ModelName != "" {
				m.ModelName = pm.ModelName
			}
		}
	}
	for name, ov := range opts.Overrides {
		m, ok := out[name]
		if !ok {
			return nil, fmt.Errorf("schema: override for unknown model %q", name)
		}
		if ov.ModelName != "" {
			m.ModelName = ov.ModelName
		}
		for fname, col := range ov.FieldNames {
			f, ok := m.Fields[fname]
			if !ok {
				return nil, fmt.Errorf("schema: rename of unknown field %q on model %q", fname, name)
			}
			f.FieldName = col
		}
		for fname, f := range ov.AdditionalFields {
			if fname == "id" {
				return nil, fmt.Errorf("schema: model %q: the id field may not be redefined", name)
			}
			cf := *f
			m.Fields[fname] = &cf
		}
	}
	if opts.RateLimitTable {
		rl := RateLimit()
		rl.Order = order + 1
		out["ratelimit"] = rl
	}
	if err := validateReferences(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateFields(model string, m *Model) error {
	for fname := range m.Fields {
		if fname == "id" {
			return fmt.Errorf("schema: model %q: the id field may not be redefined", model)
		}
	}
	return nil
}

// validateReferences checks that every reference target resolves to an
// existing model, and to an existing field when one is named explicitly.
func validateReferences(s Schema) error {
	for name, m := range s {
		for fname, f := range m.Fields {
			r := f.References
			if r == nil {
				continue
			}
			target, ok := s[r.Model]
			if !ok {
				return fmt.Errorf("schema: field %q of model %q references unknown model %q", fname, name, r.Model)
			}
			if r.Field != "" && r.Field != "id" {
				if _, ok := target.Fields[r.Field]; !ok {
					return fmt.Errorf("schema: field %q of model %q references unknown field %q of model %q", fname, name, r.Field, r.Model)
				}
			}
		}
	}
	return nil
}
