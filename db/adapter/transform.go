// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/gatekit/gatekit/db/schema"
)

// transformInput rewrites a caller payload into the physical shape the
// driver stores: defaults and onUpdate values applied, user input hooks
// run, values coerced per the capability record, and keys rewritten to
// physical column names.
func (a *Adapter) transformInput(model string, data Row, action Action, forceAllowID bool) (Row, error) {
	logical, err := a.reg.DefaultModelName(model)
	if err != nil {
		return nil, err
	}
	m, err := a.reg.Model(logical)
	if err != nil {
		return nil, err
	}
	out := make(Row, len(data)+1)
	if v, ok := data["id"]; ok {
		if forceAllowID {
			out[a.mapKeyIn("id")] = v
		} else {
			a.logger.Warn("adapter: id in create payload dropped; pass forceAllowId to keep it",
				"model", logical)
		}
	} else if action == ActionCreate {
		if id := a.generateID(logical); id != "" {
			out[a.mapKeyIn("id")] = id
		}
	}
	for name, f := range m.Fields {
		v, supplied := data[name]
		if f.NoInput {
			// Server-managed; caller values never reach the driver.
			v, supplied = nil, false
		}
		if !supplied {
			switch action {
			case ActionCreate:
				if d, ok := f.DefaultValue(); ok {
					v, supplied = d, true
				}
			case ActionUpdate:
				if f.OnUpdate != nil {
					v, supplied = f.OnUpdate(), true
				}
			}
		}
		if !supplied {
			continue
		}
		if v != nil {
			if f.Transform != nil && f.Transform.Input != nil {
				if v, err = f.Transform.Input(v); err != nil {
					return nil, fmt.Errorf("adapter: input transform of %q.%q: %w", logical, name, err)
				}
			}
			if a.cfg.CustomTransformInput != nil {
				v = a.cfg.CustomTransformInput(name, f, v)
			}
			if v, err = a.coerceInput(f, v); err != nil {
				return nil, fmt.Errorf("adapter: field %q of model %q: %w", name, logical, err)
			}
		}
		out[a.mapKeyIn(f.Column(name))] = v
	}
	return out, nil
}

// transformOutput is the inverse of transformInput: driver rows come
// back under physical keys with stored representations and leave under
// logical keys with logical values. The id is always rendered as a
// string. A nil row stays nil.
func (a *Adapter) transformOutput(model string, row Row, sel []string) (Row, error) {
	if row == nil {
		return nil, nil
	}
	logical, err := a.reg.DefaultModelName(model)
	if err != nil {
		return nil, err
	}
	m, err := a.reg.Model(logical)
	if err != nil {
		return nil, err
	}
	if len(a.cfg.MapKeysOutput) > 0 {
		remapped := make(Row, len(row))
		for k, v := range row {
			if p, ok := a.cfg.MapKeysOutput[k]; ok {
				k = p
			}
			remapped[k] = v
		}
		row = remapped
	}
	include := func(name string) bool {
		if len(sel) == 0 {
			return true
		}
		for _, s := range sel {
			if s == name {
				return true
			}
		}
		return false
	}
	out := make(Row, len(row))
	if v, ok := row["id"]; ok && include("id") {
		out["id"] = stringifyID(v)
	}
	for name, f := range m.Fields {
		if !include(name) {
			continue
		}
		v, ok := row[f.Column(name)]
		if !ok {
			continue
		}
		if v != nil {
			if a.cfg.CustomTransformOutput != nil {
				v = a.cfg.CustomTransformOutput(name, f, v)
			}
			v = a.coerceOutput(f, v)
			if f.Transform != nil && f.Transform.Output != nil {
				if v, err = f.Transform.Output(v); err != nil {
					return nil, fmt.Errorf("adapter: output transform of %q.%q: %w", logical, name, err)
				}
			}
		}
		out[name] = v
	}
	return out, nil
}

// coerceInput lowers a logical value to what the driver can store,
// driven by the capability record.
func (a *Adapter) coerceInput(f *schema.Field, v any) (any, error) {
	if a.opts.UseNumberID && referencesID(f) {
		return toNumberValue(v)
	}
	switch f.Type {
	case schema.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		if a.cfg.SupportsBooleans {
			return b, nil
		}
		n := 0
		if b {
			n = 1
		}
		if !a.cfg.supportsNumbers() {
			return strconv.Itoa(n), nil
		}
		return n, nil
	case schema.TypeDate:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
		if a.cfg.SupportsDates {
			return t, nil
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	case schema.TypeJSON:
		if a.cfg.SupportsJSON {
			return v, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serializing json value: %w", err)
		}
		return string(b), nil
	case schema.TypeStringArray, schema.TypeNumberArray:
		if a.cfg.SupportsArrays {
			return v, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serializing array value: %w", err)
		}
		return string(b), nil
	case schema.TypeNumber:
		if a.cfg.supportsNumbers() {
			return v, nil
		}
		return fmt.Sprintf("%v", v), nil
	default:
		return v, nil
	}
}

// coerceOutput lifts a stored value back to its logical type. Parse
// failures on json degrade to nil instead of failing the read.
func (a *Adapter) coerceOutput(f *schema.Field, v any) any {
	switch f.Type {
	case schema.TypeBool:
		switch b := v.(type) {
		case bool:
			return b
		case int:
			return b == 1
		case int64:
			return b == 1
		case float64:
			return b == 1
		case string:
			return b == "1" || b == "true"
		}
	case schema.TypeDate:
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t
			}
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t
			}
			return nil
		}
	case schema.TypeJSON:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil
			}
			return out
		}
	case schema.TypeStringArray:
		if s, ok := v.(string); ok {
			var out []string
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil
			}
			return out
		}
	case schema.TypeNumberArray:
		if s, ok := v.(string); ok {
			var out []float64
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil
			}
			return out
		}
	case schema.TypeNumber:
		if s, ok := v.(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				return n
			}
		}
	}
	return v
}

func (a *Adapter) mapKeyIn(physical string) string {
	if k, ok := a.cfg.MapKeysInput[physical]; ok {
		return k
	}
	return physical
}

// referencesID reports whether the field is a foreign key into a
// primary id, which follows the numeric-id policy of its target.
func referencesID(f *schema.Field) bool {
	return f.References != nil && (f.References.Field == "" || f.References.Field == "id")
}

// stringifyID renders a primary id as a string regardless of the
// underlying column type.
func stringifyID(v any) any {
	switch id := v.(type) {
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toNumberValue coerces an id value (or slice of them) to int64 for
// numeric-id drivers.
func toNumberValue(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := toNumber(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return toNumber(v)
}

func toNumber(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing numeric id %q: %w", n, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to a numeric id", v)
	}
}
