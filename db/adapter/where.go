// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"fmt"
	"reflect"
)

type (
	// An Operator is one of the closed predicate operators. The
	// pattern operators match literal substrings; drivers must escape
	// wildcard metacharacters of their query language.
	Operator string

	// A Connector groups predicates. All AND predicates form one
	// conjunction, all OR predicates one disjunction, and the two
	// groups are AND-ed together.
	Connector string

	// A Where is a single predicate. Callers write logical field
	// names; the compiled form drivers receive carries physical
	// column names and coerced values.
	Where struct {
		Field     string
		Value     any
		Operator  Operator  // Defaults to OpEQ.
		Connector Connector // Defaults to And.
	}
)

// The closed operator set.
const (
	OpEQ         Operator = "eq"
	OpNE         Operator = "ne"
	OpLT         Operator = "lt"
	OpLTE        Operator = "lte"
	OpGT         Operator = "gt"
	OpGTE        Operator = "gte"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

// Predicate connectors.
const (
	And Connector = "AND"
	Or  Connector = "OR"
)

var operators = map[Operator]bool{
	OpEQ: true, OpNE: true, OpLT: true, OpLTE: true, OpGT: true, OpGTE: true,
	OpIn: true, OpNotIn: true, OpContains: true, OpStartsWith: true, OpEndsWith: true,
}

// transformWhere compiles a caller predicate list into its canonical
// driver-facing form: physical field names, defaulted operator and
// connector, and numeric coercion of id values under numeric-id mode.
func (a *Adapter) transformWhere(model string, where []Where) ([]Where, error) {
	logical, err := a.reg.DefaultModelName(model)
	if err != nil {
		return nil, err
	}
	out := make([]Where, 0, len(where))
	for _, w := range where {
		field, err := a.reg.DefaultFieldName(logical, w.Field)
		if err != nil {
			return nil, err
		}
		if w.Operator == "" {
			w.Operator = OpEQ
		}
		if !operators[w.Operator] {
			return nil, &InvalidArgumentError{Reason: fmt.Sprintf("unknown operator %q", w.Operator)}
		}
		if w.Connector == "" {
			w.Connector = And
		}
		if w.Connector != And && w.Connector != Or {
			return nil, &InvalidArgumentError{Reason: fmt.Sprintf("unknown connector %q", w.Connector)}
		}
		if w.Operator == OpIn || w.Operator == OpNotIn {
			if rv := reflect.ValueOf(w.Value); w.Value == nil || rv.Kind() != reflect.Slice {
				return nil, &InvalidArgumentError{Reason: fmt.Sprintf("operator %q requires an array value, got %T", w.Operator, w.Value)}
			}
		}
		attr, err := a.reg.Field(logical, field)
		if err != nil {
			return nil, err
		}
		if a.opts.UseNumberID && (field == "id" || referencesID(attr)) {
			v, err := toNumberValue(w.Value)
			if err != nil {
				return nil, &InvalidArgumentError{Reason: err.Error()}
			}
			w.Value = v
		}
		if w.Field, err = a.reg.FieldName(logical, field); err != nil {
			return nil, err
		}
		w.Field = a.mapKeyIn(w.Field)
		out = append(out, w)
	}
	return out, nil
}
