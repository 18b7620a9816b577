// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"context"
	"fmt"

	"github.com/gatekit/gatekit/db/schema"
)

// A relation is a classified join between a base model and a related
// model, derived from the composed schema.
type relation struct {
	related string
	// forward: the related model holds the foreign key. Backward:
	// the base model holds it (many-to-one).
	forward bool
	// unique marks a forward relation as one-to-one.
	unique bool
	// refField is the logical name of the referencing field: on the
	// related model for forward relations, on the base model for
	// backward ones.
	refField string
	// key is the logical field whose value the reference matches:
	// on the base model for forward relations, on the related model
	// for backward ones. Usually "id".
	key string
}

func (a *Adapter) classifyRelation(base, related string) (*relation, error) {
	rm, err := a.reg.Model(related)
	if err != nil {
		return nil, err
	}
	for fname, f := range rm.Fields {
		if f.References != nil && f.References.Model == base {
			key := f.References.Field
			if key == "" {
				key = "id"
			}
			return &relation{related: related, forward: true, unique: f.Unique, refField: fname, key: key}, nil
		}
	}
	bm, err := a.reg.Model(base)
	if err != nil {
		return nil, err
	}
	for fname, f := range bm.Fields {
		if f.References != nil && f.References.Model == related {
			key := f.References.Field
			if key == "" {
				key = "id"
			}
			return &relation{related: related, forward: false, refField: fname, key: key}, nil
		}
	}
	return nil, &schema.LookupError{Model: base, Field: related}
}

// resolveJoins is the fallback join path for drivers without native
// joins: one batched secondary query per related model, bucketed and
// attached to the parent rows. Rows must already be in logical form.
func (a *Adapter) resolveJoins(ctx context.Context, base string, rows []Row, join Join) error {
	for name, opt := range join {
		related, err := a.reg.DefaultModelName(name)
		if err != nil {
			return err
		}
		rel, err := a.classifyRelation(base, related)
		if err != nil {
			return err
		}
		if rel.forward {
			err = a.attachForward(ctx, rel, rows, opt)
		} else {
			err = a.attachBackward(ctx, rel, rows, opt)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// attachForward resolves base -> related where the related model holds
// the foreign key: one-to-one when the key is unique, one-to-many
// otherwise.
func (a *Adapter) attachForward(ctx context.Context, rel *relation, rows []Row, opt *JoinOption) error {
	// A per-parent limit cannot be expressed as one batched query;
	// fall back to one query per parent.
	if opt != nil && opt.Limit > 0 && !rel.unique {
		for _, row := range rows {
			children, err := a.findJoined(ctx, rel.related,
				[]Where{{Field: rel.refField, Value: row[rel.key]}},
				joinSelect(opt, rel.refField), opt.Limit)
			if err != nil {
				return err
			}
			row[rel.related] = children
		}
		return nil
	}
	keys, index := collectKeys(rows, rel.key)
	if len(keys) == 0 {
		return nil
	}
	children, err := a.findJoined(ctx, rel.related,
		[]Where{{Field: rel.refField, Operator: OpIn, Value: keys}},
		joinSelect(opt, rel.refField), 0)
	if err != nil {
		return err
	}
	if rel.unique {
		for _, row := range rows {
			row[rel.related] = nil
		}
		for _, child := range children {
			for _, row := range index[joinKey(child[rel.refField])] {
				row[rel.related] = child
			}
		}
		return nil
	}
	buckets := make(map[string][]Row)
	for _, child := range children {
		k := joinKey(child[rel.refField])
		buckets[k] = append(buckets[k], child)
	}
	for _, row := range rows {
		b := buckets[joinKey(row[rel.key])]
		if b == nil {
			b = []Row{}
		}
		row[rel.related] = b
	}
	return nil
}

// attachBackward resolves base -> related where the base model holds
// the foreign key: always many-to-one.
func (a *Adapter) attachBackward(ctx context.Context, rel *relation, rows []Row, opt *JoinOption) error {
	keys, index := collectKeys(rows, rel.refField)
	for _, row := range rows {
		row[rel.related] = nil
	}
	if len(keys) == 0 {
		return nil
	}
	children, err := a.findJoined(ctx, rel.related,
		[]Where{{Field: rel.key, Operator: OpIn, Value: keys}},
		joinSelect(opt, rel.key), 0)
	if err != nil {
		return err
	}
	for _, child := range children {
		for _, row := range index[joinKey(child[rel.key])] {
			row[rel.related] = child
		}
	}
	return nil
}

// findJoined is the secondary-query path: where compilation and output
// transformation without the default findMany limit and without
// re-entering join resolution.
func (a *Adapter) findJoined(ctx context.Context, model string, where []Where, sel []string, limit int) ([]Row, error) {
	compiled, err := a.transformWhere(model, where)
	if err != nil {
		return nil, err
	}
	physical, err := a.reg.ModelName(model)
	if err != nil {
		return nil, err
	}
	rows, err := a.driver.FindMany(ctx, &FindQuery{
		Model:  physical,
		Where:  compiled,
		Select: a.physicalSelect(model, sel),
		Limit:  limit,
	})
	if err != nil {
		return nil, &DriverError{Method: "findMany", Model: model, Err: err}
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		t, err := a.transformOutput(model, r, sel)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// collectKeys gathers the deduplicated key values of the parent rows
// and an index from normalized key to the rows carrying it.
func collectKeys(rows []Row, field string) ([]any, map[string][]Row) {
	var keys []any
	index := make(map[string][]Row)
	for _, row := range rows {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		k := joinKey(v)
		if _, seen := index[k]; !seen {
			keys = append(keys, v)
		}
		index[k] = append(index[k], row)
	}
	return keys, index
}

// joinKey normalizes a key value for bucketing, so that a stringified
// parent id matches a numeric child reference.
func joinKey(v any) string { return fmt.Sprintf("%v", v) }

// joinSelect ensures the bucketing key survives a narrowed select.
func joinSelect(opt *JoinOption, key string) []string {
	if opt == nil || len(opt.Select) == 0 {
		return nil
	}
	for _, s := range opt.Select {
		if s == key {
			return opt.Select
		}
	}
	return append(append([]string{}, opt.Select...), key)
}
