// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package memory provides the reference in-memory driver: a map-backed
// store honoring the full driver contract. It keeps insertion order,
// declares no native joins and no transactions, and exposes capability
// toggles so every coercion path can be exercised in tests.
package memory

import (
	"context"
	"sync"

	"github.com/gatekit/gatekit/db/adapter"
)

// A Driver stores rows per physical table name in insertion order.
type Driver struct {
	mu     sync.RWMutex
	tables map[string][]adapter.Row
	seq    map[string]int64
	cfg    adapter.Config
}

// An Option toggles a capability off (or on) for coercion testing.
type Option func(*adapter.Config)

// WithoutBooleans makes the driver store booleans as integers.
func WithoutBooleans() Option { return func(c *adapter.Config) { c.SupportsBooleans = false } }

// WithoutDates makes the driver store dates as ISO-8601 strings.
func WithoutDates() Option { return func(c *adapter.Config) { c.SupportsDates = false } }

// WithoutJSON makes the driver store json values as serialized strings.
func WithoutJSON() Option { return func(c *adapter.Config) { c.SupportsJSON = false } }

// WithoutArrays makes the driver store arrays as serialized strings.
func WithoutArrays() Option { return func(c *adapter.Config) { c.SupportsArrays = false } }

// WithoutNumbers makes the driver store numbers as strings.
func WithoutNumbers() Option {
	return func(c *adapter.Config) { f := false; c.SupportsNumbers = &f }
}

// WithDebugLogs enables the four-phase trace.
func WithDebugLogs() Option { return func(c *adapter.Config) { c.DebugLogs = true } }

// WithPlural pluralizes physical table names.
func WithPlural() Option { return func(c *adapter.Config) { c.UsePlural = true } }

// New returns a fresh driver and its capability record.
func New(opts ...Option) (*Driver, adapter.Config) {
	cfg := adapter.Config{
		AdapterID:          "memory",
		AdapterName:        "In-Memory Adapter",
		SupportsBooleans:   true,
		SupportsDates:      true,
		SupportsJSON:       true,
		SupportsArrays:     true,
		SupportsNumericIDs: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Driver{
		tables: make(map[string][]adapter.Row),
		seq:    make(map[string]int64),
		cfg:    cfg,
	}, cfg
}

// Rows returns a snapshot of the stored rows of a physical table, in
// insertion order. Intended for introspection in tests.
func (d *Driver) Rows(table string) []adapter.Row {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]adapter.Row, 0, len(d.tables[table]))
	for _, r := range d.tables[table] {
		out = append(out, clone(r))
	}
	return out
}

func (d *Driver) Create(ctx context.Context, q *adapter.CreateQuery) (adapter.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	row := clone(q.Data)
	if _, ok := row["id"]; !ok {
		d.seq[q.Model]++
		row["id"] = d.seq[q.Model]
	}
	d.tables[q.Model] = append(d.tables[q.Model], row)
	return clone(row), nil
}

func (d *Driver) Update(ctx context.Context, q *adapter.UpdateQuery) (adapter.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, row := range d.tables[q.Model] {
		if matches(row, q.Where) {
			for k, v := range q.Update {
				row[k] = v
			}
			return clone(row), nil
		}
	}
	return nil, nil
}

func (d *Driver) UpdateMany(ctx context.Context, q *adapter.UpdateQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, row := range d.tables[q.Model] {
		if matches(row, q.Where) {
			for k, v := range q.Update {
				row[k] = v
			}
			n++
		}
	}
	return n, nil
}

func (d *Driver) FindOne(ctx context.Context, q *adapter.FindQuery) (adapter.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, row := range d.tables[q.Model] {
		if matches(row, q.Where) {
			return project(clone(row), q.Select), nil
		}
	}
	return nil, nil
}

func (d *Driver) FindMany(ctx context.Context, q *adapter.FindQuery) ([]adapter.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	var out []adapter.Row
	for _, row := range d.tables[q.Model] {
		if matches(row, q.Where) {
			out = append(out, clone(row))
		}
	}
	d.mu.RUnlock()
	if q.Sort != nil {
		sortRows(out, q.Sort)
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	for i, row := range out {
		out[i] = project(row, q.Select)
	}
	return out, nil
}

func (d *Driver) Count(ctx context.Context, q *adapter.FindQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, row := range d.tables[q.Model] {
		if matches(row, q.Where) {
			n++
		}
	}
	return n, nil
}

func (d *Driver) Delete(ctx context.Context, q *adapter.DeleteQuery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	rows := d.tables[q.Model]
	for i, row := range rows {
		if matches(row, q.Where) {
			d.tables[q.Model] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (d *Driver) DeleteMany(ctx context.Context, q *adapter.DeleteQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var kept []adapter.Row
	n := 0
	for _, row := range d.tables[q.Model] {
		if matches(row, q.Where) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	d.tables[q.Model] = kept
	return n, nil
}

func clone(r adapter.Row) adapter.Row {
	out := make(adapter.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func project(row adapter.Row, sel []string) adapter.Row {
	if len(sel) == 0 {
		return row
	}
	out := make(adapter.Row, len(sel))
	for _, s := range sel {
		if v, ok := row[s]; ok {
			out[s] = v
		}
	}
	return out
}
