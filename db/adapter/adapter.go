// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package adapter wraps a storage driver with the framework's uniform
// CRUD+query surface: schema-aware name resolution, bidirectional value
// transformation, where-clause compilation, fallback join resolution,
// lifecycle hooks, and id-generation policy.
package adapter

import (
	"context"
	"log/slog"

	"github.com/gatekit/gatekit/db/schema"
)

// An Adapter drives a single storage backend. It is safe for
// concurrent use; all state besides the trace buffer is read-only
// after New.
type Adapter struct {
	driver Driver
	cfg    Config
	opts   Options
	reg    *schema.Registry
	hooks  *hookRegistry
	log    *debugLogger
	logger *slog.Logger
}

// New composes the schema, validates the id policy against the driver
// capabilities, and wraps the driver.
func New(driver Driver, cfg Config, opts Options) (*Adapter, error) {
	if opts.UseNumberID && !cfg.SupportsNumericIDs {
		return nil, &CapabilityError{Adapter: cfg.AdapterName, Capability: "numeric ids"}
	}
	composed, err := schema.Compose(schema.Base(), schema.ComposeOptions{
		Plugins:        opts.Plugins,
		Overrides:      opts.Overrides,
		RateLimitTable: opts.RateLimitTable,
	})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		driver: driver,
		cfg:    cfg,
		opts:   opts,
		reg:    schema.NewRegistry(composed, cfg.UsePlural),
		hooks:  &hookRegistry{sets: opts.Hooks},
		log:    newDebugLogger(cfg.DebugLogs, logger),
		logger: logger,
	}
	if b, ok := driver.(Binder); ok {
		b.Bind(&Helper{
			Registry: a.reg,
			Options:  &a.opts,
			DebugLog: func(phase Phase, method, model string, data any) {
				a.log.log(a.log.begin(), phase, method, model, data)
			},
			TransformInput:  a.transformInput,
			TransformOutput: a.transformOutput,
			TransformWhere:  a.transformWhere,
		})
	}
	return a, nil
}

// Registry exposes the composed schema and its name resolution.
func (a *Adapter) Registry() *schema.Registry { return a.reg }

// Config returns the driver capability record.
func (a *Adapter) Config() Config { return a.cfg }

// Options returns the factory options.
func (a *Adapter) Options() Options { return a.opts }

// defaultFindLimit applies when findMany is called without a limit.
const defaultFindLimit = 100

type (
	// CreateParams describe a create call. Data keys are logical
	// field names.
	CreateParams struct {
		Model        string
		Data         Row
		Select       []string
		ForceAllowID bool
	}

	// UpdateParams describe update and updateMany calls.
	UpdateParams struct {
		Model  string
		Where  []Where
		Update Row
	}

	// DeleteParams describe delete and deleteMany calls.
	DeleteParams struct {
		Model string
		Where []Where
	}

	// FindParams describe findOne, findMany and count calls.
	FindParams struct {
		Model  string
		Where  []Where
		Select []string
		Limit  int
		Offset int
		Sort   *SortBy
		Join   Join
	}
)

// Create inserts one row and returns it in logical form.
func (a *Adapter) Create(ctx context.Context, p *CreateParams) (Row, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return nil, err
	}
	tx := a.log.begin()
	data, err := a.hooks.runBefore(ctx, logical, opCreate, p.Data)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseUnsafeInput, "create", logical, data)
	in, err := a.transformInput(logical, data, ActionCreate, p.ForceAllowID)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseParsedInput, "create", logical, in)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return nil, err
	}
	res, err := a.driver.Create(ctx, &CreateQuery{Model: physical, Data: in})
	if err != nil {
		return nil, &DriverError{Method: "create", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "create", logical, res)
	out, err := a.transformOutput(logical, res, p.Select)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseParsedResult, "create", logical, out)
	if err := a.hooks.runAfter(ctx, logical, opCreate, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update mutates the first row matching where and returns it, or nil
// when no row matched.
func (a *Adapter) Update(ctx context.Context, p *UpdateParams) (Row, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return nil, err
	}
	tx := a.log.begin()
	update, err := a.hooks.runBefore(ctx, logical, opUpdate, p.Update)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseUnsafeInput, "update", logical, update)
	in, err := a.transformInput(logical, update, ActionUpdate, false)
	if err != nil {
		return nil, err
	}
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseParsedInput, "update", logical, in)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return nil, err
	}
	res, err := a.driver.Update(ctx, &UpdateQuery{Model: physical, Where: where, Update: in})
	if err != nil {
		return nil, &DriverError{Method: "update", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "update", logical, res)
	out, err := a.transformOutput(logical, res, nil)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseParsedResult, "update", logical, out)
	if out != nil {
		if err := a.hooks.runAfter(ctx, logical, opUpdate, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateMany mutates every row matching where and returns the number
// of rows affected.
func (a *Adapter) UpdateMany(ctx context.Context, p *UpdateParams) (int, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return 0, err
	}
	tx := a.log.begin()
	update, err := a.hooks.runBefore(ctx, logical, opUpdate, p.Update)
	if err != nil {
		return 0, err
	}
	a.log.log(tx, PhaseUnsafeInput, "updateMany", logical, update)
	in, err := a.transformInput(logical, update, ActionUpdate, false)
	if err != nil {
		return 0, err
	}
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return 0, err
	}
	a.log.log(tx, PhaseParsedInput, "updateMany", logical, in)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return 0, err
	}
	n, err := a.driver.UpdateMany(ctx, &UpdateQuery{Model: physical, Where: where, Update: in})
	if err != nil {
		return 0, &DriverError{Method: "updateMany", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "updateMany", logical, n)
	if err := a.hooks.runAfter(ctx, logical, opUpdate, nil); err != nil {
		return 0, err
	}
	return n, nil
}

// FindOne returns the first row matching where in logical form, or nil
// when no row matched.
func (a *Adapter) FindOne(ctx context.Context, p *FindParams) (Row, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return nil, err
	}
	tx := a.log.begin()
	a.log.log(tx, PhaseUnsafeInput, "findOne", logical, p.Where)
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseParsedInput, "findOne", logical, where)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return nil, err
	}
	q := &FindQuery{Model: physical, Where: where, Select: a.physicalSelect(logical, p.Select)}
	if a.cfg.Joins {
		q.Join = p.Join
	}
	res, err := a.driver.FindOne(ctx, q)
	if err != nil {
		return nil, &DriverError{Method: "findOne", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "findOne", logical, res)
	out, err := a.transformOutput(logical, res, p.Select)
	if err != nil {
		return nil, err
	}
	if out != nil && !a.cfg.Joins && len(p.Join) > 0 {
		if err := a.resolveJoins(ctx, logical, []Row{out}, p.Join); err != nil {
			return nil, err
		}
	}
	a.log.log(tx, PhaseParsedResult, "findOne", logical, out)
	return out, nil
}

// FindMany returns every row matching where, capped at 100 rows when
// no limit is given. Row order follows the driver unless Sort is set.
func (a *Adapter) FindMany(ctx context.Context, p *FindParams) ([]Row, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return nil, err
	}
	tx := a.log.begin()
	a.log.log(tx, PhaseUnsafeInput, "findMany", logical, p.Where)
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return nil, err
	}
	a.log.log(tx, PhaseParsedInput, "findMany", logical, where)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	q := &FindQuery{
		Model:  physical,
		Where:  where,
		Select: a.physicalSelect(logical, p.Select),
		Limit:  limit,
		Offset: p.Offset,
	}
	if p.Sort != nil {
		field, err := a.reg.FieldName(logical, p.Sort.Field)
		if err != nil {
			return nil, err
		}
		q.Sort = &SortBy{Field: a.mapKeyIn(field), Direction: p.Sort.Direction}
	}
	if a.cfg.Joins {
		q.Join = p.Join
	}
	rows, err := a.driver.FindMany(ctx, q)
	if err != nil {
		return nil, &DriverError{Method: "findMany", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "findMany", logical, rows)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		t, err := a.transformOutput(logical, r, p.Select)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if len(out) > 0 && !a.cfg.Joins && len(p.Join) > 0 {
		if err := a.resolveJoins(ctx, logical, out, p.Join); err != nil {
			return nil, err
		}
	}
	a.log.log(tx, PhaseParsedResult, "findMany", logical, out)
	return out, nil
}

// Count returns the number of rows matching where.
func (a *Adapter) Count(ctx context.Context, p *FindParams) (int, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return 0, err
	}
	tx := a.log.begin()
	a.log.log(tx, PhaseUnsafeInput, "count", logical, p.Where)
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return 0, err
	}
	a.log.log(tx, PhaseParsedInput, "count", logical, where)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return 0, err
	}
	n, err := a.driver.Count(ctx, &FindQuery{Model: physical, Where: where})
	if err != nil {
		return 0, &DriverError{Method: "count", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "count", logical, n)
	a.log.log(tx, PhaseParsedResult, "count", logical, n)
	return n, nil
}

// Delete removes the first row matching where. Deleting a missing row
// succeeds.
func (a *Adapter) Delete(ctx context.Context, p *DeleteParams) error {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return err
	}
	tx := a.log.begin()
	if _, err := a.hooks.runBefore(ctx, logical, opDelete, nil); err != nil {
		return err
	}
	a.log.log(tx, PhaseUnsafeInput, "delete", logical, p.Where)
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return err
	}
	a.log.log(tx, PhaseParsedInput, "delete", logical, where)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return err
	}
	if err := a.driver.Delete(ctx, &DeleteQuery{Model: physical, Where: where}); err != nil {
		return &DriverError{Method: "delete", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "delete", logical, nil)
	a.log.log(tx, PhaseParsedResult, "delete", logical, nil)
	return a.hooks.runAfter(ctx, logical, opDelete, nil)
}

// DeleteMany removes every row matching where and returns the number
// of rows removed.
func (a *Adapter) DeleteMany(ctx context.Context, p *DeleteParams) (int, error) {
	logical, err := a.reg.DefaultModelName(p.Model)
	if err != nil {
		return 0, err
	}
	tx := a.log.begin()
	if _, err := a.hooks.runBefore(ctx, logical, opDelete, nil); err != nil {
		return 0, err
	}
	a.log.log(tx, PhaseUnsafeInput, "deleteMany", logical, p.Where)
	where, err := a.transformWhere(logical, p.Where)
	if err != nil {
		return 0, err
	}
	a.log.log(tx, PhaseParsedInput, "deleteMany", logical, where)
	physical, err := a.reg.ModelName(logical)
	if err != nil {
		return 0, err
	}
	n, err := a.driver.DeleteMany(ctx, &DeleteQuery{Model: physical, Where: where})
	if err != nil {
		return 0, &DriverError{Method: "deleteMany", Model: logical, TxID: tx, Err: err}
	}
	a.log.log(tx, PhaseDBResult, "deleteMany", logical, n)
	a.log.log(tx, PhaseParsedResult, "deleteMany", logical, n)
	return n, a.hooks.runAfter(ctx, logical, opDelete, nil)
}

// Transaction runs fn atomically when the driver supports it. Without
// native support fn runs against the same adapter in sequence, after
// an informational warning.
func (a *Adapter) Transaction(ctx context.Context, fn func(tx *Adapter) error) error {
	t, ok := a.driver.(Transactor)
	if !a.cfg.Transaction || !ok {
		a.logger.Warn("adapter: transactions not supported; running sequentially",
			"adapter", a.cfg.AdapterID)
		return fn(a)
	}
	return t.Transaction(ctx, func(tx Driver) error {
		inner := *a
		inner.driver = tx
		return fn(&inner)
	})
}

// CreateSchema materializes the composed schema through the driver.
// When file is non-empty the driver writes DDL there instead of
// executing it.
func (a *Adapter) CreateSchema(ctx context.Context, file string) error {
	sc, ok := a.driver.(SchemaCreator)
	if !ok {
		return &CapabilityError{Adapter: a.cfg.AdapterName, Capability: "schema creation"}
	}
	return sc.CreateSchema(ctx, file)
}

// physicalSelect rewrites a logical select list for the driver.
// Unknown names are skipped; the output filter reports them.
func (a *Adapter) physicalSelect(logical string, sel []string) []string {
	if len(sel) == 0 {
		return nil
	}
	out := make([]string, 0, len(sel)+1)
	for _, s := range sel {
		if s == "id" {
			out = append(out, a.mapKeyIn("id"))
			continue
		}
		f, err := a.reg.FieldName(logical, s)
		if err != nil {
			continue
		}
		out = append(out, a.mapKeyIn(f))
	}
	return out
}
