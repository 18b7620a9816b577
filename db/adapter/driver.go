// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"context"

	"github.com/gatekit/gatekit/db/schema"
)

type (
	// A Row is a single record in its map form. Drivers see physical
	// keys; callers see logical keys.
	Row map[string]any

	// A SortBy orders findMany results.
	SortBy struct {
		Field     string
		Direction string // "asc" or "desc"; defaults to "asc".
	}

	// A JoinOption refines a single requested join. A nil value in a
	// Join map requests the relation with no refinement.
	JoinOption struct {
		// Limit caps joined rows per parent (one-to-many only).
		Limit int
		// Select restricts the fields of the joined rows.
		Select []string
	}

	// A Join maps related logical model names to their options.
	Join map[string]*JoinOption

	// CreateQuery is the driver-facing shape of a create: the model
	// name and all row keys are physical and all values coerced.
	CreateQuery struct {
		Model string
		Data  Row
	}

	// UpdateQuery is the driver-facing shape of update/updateMany.
	UpdateQuery struct {
		Model  string
		Where  []Where
		Update Row
	}

	// DeleteQuery is the driver-facing shape of delete/deleteMany.
	DeleteQuery struct {
		Model string
		Where []Where
	}

	// FindQuery is the driver-facing shape of findOne/findMany/count.
	// A zero Limit means unlimited; the default-100 rule is applied
	// by the adapter before the driver is called. Join is non-nil
	// only for drivers declaring native join support.
	FindQuery struct {
		Model  string
		Where  []Where
		Select []string
		Limit  int
		Offset int
		Sort   *SortBy
		Join   Join
	}

	// A Driver is the contract a storage backend implements. All
	// inputs are already physical; outputs are returned in physical
	// form and transformed back by the adapter. Missing rows are
	// reported as nil results, never as errors.
	Driver interface {
		Create(ctx context.Context, q *CreateQuery) (Row, error)
		Update(ctx context.Context, q *UpdateQuery) (Row, error)
		UpdateMany(ctx context.Context, q *UpdateQuery) (int, error)
		FindOne(ctx context.Context, q *FindQuery) (Row, error)
		FindMany(ctx context.Context, q *FindQuery) ([]Row, error)
		Count(ctx context.Context, q *FindQuery) (int, error)
		Delete(ctx context.Context, q *DeleteQuery) error
		DeleteMany(ctx context.Context, q *DeleteQuery) (int, error)
	}

	// A Transactor is implemented by drivers with native transaction
	// support. The driver passed to fn routes every call through the
	// transaction.
	Transactor interface {
		Transaction(ctx context.Context, fn func(tx Driver) error) error
	}

	// A SchemaCreator is implemented by drivers that can materialize
	// the composed schema (DDL emission or collection setup). When
	// file is non-empty the statements are written there instead of
	// executed.
	SchemaCreator interface {
		CreateSchema(ctx context.Context, file string) error
	}

	// A Binder is implemented by drivers that need the core helpers:
	// name resolution, transforms, and the debug logger. Bind is
	// called once at factory construction.
	Binder interface {
		Bind(h *Helper)
	}

	// A Helper bundles what the core hands to a driver at
	// construction time.
	Helper struct {
		Registry *schema.Registry
		Options  *Options

		DebugLog func(phase Phase, method, model string, data any)

		TransformInput  func(model string, data Row, action Action, forceAllowID bool) (Row, error)
		TransformOutput func(model string, row Row, sel []string) (Row, error)
		TransformWhere  func(model string, where []Where) ([]Where, error)
	}

	// Config is the capability record a driver publishes. Flags that
	// are off route the corresponding values through coercion.
	Config struct {
		AdapterID   string
		AdapterName string

		SupportsBooleans   bool
		SupportsDates      bool
		SupportsJSON       bool
		SupportsJSONB      bool
		SupportsArrays     bool
		SupportsNumericIDs bool
		// SupportsNumbers defaults to true; nil means supported.
		SupportsNumbers *bool

		// UsePlural pluralizes physical table names.
		UsePlural bool
		// Transaction declares native transaction support; the driver
		// must also implement Transactor.
		Transaction bool
		// Joins declares native join support; join descriptors are
		// forwarded verbatim instead of resolved by the core.
		Joins bool
		// DisableIDGeneration declares that the driver assigns ids.
		DisableIDGeneration bool
		// DebugLogs enables the four-phase operation trace.
		DebugLogs bool

		// MapKeysInput remaps physical keys to the driver's stored
		// keys on writes (e.g. "id" -> "_id" on document stores).
		// MapKeysOutput is the inverse, applied to returned rows.
		MapKeysInput  map[string]string
		MapKeysOutput map[string]string

		// CustomTransformInput/CustomTransformOutput run on every
		// field value after (input) or before (output) the built-in
		// coercions.
		CustomTransformInput  func(field string, attr *schema.Field, v any) any
		CustomTransformOutput func(field string, attr *schema.Field, v any) any
	}
)

// An Action distinguishes the two write shapes the input transform
// serves.
type Action string

// Input transform actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

func (c *Config) supportsNumbers() bool {
	return c.SupportsNumbers == nil || *c.SupportsNumbers
}
