// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import "context"

type (
	// A BeforeHook runs before a write. Returning a non-nil row
	// replaces the payload; returning nil leaves it unchanged. An
	// error aborts the operation with a HookAbortError.
	BeforeHook func(ctx context.Context, model string, data Row) (Row, error)

	// An AfterHook observes the result of a write. Errors propagate
	// to the caller but the write has already happened.
	AfterHook func(ctx context.Context, model string, data Row) error

	// OpHooks groups the hooks of one model x operation pair.
	OpHooks struct {
		Before []BeforeHook
		After  []AfterHook
	}

	// ModelHooks holds the per-operation hooks of one model.
	ModelHooks struct {
		Create OpHooks
		Update OpHooks
		Delete OpHooks
	}

	// A HookSet maps logical model names to their hooks. Options
	// declare one set; each plugin may contribute another.
	HookSet map[string]ModelHooks
)

// Write operations hooks attach to.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// hookRegistry is the merged, ordered view over all hook sets:
// options first, then plugins in registration order.
type hookRegistry struct {
	sets []HookSet
}

func (h *hookRegistry) opHooks(model, op string) []OpHooks {
	var out []OpHooks
	for _, set := range h.sets {
		mh, ok := set[model]
		if !ok {
			continue
		}
		switch op {
		case opCreate:
			out = append(out, mh.Create)
		case opUpdate:
			out = append(out, mh.Update)
		case opDelete:
			out = append(out, mh.Delete)
		}
	}
	return out
}

// runBefore threads the payload through every matching before hook in
// declaration order. For deletes data is nil; hooks may still abort.
func (h *hookRegistry) runBefore(ctx context.Context, model, op string, data Row) (Row, error) {
	for _, oh := range h.opHooks(model, op) {
		for _, hook := range oh.Before {
			replaced, err := hook(ctx, model, data)
			if err != nil {
				return nil, &HookAbortError{Model: model, Op: op, Err: err}
			}
			if replaced != nil {
				data = replaced
			}
		}
	}
	return data, nil
}

func (h *hookRegistry) runAfter(ctx context.Context, model, op string, data Row) error {
	for _, oh := range h.opHooks(model, op) {
		for _, hook := range oh.After {
			if err := hook(ctx, model, data); err != nil {
				return err
			}
		}
	}
	return nil
}
