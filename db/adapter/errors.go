// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"errors"
	"fmt"
)

type (
	// An InvalidArgumentError reports a malformed argument, e.g. an
	// "in" predicate whose value is not a slice.
	InvalidArgumentError struct {
		Reason string
	}

	// A CapabilityError reports an option that the wrapped driver
	// cannot honor. Raised at construction, never mid-operation.
	CapabilityError struct {
		Adapter    string
		Capability string
	}

	// A DriverError wraps any error surfaced by the driver with the
	// operation context it occurred in.
	DriverError struct {
		Method string
		Model  string
		TxID   uint64
		Err    error
	}

	// A HookAbortError reports a before-hook failure. The hook error
	// is preserved unchanged through Unwrap.
	HookAbortError struct {
		Model string
		Op    string
		Err   error
	}
)

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("adapter: invalid argument: %s", e.Reason)
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("adapter: %s does not support %s", e.Adapter, e.Capability)
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("adapter: %s %q (tx %d): %v", e.Method, e.Model, e.TxID, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

func (e *HookAbortError) Error() string {
	return fmt.Sprintf("adapter: before %s hook on %q: %v", e.Op, e.Model, e.Err)
}

func (e *HookAbortError) Unwrap() error { return e.Err }

// IsInvalidArgument reports whether err is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e)
}

// IsHookAbort reports whether err is a HookAbortError.
func IsHookAbort(err error) bool {
	var e *HookAbortError
	return errors.As(err, &e)
}
