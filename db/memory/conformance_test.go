// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package memory_test

import (
	"testing"

	"github.com/gatekit/gatekit/db/adapter"
	"github.com/gatekit/gatekit/db/dbtest"
	"github.com/gatekit/gatekit/db/memory"
)

func TestConformance(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) (adapter.Driver, adapter.Config) {
		driver, cfg := memory.New()
		return driver, cfg
	})
}

func TestConformanceWithoutNativeTypes(t *testing.T) {
	// The same contract must hold when every coercion path is active.
	dbtest.Run(t, func(t *testing.T) (adapter.Driver, adapter.Config) {
		driver, cfg := memory.New(
			memory.WithoutBooleans(),
			memory.WithoutDates(),
			memory.WithoutJSON(),
			memory.WithoutArrays(),
		)
		return driver, cfg
	})
}
