// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"crypto/rand"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatekit/gatekit/db/schema"
)

type (
	// An IDGenerator produces a primary id for a create on the given
	// logical model.
	IDGenerator func(model string) string

	// Options hold the framework configuration the factory is built
	// with. The value is immutable after New.
	Options struct {
		// Plugins are plugin-contributed schemas, merged in
		// registration order.
		Plugins []schema.Schema
		// Overrides are user customizations per logical model.
		Overrides map[string]schema.ModelOverride
		// RateLimitTable adds the rate-limit model to migrations.
		RateLimitTable bool

		// UseNumberID delegates id generation to the driver's
		// auto-increment and stringifies ids on output. Requires a
		// driver declaring SupportsNumericIDs.
		UseNumberID bool
		// DisableIDGeneration leaves id generation entirely to the
		// driver.
		DisableIDGeneration bool
		// GenerateID overrides the default id generator. Leave nil
		// for a 20-char URL-safe random token, or set UUIDGenerator.
		GenerateID IDGenerator

		// Hooks run around every write, options-level first, then
		// plugin sets in registration order.
		Hooks []HookSet

		// Logger receives debug traces; defaults to slog.Default.
		Logger *slog.Logger
	}
)

// UUIDGenerator generates RFC-4122 v4 ids.
func UUIDGenerator(string) string { return uuid.NewString() }

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// randomID returns a URL-safe random token of length n.
func randomID(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is unrecoverable.
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])&63]
	}
	return string(b)
}

// generateID resolves the id for a create, or "" when the driver owns
// id assignment.
func (a *Adapter) generateID(model string) string {
	switch {
	case a.opts.UseNumberID, a.opts.DisableIDGeneration, a.cfg.DisableIDGeneration:
		return ""
	case a.opts.GenerateID != nil:
		return a.opts.GenerateID(model)
	default:
		return randomID(20)
	}
}
