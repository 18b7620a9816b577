// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package kv defines the secondary-storage contract used for session
// caching, and two implementations: an in-process map and a bbolt
// file store. Absence of a store disables caching; all reads fall
// through to primary storage.
package kv

import (
	"context"
	"sync"
	"time"
)

// A Store is a key-value store with per-key TTL. A zero ttl on Set
// means no expiry; expired keys read as absent.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	value     string
	expiresAt time.Time // Zero means no expiry.
	ttl       time.Duration
}

// A Memory store keeps entries in a map with lazy expiry.
type Memory struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]entry), now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (s *Memory) SetClock(now func() time.Time) { s.now = now }

func (s *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.m, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value, ttl: ttl}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.m[key] = e
	return nil
}

func (s *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// TTL reports the ttl a live key was last set with. Intended for
// tests asserting cache expiry behavior.
func (s *Memory) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return 0, false
	}
	return e.ttl, true
}
