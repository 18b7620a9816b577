// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package kv

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

var bucket = []byte("kv")

// A Bolt store persists entries in a bbolt file. Expiry is lazy: an
// expired key is removed on the read that observes it.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

type boltEntry struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // Milliseconds since epoch; 0 means no expiry.
}

// OpenBolt opens (or creates) the store at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, now: time.Now}, nil
}

// Close closes the underlying file.
func (s *Bolt) Close() error { return s.db.Close() }

func (s *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		value   string
		found   bool
		expired bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var e boltEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		if e.ExpiresAt > 0 && s.now().UnixMilli() >= e.ExpiresAt {
			expired = true
			return nil
		}
		value, found = e.Value, true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if expired {
		err = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Delete([]byte(key))
		})
	}
	return value, found, err
}

func (s *Bolt) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := boltEntry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl).UnixMilli()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), raw)
	})
}

func (s *Bolt) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}
