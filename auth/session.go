// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package auth

import (
	"context"
	"time"

	"github.com/gatekit/gatekit/db/adapter"
	"github.com/goccy/go-json"
)

// Secondary-storage layout: the session token keys a JSON payload of
// the session together with its user, and "active-sessions-<userId>"
// keys the JSON list of the user's live tokens with their expiry in
// milliseconds since epoch. Store failures are logged and swallowed;
// primary storage stays authoritative.

type (
	sessionPayload struct {
		Session *Session `json:"session"`
		User    *User    `json:"user"`
	}

	activeEntry struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expiresAt"`
	}
)

func activeListKey(userID string) string { return "active-sessions-" + userID }

// ttlFor converts the time left until expiry into whole seconds,
// rounding down. Sub-second remainders are dropped.
func (d *DB) ttlFor(expiresAt time.Time) time.Duration {
	secs := expiresAt.Sub(d.now()).Milliseconds() / 1000
	return time.Duration(secs) * time.Second
}

// CreateSession inserts a session and caches it when a secondary
// store is configured.
func (d *DB) CreateSession(ctx context.Context, s *Session) (*Session, error) {
	row, err := d.db.Create(ctx, &adapter.CreateParams{
		Model: "session",
		Data: adapter.Row{
			"userId":    s.UserID,
			"token":     s.Token,
			"expiresAt": s.ExpiresAt,
			"ipAddress": s.IPAddress,
			"userAgent": s.UserAgent,
		},
	})
	if err != nil {
		return nil, err
	}
	out := sessionFromRow(row)
	d.cacheSession(ctx, out, nil)
	return out, nil
}

// FindSession resolves a token to its session and user. The secondary
// store is consulted first; on a miss both records come from primary
// storage and the cache is repopulated.
func (d *DB) FindSession(ctx context.Context, token string) (*Session, *User, error) {
	if s, u, ok := d.cachedSession(ctx, token); ok {
		return s, u, nil
	}
	row, err := d.db.FindOne(ctx, &adapter.FindParams{
		Model: "session",
		Where: []adapter.Where{{Field: "token", Value: token}},
	})
	if err != nil || row == nil {
		return nil, nil, err
	}
	s := sessionFromRow(row)
	if !s.ExpiresAt.After(d.now()) {
		return nil, nil, nil
	}
	urow, err := d.db.FindOne(ctx, &adapter.FindParams{
		Model: "user",
		Where: []adapter.Where{{Field: "id", Value: s.UserID}},
	})
	if err != nil {
		return nil, nil, err
	}
	u := userFromRow(urow)
	d.cacheSession(ctx, s, u)
	return s, u, nil
}

// UpdateSession applies the update to the session with the given
// token and rewrites its cache entry. Returns nil when no session
// matched.
func (d *DB) UpdateSession(ctx context.Context, token string, update adapter.Row) (*Session, error) {
	row, err := d.db.Update(ctx, &adapter.UpdateParams{
		Model:  "session",
		Where:  []adapter.Where{{Field: "token", Value: token}},
		Update: update,
	})
	if err != nil || row == nil {
		return nil, err
	}
	s := sessionFromRow(row)
	d.cacheSession(ctx, s, nil)
	return s, nil
}

// DeleteSession removes the session with the given token from primary
// and secondary storage.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	var userID string
	if d.secondary != nil {
		row, err := d.db.FindOne(ctx, &adapter.FindParams{
			Model:  "session",
			Where:  []adapter.Where{{Field: "token", Value: token}},
			Select: []string{"userId"},
		})
		if err != nil {
			return err
		}
		if row != nil {
			userID = asString(row["userId"])
		}
	}
	if err := d.db.Delete(ctx, &adapter.DeleteParams{
		Model: "session",
		Where: []adapter.Where{{Field: "token", Value: token}},
	}); err != nil {
		return err
	}
	if d.secondary == nil {
		return nil
	}
	if err := d.secondary.Delete(ctx, token); err != nil {
		d.logger.Warn("auth: deleting cached session", "error", err)
	}
	if userID != "" {
		d.removeActive(ctx, userID, token)
	}
	return nil
}

// DeleteUserSessions removes every session of a user, including the
// cached copies.
func (d *DB) DeleteUserSessions(ctx context.Context, userID string) error {
	if d.secondary != nil {
		for _, e := range d.readActive(ctx, userID) {
			if err := d.secondary.Delete(ctx, e.Token); err != nil {
				d.logger.Warn("auth: deleting cached session", "error", err)
			}
		}
		if err := d.secondary.Delete(ctx, activeListKey(userID)); err != nil {
			d.logger.Warn("auth: deleting session list", "error", err)
		}
	}
	_, err := d.db.DeleteMany(ctx, &adapter.DeleteParams{
		Model: "session",
		Where: []adapter.Where{{Field: "userId", Value: userID}},
	})
	return err
}

// ListSessions returns the live sessions of a user. Cached sessions
// and primary rows are merged, deduplicated by token.
func (d *DB) ListSessions(ctx context.Context, userID string) ([]*Session, error) {
	var (
		out  []*Session
		seen = make(map[string]bool)
	)
	for _, e := range d.readActive(ctx, userID) {
		if e.ExpiresAt <= d.now().UnixMilli() || seen[e.Token] {
			continue
		}
		s, _, ok := d.cachedSession(ctx, e.Token)
		if !ok {
			continue
		}
		seen[e.Token] = true
		out = append(out, s)
	}
	rows, err := d.db.FindMany(ctx, &adapter.FindParams{
		Model: "session",
		Where: []adapter.Where{{Field: "userId", Value: userID}},
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		s := sessionFromRow(r)
		if seen[s.Token] || !s.ExpiresAt.After(d.now()) {
			continue
		}
		seen[s.Token] = true
		out = append(out, s)
	}
	return out, nil
}

// RefreshUserSessions rewrites the cached payload of every live
// session of the user, so cached user snapshots follow user updates.
func (d *DB) RefreshUserSessions(ctx context.Context, u *User) error {
	if d.secondary == nil || u == nil {
		return nil
	}
	for _, e := range d.readActive(ctx, u.ID) {
		if e.ExpiresAt <= d.now().UnixMilli() {
			continue
		}
		raw, ok, err := d.secondary.Get(ctx, e.Token)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var p sessionPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Session == nil {
			continue
		}
		p.User = u
		d.writePayload(ctx, &p)
	}
	return nil
}

// cachedSession reads a token's payload from the secondary store.
func (d *DB) cachedSession(ctx context.Context, token string) (*Session, *User, bool) {
	if d.secondary == nil {
		return nil, nil, false
	}
	raw, ok, err := d.secondary.Get(ctx, token)
	if err != nil {
		d.logger.Warn("auth: reading cached session", "error", err)
		return nil, nil, false
	}
	if !ok {
		return nil, nil, false
	}
	var p sessionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Session == nil {
		return nil, nil, false
	}
	if !p.Session.ExpiresAt.After(d.now()) {
		if err := d.secondary.Delete(ctx, token); err != nil {
			d.logger.Warn("auth: deleting cached session", "error", err)
		}
		return nil, nil, false
	}
	return p.Session, p.User, true
}

// cacheSession stores the payload and registers the token in the
// user's active list. The user is fetched when not supplied.
func (d *DB) cacheSession(ctx context.Context, s *Session, u *User) {
	if d.secondary == nil || s == nil {
		return
	}
	if u == nil {
		row, err := d.db.FindOne(ctx, &adapter.FindParams{
			Model: "user",
			Where: []adapter.Where{{Field: "id", Value: s.UserID}},
		})
		if err != nil {
			d.logger.Warn("auth: loading user for session cache", "error", err)
			return
		}
		u = userFromRow(row)
	}
	d.writePayload(ctx, &sessionPayload{Session: s, User: u})
	d.addActive(ctx, s.UserID, s.Token, s.ExpiresAt)
}

func (d *DB) writePayload(ctx context.Context, p *sessionPayload) {
	ttl := d.ttlFor(p.Session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		d.logger.Warn("auth: encoding session payload", "error", err)
		return
	}
	if err := d.secondary.Set(ctx, p.Session.Token, string(raw), ttl); err != nil {
		d.logger.Warn("auth: caching session", "error", err)
	}
}

// readActive returns the user's active-token list. Store errors read
// as an empty list.
func (d *DB) readActive(ctx context.Context, userID string) []activeEntry {
	if d.secondary == nil {
		return nil
	}
	raw, ok, err := d.secondary.Get(ctx, activeListKey(userID))
	if err != nil {
		d.logger.Warn("auth: reading session list", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var entries []activeEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}

func (d *DB) addActive(ctx context.Context, userID, token string, expiresAt time.Time) {
	entries := d.readActive(ctx, userID)
	kept := entries[:0]
	for _, e := range entries {
		if e.Token != token && e.ExpiresAt > d.now().UnixMilli() {
			kept = append(kept, e)
		}
	}
	kept = append(kept, activeEntry{Token: token, ExpiresAt: expiresAt.UnixMilli()})
	d.writeActive(ctx, userID, kept)
}

func (d *DB) removeActive(ctx context.Context, userID, token string) {
	entries := d.readActive(ctx, userID)
	kept := entries[:0]
	for _, e := range entries {
		if e.Token != token && e.ExpiresAt > d.now().UnixMilli() {
			kept = append(kept, e)
		}
	}
	d.writeActive(ctx, userID, kept)
}

// writeActive persists the list with a ttl reaching the latest expiry.
func (d *DB) writeActive(ctx context.Context, userID string, entries []activeEntry) {
	key := activeListKey(userID)
	if len(entries) == 0 {
		if err := d.secondary.Delete(ctx, key); err != nil {
			d.logger.Warn("auth: deleting session list", "error", err)
		}
		return
	}
	var latest int64
	for _, e := range entries {
		if e.ExpiresAt > latest {
			latest = e.ExpiresAt
		}
	}
	ttl := d.ttlFor(time.UnixMilli(latest))
	if ttl <= 0 {
		// Every entry is at or past expiry; writing would persist the
		// list without a deadline.
		if err := d.secondary.Delete(ctx, key); err != nil {
			d.logger.Warn("auth: deleting session list", "error", err)
		}
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		d.logger.Warn("auth: encoding session list", "error", err)
		return
	}
	if err := d.secondary.Set(ctx, key, string(raw), ttl); err != nil {
		d.logger.Warn("auth: caching session list", "error", err)
	}
}
