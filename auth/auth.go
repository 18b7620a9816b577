// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package auth is the typed domain layer over the database adapter:
// user, session, account and verification helpers, with optional
// secondary-storage session caching.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/gatekit/gatekit/db/adapter"
	"github.com/gatekit/gatekit/kv"
)

type (
	// A User is the core identity record.
	User struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		Email         string    `json:"email"`
		EmailVerified bool      `json:"emailVerified"`
		Image         string    `json:"image,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// A Session is one authenticated session of a user.
	Session struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		IPAddress string    `json:"ipAddress,omitempty"`
		UserAgent string    `json:"userAgent,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// An Account links a user to a credential or OAuth provider.
	Account struct {
		ID                    string     `json:"id"`
		UserID                string     `json:"userId"`
		AccountID             string     `json:"accountId"`
		ProviderID            string     `json:"providerId"`
		AccessToken           string     `json:"accessToken,omitempty"`
		RefreshToken          string     `json:"refreshToken,omitempty"`
		IDToken               string     `json:"idToken,omitempty"`
		AccessTokenExpiresAt  *time.Time `json:"accessTokenExpiresAt,omitempty"`
		RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
		Scope                 string     `json:"scope,omitempty"`
		Password              string     `json:"password,omitempty"`
		CreatedAt             time.Time  `json:"createdAt"`
		UpdatedAt             time.Time  `json:"updatedAt"`
	}

	// A Verification is a short-lived challenge value (email
	// verification, password reset, magic links).
	Verification struct {
		ID         string    `json:"id"`
		Identifier string    `json:"identifier"`
		Value      string    `json:"value"`
		ExpiresAt  time.Time `json:"expiresAt"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	// A DB exposes the typed operations of the auth domain. The
	// secondary store is optional; without it every read goes to
	// primary storage.
	DB struct {
		db        *adapter.Adapter
		secondary kv.Store
		logger    *slog.Logger
		now       func() time.Time
	}
)

// New wraps an adapter. secondary may be nil.
func New(db *adapter.Adapter, secondary kv.Store) *DB {
	logger := db.Options().Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{db: db, secondary: secondary, logger: logger, now: time.Now}
}

// CreateUser inserts a user and returns it with server-managed fields
// populated.
func (d *DB) CreateUser(ctx context.Context, u *User) (*User, error) {
	row, err := d.db.Create(ctx, &adapter.CreateParams{
		Model: "user",
		Data: adapter.Row{
			"name":  u.Name,
			"email": u.Email,
			"image": u.Image,
		},
	})
	if err != nil {
		return nil, err
	}
	return userFromRow(row), nil
}

// FindUserByEmail returns the user with the given email, or nil.
func (d *DB) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row, err := d.db.FindOne(ctx, &adapter.FindParams{
		Model: "user",
		Where: []adapter.Where{{Field: "email", Value: email}},
	})
	if err != nil || row == nil {
		return nil, err
	}
	return userFromRow(row), nil
}

// FindUserByID returns the user with the given id, or nil.
func (d *DB) FindUserByID(ctx context.Context, id string) (*User, error) {
	row, err := d.db.FindOne(ctx, &adapter.FindParams{
		Model: "user",
		Where: []adapter.Where{{Field: "id", Value: id}},
	})
	if err != nil || row == nil {
		return nil, err
	}
	return userFromRow(row), nil
}

// UpdateUser applies the given logical-field update and refreshes the
// cached session payloads of the user.
func (d *DB) UpdateUser(ctx context.Context, id string, update adapter.Row) (*User, error) {
	row, err := d.db.Update(ctx, &adapter.UpdateParams{
		Model:  "user",
		Where:  []adapter.Where{{Field: "id", Value: id}},
		Update: update,
	})
	if err != nil || row == nil {
		return nil, err
	}
	u := userFromRow(row)
	if err := d.RefreshUserSessions(ctx, u); err != nil {
		d.logger.Warn("auth: refreshing cached sessions", "userId", id, "error", err)
	}
	return u, nil
}

// CreateOAuthUser inserts the user and its linked account as one
// atomic pair when the driver supports transactions.
func (d *DB) CreateOAuthUser(ctx context.Context, u *User, acct *Account) (*User, *Account, error) {
	var (
		outUser *User
		outAcct *Account
	)
	err := d.db.Transaction(ctx, func(tx *adapter.Adapter) error {
		row, err := tx.Create(ctx, &adapter.CreateParams{
			Model: "user",
			Data: adapter.Row{
				"name":  u.Name,
				"email": u.Email,
				"image": u.Image,
			},
		})
		if err != nil {
			return err
		}
		outUser = userFromRow(row)
		arow, err := tx.Create(ctx, &adapter.CreateParams{
			Model: "account",
			Data:  accountRow(outUser.ID, acct),
		})
		if err != nil {
			return err
		}
		outAcct = accountFromRow(arow)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return outUser, outAcct, nil
}

// CreateAccount links an account to an existing user.
func (d *DB) CreateAccount(ctx context.Context, acct *Account) (*Account, error) {
	row, err := d.db.Create(ctx, &adapter.CreateParams{
		Model: "account",
		Data:  accountRow(acct.UserID, acct),
	})
	if err != nil {
		return nil, err
	}
	return accountFromRow(row), nil
}

// FindAccount returns the account of a provider pair, or nil.
func (d *DB) FindAccount(ctx context.Context, providerID, accountID string) (*Account, error) {
	row, err := d.db.FindOne(ctx, &adapter.FindParams{
		Model: "account",
		Where: []adapter.Where{
			{Field: "providerId", Value: providerID},
			{Field: "accountId", Value: accountID},
		},
	})
	if err != nil || row == nil {
		return nil, err
	}
	return accountFromRow(row), nil
}

// FindAccounts returns every account of a user.
func (d *DB) FindAccounts(ctx context.Context, userID string) ([]*Account, error) {
	rows, err := d.db.FindMany(ctx, &adapter.FindParams{
		Model: "account",
		Where: []adapter.Where{{Field: "userId", Value: userID}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, accountFromRow(r))
	}
	return out, nil
}

// DeleteAccounts removes every account of a user and returns the
// number removed.
func (d *DB) DeleteAccounts(ctx context.Context, userID string) (int, error) {
	return d.db.DeleteMany(ctx, &adapter.DeleteParams{
		Model: "account",
		Where: []adapter.Where{{Field: "userId", Value: userID}},
	})
}

// CreateVerification stores a new verification value.
func (d *DB) CreateVerification(ctx context.Context, v *Verification) (*Verification, error) {
	row, err := d.db.Create(ctx, &adapter.CreateParams{
		Model: "verification",
		Data: adapter.Row{
			"identifier": v.Identifier,
			"value":      v.Value,
			"expiresAt":  v.ExpiresAt,
		},
	})
	if err != nil {
		return nil, err
	}
	return verificationFromRow(row), nil
}

// FindVerificationValue returns the latest live verification for the
// identifier. Expired values found on the way are deleted through the
// adapter so lifecycle hooks observe the removal.
func (d *DB) FindVerificationValue(ctx context.Context, identifier string) (*Verification, error) {
	rows, err := d.db.FindMany(ctx, &adapter.FindParams{
		Model: "verification",
		Where: []adapter.Where{{Field: "identifier", Value: identifier}},
		Sort:  &adapter.SortBy{Field: "createdAt", Direction: "desc"},
	})
	if err != nil {
		return nil, err
	}
	var live *Verification
	for _, r := range rows {
		v := verificationFromRow(r)
		if v.ExpiresAt.After(d.now()) {
			if live == nil {
				live = v
			}
			continue
		}
		if err := d.db.Delete(ctx, &adapter.DeleteParams{
			Model: "verification",
			Where: []adapter.Where{{Field: "id", Value: v.ID}},
		}); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// DeleteVerificationByIdentifier removes every verification under the
// identifier.
func (d *DB) DeleteVerificationByIdentifier(ctx context.Context, identifier string) error {
	_, err := d.db.DeleteMany(ctx, &adapter.DeleteParams{
		Model: "verification",
		Where: []adapter.Where{{Field: "identifier", Value: identifier}},
	})
	return err
}

func accountRow(userID string, acct *Account) adapter.Row {
	row := adapter.Row{
		"userId":       userID,
		"accountId":    acct.AccountID,
		"providerId":   acct.ProviderID,
		"accessToken":  acct.AccessToken,
		"refreshToken": acct.RefreshToken,
		"idToken":      acct.IDToken,
		"scope":        acct.Scope,
		"password":     acct.Password,
	}
	if acct.AccessTokenExpiresAt != nil {
		row["accessTokenExpiresAt"] = *acct.AccessTokenExpiresAt
	}
	if acct.RefreshTokenExpiresAt != nil {
		row["refreshTokenExpiresAt"] = *acct.RefreshTokenExpiresAt
	}
	return row
}
