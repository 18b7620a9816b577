// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package auth

import (
	"strconv"
	"time"

	"github.com/gatekit/gatekit/db/adapter"
)

// Rows arrive with logical field names and coerced values: dates as
// time.Time, booleans as bool, ids as strings. Reference ids stay
// numeric under the numeric-id policy, so the string converter formats
// numbers too. The converters are tolerant of absent keys so partial
// selects still map.

func userFromRow(row adapter.Row) *User {
	if row == nil {
		return nil
	}
	return &User{
		ID:            asString(row["id"]),
		Name:          asString(row["name"]),
		Email:         asString(row["email"]),
		EmailVerified: asBool(row["emailVerified"]),
		Image:         asString(row["image"]),
		CreatedAt:     asTime(row["createdAt"]),
		UpdatedAt:     asTime(row["updatedAt"]),
	}
}

func sessionFromRow(row adapter.Row) *Session {
	if row == nil {
		return nil
	}
	return &Session{
		ID:        asString(row["id"]),
		UserID:    asString(row["userId"]),
		Token:     asString(row["token"]),
		ExpiresAt: asTime(row["expiresAt"]),
		IPAddress: asString(row["ipAddress"]),
		UserAgent: asString(row["userAgent"]),
		CreatedAt: asTime(row["createdAt"]),
		UpdatedAt: asTime(row["updatedAt"]),
	}
}

func accountFromRow(row adapter.Row) *Account {
	if row == nil {
		return nil
	}
	return &Account{
		ID:                    asString(row["id"]),
		UserID:                asString(row["userId"]),
		AccountID:             asString(row["accountId"]),
		ProviderID:            asString(row["providerId"]),
		AccessToken:           asString(row["accessToken"]),
		RefreshToken:          asString(row["refreshToken"]),
		IDToken:               asString(row["idToken"]),
		AccessTokenExpiresAt:  asTimePtr(row["accessTokenExpiresAt"]),
		RefreshTokenExpiresAt: asTimePtr(row["refreshTokenExpiresAt"]),
		Scope:                 asString(row["scope"]),
		Password:              asString(row["password"]),
		CreatedAt:             asTime(row["createdAt"]),
		UpdatedAt:             asTime(row["updatedAt"]),
	}
}

func verificationFromRow(row adapter.Row) *Verification {
	if row == nil {
		return nil
	}
	return &Verification{
		ID:         asString(row["id"]),
		Identifier: asString(row["identifier"]),
		Value:      asString(row["value"]),
		ExpiresAt:  asTime(row["expiresAt"]),
		CreatedAt:  asTime(row["createdAt"]),
		UpdatedAt:  asTime(row["updatedAt"]),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func asTimePtr(v any) *time.Time {
	t := asTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}
