// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import "time"

// Base returns the core auth schema. Every composed schema starts from
// these four models; plugins and user options extend them. The returned
// value is owned by the caller and safe to mutate.
func Base() Schema {
	now := func() any { return time.Now() }
	return Schema{
		"user": {
			Order: 1,
			Fields: map[string]*Field{
				"name":  {Type: TypeString, Required: true, Sortable: true},
				"email": {Type: TypeString, Required: true, Unique: true, Sortable: true},
				"emailVerified": {
					Type: TypeBool, Required: true, NoInput: true,
					Default: false,
				},
				"image":     {Type: TypeString},
				"createdAt": {Type: TypeDate, Required: true, NoInput: true, Default: now},
				"updatedAt": {
					Type: TypeDate, Required: true, NoInput: true,
					Default:  now,
					OnUpdate: func() any { return time.Now() },
				},
			},
		},
		"session": {
			Order: 2,
			Fields: map[string]*Field{
				"userId": {
					Type: TypeString, Required: true,
					References: &Reference{Model: "user", Field: "id", OnDelete: "cascade"},
				},
				"token":     {Type: TypeString, Required: true, Unique: true},
				"expiresAt": {Type: TypeDate, Required: true},
				"ipAddress": {Type: TypeString},
				"userAgent": {Type: TypeString},
				"createdAt": {Type: TypeDate, Required: true, NoInput: true, Default: now},
				"updatedAt": {
					Type: TypeDate, Required: true, NoInput: true,
					Default:  now,
					OnUpdate: func() any { return time.Now() },
				},
			},
		},
		"account": {
			Order: 3,
			Fields: map[string]*Field{
				"userId": {
					Type: TypeString, Required: true,
					References: &Reference{Model: "user", Field: "id", OnDelete: "cascade"},
				},
				"accountId":             {Type: TypeString, Required: true},
				"providerId":            {Type: TypeString, Required: true},
				"accessToken":           {Type: TypeString},
				"refreshToken":          {Type: TypeString},
				"idToken":               {Type: TypeString},
				"accessTokenExpiresAt":  {Type: TypeDate},
				"refreshTokenExpiresAt": {Type: TypeDate},
				"scope":                 {Type: TypeString},
				"password":              {Type: TypeString},
				"createdAt":             {Type: TypeDate, Required: true, NoInput: true, Default: now},
				"updatedAt": {
					Type: TypeDate, Required: true, NoInput: true,
					Default:  now,
					OnUpdate: func() any { return time.Now() },
				},
			},
		},
		"verification": {
			Order: 4,
			Fields: map[string]*Field{
				"identifier": {Type: TypeString, Required: true},
				"value":      {Type: TypeString, Required: true},
				"expiresAt":  {Type: TypeDate, Required: true},
				"createdAt":  {Type: TypeDate, Required: true, NoInput: true, Default: now},
				"updatedAt": {
					Type: TypeDate, Required: true, NoInput: true,
					Default:  now,
					OnUpdate: func() any { return time.Now() },
				},
			},
		},
	}
}

// RateLimit returns the optional rate-limit model, appended to the
// composed schema when rate-limit storage is database-backed.
func RateLimit() *Model {
	return &Model{
		Order: 5,
		Fields: map[string]*Field{
			"key":         {Type: TypeString},
			"count":       {Type: TypeNumber},
			"lastRequest": {Type: TypeNumber, Bigint: true},
		},
	}
}
