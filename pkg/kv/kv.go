/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kv is the namespaced key-value abstraction that backs the public-key
// cache, the inbox idempotence store, and the double-knock spec memory.
// Keys are stringified by JSON-encoding the key segments, matching the wire
// contract described for the KV collaborator.
package kv

import (
	"context"
	"encoding/json"
	"time"

	ferrors "github.com/fedcore/federation/pkg/errors"
)

// Store is a namespaced key (string segments) to JSON value mapping with optional TTL.
type Store interface {
	// Get unmarshals the value stored under key into v. It returns a 'not found' error
	// (see pkg/errors.IsNotFound) if no value is stored under key or it has expired.
	Get(ctx context.Context, key []string, v interface{}) error
	// Set stores value under key. If ttl is non-zero, the entry expires after ttl elapses.
	Set(ctx context.Context, key []string, value interface{}, ttl time.Duration) error
	// Delete removes the value stored under key, if any.
	Delete(ctx context.Context, key []string) error
}

// EncodeKey stringifies a key's segments by JSON-encoding them as an array,
// e.g. []string{"publicKey", "https://example.com/key"} -> `["publicKey","https://example.com/key"]`.
func EncodeKey(segments []string) (string, error) {
	b, err := json.Marshal(segments)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return string(b), nil
}

// ErrNotFound is returned when a key has no value or has expired.
var ErrNotFound = ferrors.NewNotFoundf("key not found")
