/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// AriesStore adapts an Aries storage.Store (backed by, e.g., MongoDB via
// github.com/hyperledger/aries-framework-go-ext/component/storage/mongodb) into a Store.
// storage.Store has no native TTL, so expiry is tracked in an envelope and checked on Get;
// expired entries are lazily deleted on first access.
type AriesStore struct {
	store storage.Store
	now   func() time.Time
}

// NewAriesStore returns a new Store backed by the given Aries storage.Store.
func NewAriesStore(store storage.Store) *AriesStore {
	return &AriesStore{store: store, now: time.Now}
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

// Get implements Store.
func (s *AriesStore) Get(ctx context.Context, key []string, v interface{}) error {
	k, err := EncodeKey(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	raw, err := s.store.Get(k)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("get %s: %w", k, err)
	}

	var env envelope

	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unmarshal envelope for key %s: %w", k, err)
	}

	if env.ExpiresAt != nil && s.now().After(*env.ExpiresAt) {
		_ = s.store.Delete(k) //nolint:errcheck

		return ErrNotFound
	}

	if err := json.Unmarshal(env.Value, v); err != nil {
		return fmt.Errorf("unmarshal value for key %s: %w", k, err)
	}

	return nil
}

// Set implements Store.
func (s *AriesStore) Set(_ context.Context, key []string, value interface{}, ttl time.Duration) error {
	k, err := EncodeKey(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for key %s: %w", k, err)
	}

	env := envelope{Value: valueBytes}

	if ttl > 0 {
		expiresAt := s.now().Add(ttl)
		env.ExpiresAt = &expiresAt
	}

	envBytes, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope for key %s: %w", k, err)
	}

	return s.store.Put(k, envBytes) //nolint:wrapcheck
}

// Delete implements Store.
func (s *AriesStore) Delete(_ context.Context, key []string) error {
	k, err := EncodeKey(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	return s.store.Delete(k) //nolint:wrapcheck
}
