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

	"github.com/bluele/gcache"
)

// MemStore is an in-process Store backed by gcache.
type MemStore struct {
	cache gcache.Cache
}

// NewMemStore returns a new in-process Store. size limits the number of entries held;
// 0 means unlimited, matching the teacher's MakeCache convention.
func NewMemStore(size int) *MemStore {
	return &MemStore{cache: gcache.New(size).Build()}
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, key []string, v interface{}) error {
	k, err := EncodeKey(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	raw, err := s.cache.Get(k)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return ErrNotFound
		}

		return fmt.Errorf("get %s: %w", k, err)
	}

	b, ok := raw.([]byte)
	if !ok {
		return fmt.Errorf("unexpected value type %T for key %s", raw, k)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal value for key %s: %w", k, err)
	}

	return nil
}

// Set implements Store.
func (s *MemStore) Set(_ context.Context, key []string, value interface{}, ttl time.Duration) error {
	k, err := EncodeKey(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for key %s: %w", k, err)
	}

	if ttl > 0 {
		return s.cache.SetWithExpire(k, b, ttl) //nolint:wrapcheck
	}

	return s.cache.Set(k, b) //nolint:wrapcheck
}

// Delete implements Store.
func (s *MemStore) Delete(_ context.Context, key []string) error {
	k, err := EncodeKey(key)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	s.cache.Remove(k)

	return nil
}
