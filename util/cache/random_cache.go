// Copyright 2024 OpalDB, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides a generic capacity-bounded cache with a random
// eviction policy. Random eviction is cheap, has no per-access bookkeeping and
// behaves well enough for workloads without strong recency patterns.
package cache

import (
	"math/rand"
	"sync"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// RandomCache is a bounded key/value cache that evicts a uniformly random
// entry once full. It is safe for concurrent use.
type RandomCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	// entries holds all cached pairs; index points into it by key. Eviction
	// overwrites a random slot, so the slice never shrinks below capacity.
	entries []entry[K, V]
	index   map[K]int
}

// NewRandomCache creates a cache bounded to capacity entries. capacity must be
// positive.
func NewRandomCache[K comparable, V any](capacity int) *RandomCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RandomCache[K, V]{
		capacity: capacity,
		entries:  make([]entry[K, V], 0, capacity),
		index:    make(map[K]int, capacity),
	}
}

// Put caches value at key. It returns the evicted key, if any.
func (c *RandomCache[K, V]) Put(key K, value V) (evicted K, hasEvicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[key]; ok {
		c.entries[i].value = value
		return evicted, false
	}

	if len(c.entries) >= c.capacity {
		i := rand.Intn(len(c.entries))
		evicted = c.entries[i].key
		delete(c.index, evicted)
		c.entries[i] = entry[K, V]{key: key, value: value}
		c.index[key] = i
		return evicted, true
	}

	c.entries = append(c.entries, entry[K, V]{key: key, value: value})
	c.index[key] = len(c.entries) - 1
	return evicted, false
}

// Get retrieves the value cached at key.
func (c *RandomCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[key]
	if !ok {
		return value, false
	}
	return c.entries[i].value, true
}

// Len returns the number of cached entries.
func (c *RandomCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Clear drops every entry and keeps the capacity.
func (c *RandomCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = c.entries[:0]
	c.index = make(map[K]int, c.capacity)
}

// Keys returns the cached keys in unspecified order.
func (c *RandomCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.entries))
	for i := range c.entries {
		keys = append(keys, c.entries[i].key)
	}
	return keys
}
