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

package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomCachePutGet(t *testing.T) {
	c := NewRandomCache[string, int](4)
	for i := 0; i < 4; i++ {
		_, evicted := c.Put(fmt.Sprintf("k%d", i), i)
		require.False(t, evicted)
	}
	require.Equal(t, 4, c.Len())

	v, ok := c.Get("k2")
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestRandomCacheOverwrite(t *testing.T) {
	c := NewRandomCache[string, int](2)
	c.Put("k", 1)
	_, evicted := c.Put("k", 2)
	require.False(t, evicted)
	require.Equal(t, 1, c.Len())

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestRandomCacheEviction(t *testing.T) {
	c := NewRandomCache[int, int](8)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	require.Equal(t, 8, c.Len())

	// Every surviving key must still map to its own value.
	for _, k := range c.Keys() {
		v, ok := c.Get(k)
		require.True(t, ok)
		require.Equal(t, k, v)
	}
}

func TestRandomCacheClear(t *testing.T) {
	c := NewRandomCache[int, string](4)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Clear()
	require.Equal(t, 0, c.Len())
	_, ok := c.Get(1)
	require.False(t, ok)

	c.Put(3, "c")
	require.Equal(t, 1, c.Len())
}
