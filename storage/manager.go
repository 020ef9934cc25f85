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

package storage

import (
	"sync"

	"github.com/pingcap/errors"

	"github.com/opaldb/opal/statistics"
	"github.com/opaldb/opal/util/cache"
)

// statsCacheCapacity bounds the number of statistics snapshots the manager
// keeps around for repeated lookups.
const statsCacheCapacity = 256

// Manager is the registry of physical tables by name. It additionally caches
// table statistics snapshots so repeated optimizer passes do not rebuild the
// lookup for hot tables.
type Manager struct {
	mu         sync.RWMutex
	tables     map[string]*Table
	statsCache *cache.RandomCache[string, *statistics.Table]
}

// NewManager creates an empty table registry.
func NewManager() *Manager {
	return &Manager{
		tables:     make(map[string]*Table),
		statsCache: cache.NewRandomCache[string, *statistics.Table](statsCacheCapacity),
	}
}

// AddTable registers a table under its name.
func (m *Manager) AddTable(t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[t.Name]; ok {
		return errors.Errorf("table %q already exists", t.Name)
	}
	m.tables[t.Name] = t
	return nil
}

// GetTable resolves a table by name.
func (m *Manager) GetTable(name string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, errors.Errorf("table %q does not exist", name)
	}
	return t, nil
}

// TableStats returns the base statistics snapshot of the named table, serving
// repeated lookups from the bounded cache. Statistics snapshots are immutable,
// so serving a cached pointer is safe.
func (m *Manager) TableStats(name string) (*statistics.Table, error) {
	if stats, ok := m.statsCache.Get(name); ok {
		return stats, nil
	}
	t, err := m.GetTable(name)
	if err != nil {
		return nil, err
	}
	stats := t.Stats()
	if stats != nil {
		m.statsCache.Put(name, stats)
	}
	return stats, nil
}
