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

// Package storage holds the physical table representation consumed by the
// optimizer: tables as ordered lists of chunks, each chunk carrying row counts
// and per-column pruning statistics. The optimizer treats all of it as
// read-only.
package storage

import (
	"github.com/pingcap/errors"

	"github.com/opaldb/opal/statistics"
	"github.com/opaldb/opal/types"
)

// ChunkID identifies one chunk within its table. Chunks are addressed by
// position, so ids are dense and stable for the lifetime of the table.
type ChunkID uint32

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name string
	Kind byte
}

// Chunk is a fixed-size horizontal partition of a table. A chunk may carry
// pruning statistics per column; absent statistics simply disable pruning for
// that column.
type Chunk struct {
	rowCount    int
	columnStats []*statistics.ChunkColumnStats
}

// NewChunk creates a chunk with the given row count and per-column pruning
// statistics. columnStats is indexed by column ordinal and may be nil when the
// chunk has no statistics at all.
func NewChunk(rowCount int, columnStats []*statistics.ChunkColumnStats) *Chunk {
	return &Chunk{rowCount: rowCount, columnStats: columnStats}
}

// RowCount returns the number of rows stored in the chunk.
func (c *Chunk) RowCount() int {
	return c.rowCount
}

// ColumnStats returns the pruning statistics of the column at the given
// ordinal, or nil when the chunk carries none for it.
func (c *Chunk) ColumnStats(offset int) *statistics.ChunkColumnStats {
	if offset < 0 || offset >= len(c.columnStats) {
		return nil
	}
	return c.columnStats[offset]
}

// Table is an immutable physical table: a schema, an ordered chunk list and a
// base statistics snapshot.
type Table struct {
	Name    string
	Columns []ColumnInfo

	chunks []*Chunk
	stats  *statistics.Table
}

// NewTable creates a table. Chunk column statistics appended later must match
// the schema's kinds.
func NewTable(name string, columns []ColumnInfo) *Table {
	return &Table{Name: name, Columns: columns}
}

// AppendChunk adds a chunk at the next chunk id. Every chunk column statistic
// present must match the declared column kind.
func (t *Table) AppendChunk(c *Chunk) error {
	for i := range t.Columns {
		if cs := c.ColumnStats(i); cs != nil && cs.Kind() != t.Columns[i].Kind {
			return errors.Errorf("chunk statistics kind %s does not match column %q of kind %s",
				types.KindStr(cs.Kind()), t.Columns[i].Name, types.KindStr(t.Columns[i].Kind))
		}
	}
	t.chunks = append(t.chunks, c)
	return nil
}

// ChunkCount returns the number of chunk slots in the table, including
// physically deleted ones.
func (t *Table) ChunkCount() int {
	return len(t.chunks)
}

// GetChunk returns the chunk at the given id, or nil when the slot is out of
// range or the chunk was physically deleted.
func (t *Table) GetChunk(id ChunkID) *Chunk {
	if int(id) >= len(t.chunks) {
		return nil
	}
	return t.chunks[id]
}

// SetStats attaches the table's base statistics snapshot.
func (t *Table) SetStats(stats *statistics.Table) {
	t.stats = stats
}

// Stats returns the table's base statistics snapshot, possibly nil for a
// never-analyzed table.
func (t *Table) Stats() *statistics.Table {
	return t.stats
}

// RowCount returns the total number of physically stored rows.
func (t *Table) RowCount() int {
	var total int
	for _, c := range t.chunks {
		if c != nil {
			total += c.RowCount()
		}
	}
	return total
}
