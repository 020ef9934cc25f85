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

package statistics

import (
	"fmt"
	"strings"

	"github.com/opaldb/opal/expression"
	"github.com/opaldb/opal/types"
)

// ColumnStats describes the value distribution of one column. Implementations
// are immutable snapshots: every transform returns a new object and leaves the
// receiver untouched, so concurrent holders of an old snapshot never observe a
// half-applied update.
type ColumnStats interface {
	// Kind returns the datum kind of the column's values.
	Kind() byte
	// Pruned returns new statistics with numRowsPruned values that do NOT
	// match the given predicate removed from the distribution.
	Pruned(numRowsPruned float64, cond expression.Condition, value types.Datum, value2 *types.Datum) ColumnStats
	// Scaled returns new statistics uniformly scaled by the given factor.
	Scaled(factor float64) ColumnStats
}

// Table is the cardinality statistics snapshot attached to a table or a scan
// leaf: one ColumnStats per column of the table's full schema plus a total row
// count. Like ColumnStats, a Table is never mutated in place; chunk pruning
// replaces the leaf's reference with a freshly built snapshot.
type Table struct {
	RowCount float64
	Columns  []ColumnStats
}

// NewTable creates a statistics snapshot.
func NewTable(rowCount float64, columns []ColumnStats) *Table {
	return &Table{RowCount: rowCount, Columns: columns}
}

// String implements the fmt.Stringer interface.
func (t *Table) String() string {
	strs := make([]string, 0, len(t.Columns)+1)
	strs = append(strs, fmt.Sprintf("Table stats: rowCount=%.2f", t.RowCount))
	for i, col := range t.Columns {
		strs = append(strs, fmt.Sprintf("column[%d]: %v", i, col))
	}
	return strings.Join(strs, "\n")
}
