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
	"github.com/pingcap/errors"

	"github.com/opaldb/opal/types"
)

// ChunkColumnStats is the pruning statistics of one column within one chunk.
// A column carries at most one filter: a range filter subsumes all the
// information of a min/max filter, so the two never coexist. Non-arithmetic
// kinds can only carry a min/max filter.
type ChunkColumnStats struct {
	kind        byte
	RangeFilter *RangeFilter
	MinMax      *MinMaxFilter
}

// NewChunkColumnStats builds the per-chunk statistics for a column of the
// given kind. Exactly one of rangeFilter and minMax may be set; both may be
// nil for a column without pruning statistics.
func NewChunkColumnStats(kind byte, rangeFilter *RangeFilter, minMax *MinMaxFilter) (*ChunkColumnStats, error) {
	if rangeFilter != nil && minMax != nil {
		return nil, errors.New("chunk column must not carry a range filter and a min/max filter at the same time")
	}
	if rangeFilter != nil && !types.IsArithmeticKind(kind) {
		return nil, errors.Errorf("range filter on non-arithmetic column kind %s", types.KindStr(kind))
	}
	return &ChunkColumnStats{kind: kind, RangeFilter: rangeFilter, MinMax: minMax}, nil
}

// Kind returns the datum kind of the column's values.
func (s *ChunkColumnStats) Kind() byte {
	return s.kind
}
