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
	"github.com/opaldb/opal/expression"
	"github.com/opaldb/opal/types"
)

// MinMaxFilter records the smallest and greatest value of one column within
// one chunk. It answers whether the chunk can possibly contain a value
// satisfying a predicate; "don't know" always degrades to "may contain".
type MinMaxFilter struct {
	Min types.Datum
	Max types.Datum
}

// NewMinMaxFilter creates a filter for the closed interval [min, max].
func NewMinMaxFilter(min, max types.Datum) *MinMaxFilter {
	return &MinMaxFilter{Min: min, Max: max}
}

// DoesNotContain reports whether the filter certifies that no value in the
// chunk satisfies the predicate. The value datums must be of the column's
// kind; comparisons that fail keep the chunk.
//
// The certification is deliberately one-sided. For example `x > 15` against
// the interval [21, 30] returns false even though every value matches: the
// filter only proves absence, never presence.
func (f *MinMaxFilter) DoesNotContain(cond expression.Condition, value types.Datum, value2 *types.Datum) bool {
	cmpMin, err := f.Min.Compare(value)
	if err != nil {
		return false
	}
	cmpMax, err := f.Max.Compare(value)
	if err != nil {
		return false
	}
	switch cond {
	case expression.CondEq:
		return cmpMin > 0 || cmpMax < 0
	case expression.CondNotEq:
		// Only a constant chunk consisting solely of `value` has no rows
		// different from it.
		return cmpMin == 0 && cmpMax == 0
	case expression.CondLT:
		return cmpMin >= 0
	case expression.CondLTE:
		return cmpMin > 0
	case expression.CondGT:
		return cmpMax <= 0
	case expression.CondGTE:
		return cmpMax < 0
	case expression.CondBetween:
		if value2 == nil {
			return false
		}
		if inverted, err := invertedRange(value, *value2); err != nil {
			return false
		} else if inverted {
			// An empty range matches nothing, whatever the chunk holds.
			return true
		}
		cmpMin2, err := f.Min.Compare(*value2)
		if err != nil {
			return false
		}
		return cmpMin2 > 0 || cmpMax < 0
	}
	return false
}
