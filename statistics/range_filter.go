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

	"github.com/opaldb/opal/expression"
	"github.com/opaldb/opal/types"
)

// ValueRange is a closed value interval [Min, Max].
type ValueRange struct {
	Min types.Datum
	Max types.Datum
}

// RangeFilter records every value of one column within one chunk as a sorted
// list of disjoint covering intervals. The gaps between intervals carry more
// information than a plain min/max pair: an equality probe falling into a gap
// is provably absent even though it lies between the chunk's overall min and
// max. Range filters exist for arithmetic column kinds only.
type RangeFilter struct {
	Ranges []ValueRange
}

// NewRangeFilter creates a filter from sorted, disjoint intervals. It rejects
// non-arithmetic kinds and empty interval lists.
func NewRangeFilter(kind byte, ranges []ValueRange) (*RangeFilter, error) {
	if !types.IsArithmeticKind(kind) {
		return nil, errors.Errorf("range filter built over non-arithmetic kind %s", types.KindStr(kind))
	}
	if len(ranges) == 0 {
		return nil, errors.New("range filter needs at least one interval")
	}
	return &RangeFilter{Ranges: ranges}, nil
}

// DoesNotContain reports whether the filter certifies that no value in the
// chunk satisfies the predicate. Equality and between probes are checked
// against every interval so that gaps certify absence; one-sided comparisons
// only need the overall bounds.
func (f *RangeFilter) DoesNotContain(cond expression.Condition, value types.Datum, value2 *types.Datum) bool {
	switch cond {
	case expression.CondEq:
		for _, rg := range f.Ranges {
			if rangeOverlapsPoint(rg, value) {
				return false
			}
		}
		return true
	case expression.CondNotEq:
		for _, rg := range f.Ranges {
			cmpMin, err := rg.Min.Compare(value)
			if err != nil {
				return false
			}
			cmpMax, err := rg.Max.Compare(value)
			if err != nil {
				return false
			}
			if cmpMin != 0 || cmpMax != 0 {
				return false
			}
		}
		return true
	case expression.CondLT, expression.CondLTE, expression.CondGT, expression.CondGTE:
		bounds := MinMaxFilter{Min: f.Ranges[0].Min, Max: f.Ranges[len(f.Ranges)-1].Max}
		return bounds.DoesNotContain(cond, value, value2)
	case expression.CondBetween:
		if value2 == nil {
			return false
		}
		if inverted, err := invertedRange(value, *value2); err != nil {
			return false
		} else if inverted {
			return true
		}
		for _, rg := range f.Ranges {
			if rangeOverlapsInterval(rg, value, *value2) {
				return false
			}
		}
		return true
	}
	return false
}

func rangeOverlapsPoint(rg ValueRange, value types.Datum) bool {
	cmpMin, err := rg.Min.Compare(value)
	if err != nil {
		return true
	}
	cmpMax, err := rg.Max.Compare(value)
	if err != nil {
		return true
	}
	return cmpMin <= 0 && cmpMax >= 0
}

// rangeOverlapsInterval reports whether [rg.Min, rg.Max] and [low, high]
// intersect. Failed comparisons report an overlap so the caller stays
// conservative.
func rangeOverlapsInterval(rg ValueRange, low, high types.Datum) bool {
	cmpMaxLow, err := rg.Max.Compare(low)
	if err != nil {
		return true
	}
	cmpMinHigh, err := rg.Min.Compare(high)
	if err != nil {
		return true
	}
	return cmpMaxLow >= 0 && cmpMinHigh <= 0
}
