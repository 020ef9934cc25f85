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

// Histogram represents the distribution of one column as a sequence of value
// buckets. Counts are fractional because derived histograms carry estimates,
// not exact sample counts.
type Histogram struct {
	// NDV is the number of distinct values.
	NDV float64
	// NullCount is the number of null values.
	NullCount float64

	tp byte

	Buckets []Bucket
}

// Bucket covers the value interval [Lower, Upper] and stores the estimated
// number of rows falling into it. Repeat is the estimated number of repeats of
// the upper bound value, used to spot popular values.
type Bucket struct {
	Lower  types.Datum
	Upper  types.Datum
	Count  float64
	Repeat float64
}

// NewHistogram creates a new histogram.
func NewHistogram(tp byte, ndv, nullCount float64, bucketSize int) *Histogram {
	return &Histogram{
		NDV:       ndv,
		NullCount: nullCount,
		tp:        tp,
		Buckets:   make([]Bucket, 0, bucketSize),
	}
}

// AppendBucket appends a bucket. Buckets must be appended in ascending value
// order and must not overlap.
func (hg *Histogram) AppendBucket(lower, upper types.Datum, count, repeat float64) {
	hg.Buckets = append(hg.Buckets, Bucket{Lower: lower, Upper: upper, Count: count, Repeat: repeat})
}

// Len returns the number of buckets.
func (hg *Histogram) Len() int {
	return len(hg.Buckets)
}

// NotNullCount returns the estimated number of non-null rows.
func (hg *Histogram) NotNullCount() float64 {
	var count float64
	for i := range hg.Buckets {
		count += hg.Buckets[i].Count
	}
	return count
}

// TotalRowCount returns the estimated number of rows including nulls.
func (hg *Histogram) TotalRowCount() float64 {
	return hg.NotNullCount() + hg.NullCount
}

func (hg *Histogram) copyShape() *Histogram {
	nh := &Histogram{
		NDV:       hg.NDV,
		NullCount: hg.NullCount,
		tp:        hg.tp,
		Buckets:   make([]Bucket, len(hg.Buckets)),
	}
	copy(nh.Buckets, hg.Buckets)
	return nh
}

// scale returns a copy with every count multiplied by factor. NDV shrinks with
// the same factor; that underestimates distinct values for heavily repeated
// columns but keeps relative selectivities intact.
func (hg *Histogram) scale(factor float64) *Histogram {
	nh := hg.copyShape()
	nh.NDV = hg.NDV * factor
	nh.NullCount = hg.NullCount * factor
	for i := range nh.Buckets {
		nh.Buckets[i].Count *= factor
		nh.Buckets[i].Repeat *= factor
	}
	return nh
}

// matchKind classifies how much of a bucket's value interval satisfies a
// predicate.
type matchKind int

const (
	matchNone matchKind = iota
	matchPartial
	matchAll
)

// bucketMatch classifies the bucket interval [lower, upper] against the
// predicate. The value datums must already be of the histogram's kind; a
// failed comparison degrades to matchPartial, which is the conservative
// middle ground for the pruning transform below.
func bucketMatch(lower, upper types.Datum, cond expression.Condition, value types.Datum, value2 *types.Datum) matchKind {
	cmpLower, err := lower.Compare(value)
	if err != nil {
		return matchPartial
	}
	cmpUpper, err := upper.Compare(value)
	if err != nil {
		return matchPartial
	}
	switch cond {
	case expression.CondEq:
		if cmpLower > 0 || cmpUpper < 0 {
			return matchNone
		}
		if cmpLower == 0 && cmpUpper == 0 {
			return matchAll
		}
	case expression.CondNotEq:
		if cmpLower > 0 || cmpUpper < 0 {
			return matchAll
		}
		if cmpLower == 0 && cmpUpper == 0 {
			return matchNone
		}
	case expression.CondLT:
		if cmpUpper < 0 {
			return matchAll
		}
		if cmpLower >= 0 {
			return matchNone
		}
	case expression.CondLTE:
		if cmpUpper <= 0 {
			return matchAll
		}
		if cmpLower > 0 {
			return matchNone
		}
	case expression.CondGT:
		if cmpLower > 0 {
			return matchAll
		}
		if cmpUpper <= 0 {
			return matchNone
		}
	case expression.CondGTE:
		if cmpLower >= 0 {
			return matchAll
		}
		if cmpUpper < 0 {
			return matchNone
		}
	case expression.CondBetween:
		if value2 == nil {
			return matchPartial
		}
		cmpLower2, err := lower.Compare(*value2)
		if err != nil {
			return matchPartial
		}
		cmpUpper2, err := upper.Compare(*value2)
		if err != nil {
			return matchPartial
		}
		if inverted, err := invertedRange(value, *value2); err == nil && inverted {
			return matchNone
		}
		if cmpLower >= 0 && cmpUpper2 <= 0 {
			return matchAll
		}
		if cmpUpper < 0 || cmpLower2 > 0 {
			return matchNone
		}
	}
	return matchPartial
}

func invertedRange(low, high types.Datum) (bool, error) {
	cmp, err := low.Compare(high)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}

// pruned returns a copy with numRowsPruned values that do NOT match the
// predicate removed. Fully non-matching buckets and the null count give up
// mass first; buckets straddling the predicate boundary are assumed to be
// half-removable. NDV shrinks with the surviving non-null fraction.
func (hg *Histogram) pruned(numRowsPruned float64, cond expression.Condition, value types.Datum, value2 *types.Datum) *Histogram {
	removable := make([]float64, len(hg.Buckets))
	// Comparison predicates never match null, so nulls are always removable.
	totalRemovable := hg.NullCount
	for i := range hg.Buckets {
		bkt := &hg.Buckets[i]
		switch bucketMatch(bkt.Lower, bkt.Upper, cond, value, value2) {
		case matchNone:
			removable[i] = bkt.Count
		case matchPartial:
			removable[i] = bkt.Count / 2
		}
		totalRemovable += removable[i]
	}

	nh := hg.copyShape()
	if totalRemovable <= 0 {
		return nh
	}
	ratio := numRowsPruned / totalRemovable
	if ratio > 1 {
		ratio = 1
	}
	nh.NullCount = hg.NullCount * (1 - ratio)
	for i := range nh.Buckets {
		nh.Buckets[i].Count -= ratio * removable[i]
		if nh.Buckets[i].Count < 0 {
			nh.Buckets[i].Count = 0
		}
	}
	oldNotNull := hg.NotNullCount()
	if oldNotNull > 0 {
		nh.NDV = hg.NDV * (nh.NotNullCount() / oldNotNull)
	}
	return nh
}

// Column is the statistics snapshot of one column, backed by a histogram.
type Column struct {
	Histogram
}

// NewColumn creates column statistics over an empty histogram.
func NewColumn(tp byte, ndv, nullCount float64) *Column {
	return &Column{Histogram: *NewHistogram(tp, ndv, nullCount, 0)}
}

// Kind implements the ColumnStats interface.
func (c *Column) Kind() byte {
	return c.tp
}

// Pruned implements the ColumnStats interface.
func (c *Column) Pruned(numRowsPruned float64, cond expression.Condition, value types.Datum, value2 *types.Datum) ColumnStats {
	return &Column{Histogram: *c.Histogram.pruned(numRowsPruned, cond, value, value2)}
}

// Scaled implements the ColumnStats interface.
func (c *Column) Scaled(factor float64) ColumnStats {
	return &Column{Histogram: *c.Histogram.scale(factor)}
}

// String implements the fmt.Stringer interface.
func (c *Column) String() string {
	strs := make([]string, 0, len(c.Buckets)+1)
	strs = append(strs, fmt.Sprintf("%s ndv:%.2f nulls:%.2f", types.KindStr(c.tp), c.NDV, c.NullCount))
	for i := range c.Buckets {
		bkt := &c.Buckets[i]
		strs = append(strs, fmt.Sprintf("bucket[%s, %s] count:%.2f repeat:%.2f", bkt.Lower, bkt.Upper, bkt.Count, bkt.Repeat))
	}
	return strings.Join(strs, " ")
}
