// Copyright 2023 OpalDB, Inc.
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

package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/pingcap/errors"
)

// Kind constants for Datum.
const (
	KindNull byte = iota
	KindInt64
	KindUint64
	KindFloat64
	KindString
)

// Datum is a variant value holding one cell of data. The zero value is the
// null datum.
type Datum struct {
	k byte
	i int64
	f float64
	s string
}

// Kind gets the kind of the datum.
func (d *Datum) Kind() byte {
	return d.k
}

// IsNull checks if datum is null.
func (d *Datum) IsNull() bool {
	return d.k == KindNull
}

// GetInt64 gets the int64 value.
func (d *Datum) GetInt64() int64 {
	return d.i
}

// SetInt64 sets the int64 value.
func (d *Datum) SetInt64(i int64) {
	d.k = KindInt64
	d.i = i
}

// GetUint64 gets the uint64 value.
func (d *Datum) GetUint64() uint64 {
	return uint64(d.i)
}

// SetUint64 sets the uint64 value.
func (d *Datum) SetUint64(u uint64) {
	d.k = KindUint64
	d.i = int64(u)
}

// GetFloat64 gets the float64 value.
func (d *Datum) GetFloat64() float64 {
	return d.f
}

// SetFloat64 sets the float64 value.
func (d *Datum) SetFloat64(f float64) {
	d.k = KindFloat64
	d.f = f
}

// GetString gets the string value.
func (d *Datum) GetString() string {
	return d.s
}

// SetString sets the string value.
func (d *Datum) SetString(s string) {
	d.k = KindString
	d.s = s
}

// NewIntDatum creates a new Datum from an int64 value.
func NewIntDatum(i int64) (d Datum) {
	d.SetInt64(i)
	return d
}

// NewUintDatum creates a new Datum from an uint64 value.
func NewUintDatum(u uint64) (d Datum) {
	d.SetUint64(u)
	return d
}

// NewFloat64Datum creates a new Datum from a float64 value.
func NewFloat64Datum(f float64) (d Datum) {
	d.SetFloat64(f)
	return d
}

// NewStringDatum creates a new Datum from a string.
func NewStringDatum(s string) (d Datum) {
	d.SetString(s)
	return d
}

// String returns a human-readable description of the datum, for diagnostics.
func (d Datum) String() string {
	switch d.k {
	case KindNull:
		return "NULL"
	case KindInt64:
		return fmt.Sprintf("%d", d.i)
	case KindUint64:
		return fmt.Sprintf("%d", uint64(d.i))
	case KindFloat64:
		return fmt.Sprintf("%g", d.f)
	case KindString:
		return fmt.Sprintf("%q", d.s)
	}
	return "(invalid)"
}

// Compare compares the datum with another datum of the same kind. It returns
// an error when the kinds differ, because cross-kind ordering is only defined
// after an explicit cast.
func (d *Datum) Compare(other Datum) (int, error) {
	if d.k != other.k {
		return 0, errors.Errorf("cannot compare %s with %s", KindStr(d.k), KindStr(other.k))
	}
	switch d.k {
	case KindNull:
		return 0, nil
	case KindInt64:
		return cmpInt64(d.i, other.i), nil
	case KindUint64:
		return cmpUint64(uint64(d.i), uint64(other.i)), nil
	case KindFloat64:
		return cmpFloat64(d.f, other.f), nil
	case KindString:
		return strings.Compare(d.s, other.s), nil
	}
	return 0, errors.Errorf("cannot compare datum of kind %d", d.k)
}

func cmpInt64(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func cmpUint64(x, y uint64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func cmpFloat64(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// KindStr converts a datum kind to a readable name.
func KindStr(k byte) string {
	switch k {
	case KindNull:
		return "null"
	case KindInt64:
		return "bigint"
	case KindUint64:
		return "bigint unsigned"
	case KindFloat64:
		return "double"
	case KindString:
		return "varchar"
	}
	return "unknown"
}

// IsArithmeticKind reports whether the kind is numeric. Range filters are only
// built for arithmetic column kinds.
func IsArithmeticKind(k byte) bool {
	switch k {
	case KindInt64, KindUint64, KindFloat64:
		return true
	}
	return false
}

// maxExactFloatInt is the largest int64 magnitude a float64 represents exactly.
const maxExactFloatInt = int64(1) << 53

// LosslessCast converts d to the given kind if and only if the original value
// can be reconstructed exactly from the result. The second return value is
// false when the conversion would lose information, e.g. 3.5 to an integer
// kind, an integer beyond 2^53 to double, or any numeric/string mix. Callers
// that skip work on a failed cast stay conservative: never acting on a lossy
// value is always sound.
func LosslessCast(d Datum, kind byte) (Datum, bool) {
	if d.Kind() == kind {
		return d, true
	}
	switch kind {
	case KindInt64:
		switch d.Kind() {
		case KindUint64:
			u := d.GetUint64()
			if u > uint64(math.MaxInt64) {
				return Datum{}, false
			}
			return NewIntDatum(int64(u)), true
		case KindFloat64:
			f := d.GetFloat64()
			i := int64(f)
			if float64(i) != f || math.Abs(f) >= float64(math.MaxInt64) {
				return Datum{}, false
			}
			return NewIntDatum(i), true
		}
	case KindUint64:
		switch d.Kind() {
		case KindInt64:
			i := d.GetInt64()
			if i < 0 {
				return Datum{}, false
			}
			return NewUintDatum(uint64(i)), true
		case KindFloat64:
			f := d.GetFloat64()
			if f < 0 {
				return Datum{}, false
			}
			u := uint64(f)
			if float64(u) != f || f >= float64(math.MaxUint64) {
				return Datum{}, false
			}
			return NewUintDatum(u), true
		}
	case KindFloat64:
		switch d.Kind() {
		case KindInt64:
			i := d.GetInt64()
			if i > maxExactFloatInt || i < -maxExactFloatInt {
				return Datum{}, false
			}
			return NewFloat64Datum(float64(i)), true
		case KindUint64:
			u := d.GetUint64()
			if u > uint64(maxExactFloatInt) {
				return Datum{}, false
			}
			return NewFloat64Datum(float64(u)), true
		}
	}
	// String/numeric mixes and every remaining pair are lossy by definition.
	return Datum{}, false
}
