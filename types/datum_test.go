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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatumCompare(t *testing.T) {
	cases := []struct {
		lhs Datum
		rhs Datum
		ret int
	}{
		{NewIntDatum(1), NewIntDatum(2), -1},
		{NewIntDatum(2), NewIntDatum(2), 0},
		{NewIntDatum(3), NewIntDatum(2), 1},
		{NewUintDatum(math.MaxUint64), NewUintDatum(1), 1},
		{NewFloat64Datum(1.5), NewFloat64Datum(1.6), -1},
		{NewStringDatum("abc"), NewStringDatum("abd"), -1},
	}
	for _, ca := range cases {
		ret, err := ca.lhs.Compare(ca.rhs)
		require.NoError(t, err)
		require.Equal(t, ca.ret, ret, "%s vs %s", ca.lhs, ca.rhs)
	}

	intD := NewIntDatum(1)
	_, err := intD.Compare(NewStringDatum("1"))
	require.Error(t, err)
}

func TestLosslessCast(t *testing.T) {
	cases := []struct {
		in   Datum
		kind byte
		out  Datum
		ok   bool
	}{
		{NewIntDatum(42), KindInt64, NewIntDatum(42), true},
		{NewFloat64Datum(3), KindInt64, NewIntDatum(3), true},
		{NewFloat64Datum(3.5), KindInt64, Datum{}, false},
		{NewFloat64Datum(-10), KindUint64, Datum{}, false},
		{NewIntDatum(3), KindFloat64, NewFloat64Datum(3), true},
		{NewIntDatum(1 << 60), KindFloat64, Datum{}, false},
		{NewIntDatum(-1), KindUint64, Datum{}, false},
		{NewUintDatum(7), KindInt64, NewIntDatum(7), true},
		{NewUintDatum(math.MaxUint64), KindInt64, Datum{}, false},
		{NewStringDatum("3"), KindInt64, Datum{}, false},
		{NewIntDatum(3), KindString, Datum{}, false},
	}
	for _, ca := range cases {
		out, ok := LosslessCast(ca.in, ca.kind)
		require.Equal(t, ca.ok, ok, "cast %s to %s", ca.in, KindStr(ca.kind))
		if ok {
			require.Equal(t, ca.out, out)
		}
	}
}
