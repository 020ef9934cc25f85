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

package expression

import (
	"testing"

	"github.com/opaldb/opal/types"
	"github.com/stretchr/testify/require"
)

const testLeafID NodeID = 7

func testSchema() []*Column {
	return []*Column{
		{UniqueID: 1, Index: 0, OrigName: "a", RetType: types.KindInt64, OriginNode: testLeafID},
		{UniqueID: 2, Index: 1, OrigName: "b", RetType: types.KindInt64, OriginNode: testLeafID},
		{UniqueID: 3, Index: 2, OrigName: "c", RetType: types.KindString, OriginNode: testLeafID},
	}
}

func TestScanPredicateFromComparison(t *testing.T) {
	schema := testSchema()
	expr := NewFunction(GT, schema[1], &Constant{Value: types.NewIntDatum(15)})

	preds, ok := ScanPredicatesFromExpression(expr, testLeafID, schema)
	require.True(t, ok)
	require.Len(t, preds, 1)
	require.Equal(t, 1, preds[0].ColOffset)
	require.Equal(t, CondGT, preds[0].Condition)
	require.Equal(t, types.NewIntDatum(15), preds[0].Value)
	require.Nil(t, preds[0].Value2)
}

func TestScanPredicateFlipsSwappedComparison(t *testing.T) {
	schema := testSchema()
	// 15 < b is the same scan predicate as b > 15.
	expr := NewFunction(LT, &Constant{Value: types.NewIntDatum(15)}, schema[1])

	preds, ok := ScanPredicatesFromExpression(expr, testLeafID, schema)
	require.True(t, ok)
	require.Len(t, preds, 1)
	require.Equal(t, CondGT, preds[0].Condition)
	require.Equal(t, 1, preds[0].ColOffset)
}

func TestScanPredicateBetween(t *testing.T) {
	schema := testSchema()
	expr := NewFunction(Between, schema[0],
		&Constant{Value: types.NewIntDatum(3)}, &Constant{Value: types.NewIntDatum(9)})

	preds, ok := ScanPredicatesFromExpression(expr, testLeafID, schema)
	require.True(t, ok)
	require.Len(t, preds, 1)
	require.Equal(t, CondBetween, preds[0].Condition)
	require.Equal(t, types.NewIntDatum(3), preds[0].Value)
	require.NotNil(t, preds[0].Value2)
	require.Equal(t, types.NewIntDatum(9), *preds[0].Value2)
}

func TestScanPredicateSplitsConjunction(t *testing.T) {
	schema := testSchema()
	expr := NewFunction(LogicAnd,
		NewFunction(GT, schema[0], &Constant{Value: types.NewIntDatum(1)}),
		NewFunction(LE, schema[1], &Constant{Value: types.NewIntDatum(10)}))

	preds, ok := ScanPredicatesFromExpression(expr, testLeafID, schema)
	require.True(t, ok)
	require.Len(t, preds, 2)
	require.Equal(t, 0, preds[0].ColOffset)
	require.Equal(t, CondGT, preds[0].Condition)
	require.Equal(t, 1, preds[1].ColOffset)
	require.Equal(t, CondLTE, preds[1].Condition)
}

func TestScanPredicateRejectsUnsupportedShapes(t *testing.T) {
	schema := testSchema()

	// Column-to-column comparisons are never prunable.
	colToCol := NewFunction(EQ, schema[0], schema[1])
	_, ok := ScanPredicatesFromExpression(colToCol, testLeafID, schema)
	require.False(t, ok)

	// Placeholder literals stay unresolved until execution.
	placeholder := NewFunction(EQ, schema[0], &Constant{ParamMarker: true})
	_, ok = ScanPredicatesFromExpression(placeholder, testLeafID, schema)
	require.False(t, ok)

	// Columns of another leaf must not resolve against this one.
	foreign := &Column{UniqueID: 99, OrigName: "x", RetType: types.KindInt64, OriginNode: testLeafID + 1}
	otherLeaf := NewFunction(EQ, foreign, &Constant{Value: types.NewIntDatum(1)})
	_, ok = ScanPredicatesFromExpression(otherLeaf, testLeafID, schema)
	require.False(t, ok)

	// A conjunction is only decomposable when every conjunct is.
	mixed := NewFunction(LogicAnd,
		NewFunction(GT, schema[0], &Constant{Value: types.NewIntDatum(1)}),
		colToCol)
	_, ok = ScanPredicatesFromExpression(mixed, testLeafID, schema)
	require.False(t, ok)

	// A bare column is not a predicate.
	_, ok = ScanPredicatesFromExpression(schema[0], testLeafID, schema)
	require.False(t, ok)
}

func TestReferencesOnlyNode(t *testing.T) {
	schema := testSchema()
	own := NewFunction(GT, schema[0], &Constant{Value: types.NewIntDatum(1)})
	require.True(t, ReferencesOnlyNode(own, testLeafID))

	foreign := &Column{UniqueID: 99, RetType: types.KindInt64, OriginNode: testLeafID + 1}
	mixed := NewFunction(EQ, schema[0], foreign)
	require.False(t, ReferencesOnlyNode(mixed, testLeafID))

	// No columns at all trivially qualifies.
	constOnly := NewFunction(EQ, &Constant{Value: types.NewIntDatum(1)}, &Constant{Value: types.NewIntDatum(1)})
	require.True(t, ReferencesOnlyNode(constOnly, testLeafID))
}
