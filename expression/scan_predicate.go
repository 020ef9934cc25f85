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
	"fmt"

	"github.com/opaldb/opal/types"
)

// Condition is the comparison kind of a decomposed scan predicate.
type Condition int

// Condition kinds.
const (
	CondEq Condition = iota
	CondNotEq
	CondLT
	CondLTE
	CondGT
	CondGTE
	CondBetween
)

// String implements the fmt.Stringer interface.
func (c Condition) String() string {
	switch c {
	case CondEq:
		return "="
	case CondNotEq:
		return "!="
	case CondLT:
		return "<"
	case CondLTE:
		return "<="
	case CondGT:
		return ">"
	case CondGTE:
		return ">="
	case CondBetween:
		return "between"
	}
	return fmt.Sprintf("condition(%d)", int(c))
}

// flipped mirrors the condition for a swapped comparison, i.e. `5 < x`
// becomes `x > 5`.
func (c Condition) flipped() Condition {
	switch c {
	case CondLT:
		return CondGT
	case CondLTE:
		return CondGTE
	case CondGT:
		return CondLT
	case CondGTE:
		return CondLTE
	}
	return c
}

// ScanPredicate is the canonical column-vs-literal form of one conjunct of a
// filter predicate: one target column, one condition, one value and an
// optional second value for between conditions. ColOffset indexes the leaf's
// full, unpruned schema so that statistics lookups are unaffected by column
// pruning on the leaf.
type ScanPredicate struct {
	ColOffset int
	Condition Condition
	Value     types.Datum
	Value2    *types.Datum
}

// String implements the fmt.Stringer interface.
func (sp *ScanPredicate) String() string {
	if sp.Condition == CondBetween {
		return fmt.Sprintf("col#%d between %s and %s", sp.ColOffset, sp.Value, *sp.Value2)
	}
	return fmt.Sprintf("col#%d %s %s", sp.ColOffset, sp.Condition, sp.Value)
}

var comparisonConditions = map[string]Condition{
	EQ: CondEq,
	NE: CondNotEq,
	LT: CondLT,
	LE: CondLTE,
	GT: CondGT,
	GE: CondGTE,
}

// ScanPredicatesFromExpression decomposes expr into scan predicates against
// the full (unpruned) schema of the scan leaf identified by origin. It splits
// conjunctions and accepts column-vs-literal comparisons and between ranges.
// The second return value is false when any conjunct is not decomposable:
// column-to-column comparisons, unresolved placeholders, columns of a
// different leaf and every other expression shape.
func ScanPredicatesFromExpression(expr Expression, origin NodeID, fullSchema []*Column) ([]ScanPredicate, bool) {
	sf, ok := expr.(*ScalarFunction)
	if !ok {
		return nil, false
	}

	if sf.FuncName == LogicAnd {
		var preds []ScanPredicate
		for _, arg := range sf.Args {
			sub, ok := ScanPredicatesFromExpression(arg, origin, fullSchema)
			if !ok {
				return nil, false
			}
			preds = append(preds, sub...)
		}
		return preds, true
	}

	if sf.FuncName == Between {
		if len(sf.Args) != 3 {
			return nil, false
		}
		offset, ok := resolveColumn(sf.Args[0], origin, fullSchema)
		if !ok {
			return nil, false
		}
		low, ok := literalValue(sf.Args[1])
		if !ok {
			return nil, false
		}
		high, ok := literalValue(sf.Args[2])
		if !ok {
			return nil, false
		}
		return []ScanPredicate{{ColOffset: offset, Condition: CondBetween, Value: low, Value2: &high}}, true
	}

	cond, ok := comparisonConditions[sf.FuncName]
	if !ok || len(sf.Args) != 2 {
		return nil, false
	}

	// Try column-vs-literal, then the swapped literal-vs-column shape.
	if offset, ok := resolveColumn(sf.Args[0], origin, fullSchema); ok {
		value, ok := literalValue(sf.Args[1])
		if !ok {
			return nil, false
		}
		return []ScanPredicate{{ColOffset: offset, Condition: cond, Value: value}}, true
	}
	if offset, ok := resolveColumn(sf.Args[1], origin, fullSchema); ok {
		value, ok := literalValue(sf.Args[0])
		if !ok {
			return nil, false
		}
		return []ScanPredicate{{ColOffset: offset, Condition: cond.flipped(), Value: value}}, true
	}
	return nil, false
}

// resolveColumn maps a column expression to its offset within the full schema
// of the leaf identified by origin. Resolution goes through identifiers so a
// structurally identical clone of the leaf's column resolves the same way.
func resolveColumn(expr Expression, origin NodeID, fullSchema []*Column) (int, bool) {
	col, ok := expr.(*Column)
	if !ok {
		return 0, false
	}
	if col.OriginNode != origin {
		return 0, false
	}
	for i, schemaCol := range fullSchema {
		if schemaCol.UniqueID == col.UniqueID {
			return i, true
		}
	}
	return 0, false
}

func literalValue(expr Expression) (types.Datum, bool) {
	con, ok := expr.(*Constant)
	if !ok || con.ParamMarker {
		return types.Datum{}, false
	}
	return con.Value, true
}
