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
	"strings"

	"github.com/opaldb/opal/types"
)

// NodeID identifies a node in the logical plan graph. Expressions carry it as
// a weak, lookup-only reference to the scan leaf a column was defined on; it
// never implies ownership of the node.
type NodeID int64

// InvalidNodeID is the id of a node that does not exist in any plan graph.
const InvalidNodeID NodeID = -1

// Scalar function names.
const (
	LogicAnd = "and"
	EQ       = "eq"
	NE       = "ne"
	LT       = "lt"
	LE       = "le"
	GT       = "gt"
	GE       = "ge"
	Between  = "between"
)

// Expression is a node in an expression tree over the columns of a plan.
type Expression interface {
	fmt.Stringer
}

// Column refers to one output column of a plan node. The reference is
// positional (Index into the defining leaf's full schema) plus a UniqueID that
// stays stable across plan rewrites, so resolution compares identifiers and
// never object identity.
type Column struct {
	UniqueID int64
	Index    int
	OrigName string
	RetType  byte
	// OriginNode names the scan leaf this column was defined on.
	OriginNode NodeID
}

// String implements the fmt.Stringer interface.
func (col *Column) String() string {
	if col.OrigName != "" {
		return col.OrigName
	}
	return fmt.Sprintf("Column#%d", col.UniqueID)
}

// Constant holds a literal value. A Constant with ParamMarker set stands for
// an unresolved placeholder from a prepared statement; its Value is
// meaningless until execution binds a parameter.
type Constant struct {
	Value       types.Datum
	ParamMarker bool
}

// String implements the fmt.Stringer interface.
func (c *Constant) String() string {
	if c.ParamMarker {
		return "?"
	}
	return c.Value.String()
}

// ScalarFunction is a function call over argument expressions, e.g. a
// comparison or a logical conjunction.
type ScalarFunction struct {
	FuncName string
	Args     []Expression
}

// NewFunction creates a ScalarFunction.
func NewFunction(funcName string, args ...Expression) *ScalarFunction {
	return &ScalarFunction{FuncName: funcName, Args: args}
}

// String implements the fmt.Stringer interface.
func (sf *ScalarFunction) String() string {
	args := make([]string, 0, len(sf.Args))
	for _, arg := range sf.Args {
		args = append(args, arg.String())
	}
	return fmt.Sprintf("%s(%s)", sf.FuncName, strings.Join(args, ", "))
}

// ExtractColumns returns every Column referenced by expr, in visit order.
func ExtractColumns(expr Expression) []*Column {
	var cols []*Column
	extractColumns(expr, &cols)
	return cols
}

func extractColumns(expr Expression, cols *[]*Column) {
	switch x := expr.(type) {
	case *Column:
		*cols = append(*cols, x)
	case *ScalarFunction:
		for _, arg := range x.Args {
			extractColumns(arg, cols)
		}
	}
}

// ReferencesOnlyNode reports whether every column in expr was defined on the
// given plan node. An expression without columns trivially qualifies.
func ReferencesOnlyNode(expr Expression, node NodeID) bool {
	for _, col := range ExtractColumns(expr) {
		if col.OriginNode != node {
			return false
		}
	}
	return true
}
