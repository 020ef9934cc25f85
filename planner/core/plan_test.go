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

package core

import (
	"testing"

	"github.com/opaldb/opal/expression"
	"github.com/opaldb/opal/storage"
	"github.com/opaldb/opal/types"
	"github.com/stretchr/testify/require"
)

var testUniqueID int64

func newTestIntSchema(names ...string) []*expression.Column {
	cols := make([]*expression.Column, 0, len(names))
	for i, name := range names {
		testUniqueID++
		cols = append(cols, &expression.Column{
			UniqueID: testUniqueID,
			Index:    i,
			OrigName: name,
			RetType:  types.KindInt64,
		})
	}
	return cols
}

func TestGraphEdges(t *testing.T) {
	g := NewGraph()
	ds := DataSource{TableName: "t"}.Init(g, newTestIntSchema("x"))
	sel := LogicalSelection{}.Init(g)
	require.NoError(t, g.Connect(sel.ID(), ds.ID()))

	require.Equal(t, 2, g.NodeCount())
	require.Equal(t, []NodeID{ds.ID()}, g.Children(sel.ID()))
	require.Equal(t, []NodeID{sel.ID()}, g.Outputs(ds.ID()))
	require.Empty(t, g.Outputs(sel.ID()))
	require.Equal(t, TypeDataSource, g.Node(ds.ID()).TP())
	require.Nil(t, g.Node(NodeID(99)))

	require.Error(t, g.Connect(sel.ID(), NodeID(99)))
}

func TestDataSourceInitStampsColumnOrigins(t *testing.T) {
	g := NewGraph()
	schema := newTestIntSchema("x", "y")
	ds := DataSource{TableName: "t"}.Init(g, schema)
	for _, col := range schema {
		require.Equal(t, ds.ID(), col.OriginNode)
	}
}

func TestDataSourceSchemaPruning(t *testing.T) {
	g := NewGraph()
	ds := DataSource{TableName: "t"}.Init(g, newTestIntSchema("a", "b", "c"))

	require.Len(t, ds.Schema(), 3)
	ds.SetPrunedColumns([]int{1})
	schema := ds.Schema()
	require.Len(t, schema, 2)
	require.Equal(t, "a", schema[0].OrigName)
	require.Equal(t, "c", schema[1].OrigName)
	// The full schema keeps every ordinal for statistics lookups.
	require.Len(t, ds.FullSchema(), 3)
}

func TestSetPrunedChunkIDsOnlyOnce(t *testing.T) {
	g := NewGraph()
	ds := DataSource{TableName: "t"}.Init(g, newTestIntSchema("x"))
	require.NoError(t, ds.SetPrunedChunkIDs([]storage.ChunkID{0, 2}))
	require.Equal(t, []storage.ChunkID{0, 2}, ds.PrunedChunkIDs())
	require.Error(t, ds.SetPrunedChunkIDs([]storage.ChunkID{1}))
}

func TestCollectDataSourcesDeduplicates(t *testing.T) {
	// A self-join reads the same scan through both inputs; the leaf must be
	// collected once.
	g := NewGraph()
	ds := DataSource{TableName: "t"}.Init(g, newTestIntSchema("x"))
	join := LogicalJoin{JoinType: InnerJoin}.Init(g)
	require.NoError(t, g.Connect(join.ID(), ds.ID()))
	require.NoError(t, g.Connect(join.ID(), ds.ID()))

	leafs := g.CollectDataSources(join.ID())
	require.Len(t, leafs, 1)
	require.Same(t, ds, leafs[0])
}

func TestCollectDataSourcesFindsAllLeafs(t *testing.T) {
	g := NewGraph()
	ds1 := DataSource{TableName: "t1"}.Init(g, newTestIntSchema("x"))
	ds2 := DataSource{TableName: "t2"}.Init(g, newTestIntSchema("y"))
	join := LogicalJoin{JoinType: InnerJoin}.Init(g)
	agg := LogicalAggregation{}.Init(g)
	require.NoError(t, g.Connect(join.ID(), ds1.ID()))
	require.NoError(t, g.Connect(join.ID(), ds2.ID()))
	require.NoError(t, g.Connect(agg.ID(), join.ID()))

	leafs := g.CollectDataSources(agg.ID())
	require.Len(t, leafs, 2)
}

func TestVisitUpwards(t *testing.T) {
	g := NewGraph()
	ds := DataSource{TableName: "t"}.Init(g, newTestIntSchema("x"))
	sel := LogicalSelection{}.Init(g)
	proj := LogicalProjection{}.Init(g)
	require.NoError(t, g.Connect(sel.ID(), ds.ID()))
	require.NoError(t, g.Connect(proj.ID(), sel.ID()))

	var visited []string
	g.VisitUpwards(ds.ID(), func(p LogicalPlan) UpwardVisitation {
		visited = append(visited, p.TP())
		return VisitOutputs
	})
	require.Equal(t, []string{TypeDataSource, TypeSelection, TypeProjection}, visited)

	// Stopping at the selection must not reach the projection.
	visited = visited[:0]
	g.VisitUpwards(ds.ID(), func(p LogicalPlan) UpwardVisitation {
		visited = append(visited, p.TP())
		if p.TP() == TypeSelection {
			return DoNotVisitOutputs
		}
		return VisitOutputs
	})
	require.Equal(t, []string{TypeDataSource, TypeSelection}, visited)
}
