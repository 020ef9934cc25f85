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
	"fmt"

	"github.com/pingcap/errors"

	"github.com/opaldb/opal/expression"
	"github.com/opaldb/opal/statistics"
	"github.com/opaldb/opal/storage"
)

// NodeID identifies a plan node within its Graph. It is the same identifier
// space expressions use for their weak column-origin references.
type NodeID = expression.NodeID

// Plan type names.
const (
	TypeDataSource  = "DataSource"
	TypeSelection   = "Selection"
	TypeJoin        = "Join"
	TypeUnionScan   = "UnionScan"
	TypeProjection  = "Projection"
	TypeSort        = "Sort"
	TypeAggregation = "Aggregation"
	TypeLimit       = "Limit"
	TypeUnionAll    = "UnionAll"
	TypeIntersect   = "Intersect"
	TypeExcept      = "Except"
)

// LogicalPlan is a node of the logical plan graph.
type LogicalPlan interface {
	// ID returns the node's identifier within its graph.
	ID() NodeID
	// TP returns the plan type name.
	TP() string

	setGraph(g *Graph, id NodeID)
}

type basePlan struct {
	id NodeID
	tp string
}

func newBasePlan(tp string) basePlan {
	return basePlan{id: expression.InvalidNodeID, tp: tp}
}

// ID implements the LogicalPlan interface.
func (p *basePlan) ID() NodeID {
	return p.id
}

// TP implements the LogicalPlan interface.
func (p *basePlan) TP() string {
	return p.tp
}

func (p *basePlan) setGraph(_ *Graph, id NodeID) {
	p.id = id
}

// Graph is an arena of logical plan nodes forming a DAG. Nodes are addressed
// by dense NodeIDs and edges are kept as identifier lists in both directions,
// so a subgraph shared by several parents (a scan feeding both sides of a
// self-join, say) is represented once and traversal never follows owning
// pointers.
type Graph struct {
	nodes    []LogicalPlan
	children [][]NodeID
	outputs  [][]NodeID
}

// NewGraph creates an empty plan graph.
func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) add(p LogicalPlan) {
	id := NodeID(len(g.nodes))
	p.setGraph(g, id)
	g.nodes = append(g.nodes, p)
	g.children = append(g.children, nil)
	g.outputs = append(g.outputs, nil)
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Node returns the node with the given id, or nil when the id is out of
// range.
func (g *Graph) Node(id NodeID) LogicalPlan {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Connect adds a parent/child edge. The same pair may be connected twice when
// both inputs of a parent are the same node; traversal then visits the child
// once per edge, matching the number of access paths.
func (g *Graph) Connect(parent, child NodeID) error {
	if g.Node(parent) == nil || g.Node(child) == nil {
		return errors.Errorf("connect %d -> %d: node outside graph", parent, child)
	}
	g.children[parent] = append(g.children[parent], child)
	g.outputs[child] = append(g.outputs[child], parent)
	return nil
}

// Children returns the ids of the node's inputs.
func (g *Graph) Children(id NodeID) []NodeID {
	return g.children[id]
}

// Outputs returns the ids of the node's parents.
func (g *Graph) Outputs(id NodeID) []NodeID {
	return g.outputs[id]
}

// UpwardVisitation tells VisitUpwards whether to continue into a node's
// outputs.
type UpwardVisitation int

// UpwardVisitation values.
const (
	VisitOutputs UpwardVisitation = iota
	DoNotVisitOutputs
)

// VisitUpwards walks the graph from start toward the plan's consumers,
// calling visit for every reached node, start included. Outputs are only
// followed when visit returns VisitOutputs; each node is visited at most once
// per call.
func (g *Graph) VisitUpwards(start NodeID, visit func(LogicalPlan) UpwardVisitation) {
	visited := make(map[NodeID]struct{})
	queue := []NodeID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		if visit(g.nodes[id]) == DoNotVisitOutputs {
			continue
		}
		queue = append(queue, g.outputs[id]...)
	}
}

// CollectDataSources returns every scan leaf reachable from root by downward
// traversal, in discovery order and deduplicated across shared subgraphs.
func (g *Graph) CollectDataSources(root NodeID) []*DataSource {
	var leafs []*DataSource
	visited := make(map[NodeID]struct{})
	queue := []NodeID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		if ds, ok := g.nodes[id].(*DataSource); ok {
			leafs = append(leafs, ds)
		}
		queue = append(queue, g.children[id]...)
	}
	return leafs
}

// DataSource is a scan leaf reading one physical table.
type DataSource struct {
	basePlan

	TableName string

	fullSchema    []*expression.Column
	prunedColumns map[int]struct{}

	statsTable     *statistics.Table
	prunedChunkIDs []storage.ChunkID
}

// Init adds the node to the graph. The given schema is the table's full
// column list; the node's column-origin references are stamped with the new
// node id.
func (ds DataSource) Init(g *Graph, fullSchema []*expression.Column) *DataSource {
	ds.basePlan = newBasePlan(TypeDataSource)
	ds.fullSchema = fullSchema
	p := &ds
	g.add(p)
	for _, col := range p.fullSchema {
		col.OriginNode = p.ID()
	}
	return p
}

// FullSchema returns every column of the underlying table, unaffected by
// column pruning. Statistics lookups index this schema so that pruned columns
// never shift ordinals.
func (ds *DataSource) FullSchema() []*expression.Column {
	return ds.fullSchema
}

// Schema returns the output columns after column pruning.
func (ds *DataSource) Schema() []*expression.Column {
	if len(ds.prunedColumns) == 0 {
		return ds.fullSchema
	}
	schema := make([]*expression.Column, 0, len(ds.fullSchema)-len(ds.prunedColumns))
	for i, col := range ds.fullSchema {
		if _, ok := ds.prunedColumns[i]; !ok {
			schema = append(schema, col)
		}
	}
	return schema
}

// SetPrunedColumns records the table column ordinals dropped from the node's
// output.
func (ds *DataSource) SetPrunedColumns(ordinals []int) {
	ds.prunedColumns = make(map[int]struct{}, len(ordinals))
	for _, ordinal := range ordinals {
		ds.prunedColumns[ordinal] = struct{}{}
	}
}

// StatsTable returns the node's statistics snapshot, or nil when the node
// still uses the table's base statistics.
func (ds *DataSource) StatsTable() *statistics.Table {
	return ds.statsTable
}

// SetStatsTable replaces the node's statistics snapshot. The old snapshot is
// left untouched for any concurrent holder.
func (ds *DataSource) SetStatsTable(stats *statistics.Table) {
	ds.statsTable = stats
}

// PrunedChunkIDs returns the chunk ids excluded from the scan.
func (ds *DataSource) PrunedChunkIDs() []storage.ChunkID {
	return ds.prunedChunkIDs
}

// SetPrunedChunkIDs commits the excluded chunk ids. The list must be sorted
// and duplicate free and can be set only once; a second call means the
// rewrite ran twice and is a programming error.
func (ds *DataSource) SetPrunedChunkIDs(ids []storage.ChunkID) error {
	if len(ds.prunedChunkIDs) > 0 {
		return errors.Errorf("scan of table %q (node %d) already has pruned chunk ids", ds.TableName, ds.ID())
	}
	ds.prunedChunkIDs = ids
	return nil
}

// LogicalSelection filters rows by one predicate expression.
type LogicalSelection struct {
	basePlan

	Condition expression.Expression
}

// Init adds the node to the graph.
func (p LogicalSelection) Init(g *Graph) *LogicalSelection {
	p.basePlan = newBasePlan(TypeSelection)
	np := &p
	g.add(np)
	return np
}

// JoinType describes how a join combines its inputs.
type JoinType int

// Join types.
const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	RightOuterJoin
	SemiJoin
)

// String implements the fmt.Stringer interface.
func (tp JoinType) String() string {
	switch tp {
	case InnerJoin:
		return "inner join"
	case LeftOuterJoin:
		return "left outer join"
	case RightOuterJoin:
		return "right outer join"
	case SemiJoin:
		return "semi join"
	}
	return fmt.Sprintf("join(%d)", int(tp))
}

// LogicalJoin combines two inputs.
type LogicalJoin struct {
	basePlan

	JoinType   JoinType
	Conditions []expression.Expression
}

// Init adds the node to the graph.
func (p LogicalJoin) Init(g *Graph) *LogicalJoin {
	p.basePlan = newBasePlan(TypeJoin)
	np := &p
	g.add(np)
	return np
}

// LogicalUnionScan merges the visible table data with the transaction's own
// not yet committed writes. It filters nothing by itself.
type LogicalUnionScan struct {
	basePlan
}

// Init adds the node to the graph.
func (p LogicalUnionScan) Init(g *Graph) *LogicalUnionScan {
	p.basePlan = newBasePlan(TypeUnionScan)
	np := &p
	g.add(np)
	return np
}

// LogicalProjection computes output expressions from its input.
type LogicalProjection struct {
	basePlan

	Exprs []expression.Expression
}

// Init adds the node to the graph.
func (p LogicalProjection) Init(g *Graph) *LogicalProjection {
	p.basePlan = newBasePlan(TypeProjection)
	np := &p
	g.add(np)
	return np
}

// LogicalSort orders its input.
type LogicalSort struct {
	basePlan

	ByItems []expression.Expression
}

// Init adds the node to the graph.
func (p LogicalSort) Init(g *Graph) *LogicalSort {
	p.basePlan = newBasePlan(TypeSort)
	np := &p
	g.add(np)
	return np
}

// LogicalAggregation groups and aggregates its input.
type LogicalAggregation struct {
	basePlan

	GroupByItems []expression.Expression
}

// Init adds the node to the graph.
func (p LogicalAggregation) Init(g *Graph) *LogicalAggregation {
	p.basePlan = newBasePlan(TypeAggregation)
	np := &p
	g.add(np)
	return np
}

// LogicalLimit keeps at most Count rows of its input.
type LogicalLimit struct {
	basePlan

	Offset uint64
	Count  uint64
}

// Init adds the node to the graph.
func (p LogicalLimit) Init(g *Graph) *LogicalLimit {
	p.basePlan = newBasePlan(TypeLimit)
	np := &p
	g.add(np)
	return np
}

// LogicalUnionAll concatenates its inputs.
type LogicalUnionAll struct {
	basePlan
}

// Init adds the node to the graph.
func (p LogicalUnionAll) Init(g *Graph) *LogicalUnionAll {
	p.basePlan = newBasePlan(TypeUnionAll)
	np := &p
	g.add(np)
	return np
}

// LogicalIntersect keeps the rows present in every input.
type LogicalIntersect struct {
	basePlan
}

// Init adds the node to the graph.
func (p LogicalIntersect) Init(g *Graph) *LogicalIntersect {
	p.basePlan = newBasePlan(TypeIntersect)
	np := &p
	g.add(np)
	return np
}

// LogicalExcept keeps the rows of the first input absent from the others.
type LogicalExcept struct {
	basePlan
}

// Init adds the node to the graph.
func (p LogicalExcept) Init(g *Graph) *LogicalExcept {
	p.basePlan = newBasePlan(TypeExcept)
	np := &p
	g.add(np)
	return np
}
