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
	"context"

	"github.com/bits-and-blooms/bitset"
	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/opaldb/opal/expression"
	"github.com/opaldb/opal/statistics"
	"github.com/opaldb/opal/storage"
	"github.com/opaldb/opal/types"
	"github.com/opaldb/opal/util/logutil"
)

// chunkPruner excludes chunks from scan leafs when per-chunk statistics prove
// no row of the chunk can match the leaf's filter predicates. A chunk is only
// excluded when every predicate chain reaching the leaf certifies it, so a
// scan shared by several branches never loses a chunk one branch still needs.
//
// The rule must run once per plan; running it twice on the same leaf is a
// programming error, not a silent no-op.
type chunkPruner struct {
	store *storage.Manager

	// excludedChunkIDsByPredicate memoizes the exclusion set per Selection
	// node, because the same node shows up in several chains of a branching
	// plan. Node identity is only meaningful within one plan, so the map is
	// scoped to one rule instance and discarded with it.
	excludedChunkIDsByPredicate map[NodeID]*bitset.BitSet
}

func newChunkPruner(store *storage.Manager) *chunkPruner {
	return &chunkPruner{
		store:                       store,
		excludedChunkIDsByPredicate: make(map[NodeID]*bitset.BitSet),
	}
}

func (*chunkPruner) name() string {
	return "chunk_pruner"
}

func (p *chunkPruner) optimize(ctx context.Context, g *Graph, root NodeID) (NodeID, error) {
	for _, ds := range g.CollectDataSources(root) {
		chains := p.findPredicateChains(g, ds, ds.ID(), nil)
		if len(chains) == 0 {
			continue
		}

		tbl, err := p.store.GetTable(ds.TableName)
		if err != nil {
			return root, errors.Trace(err)
		}

		excludedSets := make([]*bitset.BitSet, 0, len(chains))
		for _, chain := range chains {
			excludedSets = append(excludedSets, p.computeExcludeList(tbl, chain, ds))
		}

		prunedChunkIDs := intersectChunkIDSets(excludedSets)
		if prunedChunkIDs.None() {
			continue
		}

		if len(ds.PrunedChunkIDs()) > 0 {
			return root, errors.Errorf("did not expect scan of table %q (node %d) with an already existing set of pruned chunk ids",
				ds.TableName, ds.ID())
		}
		// Bitset enumeration yields the ids sorted and duplicate free.
		ids := make([]storage.ChunkID, 0, prunedChunkIDs.Count())
		for i, ok := prunedChunkIDs.NextSet(0); ok; i, ok = prunedChunkIDs.NextSet(i + 1) {
			ids = append(ids, storage.ChunkID(i))
		}
		if err := ds.SetPrunedChunkIDs(ids); err != nil {
			return root, errors.Trace(err)
		}
		logutil.Logger(ctx).Debug("chunks pruned from scan",
			zap.String("table", ds.TableName),
			zap.Int64("node", int64(ds.ID())),
			zap.Int("prunedChunks", len(ids)),
			zap.Int("totalChunks", tbl.ChunkCount()))
	}
	return root, nil
}

// findPredicateChains walks upward from start and collects the maximal chains
// of Selection nodes applicable to ds, in encounter order. Traversal passes
// through non-filtering nodes, forks at every node with more than one output
// (one continuation per output, all sharing the chain collected so far) and
// finalizes the current chain below any blocking node or at the top of the
// plan.
func (p *chunkPruner) findPredicateChains(g *Graph, ds *DataSource, start NodeID, currentChain []*LogicalSelection) [][]*LogicalSelection {
	var chains [][]*LogicalSelection
	g.VisitUpwards(start, func(node LogicalPlan) UpwardVisitation {
		switch x := node.(type) {
		case *DataSource, *LogicalJoin, *LogicalUnionScan, *LogicalProjection, *LogicalSort:
			// Non-filtering with respect to ds; keep walking.
		case *LogicalSelection:
			// A predicate is only attributable to ds when every column it
			// references resolves to ds; otherwise it is skipped but the walk
			// continues.
			if expression.ReferencesOnlyNode(x.Condition, ds.ID()) {
				// Force a copy so forked continuations never share backing
				// arrays.
				currentChain = append(currentChain[:len(currentChain):len(currentChain)], x)
			}
		default:
			// A blocking node: predicates above it cannot be attributed to ds.
			chains = append(chains, currentChain)
			return DoNotVisitOutputs
		}

		outputs := g.Outputs(node.ID())
		if len(outputs) == 0 {
			// Top of the plan; the chain is complete.
			chains = append(chains, currentChain)
			return DoNotVisitOutputs
		}
		if len(outputs) > 1 {
			for _, output := range outputs {
				chains = append(chains, p.findPredicateChains(g, ds, output, currentChain)...)
			}
			return DoNotVisitOutputs
		}
		return VisitOutputs
	})
	return chains
}

// computeExcludeList returns the chunk ids provably excluded by the given
// predicate chain. Chain predicates apply in sequence, so a chunk failing any
// one of them is excludable and the per-predicate sets are unioned. As a side
// effect the leaf's statistics snapshot is replaced whenever a predicate
// newly prunes rows.
func (p *chunkPruner) computeExcludeList(tbl *storage.Table, chain []*LogicalSelection, ds *DataSource) *bitset.BitSet {
	chunkCount := uint(tbl.ChunkCount())
	globalExcluded := bitset.New(chunkCount)
	for _, sel := range chain {
		if cached, ok := p.excludedChunkIDsByPredicate[sel.ID()]; ok {
			// The Selection is part of multiple predicate chains and its
			// exclusion set has already been calculated.
			globalExcluded.InPlaceUnion(cached)
			continue
		}
		localExcluded := bitset.New(chunkCount)

		// Decompose against the full schema: statistics are stored for every
		// table column, so pruned columns must not shift the ordinals used
		// for the lookup.
		preds, ok := expression.ScanPredicatesFromExpression(sel.Condition, ds.ID(), ds.FullSchema())
		if !ok {
			// Not a column-vs-literal shape; contributes nothing.
			p.excludedChunkIDsByPredicate[sel.ID()] = localExcluded
			continue
		}

		for _, pred := range preds {
			p.excludeChunksForPredicate(tbl, ds, pred, localExcluded)
		}

		p.excludedChunkIDsByPredicate[sel.ID()] = localExcluded
		globalExcluded.InPlaceUnion(localExcluded)
	}
	return globalExcluded
}

// excludeChunksForPredicate marks every chunk the predicate provably excludes
// in localExcluded and rewrites the leaf's statistics for the newly pruned
// rows.
func (p *chunkPruner) excludeChunksForPredicate(tbl *storage.Table, ds *DataSource, pred expression.ScanPredicate, localExcluded *bitset.BitSet) {
	colKind := ds.FullSchema()[pred.ColOffset].RetType

	// A value that does not survive a round trip through the column type
	// could exclude chunks it must not; skip the predicate instead.
	value, ok := types.LosslessCast(pred.Value, colKind)
	if !ok {
		return
	}
	var value2 *types.Datum
	if pred.Value2 != nil {
		v2, ok := types.LosslessCast(*pred.Value2, colKind)
		if !ok {
			return
		}
		value2 = &v2
	}

	var numRowsPruned int
	for id := 0; id < tbl.ChunkCount(); id++ {
		chunk := tbl.GetChunk(storage.ChunkID(id))
		if chunk == nil {
			continue
		}
		chunkStats := chunk.ColumnStats(pred.ColOffset)
		if chunkStats == nil {
			// Without statistics the chunk cannot be evaluated; keep it.
			continue
		}
		if !canPruneChunk(chunkStats, pred.Condition, value, value2) {
			continue
		}
		if !containsChunkID(ds.PrunedChunkIDs(), storage.ChunkID(id)) {
			numRowsPruned += chunk.RowCount()
		}
		// A chunk pruned by an earlier stage still joins the exclusion set;
		// only the row count above must not be double-counted.
		localExcluded.Set(uint(id))
	}

	if numRowsPruned > 0 {
		oldStats := ds.StatsTable()
		if oldStats == nil {
			oldStats, _ = p.store.TableStats(tbl.Name)
		}
		if oldStats != nil {
			ds.SetStatsTable(prunedTableStats(oldStats, pred, float64(numRowsPruned), value, value2))
		}
	}
}

// canPruneChunk reports whether the chunk's statistics certify that no value
// satisfies the predicate. Dispatch is closed over the supported column
// kinds; range filters exist for arithmetic kinds only, and a column never
// carries a range filter and a min/max filter at the same time.
func canPruneChunk(chunkStats *statistics.ChunkColumnStats, cond expression.Condition, value types.Datum, value2 *types.Datum) bool {
	switch chunkStats.Kind() {
	case types.KindInt64, types.KindUint64, types.KindFloat64:
		if chunkStats.RangeFilter != nil {
			return chunkStats.RangeFilter.DoesNotContain(cond, value, value2)
		}
		if chunkStats.MinMax != nil {
			return chunkStats.MinMax.DoesNotContain(cond, value, value2)
		}
	case types.KindString:
		if chunkStats.MinMax != nil {
			return chunkStats.MinMax.DoesNotContain(cond, value, value2)
		}
	}
	return false
}

// prunedTableStats derives a new statistics snapshot after numRowsPruned rows
// were removed by the predicate. Updating the snapshot keeps later
// selectivity estimates honest: for a table storing sorted values 1..100 in
// chunks of 10, `x > 90` selects 10% of the rows, but once nine of the ten
// chunks are pruned its selectivity on the surviving rows is 100%.
//
// The predicate's own column gets the dedicated pruned transform, every other
// column scales uniformly with the surviving fraction. Chunk- or table-level
// sort orders are not taken into account; the estimate is knowingly coarse.
func prunedTableStats(oldStats *statistics.Table, pred expression.ScanPredicate, numRowsPruned float64, value types.Datum, value2 *types.Datum) *statistics.Table {
	scale := 1 - numRowsPruned/oldStats.RowCount
	columns := make([]statistics.ColumnStats, len(oldStats.Columns))
	for i, col := range oldStats.Columns {
		if i == pred.ColOffset {
			columns[i] = col.Pruned(numRowsPruned, pred.Condition, value, value2)
		} else {
			columns[i] = col.Scaled(scale)
		}
	}
	return statistics.NewTable(oldStats.RowCount-numRowsPruned, columns)
}

// intersectChunkIDSets intersects the per-chain exclusion sets. A chunk is
// only globally prunable when every chain excludes it, and any empty set
// short-circuits to an empty result.
func intersectChunkIDSets(sets []*bitset.BitSet) *bitset.BitSet {
	if len(sets) == 0 || sets[0].None() {
		return bitset.New(0)
	}
	result := sets[0].Clone()
	for _, set := range sets[1:] {
		if set.None() {
			return bitset.New(0)
		}
		result.InPlaceIntersection(set)
	}
	return result
}

func containsChunkID(ids []storage.ChunkID, id storage.ChunkID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
