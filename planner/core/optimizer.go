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
	"time"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/opaldb/opal/config"
	"github.com/opaldb/opal/storage"
	"github.com/opaldb/opal/util/logutil"
)

// logicalOptRule is one rewrite pass over the logical plan graph. Rules are
// instantiated per optimization so any per-pass state (caches keyed by node
// identity in particular) never leaks into the next plan.
type logicalOptRule interface {
	optimize(ctx context.Context, g *Graph, root NodeID) (NodeID, error)
	name() string
}

// Optimize runs the logical rewrite rules over the plan graph and returns the
// new root.
func Optimize(ctx context.Context, store *storage.Manager, g *Graph, root NodeID) (NodeID, error) {
	if g.Node(root) == nil {
		return root, errors.Errorf("optimize: root node %d outside graph", root)
	}
	var rules []logicalOptRule
	if config.GetGlobalConfig().Performance.EnableChunkPruning {
		rules = append(rules, newChunkPruner(store))
	}
	for _, rule := range rules {
		start := time.Now()
		var err error
		root, err = rule.optimize(ctx, g, root)
		if err != nil {
			return root, errors.Annotatef(err, "logical rewrite %s failed", rule.name())
		}
		logutil.Logger(ctx).Debug("logical rewrite applied",
			zap.String("rule", rule.name()),
			zap.Duration("cost", time.Since(start)))
	}
	return root, nil
}
