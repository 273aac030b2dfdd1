// Package execution implements the Volcano-model executors driven by plan
// nodes: every executor exposes Init and Next, pulling rows from its
// children one at a time. Grounded directly on BusTub's execution engine
// (original C++ sources under execution/), since none of the pack's Go
// repos implement a Volcano iterator model.
package execution

import (
	"context"

	"fewduckdb/internal/catalog"
	"fewduckdb/internal/common"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/types"
)

// Executor is the common interface every operator implements: Init resets
// (and recursively re-initializes) all state, and Next pulls the following
// output row, returning false once exhausted. Both take a context.Context so
// a long-running scan or join build phase can be cancelled between rows
// without waiting for a full drain.
type Executor interface {
	Init(ctx context.Context) error
	Next(ctx context.Context) (*types.Tuple, common.RID, bool, error)
	Schema() *types.Schema
}

// ExecutorContext threads the catalog through plan construction; every
// executor is built with one.
type ExecutorContext struct {
	Catalog *catalog.Catalog
}

// OrderByType is DESC or ASC, one direction per sort key.
type OrderByType int

const (
	Asc OrderByType = iota
	Desc
)

// OrderBy pairs a sort direction with the expression that produces the key.
type OrderBy struct {
	Direction OrderByType
	Expr      expression.Expression
}

// JoinType is the join kind a join plan node/executor supports.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)
