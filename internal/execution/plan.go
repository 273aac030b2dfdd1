package execution

import (
	"fewduckdb/internal/expression"
	"fewduckdb/internal/types"
)

// PlanNode is the pre-execution plan tree the optimizer rewrites and the
// executor builder consumes; it is deliberately minimal (only the join plan
// shapes the NLJ-to-HashJoin rule cares about are distinguished, everything
// else is an opaque leaf) since query planning itself is out of scope.
type PlanNode interface {
	Children() []PlanNode
	OutputSchema() *types.Schema
}

// LeafPlan stands in for any non-join plan node (scan, filter, projection,
// sort, ...): the optimizer passes it through unchanged.
type LeafPlan struct {
	Schema *types.Schema
}

func (p *LeafPlan) Children() []PlanNode        { return nil }
func (p *LeafPlan) OutputSchema() *types.Schema { return p.Schema }

// NestedLoopJoinPlan is the plan node the optimizer looks for.
type NestedLoopJoinPlan struct {
	Left, Right PlanNode
	Predicate   expression.Expression
	JoinType    JoinType
	Schema      *types.Schema
}

func (p *NestedLoopJoinPlan) Children() []PlanNode        { return []PlanNode{p.Left, p.Right} }
func (p *NestedLoopJoinPlan) OutputSchema() *types.Schema { return p.Schema }

// WithChildren returns a copy of p with new left/right children, used by the
// optimizer's post-order rewrite.
func (p *NestedLoopJoinPlan) WithChildren(left, right PlanNode) *NestedLoopJoinPlan {
	cp := *p
	cp.Left, cp.Right = left, right
	return &cp
}

// HashJoinPlan is what a NestedLoopJoinPlan with an equi-join predicate gets
// rewritten into.
type HashJoinPlan struct {
	Left, Right                 PlanNode
	LeftKeyExprs, RightKeyExprs []expression.Expression
	JoinType                    JoinType
	Schema                      *types.Schema
}

func (p *HashJoinPlan) Children() []PlanNode        { return []PlanNode{p.Left, p.Right} }
func (p *HashJoinPlan) OutputSchema() *types.Schema { return p.Schema }
