// Package optimizer implements the single rewrite rule named by the storage
// engine's executor layer: turning an equi-join NestedLoopJoin into a
// HashJoin. Grounded directly on
// original_source/src/optimizer/nlj_as_hash_join.cpp.
package optimizer

import (
	"fewduckdb/internal/execution"
	"fewduckdb/internal/expression"
)

// OptimizeNLJAsHashJoin walks plan post-order (children first), rewriting
// every NestedLoopJoinPlan whose predicate is a single equality or an AND of
// two equalities between one column from each side into a HashJoinPlan.
// Every other plan shape is returned unchanged.
func OptimizeNLJAsHashJoin(plan execution.PlanNode) execution.PlanNode {
	nlj, ok := plan.(*execution.NestedLoopJoinPlan)
	if !ok {
		return plan
	}

	left := OptimizeNLJAsHashJoin(nlj.Left)
	right := OptimizeNLJAsHashJoin(nlj.Right)
	nlj = nlj.WithChildren(left, right)

	if cmp, ok := nlj.Predicate.(*expression.ComparisonExpression); ok {
		if l, r, ok := extractEqualityColumns(cmp); ok {
			return &execution.HashJoinPlan{
				Left: nlj.Left, Right: nlj.Right,
				LeftKeyExprs: []expression.Expression{l}, RightKeyExprs: []expression.Expression{r},
				JoinType: nlj.JoinType, Schema: nlj.Schema,
			}
		}
	}

	if logic, ok := nlj.Predicate.(*expression.LogicExpression); ok && logic.Op == expression.And {
		leftCmp, leftOK := logic.Left.(*expression.ComparisonExpression)
		rightCmp, rightOK := logic.Right.(*expression.ComparisonExpression)
		if leftOK && rightOK {
			l1, r1, ok1 := extractEqualityColumns(leftCmp)
			l2, r2, ok2 := extractEqualityColumns(rightCmp)
			if ok1 && ok2 {
				return &execution.HashJoinPlan{
					Left: nlj.Left, Right: nlj.Right,
					LeftKeyExprs:  []expression.Expression{l1, l2},
					RightKeyExprs: []expression.Expression{r1, r2},
					JoinType:      nlj.JoinType, Schema: nlj.Schema,
				}
			}
		}
	}

	return nlj
}

// extractEqualityColumns checks that cmp is `ColumnValueExpression(tuple, a)
// = ColumnValueExpression(tuple, b)` where one side has tuple_idx 0 and the
// other 1 (in either order), returning the left-side and right-side
// expressions each normalized to tuple_idx 0, per the reference rule's
// ExtractColExprForColEqualComparison.
func extractEqualityColumns(cmp *expression.ComparisonExpression) (leftExpr, rightExpr *expression.ColumnValueExpression, ok bool) {
	if cmp.Op != expression.Equal {
		return nil, nil, false
	}
	l, lok := cmp.Left.(*expression.ColumnValueExpression)
	r, rok := cmp.Right.(*expression.ColumnValueExpression)
	if !lok || !rok {
		return nil, nil, false
	}
	lNorm := expression.NewColumnValue(0, l.ColIdx, l.ReturnAs)
	rNorm := expression.NewColumnValue(0, r.ColIdx, r.ReturnAs)
	switch {
	case l.TupleIdx == 0 && r.TupleIdx == 1:
		return lNorm, rNorm, true
	case l.TupleIdx == 1 && r.TupleIdx == 0:
		return rNorm, lNorm, true
	default:
		return nil, nil, false
	}
}
