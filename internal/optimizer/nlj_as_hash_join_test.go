package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fewduckdb/internal/execution"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/types"
)

func leafSchema(names ...string) *execution.LeafPlan {
	cols := make([]types.Column, len(names))
	for i, n := range names {
		cols[i] = types.Column{Name: n, Type: types.Integer}
	}
	return &execution.LeafPlan{Schema: types.NewSchema(cols)}
}

func TestOptimizeNLJAsHashJoin_SingleEqualityRewrites(t *testing.T) {
	left := leafSchema("a")
	right := leafSchema("b")
	predicate := expression.NewComparison(
		expression.NewColumnValue(0, 0, types.Integer),
		expression.NewColumnValue(1, 0, types.Integer),
		expression.Equal,
	)
	nlj := &execution.NestedLoopJoinPlan{
		Left: left, Right: right, Predicate: predicate,
		JoinType: execution.InnerJoin, Schema: types.NewSchema(nil),
	}

	out := OptimizeNLJAsHashJoin(nlj)

	hj, ok := out.(*execution.HashJoinPlan)
	require.True(t, ok, "expected rewrite to HashJoinPlan")
	require.Len(t, hj.LeftKeyExprs, 1)
	require.Len(t, hj.RightKeyExprs, 1)
}

func TestOptimizeNLJAsHashJoin_TwoColumnAndPredicateRewrites(t *testing.T) {
	// predicate l.a = r.b AND l.c = r.d on tuple indices (0,1), matching
	// boundary scenario 6.
	left := leafSchema("a", "c")
	right := leafSchema("b", "d")
	predicate := expression.NewLogic(
		expression.NewComparison(
			expression.NewColumnValue(0, 0, types.Integer),
			expression.NewColumnValue(1, 0, types.Integer),
			expression.Equal,
		),
		expression.NewComparison(
			expression.NewColumnValue(0, 1, types.Integer),
			expression.NewColumnValue(1, 1, types.Integer),
			expression.Equal,
		),
		expression.And,
	)
	nlj := &execution.NestedLoopJoinPlan{
		Left: left, Right: right, Predicate: predicate,
		JoinType: execution.InnerJoin, Schema: types.NewSchema(nil),
	}

	out := OptimizeNLJAsHashJoin(nlj)

	hj, ok := out.(*execution.HashJoinPlan)
	require.True(t, ok, "expected rewrite to HashJoinPlan")
	require.Len(t, hj.LeftKeyExprs, 2)
	require.Len(t, hj.RightKeyExprs, 2)
	for _, e := range append(append([]expression.Expression{}, hj.LeftKeyExprs...), hj.RightKeyExprs...) {
		col := e.(*expression.ColumnValueExpression)
		require.Equal(t, 0, col.TupleIdx, "normalized key expressions must be tuple_idx 0")
	}
}

func TestOptimizeNLJAsHashJoin_NonEqualityPredicateIsUnchanged(t *testing.T) {
	left := leafSchema("a")
	right := leafSchema("b")
	predicate := expression.NewComparison(
		expression.NewColumnValue(0, 0, types.Integer),
		expression.NewColumnValue(1, 0, types.Integer),
		expression.LessThan,
	)
	nlj := &execution.NestedLoopJoinPlan{
		Left: left, Right: right, Predicate: predicate,
		JoinType: execution.InnerJoin, Schema: types.NewSchema(nil),
	}

	out := OptimizeNLJAsHashJoin(nlj)

	_, isHashJoin := out.(*execution.HashJoinPlan)
	require.False(t, isHashJoin)
	stillNLJ, ok := out.(*execution.NestedLoopJoinPlan)
	require.True(t, ok)
	require.Equal(t, predicate, stillNLJ.Predicate)
}
