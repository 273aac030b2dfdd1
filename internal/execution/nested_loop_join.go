package execution

import (
	"context"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/types"
)

// NestedLoopJoinExecutor is a left-deep loop join: for each left row it
// re-initializes and fully rescans the right child, testing predicate on
// every pair. On LEFT it null-pads a left row that matched nothing, emitted
// exactly once. Grounded on nested_loop_join_executor.cpp.
type NestedLoopJoinExecutor struct {
	left, right Executor
	predicate   expression.Expression
	joinType    JoinType
	outSchema   *types.Schema

	leftTuple *types.Tuple
	leftRid   common.RID
	leftValid bool
	leftMatch bool // whether the current left row has matched any right row yet
	started   bool
}

func NewNestedLoopJoinExecutor(left, right Executor, predicate expression.Expression, joinType JoinType, outSchema *types.Schema) (*NestedLoopJoinExecutor, error) {
	if joinType != InnerJoin && joinType != LeftJoin {
		return nil, enginerr.ErrUnsupportedJoinType
	}
	return &NestedLoopJoinExecutor{left: left, right: right, predicate: predicate, joinType: joinType, outSchema: outSchema}, nil
}

func (e *NestedLoopJoinExecutor) Schema() *types.Schema { return e.outSchema }

func (e *NestedLoopJoinExecutor) Init(ctx context.Context) error {
	if err := e.left.Init(ctx); err != nil {
		return err
	}
	e.leftValid = false
	e.leftMatch = false
	e.started = false
	return nil
}

func (e *NestedLoopJoinExecutor) advanceLeft(ctx context.Context) (bool, error) {
	tuple, rid, ok, err := e.left.Next(ctx)
	if err != nil || !ok {
		e.leftValid = false
		return false, err
	}
	e.leftTuple, e.leftRid, e.leftValid = tuple, rid, true
	e.leftMatch = false
	if err := e.right.Init(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (e *NestedLoopJoinExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if !e.started {
		e.started = true
		if ok, err := e.advanceLeft(ctx); err != nil || !ok {
			return nil, common.RID{}, false, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		if !e.leftValid {
			return nil, common.RID{}, false, nil
		}

		rightTuple, _, ok, err := e.right.Next(ctx)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		if !ok {
			if e.joinType == LeftJoin && !e.leftMatch {
				out := joinTuples(e.leftTuple, nullTuple(e.right.Schema()))
				outRid := e.leftRid
				if _, err := e.advanceLeft(ctx); err != nil {
					return nil, common.RID{}, false, err
				}
				return out, outRid, true, nil
			}
			if ok, err := e.advanceLeft(ctx); err != nil || !ok {
				return nil, common.RID{}, false, err
			}
			continue
		}

		v := e.predicate.EvaluateJoin(e.leftTuple, e.left.Schema(), rightTuple, e.right.Schema())
		if v.IsNull() || v.AsInteger() == 0 {
			continue
		}
		e.leftMatch = true
		return joinTuples(e.leftTuple, rightTuple), e.leftRid, true, nil
	}
}

// joinTuples concatenates two tuples' values into one wider row.
func joinTuples(left, right *types.Tuple) *types.Tuple {
	values := make([]types.Value, 0, len(left.Values)+len(right.Values))
	values = append(values, left.Values...)
	values = append(values, right.Values...)
	return types.NewTuple(values)
}

// nullTuple builds an all-null tuple matching schema, for LEFT-join padding.
func nullTuple(schema *types.Schema) *types.Tuple {
	values := make([]types.Value, schema.ColumnCount())
	for i, col := range schema.Columns {
		values[i] = types.NewNull(col.Type)
	}
	return types.NewTuple(values)
}
