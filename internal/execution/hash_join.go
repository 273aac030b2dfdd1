package execution

import (
	"context"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/types"
)

// hashJoinKey is a comparable Go value built from a row's join-key columns,
// used to bucket rows in the build-side hash table. A NULL component makes
// the whole key unusable (never matches), matching SQL join-key semantics.
type hashJoinKey struct {
	parts [4]any
	n     int
}

// makeHashJoinKey evaluates exprs against a single side's tuple in isolation
// (plain Evaluate, not EvaluateJoin) — the optimizer's NLJ-to-HashJoin rule
// normalizes both sides' key expressions to tuple_idx=0 for exactly this
// reason, so build and probe never need the other side present.
func makeHashJoinKey(tuple *types.Tuple, schema *types.Schema, exprs []expression.Expression) (hashJoinKey, bool) {
	var key hashJoinKey
	key.n = len(exprs)
	for i, expr := range exprs {
		v := expr.Evaluate(tuple, schema)
		if v.IsNull() {
			return key, false
		}
		key.parts[i] = v.HashKey()
	}
	return key, true
}

// HashJoinExecutor builds a hash table over the right child keyed by
// rightKeyExprs, then probes it with each left row's leftKeyExprs, streaming
// the matching Cartesian product; LEFT emits a null-padded row for left rows
// with no match. Grounded on hash_join_executor.cpp.
type HashJoinExecutor struct {
	left, right                 Executor
	leftKeyExprs, rightKeyExprs []expression.Expression
	joinType                    JoinType
	outSchema                   *types.Schema

	buildTable map[hashJoinKey][]*types.Tuple

	leftTuple   *types.Tuple
	leftRid     common.RID
	matches     []*types.Tuple
	matchPos    int
	leftEmitted bool // whether the current left row has produced any output row yet
	leftValid   bool
}

func NewHashJoinExecutor(
	left, right Executor,
	leftKeyExprs, rightKeyExprs []expression.Expression,
	joinType JoinType,
	outSchema *types.Schema,
) (*HashJoinExecutor, error) {
	if joinType != InnerJoin && joinType != LeftJoin {
		return nil, enginerr.ErrUnsupportedJoinType
	}
	return &HashJoinExecutor{
		left: left, right: right,
		leftKeyExprs: leftKeyExprs, rightKeyExprs: rightKeyExprs,
		joinType: joinType, outSchema: outSchema,
	}, nil
}

func (e *HashJoinExecutor) Schema() *types.Schema { return e.outSchema }

// Init builds the right-side hash table before any row is emitted, checking
// ctx between build rows since that full drain is the join's real
// long-running phase, then primes the first left row.
func (e *HashJoinExecutor) Init(ctx context.Context) error {
	if err := e.left.Init(ctx); err != nil {
		return err
	}
	if err := e.right.Init(ctx); err != nil {
		return err
	}

	e.buildTable = make(map[hashJoinKey][]*types.Tuple)
	rightSchema := e.right.Schema()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tuple, _, ok, err := e.right.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key, valid := makeHashJoinKey(tuple, rightSchema, e.rightKeyExprs)
		if !valid {
			continue
		}
		e.buildTable[key] = append(e.buildTable[key], tuple)
	}

	e.leftValid = false
	e.matches = nil
	e.matchPos = 0
	return e.advanceLeft(ctx)
}

// advanceLeft pulls the next left row and computes its full match set from
// the build table (empty if the key is null or has no bucket).
func (e *HashJoinExecutor) advanceLeft(ctx context.Context) error {
	tuple, rid, ok, err := e.left.Next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		e.leftValid = false
		return nil
	}
	e.leftTuple, e.leftRid, e.leftValid = tuple, rid, true
	e.matchPos = 0
	e.leftEmitted = false

	key, valid := makeHashJoinKey(tuple, e.left.Schema(), e.leftKeyExprs)
	if !valid {
		e.matches = nil
		return nil
	}
	e.matches = e.buildTable[key]
	return nil
}

func (e *HashJoinExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	for e.leftValid {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		if e.matchPos < len(e.matches) {
			right := e.matches[e.matchPos]
			e.matchPos++
			e.leftEmitted = true
			return joinTuples(e.leftTuple, right), e.leftRid, true, nil
		}
		if !e.leftEmitted && e.joinType == LeftJoin {
			e.leftEmitted = true
			return joinTuples(e.leftTuple, nullTuple(e.right.Schema())), e.leftRid, true, nil
		}
		if err := e.advanceLeft(ctx); err != nil {
			return nil, common.RID{}, false, err
		}
	}
	return nil, common.RID{}, false, nil
}
