package execution

import (
	"context"
	"sort"

	"fewduckdb/internal/common"
	"fewduckdb/internal/types"
)

// sortedRow pairs a materialized tuple with its originating rid, since Sort
// and TopN both need to preserve rid through reordering.
type sortedRow struct {
	tuple *types.Tuple
	rid   common.RID
}

// compareRows applies the ordered list of (direction, expression) pairs with
// lexicographic tie-break: the first key that differs decides the order.
func compareRows(a, b sortedRow, schema *types.Schema, orderBys []OrderBy) bool {
	for _, ob := range orderBys {
		av := ob.Expr.Evaluate(a.tuple, schema)
		bv := ob.Expr.Evaluate(b.tuple, schema)
		if av.Equal(bv) || (av.IsNull() && bv.IsNull()) {
			continue
		}
		less := av.Less(bv)
		if ob.Direction == Desc {
			less = !less
		}
		return less
	}
	return false
}

// SortExecutor materializes its child, sorts by the ordered key list, then
// streams results, grounded on sort_executor.cpp.
type SortExecutor struct {
	child    Executor
	orderBys []OrderBy
	rows     []sortedRow
	pos      int
}

func NewSortExecutor(child Executor, orderBys []OrderBy) *SortExecutor {
	return &SortExecutor{child: child, orderBys: orderBys}
}

func (e *SortExecutor) Schema() *types.Schema { return e.child.Schema() }

// Init materializes the whole child, checking ctx between rows since this is
// where a Sort's real work — the full drain — actually happens; Next itself
// only walks the already-sorted slice.
func (e *SortExecutor) Init(ctx context.Context) error {
	if err := e.child.Init(ctx); err != nil {
		return err
	}
	e.rows = e.rows[:0]
	e.pos = 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tuple, rid, ok, err := e.child.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		e.rows = append(e.rows, sortedRow{tuple: tuple, rid: rid})
	}
	schema := e.child.Schema()
	sort.SliceStable(e.rows, func(i, j int) bool {
		return compareRows(e.rows[i], e.rows[j], schema, e.orderBys)
	})
	return nil
}

func (e *SortExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if e.pos >= len(e.rows) {
		return nil, common.RID{}, false, nil
	}
	row := e.rows[e.pos]
	e.pos++
	return row.tuple, row.rid, true, nil
}
