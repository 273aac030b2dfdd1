package execution

import (
	"container/heap"
	"context"

	"fewduckdb/internal/common"
	"fewduckdb/internal/types"
)

// topNHeap is a bounded max-heap ordered so its root is always the *worst*
// row seen so far (last in the desired output order): pushing past capacity
// N means popping the root first, so only the N best rows survive. Grounded
// on topn_executor.cpp's std::priority_queue capped at n, drained via
// crbegin/crend into ascending output.
type topNHeap struct {
	rows     []sortedRow
	schema   *types.Schema
	orderBys []OrderBy
}

func (h *topNHeap) Len() int { return len(h.rows) }

// Less defines heap order: row i is "less" (nearer the root) than row j when
// i is worse in output order than j, i.e. compareRows(j, i) — the desired
// comparator inverted, so the worst row floats to the root.
func (h *topNHeap) Less(i, j int) bool {
	return compareRows(h.rows[j], h.rows[i], h.schema, h.orderBys)
}

func (h *topNHeap) Swap(i, j int) { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }

func (h *topNHeap) Push(x any) { h.rows = append(h.rows, x.(sortedRow)) }

func (h *topNHeap) Pop() any {
	n := len(h.rows)
	row := h.rows[n-1]
	h.rows = h.rows[:n-1]
	return row
}

// TopNExecutor keeps the best N rows (by the same ordering Sort uses) seen
// from its child, then streams them out in ascending (best-first) order.
type TopNExecutor struct {
	child    Executor
	orderBys []OrderBy
	n        int
	output   []sortedRow
	pos      int
}

func NewTopNExecutor(child Executor, orderBys []OrderBy, n int) *TopNExecutor {
	return &TopNExecutor{child: child, orderBys: orderBys, n: n}
}

func (e *TopNExecutor) Schema() *types.Schema { return e.child.Schema() }

func (e *TopNExecutor) Init(ctx context.Context) error {
	if err := e.child.Init(ctx); err != nil {
		return err
	}
	e.pos = 0
	e.output = e.output[:0]
	if e.n <= 0 {
		return nil
	}

	schema := e.child.Schema()
	h := &topNHeap{schema: schema, orderBys: e.orderBys}
	heap.Init(h)
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
		row := sortedRow{tuple: tuple, rid: rid}
		if h.Len() < e.n {
			heap.Push(h, row)
			continue
		}
		if compareRows(row, h.rows[0], schema, e.orderBys) {
			heap.Pop(h)
			heap.Push(h, row)
		}
	}

	e.output = make([]sortedRow, h.Len())
	for i := len(e.output) - 1; i >= 0; i-- {
		e.output[i] = heap.Pop(h).(sortedRow)
	}
	return nil
}

func (e *TopNExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if e.pos >= len(e.output) {
		return nil, common.RID{}, false, nil
	}
	row := e.output[e.pos]
	e.pos++
	return row.tuple, row.rid, true, nil
}
