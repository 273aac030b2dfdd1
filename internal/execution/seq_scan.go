package execution

import (
	"context"

	"fewduckdb/internal/catalog"
	"fewduckdb/internal/common"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/storage/table"
	"fewduckdb/internal/types"
)

// SeqScanExecutor walks a table heap's iterator start to finish, skipping
// deleted tuples and applying an optional filter predicate, grounded on
// seq_scan_executor.cpp.
type SeqScanExecutor struct {
	ctx       *ExecutorContext
	tableInfo *catalog.TableInfo
	filter    expression.Expression // nil means no filter
	it        *table.Iterator
}

func NewSeqScanExecutor(ctx *ExecutorContext, tableName string, filter expression.Expression) (*SeqScanExecutor, error) {
	info, err := ctx.Catalog.GetTable(tableName)
	if err != nil {
		return nil, err
	}
	return &SeqScanExecutor{ctx: ctx, tableInfo: info, filter: filter}, nil
}

func (e *SeqScanExecutor) Schema() *types.Schema { return e.tableInfo.Schema }

func (e *SeqScanExecutor) Init(ctx context.Context) error {
	if e.it != nil {
		e.it.Close()
	}
	e.it = e.tableInfo.Heap.MakeIterator()
	return nil
}

// Next walks forward until it finds a live tuple passing filter, checking
// ctx between every candidate row so a caller can bound how long a full
// table scan is allowed to run.
func (e *SeqScanExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	for !e.it.IsEnd() {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		rid, meta, data := e.it.Current()
		e.it.Next()
		if meta.IsDeleted {
			continue
		}
		tuple := decodeTuple(e.tableInfo.Schema, data)
		if e.filter != nil {
			v := e.filter.Evaluate(tuple, e.tableInfo.Schema)
			if v.IsNull() || v.AsInteger() == 0 {
				continue
			}
		}
		return tuple, rid, true, nil
	}
	return nil, common.RID{}, false, nil
}
