package execution

import (
	"context"

	"fewduckdb/internal/catalog"
	"fewduckdb/internal/common"
	"fewduckdb/internal/storage/bptree"
	"fewduckdb/internal/types"
)

// IndexScanExecutor walks a B+ tree index's ascending iterator, fetching the
// base tuple for each (key, rid) pair and skipping deleted rows, grounded on
// index_scan_executor.cpp.
type IndexScanExecutor struct {
	tableInfo *catalog.TableInfo
	indexInfo *catalog.IndexInfo
	it        *bptree.Iterator
}

func NewIndexScanExecutor(ctx *ExecutorContext, tableName, indexName string) (*IndexScanExecutor, error) {
	tableInfo, err := ctx.Catalog.GetTable(tableName)
	if err != nil {
		return nil, err
	}
	indexInfo, err := ctx.Catalog.GetIndex(indexName, tableName)
	if err != nil {
		return nil, err
	}
	return &IndexScanExecutor{tableInfo: tableInfo, indexInfo: indexInfo}, nil
}

func (e *IndexScanExecutor) Schema() *types.Schema { return e.tableInfo.Schema }

func (e *IndexScanExecutor) Init(ctx context.Context) error {
	if e.it != nil {
		e.it.Close()
	}
	e.it = e.indexInfo.Tree.Begin()
	return nil
}

func (e *IndexScanExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	for !e.it.IsEnd() {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		rid := e.it.Value()
		e.it.Next()
		meta, data, err := e.tableInfo.Heap.GetTuple(rid)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		if meta.IsDeleted {
			continue
		}
		return decodeTuple(e.tableInfo.Schema, data), rid, true, nil
	}
	return nil, common.RID{}, false, nil
}
