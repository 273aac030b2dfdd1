package execution

import (
	"context"

	"fewduckdb/internal/catalog"
	"fewduckdb/internal/common"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/storage/table"
	"fewduckdb/internal/types"
)

// countSchema is the single-column {count} output schema shared by Insert,
// Delete, and Update, matching how the reference DML executors report their
// row count as a single tuple rather than streaming affected rows.
var countSchema = types.NewSchema([]types.Column{{Name: "count", Type: types.Integer}})

func countTuple(n int) *types.Tuple {
	return types.NewTuple([]types.Value{types.NewInteger(int32(n))})
}

// InsertExecutor drains its child and inserts each tuple into the table
// heap and every secondary index, then emits a single {count} row. One-shot:
// a second Next call after the count row returns false, grounded on
// insert_executor.cpp.
type InsertExecutor struct {
	ctx       *ExecutorContext
	tableInfo *catalog.TableInfo
	indexes   []*catalog.IndexInfo
	child     Executor
	done      bool
}

func NewInsertExecutor(ctx *ExecutorContext, tableName string, child Executor) (*InsertExecutor, error) {
	info, err := ctx.Catalog.GetTable(tableName)
	if err != nil {
		return nil, err
	}
	return &InsertExecutor{
		ctx:       ctx,
		tableInfo: info,
		indexes:   ctx.Catalog.GetTableIndexes(tableName),
		child:     child,
	}, nil
}

func (e *InsertExecutor) Schema() *types.Schema { return countSchema }

func (e *InsertExecutor) Init(ctx context.Context) error {
	e.done = false
	return e.child.Init(ctx)
}

func (e *InsertExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if e.done {
		return nil, common.RID{}, false, nil
	}
	e.done = true

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		tuple, _, ok, err := e.child.Next(ctx)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		if !ok {
			break
		}
		data := encodeTuple(e.tableInfo.Schema, tuple)
		rid, err := e.tableInfo.Heap.InsertTuple(table.TupleMeta{}, data)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		for _, ix := range e.indexes {
			key := ix.KeyFromTuple(e.tableInfo.Schema, tuple)
			if _, err := ix.InsertEntry(key, rid); err != nil {
				return nil, common.RID{}, false, err
			}
		}
		count++
	}
	return countTuple(count), common.RID{}, true, nil
}

// DeleteExecutor drains its child's rids, marks each tuple deleted in the
// heap, and removes the corresponding entry from every secondary index,
// grounded on delete_executor.cpp.
type DeleteExecutor struct {
	ctx       *ExecutorContext
	tableInfo *catalog.TableInfo
	indexes   []*catalog.IndexInfo
	child     Executor
	done      bool
}

func NewDeleteExecutor(ctx *ExecutorContext, tableName string, child Executor) (*DeleteExecutor, error) {
	info, err := ctx.Catalog.GetTable(tableName)
	if err != nil {
		return nil, err
	}
	return &DeleteExecutor{
		ctx:       ctx,
		tableInfo: info,
		indexes:   ctx.Catalog.GetTableIndexes(tableName),
		child:     child,
	}, nil
}

func (e *DeleteExecutor) Schema() *types.Schema { return countSchema }

func (e *DeleteExecutor) Init(ctx context.Context) error {
	e.done = false
	return e.child.Init(ctx)
}

func (e *DeleteExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if e.done {
		return nil, common.RID{}, false, nil
	}
	e.done = true

	count := 0
	// Drain the child before touching the heap: a scanning child keeps a read
	// latch on its current page until it moves past it, and marking a tuple
	// deleted write-latches that same page.
	var rows []sortedRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		tuple, rid, ok, err := e.child.Next(ctx)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		if !ok {
			break
		}
		rows = append(rows, sortedRow{tuple: tuple, rid: rid})
	}
	for _, row := range rows {
		if err := e.tableInfo.Heap.UpdateTupleMeta(row.rid, table.TupleMeta{IsDeleted: true}); err != nil {
			return nil, common.RID{}, false, err
		}
		for _, ix := range e.indexes {
			key := ix.KeyFromTuple(e.tableInfo.Schema, row.tuple)
			ix.DeleteEntry(key)
		}
		count++
	}
	return countTuple(count), common.RID{}, true, nil
}

// UpdateExecutor drains its child, deletes each input row from the heap and
// indexes, synthesizes a new tuple from targetExprs, and inserts it back into
// the heap and indexes, grounded on update_executor.cpp.
type UpdateExecutor struct {
	ctx         *ExecutorContext
	tableInfo   *catalog.TableInfo
	indexes     []*catalog.IndexInfo
	child       Executor
	targetExprs []expression.Expression
	done        bool
}

func NewUpdateExecutor(ctx *ExecutorContext, tableName string, child Executor, targetExprs []expression.Expression) (*UpdateExecutor, error) {
	info, err := ctx.Catalog.GetTable(tableName)
	if err != nil {
		return nil, err
	}
	return &UpdateExecutor{
		ctx:         ctx,
		tableInfo:   info,
		indexes:     ctx.Catalog.GetTableIndexes(tableName),
		child:       child,
		targetExprs: targetExprs,
	}, nil
}

func (e *UpdateExecutor) Schema() *types.Schema { return countSchema }

func (e *UpdateExecutor) Init(ctx context.Context) error {
	e.done = false
	return e.child.Init(ctx)
}

func (e *UpdateExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if e.done {
		return nil, common.RID{}, false, nil
	}
	e.done = true

	count := 0
	// Drain the child first, for the same latch reason as DeleteExecutor.
	var rows []sortedRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, common.RID{}, false, err
		}
		tuple, rid, ok, err := e.child.Next(ctx)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		if !ok {
			break
		}
		rows = append(rows, sortedRow{tuple: tuple, rid: rid})
	}
	for _, row := range rows {
		oldTuple, rid := row.tuple, row.rid

		for _, ix := range e.indexes {
			key := ix.KeyFromTuple(e.tableInfo.Schema, oldTuple)
			ix.DeleteEntry(key)
		}
		if err := e.tableInfo.Heap.UpdateTupleMeta(rid, table.TupleMeta{IsDeleted: true}); err != nil {
			return nil, common.RID{}, false, err
		}

		values := make([]types.Value, len(e.targetExprs))
		for i, expr := range e.targetExprs {
			values[i] = expr.Evaluate(oldTuple, e.tableInfo.Schema)
		}
		newTuple := types.NewTuple(values)
		data := encodeTuple(e.tableInfo.Schema, newTuple)
		newRid, err := e.tableInfo.Heap.InsertTuple(table.TupleMeta{}, data)
		if err != nil {
			return nil, common.RID{}, false, err
		}
		for _, ix := range e.indexes {
			key := ix.KeyFromTuple(e.tableInfo.Schema, newTuple)
			if _, err := ix.InsertEntry(key, newRid); err != nil {
				return nil, common.RID{}, false, err
			}
		}
		count++
	}
	return countTuple(count), common.RID{}, true, nil
}
