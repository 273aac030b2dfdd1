package execution

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fewduckdb/internal/catalog"
	"fewduckdb/internal/common"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/storage/bptree"
	"fewduckdb/internal/storage/buffer"
	"fewduckdb/internal/storage/disk"
	"fewduckdb/internal/storage/table"
	"fewduckdb/internal/types"
)

func newTestEngine(t *testing.T) (*ExecutorContext, *buffer.PoolManager) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.db")
	dm := disk.NewManager(path)
	t.Cleanup(func() { _ = dm.Close() })
	bpm := buffer.NewPoolManager(64, 2, dm)
	return &ExecutorContext{Catalog: catalog.NewCatalog()}, bpm
}

func widgetsSchema() *types.Schema {
	return types.NewSchema([]types.Column{{Name: "id", Type: types.Integer}, {Name: "qty", Type: types.Integer}})
}

func setupWidgetsTable(t *testing.T, ctx *ExecutorContext, bpm *buffer.PoolManager) *catalog.TableInfo {
	heap := table.NewTableHeap(bpm)
	info := ctx.Catalog.CreateTable("widgets", widgetsSchema(), heap)

	headerPage, err := bpm.NewPage()
	require.NoError(t, err)
	require.NoError(t, bpm.UnpinPage(headerPage.PageID(), false))
	tree := bptree.NewBPlusTree("widgets_id_idx", headerPage.PageID(), bpm, bptree.Int32Comparator)
	ctx.Catalog.CreateIndex("widgets_id_idx", "widgets", widgetsSchema(), []int{0}, tree)
	return info
}

// valuesExecutor feeds a fixed list of literal rows, standing in for a
// Values plan node feeding Insert (query construction is out of scope, only
// executor wiring is under test here).
type valuesExecutor struct {
	schema *types.Schema
	rows   [][]int32
	pos    int
}

func (v *valuesExecutor) Schema() *types.Schema           { return v.schema }
func (v *valuesExecutor) Init(ctx context.Context) error  { v.pos = 0; return nil }
func (v *valuesExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if v.pos >= len(v.rows) {
		return nil, common.RID{}, false, nil
	}
	row := v.rows[v.pos]
	v.pos++
	values := make([]types.Value, len(row))
	for i, x := range row {
		values[i] = types.NewInteger(x)
	}
	return types.NewTuple(values), common.RID{}, true, nil
}

func TestInsertThenSeqScanThenIndexScan(t *testing.T) {
	ctx, bpm := newTestEngine(t)
	setupWidgetsTable(t, ctx, bpm)
	bg := context.Background()

	values := &valuesExecutor{schema: widgetsSchema(), rows: [][]int32{{1, 10}, {2, 20}, {3, 30}}}
	insert, err := NewInsertExecutor(ctx, "widgets", values)
	require.NoError(t, err)
	require.NoError(t, insert.Init(bg))
	countTuple, _, ok, err := insert.Next(bg)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 3, countTuple.Values[0].AsInteger())

	scan, err := NewSeqScanExecutor(ctx, "widgets", nil)
	require.NoError(t, err)
	require.NoError(t, scan.Init(bg))
	seen := 0
	for {
		_, _, ok, err := scan.Next(bg)
		require.NoError(t, err)
		if !ok {
			break
		}
		seen++
	}
	require.Equal(t, 3, seen)

	idxScan, err := NewIndexScanExecutor(ctx, "widgets", "widgets_id_idx")
	require.NoError(t, err)
	require.NoError(t, idxScan.Init(bg))
	var ids []int32
	for {
		tuple, _, ok, err := idxScan.Next(bg)
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, tuple.Values[0].AsInteger())
	}
	require.Equal(t, []int32{1, 2, 3}, ids)
}

func TestSeqScanRespectsCancelledContext(t *testing.T) {
	ctx, bpm := newTestEngine(t)
	setupWidgetsTable(t, ctx, bpm)
	bg := context.Background()

	values := &valuesExecutor{schema: widgetsSchema(), rows: [][]int32{{1, 10}, {2, 20}}}
	insert, err := NewInsertExecutor(ctx, "widgets", values)
	require.NoError(t, err)
	require.NoError(t, insert.Init(bg))
	_, _, _, err = insert.Next(bg)
	require.NoError(t, err)

	scan, err := NewSeqScanExecutor(ctx, "widgets", nil)
	require.NoError(t, err)
	require.NoError(t, scan.Init(bg))

	cancelled, cancel := context.WithCancel(bg)
	cancel()
	_, _, _, err = scan.Next(cancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeleteRemovesFromHeapAndIndex(t *testing.T) {
	ctx, bpm := newTestEngine(t)
	setupWidgetsTable(t, ctx, bpm)
	bg := context.Background()

	values := &valuesExecutor{schema: widgetsSchema(), rows: [][]int32{{1, 10}, {2, 20}}}
	insert, err := NewInsertExecutor(ctx, "widgets", values)
	require.NoError(t, err)
	require.NoError(t, insert.Init(bg))
	_, _, _, err = insert.Next(bg)
	require.NoError(t, err)

	filter := expression.NewComparison(
		expression.NewColumnValue(0, 0, types.Integer),
		expression.NewConstant(types.NewInteger(1)),
		expression.Equal,
	)
	scanToDelete, err := NewSeqScanExecutor(ctx, "widgets", filter)
	require.NoError(t, err)
	del, err := NewDeleteExecutor(ctx, "widgets", scanToDelete)
	require.NoError(t, err)
	require.NoError(t, del.Init(bg))
	countTuple, _, ok, err := del.Next(bg)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, countTuple.Values[0].AsInteger())

	scan, err := NewSeqScanExecutor(ctx, "widgets", nil)
	require.NoError(t, err)
	require.NoError(t, scan.Init(bg))
	var remaining []int32
	for {
		tuple, _, ok, err := scan.Next(bg)
		require.NoError(t, err)
		if !ok {
			break
		}
		remaining = append(remaining, tuple.Values[0].AsInteger())
	}
	require.Equal(t, []int32{2}, remaining)

	idxScan, err := NewIndexScanExecutor(ctx, "widgets", "widgets_id_idx")
	require.NoError(t, err)
	require.NoError(t, idxScan.Init(bg))
	idxTuple, _, ok, err := idxScan.Next(bg)
	require.NoError(t, err)
	require.True(t, ok, "index scan still yields the live row")
	require.EqualValues(t, 2, idxTuple.Values[0].AsInteger(),
		"the key-1 entry stays in the tree since Remove is a no-op, but its tombstoned heap row is skipped")
}

// TestUpdateRewritesHeapRowAndIndexEntry mirrors
// TestDeleteRemovesFromHeapAndIndex's shape but exercises UpdateExecutor: the
// update-in-place semantics are delete-old-then-insert-new (mutate.go has no
// destructive in-slot rewrite), so a plain scan afterward must show the new
// row and not the old one. The update targets the indexed id column itself
// (1 -> 100) rather than qty, since that is the only way to observe
// InsertEntry actually landing a new tree entry: DeleteEntry's underlying
// BPlusTree.Remove is a no-op (see TestDeleteRemovesFromHeapAndIndex), so an
// update that kept the same key would hit InsertEntry's duplicate-key
// rejection and silently leave the tree pointing at the tombstoned row.
func TestUpdateRewritesHeapRowAndIndexEntry(t *testing.T) {
	ctx, bpm := newTestEngine(t)
	setupWidgetsTable(t, ctx, bpm)
	bg := context.Background()

	values := &valuesExecutor{schema: widgetsSchema(), rows: [][]int32{{1, 10}, {2, 20}}}
	insert, err := NewInsertExecutor(ctx, "widgets", values)
	require.NoError(t, err)
	require.NoError(t, insert.Init(bg))
	_, _, _, err = insert.Next(bg)
	require.NoError(t, err)

	filter := expression.NewComparison(
		expression.NewColumnValue(0, 0, types.Integer),
		expression.NewConstant(types.NewInteger(1)),
		expression.Equal,
	)
	scanToUpdate, err := NewSeqScanExecutor(ctx, "widgets", filter)
	require.NoError(t, err)
	targetExprs := []expression.Expression{
		expression.NewConstant(types.NewInteger(100)),
		expression.NewColumnValue(0, 1, types.Integer),
	}
	upd, err := NewUpdateExecutor(ctx, "widgets", scanToUpdate, targetExprs)
	require.NoError(t, err)
	require.NoError(t, upd.Init(bg))
	countTuple, _, ok, err := upd.Next(bg)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, countTuple.Values[0].AsInteger())

	scan, err := NewSeqScanExecutor(ctx, "widgets", nil)
	require.NoError(t, err)
	require.NoError(t, scan.Init(bg))
	rows := map[int32]int32{}
	for {
		tuple, _, ok, err := scan.Next(bg)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows[tuple.Values[0].AsInteger()] = tuple.Values[1].AsInteger()
	}
	require.Equal(t, map[int32]int32{2: 20, 100: 10}, rows)

	idxScan, err := NewIndexScanExecutor(ctx, "widgets", "widgets_id_idx")
	require.NoError(t, err)
	require.NoError(t, idxScan.Init(bg))
	var ids []int32
	for {
		tuple, _, ok, err := idxScan.Next(bg)
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, tuple.Values[0].AsInteger())
	}
	require.Equal(t, []int32{2, 100}, ids, "the stale key-1 entry is skipped because its heap row is tombstoned")
}
