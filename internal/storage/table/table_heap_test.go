package table

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fewduckdb/internal/storage/buffer"
	"fewduckdb/internal/storage/disk"
)

func newTestHeap(t *testing.T, poolSize int) *TableHeap {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heap.db")
	dm := disk.NewManager(path)
	t.Cleanup(func() { _ = dm.Close() })
	bpm := buffer.NewPoolManager(poolSize, 2, dm)
	return NewTableHeap(bpm)
}

func TestTableHeap_InsertAndGetTupleRoundTrip(t *testing.T) {
	heap := newTestHeap(t, 8)
	rid, err := heap.InsertTuple(TupleMeta{}, []byte("row one"))
	require.NoError(t, err)

	meta, data, err := heap.GetTuple(rid)
	require.NoError(t, err)
	require.False(t, meta.IsDeleted)
	require.Equal(t, "row one", string(data))
}

func TestTableHeap_UpdateTupleMetaMarksDeleted(t *testing.T) {
	heap := newTestHeap(t, 8)
	rid, err := heap.InsertTuple(TupleMeta{}, []byte("to be deleted"))
	require.NoError(t, err)

	require.NoError(t, heap.UpdateTupleMeta(rid, TupleMeta{IsDeleted: true}))

	meta, data, err := heap.GetTuple(rid)
	require.NoError(t, err)
	require.True(t, meta.IsDeleted)
	require.Equal(t, "to be deleted", string(data))
}

func TestTableHeap_InsertSpansMultiplePagesAndIteratorVisitsAll(t *testing.T) {
	heap := newTestHeap(t, 8)
	const n = 500
	rids := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		rid, err := heap.InsertTuple(TupleMeta{}, []byte(fmt.Sprintf("row-%04d", i)))
		require.NoError(t, err)
		rids[rid.String()] = true
	}

	it := heap.MakeIterator()
	defer it.Close()
	seen := 0
	for !it.IsEnd() {
		rid, meta, data := it.Current()
		require.False(t, meta.IsDeleted)
		require.True(t, rids[rid.String()])
		require.Contains(t, string(data), "row-")
		seen++
		it.Next()
	}
	require.Equal(t, n, seen)
}

func TestTableHeap_InsertRejectsOversizedTuple(t *testing.T) {
	heap := newTestHeap(t, 8)
	_, err := heap.InsertTuple(TupleMeta{}, make([]byte, pageSize))
	require.Error(t, err)
}
