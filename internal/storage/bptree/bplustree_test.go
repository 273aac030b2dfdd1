package bptree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fewduckdb/internal/common"
	"fewduckdb/internal/storage/buffer"
	"fewduckdb/internal/storage/disk"
)

func newTestTree(t *testing.T, leafMax, internalMax int32) *BPlusTree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	dm := disk.NewManager(path)
	t.Cleanup(func() { _ = dm.Close() })
	bpm := buffer.NewPoolManager(64, 2, dm)

	headerPage, err := bpm.NewPage()
	require.NoError(t, err)
	headerID := headerPage.PageID()
	require.NoError(t, bpm.UnpinPage(headerID, false))

	return NewBPlusTree("t", headerID, bpm,
		Int32Comparator, WithLeafMaxSize(leafMax), WithInternalMaxSize(internalMax))
}

func TestBPlusTree_EmptyTreeHasNoValues(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	require.True(t, tree.IsEmpty())
	_, ok := tree.GetValue(1)
	require.False(t, ok)
}

func TestBPlusTree_InsertThenGetRoundTrip(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	keys := []int32{5, 3, 8, 1, 9, 2, 7, 4, 6, 0}
	for _, k := range keys {
		ok, err := tree.Insert(k, common.RID{PageID: common.PageID(k), SlotNum: 1})
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.False(t, tree.IsEmpty())

	for _, k := range keys {
		rid, ok := tree.GetValue(k)
		require.True(t, ok, "key %d", k)
		require.Equal(t, common.PageID(k), rid.PageID)
	}
	_, ok := tree.GetValue(100)
	require.False(t, ok)
}

func TestBPlusTree_InsertDuplicateKeyIsRejectedWithoutMutation(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	ok, err := tree.Insert(1, common.RID{PageID: 1})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tree.Insert(1, common.RID{PageID: 2})
	require.NoError(t, err)
	require.False(t, ok)

	rid, found := tree.GetValue(1)
	require.True(t, found)
	require.Equal(t, common.PageID(1), rid.PageID)
}

func TestBPlusTree_FirstSplitMatchesLeafMax3BoundaryScenario(t *testing.T) {
	// spec.md boundary scenario 3: leaf_max=3, insert 1,2,3 splits the root
	// leaf into L1=[1], L2=[2,3] under a new internal root with key 2.
	tree := newTestTree(t, 3, 3)
	for _, k := range []int32{1, 2, 3} {
		ok, err := tree.Insert(k, common.RID{PageID: common.PageID(k)})
		require.NoError(t, err)
		require.True(t, ok)
	}

	rootGuard := tree.bpm.FetchPageRead(tree.rootPageID())
	require.Equal(t, internalNodeType, pageTypeOf(rootGuard.Data()))
	root := castInternalNode(rootGuard.Data())
	require.EqualValues(t, 2, root.Size())
	require.EqualValues(t, 2, root.KeyAt(1))
	leftGuard := tree.bpm.FetchPageRead(root.ChildAt(0))
	rightGuard := tree.bpm.FetchPageRead(root.ChildAt(1))
	left := castLeafNode(leftGuard.Data())
	right := castLeafNode(rightGuard.Data())
	require.EqualValues(t, 1, left.Size())
	require.EqualValues(t, 1, left.KeyAt(0))
	require.Equal(t, root.ChildAt(1), left.NextPageID())
	require.EqualValues(t, 2, right.Size())
	require.EqualValues(t, 2, right.KeyAt(0))
	require.EqualValues(t, 3, right.KeyAt(1))
	rightGuard.Drop()
	leftGuard.Drop()
	rootGuard.Drop()

	it := tree.Begin()
	defer it.Close()
	var got []int32
	for !it.IsEnd() {
		got = append(got, it.Key())
		it.Next()
	}
	require.Equal(t, []int32{1, 2, 3}, got)
}

func TestBPlusTree_IteratorVisitsEveryKeyExactlyOnceInAscendingOrder(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	keys := []int32{40, 10, 30, 20, 50, 5, 45, 25, 15, 35}
	for _, k := range keys {
		_, err := tree.Insert(k, common.RID{PageID: common.PageID(k)})
		require.NoError(t, err)
	}

	it := tree.Begin()
	defer it.Close()
	var got []int32
	for !it.IsEnd() {
		got = append(got, it.Key())
		it.Next()
	}

	require.Len(t, got, len(keys))
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1], got[i])
	}
}

func TestBPlusTree_SeekPositionsAtFirstKeyGreaterOrEqual(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for _, k := range []int32{10, 20, 30, 40, 50} {
		_, err := tree.Insert(k, common.RID{PageID: common.PageID(k)})
		require.NoError(t, err)
	}

	it := tree.Seek(25)
	defer it.Close()
	require.False(t, it.IsEnd())
	require.EqualValues(t, 30, it.Key())
}

func TestBPlusTree_SeekPastEndIsExhausted(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for _, k := range []int32{1, 2, 3} {
		_, err := tree.Insert(k, common.RID{PageID: common.PageID(k)})
		require.NoError(t, err)
	}
	it := tree.Seek(1000)
	require.True(t, it.IsEnd())
}

func TestBPlusTree_ManyInsertsCascadeSplitsUpToInternalLevels(t *testing.T) {
	// Forces at least two levels of internal-node splitting with a small
	// fanout, verifying the tree stays internally consistent rather than
	// matching any specific illustrative shape.
	tree := newTestTree(t, 3, 3)
	const n = 200
	for i := int32(0); i < n; i++ {
		ok, err := tree.Insert(i, common.RID{PageID: common.PageID(i)})
		require.NoError(t, err)
		require.True(t, ok)
	}

	for i := int32(0); i < n; i++ {
		rid, ok := tree.GetValue(i)
		require.True(t, ok, "key %d", i)
		require.Equal(t, common.PageID(i), rid.PageID)
	}

	it := tree.Begin()
	defer it.Close()
	var count int32
	for !it.IsEnd() {
		require.Equal(t, count, it.Key())
		count++
		it.Next()
	}
	require.Equal(t, int32(n), count)
}

func TestBPlusTree_InternalSplitWithOddOverflowStaysConsistent(t *testing.T) {
	// internalMaxSize=4 overflows an internal node at 5 entries, an odd
	// total: this is the exact split-point arithmetic InternalNode's
	// MoveRightHalfTo must get right (right side gets the extra entry, not
	// the left). leafMaxSize=3 forces enough leaf splits to actually grow an
	// internal node to that size.
	tree := newTestTree(t, 3, 4)
	const n = 60
	for i := int32(0); i < n; i++ {
		ok, err := tree.Insert(i, common.RID{PageID: common.PageID(i)})
		require.NoError(t, err)
		require.True(t, ok)
	}

	for i := int32(0); i < n; i++ {
		rid, ok := tree.GetValue(i)
		require.True(t, ok, "key %d", i)
		require.Equal(t, common.PageID(i), rid.PageID)
	}

	it := tree.Begin()
	defer it.Close()
	var count int32
	for !it.IsEnd() {
		require.Equal(t, count, it.Key())
		count++
		it.Next()
	}
	require.Equal(t, int32(n), count)
}

func TestBPlusTree_RemoveIsANoOpOnEmptyTree(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	require.NotPanics(t, func() { tree.Remove(1) })
}
