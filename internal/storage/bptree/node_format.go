// Package bptree implements a concurrent, latch-crabbing B+ tree index over
// the buffer pool. Keys are int32 (mirroring BusTub's canonical
// BPlusTreeIndexForOneIntegerColumn instantiation, the one concrete tree the
// reference executors are written against) and values are common.RID.
package bptree

import (
	"math"
	"unsafe"

	"fewduckdb/internal/common"
)

// nodeType distinguishes a page's role in the tree.
type nodeType int32

const (
	invalidNode nodeType = iota
	internalNodeType
	leafNodeType
)

// HeaderPage is the tree's single metadata page: it holds nothing but the
// current root page id, so that root changes (on the very first insert, and
// on every root split) have one serialization point.
type HeaderPage struct {
	RootPageID common.PageID
}

func castHeaderPage(data []byte) *HeaderPage {
	return (*HeaderPage)(unsafe.Pointer(&data[0]))
}

// nodeHeader is the common prefix shared by leaf and internal node layouts,
// mirroring the BPlusTreePage base class in the reference design.
type nodeHeader struct {
	pageType nodeType
	size     int32
	maxSize  int32
}

// leafEntry is one (key, value) slot of a leaf node.
type leafEntry struct {
	key   int32
	value common.RID
}

// LeafNode overlays a leaf page: a header, a next-leaf pointer for the
// range-iterator linked list, and an array of sorted (key, value) pairs.
type LeafNode struct {
	nodeHeader
	nextPageID common.PageID
	entries    struct{}
}

func castLeafNode(data []byte) *LeafNode {
	return (*LeafNode)(unsafe.Pointer(&data[0]))
}

func (n *LeafNode) initLeaf(maxSize int32) {
	n.pageType = leafNodeType
	n.size = 0
	n.maxSize = maxSize
	n.nextPageID = common.InvalidPageID
}

func (n *LeafNode) Size() int32                    { return n.size }
func (n *LeafNode) MaxSize() int32                 { return n.maxSize }
func (n *LeafNode) IsFull() bool                   { return n.size >= n.maxSize }
func (n *LeafNode) NextPageID() common.PageID      { return n.nextPageID }
func (n *LeafNode) SetNextPageID(id common.PageID) { n.nextPageID = id }

func (n *LeafNode) slots() *[math.MaxInt32 / 12]leafEntry {
	return (*[math.MaxInt32 / 12]leafEntry)(unsafe.Pointer(&n.entries))
}

// KeyAt / ValueAt return the key/value at slot i.
func (n *LeafNode) KeyAt(i int) int32        { return n.slots()[i].key }
func (n *LeafNode) ValueAt(i int) common.RID { return n.slots()[i].value }

// Lookup finds the first slot whose key is >= key, and whether that slot's
// key equals it exactly. O(log size) via binary search against cmp.
func (n *LeafNode) Lookup(key int32, cmp Comparator) (index int, equal bool) {
	slots := n.slots()
	lo, hi := 0, int(n.size)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(slots[mid].key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < int(n.size) && cmp(slots[lo].key, key) == 0 {
		return lo, true
	}
	return lo, false
}

// Insert places (key, value) in sorted order. Caller must have already
// checked the key is absent and the node has room.
func (n *LeafNode) Insert(key int32, value common.RID, cmp Comparator) {
	idx, _ := n.Lookup(key, cmp)
	slots := n.slots()
	for i := int(n.size); i > idx; i-- {
		slots[i] = slots[i-1]
	}
	slots[idx] = leafEntry{key: key, value: value}
	n.size++
}

// MoveRightHalfTo splits this leaf, moving the upper half of its entries
// (ceil(size/2) of them, so the right sibling ends up with >= the left's
// remaining count) into dst, which must already be an initialized empty leaf.
func (n *LeafNode) MoveRightHalfTo(dst *LeafNode) {
	total := int(n.size)
	splitPoint := total / 2
	moveCount := total - splitPoint
	srcSlots := n.slots()
	dstSlots := dst.slots()
	for i := 0; i < moveCount; i++ {
		dstSlots[i] = srcSlots[splitPoint+i]
	}
	dst.size = int32(moveCount)
	n.size = int32(splitPoint)
}

// internalEntry is one (key, child page id) slot of an internal node. Slot 0's
// key is unused (only its child pointer matters).
type internalEntry struct {
	key   int32
	child common.PageID
}

// InternalNode overlays an internal page: a header plus an array of
// (key, child) pairs, where slot 0 is child-only.
type InternalNode struct {
	nodeHeader
	entries struct{}
}

func castInternalNode(data []byte) *InternalNode {
	return (*InternalNode)(unsafe.Pointer(&data[0]))
}

func (n *InternalNode) initInternal(maxSize int32) {
	n.pageType = internalNodeType
	n.size = 0
	n.maxSize = maxSize
}

func (n *InternalNode) Size() int32    { return n.size }
func (n *InternalNode) MaxSize() int32 { return n.maxSize }
func (n *InternalNode) IsFull() bool   { return n.size >= n.maxSize }

func (n *InternalNode) slots() *[math.MaxInt32 / 12]internalEntry {
	return (*[math.MaxInt32 / 12]internalEntry)(unsafe.Pointer(&n.entries))
}

func (n *InternalNode) KeyAt(i int) int32           { return n.slots()[i].key }
func (n *InternalNode) ChildAt(i int) common.PageID { return n.slots()[i].child }

// SetSlot0Child sets the only-child slot 0 of a freshly created internal
// node (used when the root splits, and never contains a meaningful key).
func (n *InternalNode) SetSlot0Child(child common.PageID) {
	n.slots()[0] = internalEntry{child: child}
	if n.size == 0 {
		n.size = 1
	}
}

// Lookup returns the index i such that keys[i] <= key < keys[i+1], treating
// keys[0] as -infinity and keys[size] as +infinity; ChildAt(i) is the child
// to descend into.
func (n *InternalNode) Lookup(key int32, cmp Comparator) int {
	slots := n.slots()
	lo, hi := 1, int(n.size)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(slots[mid].key, key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

// InsertAt inserts (key, child) immediately after slot index (i.e. at
// index+1), shifting later slots right.
func (n *InternalNode) InsertAt(index int, key int32, child common.PageID) {
	slots := n.slots()
	for i := int(n.size); i > index+1; i-- {
		slots[i] = slots[i-1]
	}
	slots[index+1] = internalEntry{key: key, child: child}
	n.size++
}

// MoveRightHalfTo splits this internal node, moving the upper half of its
// entries into dst (an initialized, empty internal node), and zeroing the
// key of dst's new slot 0 per the internal-node convention that slot 0 never
// carries a key. Returns the separator key to hoist into the parent (the key
// that used to sit at dst's slot 0 before it was zeroed).
func (n *InternalNode) MoveRightHalfTo(dst *InternalNode) int32 {
	total := int(n.size)
	splitPoint := total / 2
	moveCount := total - splitPoint
	srcSlots := n.slots()
	dstSlots := dst.slots()
	for i := 0; i < moveCount; i++ {
		dstSlots[i] = srcSlots[splitPoint+i]
	}
	dst.size = int32(moveCount)
	n.size = int32(splitPoint)
	separator := dstSlots[0].key
	dstSlots[0].key = 0
	return separator
}

func castNodeHeader(data []byte) *nodeHeader {
	return (*nodeHeader)(unsafe.Pointer(&data[0]))
}

// pageTypeOf peeks at a page's type without fully overlaying it.
func pageTypeOf(data []byte) nodeType {
	return castNodeHeader(data).pageType
}
