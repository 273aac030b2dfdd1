package bptree

import (
	"fewduckdb/internal/common"
	"fewduckdb/internal/storage/buffer"
)

// Iterator walks a leaf's linked list in ascending key order, holding a read
// guard on exactly one leaf page at a time. Grounded on IndexIterator from
// the reference b+tree, which likewise holds one buffer frame and advances
// across the next_page_id chain rather than materializing the whole tree.
type Iterator struct {
	bpm      *buffer.PoolManager
	guard    *buffer.ReadGuard
	slot     int
	finished bool
}

// end returns an exhausted iterator: IsEnd is true, Next and Close do
// nothing, and Key and Value must not be called on it.
func end() *Iterator {
	return &Iterator{finished: true}
}

// Begin returns an iterator positioned at the smallest key in the tree.
func (t *BPlusTree) Begin() *Iterator {
	headerGuard := t.bpm.FetchPageRead(t.headerPageID)
	rootID := castHeaderPage(headerGuard.Data()).RootPageID
	headerGuard.Drop()
	if rootID == common.InvalidPageID {
		return end()
	}

	guard := t.bpm.FetchPageRead(rootID)
	for pageTypeOf(guard.Data()) == internalNodeType {
		node := castInternalNode(guard.Data())
		childID := node.ChildAt(0)
		next := t.bpm.FetchPageRead(childID)
		guard.Drop()
		guard = next
	}
	if castLeafNode(guard.Data()).Size() == 0 {
		guard.Drop()
		return end()
	}
	return &Iterator{bpm: t.bpm, guard: &guard, slot: 0}
}

// Seek returns an iterator positioned at the first key >= key.
func (t *BPlusTree) Seek(key int32) *Iterator {
	headerGuard := t.bpm.FetchPageRead(t.headerPageID)
	rootID := castHeaderPage(headerGuard.Data()).RootPageID
	headerGuard.Drop()
	if rootID == common.InvalidPageID {
		return end()
	}

	guard := t.bpm.FetchPageRead(rootID)
	for pageTypeOf(guard.Data()) == internalNodeType {
		node := castInternalNode(guard.Data())
		idx := node.Lookup(key, t.cmp)
		childID := node.ChildAt(idx)
		next := t.bpm.FetchPageRead(childID)
		guard.Drop()
		guard = next
	}

	leaf := castLeafNode(guard.Data())
	idx, _ := leaf.Lookup(key, t.cmp)
	it := &Iterator{bpm: t.bpm, guard: &guard, slot: idx}
	it.skipToNonEmpty()
	return it
}

// skipToNonEmpty advances across empty/exhausted leaves (possible only at
// the tail of the linked list, since interior leaves are never empty) until
// a live slot is found or the chain is exhausted.
func (it *Iterator) skipToNonEmpty() {
	for !it.finished && it.slot >= int(castLeafNode(it.guard.Data()).Size()) {
		leaf := castLeafNode(it.guard.Data())
		nextID := leaf.NextPageID()
		it.guard.Drop()
		if nextID == common.InvalidPageID {
			it.finished = true
			it.guard = nil
			return
		}
		next := it.bpm.FetchPageRead(nextID)
		it.guard = &next
		it.slot = 0
	}
}

// IsEnd reports whether the iterator has been advanced past the last entry.
func (it *Iterator) IsEnd() bool { return it.finished }

// Key returns the current entry's key. Must not be called when IsEnd.
func (it *Iterator) Key() int32 {
	return castLeafNode(it.guard.Data()).KeyAt(it.slot)
}

// Value returns the current entry's RID. Must not be called when IsEnd.
func (it *Iterator) Value() common.RID {
	return castLeafNode(it.guard.Data()).ValueAt(it.slot)
}

// Next advances to the following entry, crossing into the sibling leaf via
// next_page_id when the current leaf is exhausted.
func (it *Iterator) Next() {
	if it.finished {
		return
	}
	it.slot++
	it.skipToNonEmpty()
}

// Close releases the iterator's held read guard, if any. Safe to call on an
// already-finished iterator.
func (it *Iterator) Close() {
	if it.guard != nil {
		it.guard.Drop()
		it.guard = nil
	}
	it.finished = true
}
