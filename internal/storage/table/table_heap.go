package table

import (
	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
	"fewduckdb/internal/storage/buffer"
)

// TupleMeta is the per-tuple bookkeeping the heap tracks alongside the raw
// bytes; it carries at least a deleted flag, matching the external-interface
// contract for the table heap.
type TupleMeta struct {
	IsDeleted bool
}

// TableHeap is a singly linked list of table pages holding a table's tuples,
// addressed by RID. It acquires every page through buffer pool guards rather
// than manual pin/unpin. Every TableHeap method reads or mutates one page and
// releases it; Iterator instead keeps a read guard on its current page
// between calls until it moves past that page or is closed.
type TableHeap struct {
	bpm         *buffer.PoolManager
	firstPageID common.PageID
	lastPageID  common.PageID
	logger      log.FieldLogger
}

// NewTableHeap allocates the heap's first (empty) page and returns the heap.
func NewTableHeap(bpm *buffer.PoolManager) *TableHeap {
	pageID, guard := bpm.NewPageGuardedWrite()
	InitTablePage(guard.Data())
	guard.SetDirty(true)
	guard.Drop()
	return &TableHeap{bpm: bpm, firstPageID: pageID, lastPageID: pageID, logger: log.StandardLogger()}
}

// FirstPageID returns the heap's first page, the entry point for a full scan.
func (h *TableHeap) FirstPageID() common.PageID { return h.firstPageID }

// InsertTuple appends data to the heap's last page, allocating a new page and
// linking it in if the last page has no room. Returns the tuple's RID.
func (h *TableHeap) InsertTuple(meta TupleMeta, data []byte) (common.RID, error) {
	if len(data)+slotSize > pageSize-headerSize {
		return common.RID{}, enginerr.ErrRecordTooLarge
	}

	lastGuard := h.bpm.FetchPageWrite(h.lastPageID)
	page := castTablePage(lastGuard.Data())
	slotNum, ok := page.InsertTuple(data)
	if !ok {
		lastGuard.Drop()

		newPageID, newGuard := h.bpm.NewPageGuardedWrite()
		InitTablePage(newGuard.Data())

		linkGuard := h.bpm.FetchPageWrite(h.lastPageID)
		castTablePage(linkGuard.Data()).SetNextPageID(newPageID)
		linkGuard.SetDirty(true)
		linkGuard.Drop()

		h.lastPageID = newPageID
		page = castTablePage(newGuard.Data())
		slotNum, ok = page.InsertTuple(data)
		if !ok {
			newGuard.Drop()
			return common.RID{}, enginerr.ErrRecordTooLarge
		}
		if meta.IsDeleted {
			_ = page.SetDeleted(slotNum, true)
		}
		newGuard.SetDirty(true)
		rid := common.RID{PageID: newPageID, SlotNum: slotNum}
		newGuard.Drop()
		return rid, nil
	}

	if meta.IsDeleted {
		_ = page.SetDeleted(slotNum, true)
	}
	lastGuard.SetDirty(true)
	rid := common.RID{PageID: h.lastPageID, SlotNum: slotNum}
	lastGuard.Drop()
	return rid, nil
}

// GetTuple returns the meta and raw bytes stored at rid.
func (h *TableHeap) GetTuple(rid common.RID) (TupleMeta, []byte, error) {
	guard := h.bpm.FetchPageRead(rid.PageID)
	defer guard.Drop()
	page := castTablePage(guard.Data())
	data, deleted, ok := page.GetTuple(rid.SlotNum)
	if !ok {
		return TupleMeta{}, nil, enginerr.ErrSlotNotFound
	}
	return TupleMeta{IsDeleted: deleted}, data, nil
}

// UpdateTupleMeta rewrites just the metadata (deleted flag) of an existing
// tuple in place, without touching its bytes.
func (h *TableHeap) UpdateTupleMeta(rid common.RID, meta TupleMeta) error {
	guard := h.bpm.FetchPageWrite(rid.PageID)
	defer guard.Drop()
	page := castTablePage(guard.Data())
	if err := page.SetDeleted(rid.SlotNum, meta.IsDeleted); err != nil {
		return err
	}
	guard.SetDirty(true)
	return nil
}

// Iterator walks every tuple in the heap in RID order, page by page, slot by
// slot, including tuples marked deleted — callers (SeqScan) decide whether to
// skip them, matching the reference table iterator's contract.
type Iterator struct {
	heap   *TableHeap
	pageID common.PageID
	slot   int
	guard  *buffer.ReadGuard
	page   *TablePage
	atEnd  bool
}

// MakeIterator returns an iterator positioned at the heap's first tuple.
func (h *TableHeap) MakeIterator() *Iterator {
	it := &Iterator{heap: h, pageID: h.firstPageID, slot: 0}
	it.loadPage()
	it.skipPastPageEnd()
	return it
}

func (it *Iterator) loadPage() {
	guard := it.heap.bpm.FetchPageRead(it.pageID)
	it.guard = &guard
	it.page = castTablePage(guard.Data())
}

func (it *Iterator) skipPastPageEnd() {
	for !it.atEnd && it.slot >= int(it.page.SlotCount()) {
		next := it.page.NextPageID()
		it.guard.Drop()
		if next == common.InvalidPageID {
			it.atEnd = true
			it.guard = nil
			it.page = nil
			return
		}
		it.pageID = next
		it.slot = 0
		it.loadPage()
	}
}

// IsEnd reports whether the iterator has passed the last tuple.
func (it *Iterator) IsEnd() bool { return it.atEnd }

// Current returns the RID, meta, and bytes of the tuple the iterator is on.
func (it *Iterator) Current() (common.RID, TupleMeta, []byte) {
	data, deleted, _ := it.page.GetTuple(it.slot)
	return common.RID{PageID: it.pageID, SlotNum: it.slot}, TupleMeta{IsDeleted: deleted}, data
}

// Next advances to the following tuple, crossing page boundaries as needed.
func (it *Iterator) Next() {
	if it.atEnd {
		return
	}
	it.slot++
	it.skipPastPageEnd()
}

// Close releases the iterator's held read guard, if any.
func (it *Iterator) Close() {
	if it.guard != nil {
		it.guard.Drop()
		it.guard = nil
	}
	it.atEnd = true
}
