// Package table implements the table heap: a linked list of slotted pages
// holding variable-length tuples, addressed by RID (page id, slot number).
// Grounded on Arsenal591-simple-db-golang's table_page.go/table_heap.go,
// adapted to acquire pages through buffer pool guards instead of manual
// pin/unpin calls.
package table

import (
	"unsafe"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
)

// slot describes one tuple's placement within a page: a byte offset (from
// the start of the page) and length, plus a deleted flag. Tuple bytes are
// packed from the end of the page backward as inserts happen, while slots
// grow forward from the header, exactly like the reference slotted page.
type slot struct {
	offset    int32
	size      int32
	isDeleted int32
}

// pageHeader is the fixed prefix of every table page.
type pageHeader struct {
	nextPageID  common.PageID
	slotCount   int32
	freeSpaceLo int32 // offset from the start of the page where the tuple region begins (grows down)
}

const pageSize = 4096
const headerSize = int(unsafe.Sizeof(pageHeader{}))
const slotSize = int(unsafe.Sizeof(slot{}))

// TablePage overlays a raw page buffer with the slotted-page layout.
type TablePage struct {
	pageHeader
	slots struct{}
}

func castTablePage(data []byte) *TablePage {
	return (*TablePage)(unsafe.Pointer(&data[0]))
}

// InitTablePage resets a freshly allocated page to an empty slotted page.
func InitTablePage(data []byte) *TablePage {
	p := castTablePage(data)
	p.nextPageID = common.InvalidPageID
	p.slotCount = 0
	p.freeSpaceLo = int32(pageSize)
	return p
}

func (p *TablePage) slotArray() *[(pageSize - headerSize) / slotSize]slot {
	return (*[(pageSize - headerSize) / slotSize]slot)(unsafe.Pointer(&p.slots))
}

func (p *TablePage) NextPageID() common.PageID      { return p.nextPageID }
func (p *TablePage) SetNextPageID(id common.PageID) { p.nextPageID = id }
func (p *TablePage) SlotCount() int32               { return p.slotCount }

// freeSpaceHi is the first byte after the slot array, the low boundary the
// tuple region must not shrink past.
func (p *TablePage) freeSpaceHi() int32 {
	return int32(headerSize) + p.slotCount*int32(slotSize)
}

// AvailableSpace reports how many free bytes remain between the slot array
// and the tuple region, i.e. room for one more slot plus its tuple bytes.
func (p *TablePage) AvailableSpace() int32 {
	return p.freeSpaceLo - p.freeSpaceHi()
}

// InsertTuple appends a tuple to this page, returning its slot number, or
// false if there is not enough free space (caller must move to a new page).
func (p *TablePage) InsertTuple(data []byte) (int, bool) {
	needed := int32(len(data)) + int32(slotSize)
	if needed > p.AvailableSpace() {
		return 0, false
	}
	p.freeSpaceLo -= int32(len(data))
	base := unsafe.Pointer(p)
	dst := unsafe.Slice((*byte)(unsafe.Add(base, uintptr(p.freeSpaceLo))), len(data))
	copy(dst, data)

	slotNum := int(p.slotCount)
	p.slotArray()[slotNum] = slot{offset: p.freeSpaceLo, size: int32(len(data))}
	p.slotCount++
	return slotNum, true
}

// GetTuple returns a copy of the tuple bytes at slotNum and whether it is
// marked deleted.
func (p *TablePage) GetTuple(slotNum int) (data []byte, isDeleted bool, ok bool) {
	if slotNum < 0 || slotNum >= int(p.slotCount) {
		return nil, false, false
	}
	s := p.slotArray()[slotNum]
	base := unsafe.Pointer(p)
	src := unsafe.Slice((*byte)(unsafe.Add(base, uintptr(s.offset))), s.size)
	out := make([]byte, len(src))
	copy(out, src)
	return out, s.isDeleted != 0, true
}

// SetDeleted marks slotNum's tuple deleted (or undeleted) without moving any
// bytes; reclaiming the freed space is left to a future compaction pass,
// matching the reference table page's tombstone-only delete.
func (p *TablePage) SetDeleted(slotNum int, deleted bool) error {
	if slotNum < 0 || slotNum >= int(p.slotCount) {
		return enginerr.ErrSlotNotFound
	}
	s := &p.slotArray()[slotNum]
	if deleted {
		s.isDeleted = 1
	} else {
		s.isDeleted = 0
	}
	return nil
}
