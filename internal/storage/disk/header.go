package disk

import (
	"math"
	"unsafe"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
)

// headerPageInfo overlays page 0 of the backing file: the free-page-id list
// the disk manager consults before growing the file. Kept as a flat array of
// page ids rather than a bitmask, matching the teacher's own encoding.
type headerPageInfo struct {
	nextPageID   common.PageID
	numFreePages int32
	freeListPtr  uintptr
}

func createHeaderPageInfo(data []byte) *headerPageInfo {
	return (*headerPageInfo)(unsafe.Pointer(&data[0]))
}

func (hdr *headerPageInfo) reset() {
	hdr.nextPageID = 1
	hdr.numFreePages = 0
}

func (hdr *headerPageInfo) freeSlots() *[math.MaxInt32 / 4]common.PageID {
	return (*[math.MaxInt32 / 4]common.PageID)(unsafe.Pointer(&hdr.freeListPtr))
}

// tryPopFreePage removes and returns the earliest deallocated page id still
// on the list (first in, first out).
// Reporting success via the second return, rather than requiring a separate
// hasFreePage precondition check, keeps AllocatePage from trusting a
// count that could otherwise be read once and acted on twice.
func (hdr *headerPageInfo) tryPopFreePage() (common.PageID, error) {
	if hdr.numFreePages == 0 {
		return common.InvalidPageID, enginerr.ErrFreeListEmpty
	}
	slots := hdr.freeSlots()
	pageID := slots[0]
	for i := int32(1); i < hdr.numFreePages; i++ {
		slots[i-1] = slots[i]
	}
	hdr.numFreePages--
	return pageID, nil
}

func (hdr *headerPageInfo) pushFreePage(pageID common.PageID) {
	hdr.freeSlots()[hdr.numFreePages] = pageID
	hdr.numFreePages++
}
