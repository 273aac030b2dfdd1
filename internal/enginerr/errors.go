// Package enginerr centralizes the sentinel errors shared across the storage
// and execution layers so callers can test outcomes with errors.Is instead of
// comparing strings, following the plain sentinel-error style already used in
// the buffer pool and replacer packages.
package enginerr

import "errors"

var (
	// ErrPageNotFound is returned by UnpinPage when the page id is not
	// resident in the buffer pool. Flushing or deleting an absent page does
	// not return it.
	ErrPageNotFound = errors.New("page not found in buffer pool")

	// ErrPagePinned is returned by DeletePage when the page's pin count is
	// nonzero.
	ErrPagePinned = errors.New("page is still pinned")

	// ErrNoEvictableFrame is returned when the buffer pool cannot obtain a
	// frame: the free list is empty and the replacer has no evictable
	// victim.
	ErrNoEvictableFrame = errors.New("no free or evictable frame available")

	// ErrInvalidFrameID is returned by the replacer when a frame id outside
	// [0, num_frames) is named.
	ErrInvalidFrameID = errors.New("invalid frame id")

	// ErrFrameNotEvictable is returned by Remove when the named frame is not
	// currently marked evictable.
	ErrFrameNotEvictable = errors.New("removing a non-evictable frame is not allowed")

	// ErrDuplicateKey names the duplicate-key outcome. BPlusTree.Insert does
	// not return it: it reports an existing key as (false, nil).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnsupportedJoinType is returned at executor construction time for
	// any join type other than INNER or LEFT.
	ErrUnsupportedJoinType = errors.New("unsupported join type")

	// ErrTableNotFound / ErrIndexNotFound are returned by the in-memory
	// catalog when a name is unknown.
	ErrTableNotFound = errors.New("table not found")
	ErrIndexNotFound = errors.New("index not found")

	// ErrRecordTooLarge is returned by the table heap when a tuple cannot fit
	// even in an empty page.
	ErrRecordTooLarge = errors.New("record too large for a page")

	// ErrSlotNotFound is returned when a table page operation names a slot
	// number outside the page's current slot array.
	ErrSlotNotFound = errors.New("slot not found in table page")

	// ErrInvalidPageID is returned when a negative page id is passed to the
	// disk backend.
	ErrInvalidPageID = errors.New("invalid page id")

	// ErrPageOutOfRange is returned when a page id names an offset at or
	// past the current end of the backing file.
	ErrPageOutOfRange = errors.New("page id out of range")

	// ErrFreeListEmpty is returned when a free page is requested from the
	// disk header's free-page list but none is available.
	ErrFreeListEmpty = errors.New("free page list is empty")
)
