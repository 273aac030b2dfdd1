// Package buffer implements the fixed-size buffer pool: it maps page ids to
// resident frames, evicts through an LRU-K replacer, and hands out RAII-style
// page guards so callers never leak a pin or a latch.
package buffer

import (
	"sync"

	"fewduckdb/internal/common"
)

// Page is one resident frame's payload: raw bytes plus the bookkeeping the
// buffer pool needs (page id, pin count, dirty bit) and the reader-writer
// latch callers crab across for concurrent access to the page's contents.
type Page struct {
	sync.RWMutex

	data     []byte
	pageID   common.PageID
	pinCount int
	isDirty  bool
}

// Data returns the page's raw byte slice. The caller is responsible for
// holding the page's latch appropriately before reading or writing it.
func (p *Page) Data() []byte { return p.data }

// PageID returns the id currently bound to this frame.
func (p *Page) PageID() common.PageID { return p.pageID }

// PinCount returns the frame's current pin count.
func (p *Page) PinCount() int { return p.pinCount }

// IsDirty reports whether the frame has unflushed writes.
func (p *Page) IsDirty() bool { return p.isDirty }
