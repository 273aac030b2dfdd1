package buffer

import (
	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/common"
	"fewduckdb/internal/storage/replacer"
)

// BasicGuard owns one pin on a page for its lifetime and tracks a dirty bit
// the holder may set before releasing it. Guards are single-owner: Move
// transfers ownership and leaves the source guard empty, and Drop is
// idempotent so a guard may be dropped manually and again by whatever defer
// eventually runs.
type BasicGuard struct {
	bpm     *PoolManager
	page    *Page
	isDirty bool
}

// FetchPageBasic pins pageID and returns a BasicGuard over it. Frame
// exhaustion is treated as a fatal program error per spec.md's guard
// contract: callers above the buffer pool have no retry strategy.
func (bpm *PoolManager) FetchPageBasic(pageID common.PageID) BasicGuard {
	page, err := bpm.FetchPage(pageID, replacer.AccessGet)
	if err != nil {
		log.WithError(err).Panicf("buffer: guard factory could not fetch page %d", pageID)
	}
	return BasicGuard{bpm: bpm, page: page}
}

// NewPageGuarded allocates a fresh page and returns it already guarded,
// along with its id.
func (bpm *PoolManager) NewPageGuarded() (common.PageID, BasicGuard) {
	page, err := bpm.NewPage()
	if err != nil {
		log.WithError(err).Panicf("buffer: guard factory could not allocate a new page")
	}
	return page.PageID(), BasicGuard{bpm: bpm, page: page}
}

// PageID returns the id of the guarded page, or InvalidPageID if the guard
// has been dropped.
func (g *BasicGuard) PageID() common.PageID {
	if g.page == nil {
		return common.InvalidPageID
	}
	return g.page.PageID()
}

// Data returns the guarded page's raw bytes.
func (g *BasicGuard) Data() []byte { return g.page.Data() }

// SetDirty records that the guard's holder mutated the page; the dirty bit
// is applied to the underlying frame on Drop.
func (g *BasicGuard) SetDirty(dirty bool) { g.isDirty = dirty }

// Drop unpins the page with the recorded dirty bit. It is safe to call
// multiple times.
func (g *BasicGuard) Drop() {
	if g.page == nil {
		return
	}
	if err := g.bpm.UnpinPage(g.page.PageID(), g.isDirty); err != nil {
		log.WithError(err).Warnf("buffer: guard drop failed to unpin page")
	}
	g.page = nil
}

// Move transfers ownership of the guard to the caller and empties the
// receiver, the Go stand-in for a C++ move constructor.
func (g *BasicGuard) Move() BasicGuard {
	moved := *g
	g.page = nil
	g.isDirty = false
	return moved
}

// ReadGuard is a BasicGuard that additionally holds the page's read latch.
type ReadGuard struct {
	inner BasicGuard
}

// FetchPageRead pins and read-latches pageID.
func (bpm *PoolManager) FetchPageRead(pageID common.PageID) ReadGuard {
	g := bpm.FetchPageBasic(pageID)
	g.page.RLock()
	return ReadGuard{inner: g}
}

// PageID returns the guarded page's id.
func (g *ReadGuard) PageID() common.PageID { return g.inner.PageID() }

// Data returns the guarded page's raw bytes for reading.
func (g *ReadGuard) Data() []byte { return g.inner.Data() }

// Drop releases the read latch, then unpins. Idempotent.
func (g *ReadGuard) Drop() {
	if g.inner.page == nil {
		return
	}
	g.inner.page.RUnlock()
	g.inner.Drop()
}

// Move transfers ownership, the Go stand-in for a move constructor.
func (g *ReadGuard) Move() ReadGuard {
	moved := ReadGuard{inner: g.inner.Move()}
	return moved
}

// WriteGuard is a BasicGuard that additionally holds the page's write latch.
type WriteGuard struct {
	inner BasicGuard
}

// FetchPageWrite pins and write-latches pageID.
func (bpm *PoolManager) FetchPageWrite(pageID common.PageID) WriteGuard {
	g := bpm.FetchPageBasic(pageID)
	g.page.Lock()
	return WriteGuard{inner: g}
}

// NewPageGuardedWrite allocates a fresh page, write-latches it, and returns
// its id alongside the guard.
func (bpm *PoolManager) NewPageGuardedWrite() (common.PageID, WriteGuard) {
	pageID, g := bpm.NewPageGuarded()
	g.page.Lock()
	return pageID, WriteGuard{inner: g}
}

// PageID returns the guarded page's id.
func (g *WriteGuard) PageID() common.PageID { return g.inner.PageID() }

// Data returns the guarded page's raw bytes for reading or writing.
func (g *WriteGuard) Data() []byte { return g.inner.Data() }

// SetDirty records that the page was mutated.
func (g *WriteGuard) SetDirty(dirty bool) { g.inner.SetDirty(dirty) }

// Drop releases the write latch, then unpins. Idempotent.
func (g *WriteGuard) Drop() {
	if g.inner.page == nil {
		return
	}
	g.inner.page.Unlock()
	g.inner.Drop()
}

// Move transfers ownership, the Go stand-in for a move constructor.
func (g *WriteGuard) Move() WriteGuard {
	return WriteGuard{inner: g.inner.Move()}
}
