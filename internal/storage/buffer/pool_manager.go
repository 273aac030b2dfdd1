package buffer

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
	"fewduckdb/internal/storage/disk"
	"fewduckdb/internal/storage/replacer"
)

// DiskBackend is the disk manager's contract as seen by the buffer pool,
// matching the external-interface description of the disk backend: fixed
// size pages addressed by page id.
type DiskBackend interface {
	AllocatePage() (common.PageID, error)
	DeallocatePage(pageID common.PageID) error
	ReadPage(pageID common.PageID, buf []byte) error
	WritePage(pageID common.PageID, buf []byte) error
}

var _ DiskBackend = (*disk.Manager)(nil)

// PoolManager is the buffer pool: pool_size frames of pageSize bytes each,
// backed by a DiskBackend and evicted through an LRU-K replacer.
type PoolManager struct {
	mu sync.Mutex

	poolSize    int
	pages       []Page
	replacer    *replacer.LRUKReplacer
	freeList    list.List
	pageTable   map[common.PageID]common.FrameID
	diskManager DiskBackend

	logger log.FieldLogger
}

// Option configures a PoolManager at construction time.
type Option func(*PoolManager)

// WithLogger overrides the logger used for operational warnings.
func WithLogger(logger log.FieldLogger) Option {
	return func(bpm *PoolManager) { bpm.logger = logger }
}

// NewPoolManager builds a pool of poolSize frames, evicting through an
// LRU-K(replacerK) policy.
func NewPoolManager(poolSize, replacerK int, diskManager DiskBackend, opts ...Option) *PoolManager {
	bpm := &PoolManager{
		poolSize:    poolSize,
		pages:       make([]Page, poolSize),
		pageTable:   make(map[common.PageID]common.FrameID),
		diskManager: diskManager,
		logger:      log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(bpm)
	}
	bpm.replacer = replacer.NewLRUKReplacer(poolSize, replacerK, replacer.WithLogger(bpm.logger))
	for i := 0; i < poolSize; i++ {
		bpm.pages[i] = Page{
			data:   make([]byte, disk.PageSize),
			pageID: common.InvalidPageID,
		}
		bpm.freeList.PushBack(common.FrameID(i))
	}
	return bpm
}

// acquireFrame implements the frame-acquisition algorithm: pop the free
// list, or ask the replacer to evict; if the victim is dirty, write it back
// before reuse. Must be called with bpm.mu held.
func (bpm *PoolManager) acquireFrame() (common.FrameID, bool) {
	if bpm.freeList.Len() > 0 {
		elem := bpm.freeList.Front()
		bpm.freeList.Remove(elem)
		return elem.Value.(common.FrameID), true
	}
	frameID, ok := bpm.replacer.Evict()
	if !ok {
		return 0, false
	}
	page := &bpm.pages[frameID]
	oldPageID := page.pageID
	if page.isDirty {
		if err := bpm.diskManager.WritePage(oldPageID, page.data); err != nil {
			bpm.logger.WithError(err).Fatalf("buffer: cannot write back evicted page %d", oldPageID)
		}
		page.isDirty = false
	}
	delete(bpm.pageTable, oldPageID)
	return frameID, true
}

// NewPage allocates a fresh page id, binds it to an acquired frame pinned
// once, and returns the frame ready for the caller to populate.
func (bpm *PoolManager) NewPage() (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.acquireFrame()
	if !ok {
		bpm.logger.Warnf("buffer: pool is full, cannot allocate new page")
		return nil, enginerr.ErrNoEvictableFrame
	}
	pageID, err := bpm.diskManager.AllocatePage()
	if err != nil {
		return nil, fmt.Errorf("buffer: allocate page on disk: %w", err)
	}

	page := &bpm.pages[frameID]
	for i := range page.data {
		page.data[i] = 0
	}
	page.pageID = pageID
	page.pinCount = 1
	page.isDirty = false
	bpm.pageTable[pageID] = frameID

	if err := bpm.replacer.RecordAccess(frameID, replacer.AccessGet); err != nil {
		return nil, err
	}
	if err := bpm.replacer.SetEvictable(frameID, false); err != nil {
		return nil, err
	}
	return page, nil
}

// FetchPage returns the frame holding pageID, loading it from disk if it is
// not already resident. The returned frame is pinned once more.
func (bpm *PoolManager) FetchPage(pageID common.PageID, accessType replacer.AccessType) (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameID, ok := bpm.pageTable[pageID]; ok {
		page := &bpm.pages[frameID]
		page.pinCount++
		if err := bpm.replacer.RecordAccess(frameID, accessType); err != nil {
			return nil, err
		}
		if err := bpm.replacer.SetEvictable(frameID, false); err != nil {
			return nil, err
		}
		return page, nil
	}

	frameID, ok := bpm.acquireFrame()
	if !ok {
		bpm.logger.Warnf("buffer: pool is full, cannot fetch page %d", pageID)
		return nil, enginerr.ErrNoEvictableFrame
	}
	page := &bpm.pages[frameID]
	if err := bpm.diskManager.ReadPage(pageID, page.data); err != nil {
		return nil, fmt.Errorf("buffer: read page %d from disk: %w", pageID, err)
	}
	page.pageID = pageID
	page.pinCount = 1
	page.isDirty = false
	bpm.pageTable[pageID] = frameID

	if err := bpm.replacer.RecordAccess(frameID, accessType); err != nil {
		return nil, err
	}
	if err := bpm.replacer.SetEvictable(frameID, false); err != nil {
		return nil, err
	}
	return page, nil
}

// UnpinPage decrements a page's pin count; the dirty flag is monotonic (it
// is only ever set, never cleared, by this call). Once the pin count reaches
// zero the frame becomes evictable. Returns ErrPageNotFound if the page is
// not resident.
func (bpm *PoolManager) UnpinPage(pageID common.PageID, isDirty bool) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		bpm.logger.Warnf("buffer: unpin of page %d that is not resident", pageID)
		return enginerr.ErrPageNotFound
	}
	page := &bpm.pages[frameID]
	if page.pinCount <= 0 {
		bpm.logger.Warnf("buffer: unpin of page %d with pin count already zero", pageID)
		return nil
	}
	page.pinCount--
	page.isDirty = page.isDirty || isDirty
	if page.pinCount == 0 {
		if err := bpm.replacer.SetEvictable(frameID, true); err != nil {
			return err
		}
	}
	return nil
}

// FlushPage writes a resident page's contents through the disk backend if
// dirty, then clears the dirty bit. A no-op if the page is not resident.
func (bpm *PoolManager) FlushPage(pageID common.PageID) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	return bpm.flushLocked(pageID)
}

func (bpm *PoolManager) flushLocked(pageID common.PageID) error {
	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		bpm.logger.Warnf("buffer: flush of page %d that is not resident", pageID)
		return nil
	}
	page := &bpm.pages[frameID]
	if !page.isDirty {
		return nil
	}
	if err := bpm.diskManager.WritePage(page.pageID, page.data); err != nil {
		return fmt.Errorf("buffer: flush page %d: %w", pageID, err)
	}
	page.isDirty = false
	return nil
}

// FlushAllPages flushes every resident dirty page. It checks ctx between
// pages so a caller bounding a checkpoint's wall-clock time can bail out
// without leaving the pool mutex held or a page half-written: the check
// happens strictly between flushLocked calls, never inside one.
func (bpm *PoolManager) FlushAllPages(ctx context.Context) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	for pageID := range bpm.pageTable {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := bpm.flushLocked(pageID); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes a page from the pool, returning its frame to the free
// list and informing the disk backend the id is reclaimable. It succeeds if
// the page is absent, or present with pin count zero; it fails with
// ErrPagePinned otherwise.
func (bpm *PoolManager) DeletePage(pageID common.PageID) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return bpm.diskManager.DeallocatePage(pageID)
	}
	page := &bpm.pages[frameID]
	if page.pinCount > 0 {
		return enginerr.ErrPagePinned
	}
	if err := bpm.diskManager.DeallocatePage(pageID); err != nil {
		return err
	}
	page.pageID = common.InvalidPageID
	page.isDirty = false
	page.pinCount = 0
	delete(bpm.pageTable, pageID)
	if err := bpm.replacer.Remove(frameID); err != nil {
		return err
	}
	// The free list holds frame ids, never page ids: this is the exact bug
	// spec.md calls out in the reference BufferPoolManagerInstance.
	bpm.freeList.PushBack(frameID)
	return nil
}

// PoolSize returns the number of frames in the pool.
func (bpm *PoolManager) PoolSize() int { return bpm.poolSize }
