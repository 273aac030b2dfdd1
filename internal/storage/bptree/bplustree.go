package bptree

import (
	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/common"
	"fewduckdb/internal/storage/buffer"
)

const (
	defaultLeafMaxSize     = 4
	defaultInternalMaxSize = 4
)

// BPlusTree is a concurrent, latch-crabbing B+ tree index over int32 keys
// and RID values, built on top of a buffer.PoolManager. It stores unique
// keys and is backed by a header page holding root_page_id.
type BPlusTree struct {
	name         string
	headerPageID common.PageID
	bpm          *buffer.PoolManager
	cmp          Comparator

	leafMaxSize     int32
	internalMaxSize int32

	logger log.FieldLogger
}

// TreeOption configures a BPlusTree at construction time.
type TreeOption func(*BPlusTree)

// WithLeafMaxSize overrides the default leaf fanout.
func WithLeafMaxSize(n int32) TreeOption { return func(t *BPlusTree) { t.leafMaxSize = n } }

// WithInternalMaxSize overrides the default internal fanout.
func WithInternalMaxSize(n int32) TreeOption { return func(t *BPlusTree) { t.internalMaxSize = n } }

// WithLogger overrides the logger used for warnings.
func WithLogger(logger log.FieldLogger) TreeOption { return func(t *BPlusTree) { t.logger = logger } }

// NewBPlusTree constructs a tree rooted at headerPageID. If the header page
// is freshly allocated (root id not yet initialized) the caller is
// responsible for having zeroed it; NewBPlusTree initializes it to
// InvalidPageID on first use of an all-zero header.
func NewBPlusTree(name string, headerPageID common.PageID, bpm *buffer.PoolManager, cmp Comparator, opts ...TreeOption) *BPlusTree {
	t := &BPlusTree{
		name:            name,
		headerPageID:    headerPageID,
		bpm:             bpm,
		cmp:             cmp,
		leafMaxSize:     defaultLeafMaxSize,
		internalMaxSize: defaultInternalMaxSize,
		logger:          log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}

	guard := bpm.FetchPageWrite(headerPageID)
	header := castHeaderPage(guard.Data())
	if header.RootPageID == 0 {
		// A brand-new page is all zeros, and page id 0 is never a valid
		// root (it is reserved for the disk manager's own free-list
		// header), so this distinguishes "never initialized" from a real
		// root at some other id.
		header.RootPageID = common.InvalidPageID
		guard.SetDirty(true)
	}
	guard.Drop()

	return t
}

// IsEmpty reports whether the tree currently has no root.
func (t *BPlusTree) IsEmpty() bool {
	guard := t.bpm.FetchPageRead(t.headerPageID)
	defer guard.Drop()
	return castHeaderPage(guard.Data()).RootPageID == common.InvalidPageID
}

func (t *BPlusTree) rootPageID() common.PageID {
	guard := t.bpm.FetchPageRead(t.headerPageID)
	defer guard.Drop()
	return castHeaderPage(guard.Data()).RootPageID
}

// GetValue performs a read-latch-crabbing point search: acquire read guard
// on header, read root id, release header; walk down acquiring each child's
// read guard before releasing its parent's.
func (t *BPlusTree) GetValue(key int32) (common.RID, bool) {
	headerGuard := t.bpm.FetchPageRead(t.headerPageID)
	rootID := castHeaderPage(headerGuard.Data()).RootPageID
	headerGuard.Drop()

	if rootID == common.InvalidPageID {
		return common.RID{}, false
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
	idx, ok := leaf.Lookup(key, t.cmp)
	var rid common.RID
	if ok {
		rid = leaf.ValueAt(idx)
	}
	guard.Drop()
	return rid, ok
}

// isLeafSafeForInsert reports whether a leaf can absorb one more entry
// without splitting.
func isLeafSafeForInsert(n *LeafNode) bool { return n.Size()+1 < n.MaxSize() }

// isInternalSafeForInsert reports whether an internal node can absorb one
// more entry (from a child split below it) without itself splitting.
func isInternalSafeForInsert(n *InternalNode) bool { return n.Size()+1 < n.MaxSize() }

// Insert adds (key, value) to the tree using pessimistic write-latch
// crabbing. Returns false without modifying the tree if key already exists.
func (t *BPlusTree) Insert(key int32, value common.RID) (bool, error) {
	headerGuard := t.bpm.FetchPageWrite(t.headerPageID)
	ctx := newWriteContext(headerGuard)

	rootID := castHeaderPage(headerGuard.Data()).RootPageID

	if rootID == common.InvalidPageID {
		newLeafID, leafGuard := t.bpm.NewPageGuardedWrite()
		leaf := castLeafNode(leafGuard.Data())
		leaf.initLeaf(t.leafMaxSize)
		leaf.Insert(key, value, t.cmp)
		leafGuard.SetDirty(true)

		header := castHeaderPage(headerGuard.Data())
		header.RootPageID = newLeafID
		headerGuard.SetDirty(true)
		headerGuard.Drop()
		leafGuard.Drop()
		return true, nil
	}

	// Descend, crabbing: acquire each child write guard, push it, and if
	// it's safe, release every ancestor (header plus earlier tree levels)
	// except the node just acquired. Mutations (SetDirty) go through the
	// pointer into ctx.guards itself, never a detached copy of the guard —
	// WriteGuard is a plain value type, so a copy's SetDirty would not be
	// seen by the copy that ctx.dropAll ultimately unpins.
	ctx.push(rootID, t.bpm.FetchPageWrite(rootID))
	curGuard := ctx.top()
	if isNodeSafeForInsert(curGuard.Data()) {
		ctx.releaseAncestors()
		curGuard = ctx.top()
	}

	for pageTypeOf(curGuard.Data()) == internalNodeType {
		node := castInternalNode(curGuard.Data())
		idx := node.Lookup(key, t.cmp)
		childID := node.ChildAt(idx)
		ctx.push(childID, t.bpm.FetchPageWrite(childID))
		curGuard = ctx.top()
		if isNodeSafeForInsert(curGuard.Data()) {
			ctx.releaseAncestors()
			curGuard = ctx.top()
		}
	}

	leaf := castLeafNode(curGuard.Data())
	if _, exists := leaf.Lookup(key, t.cmp); exists {
		ctx.dropAll()
		return false, nil
	}
	leaf.Insert(key, value, t.cmp)
	curGuard.SetDirty(true)

	if !leaf.IsFull() {
		ctx.dropAll()
		return true, nil
	}

	newLeafID, newLeafGuard := t.bpm.NewPageGuardedWrite()
	newLeaf := castLeafNode(newLeafGuard.Data())
	newLeaf.initLeaf(t.leafMaxSize)
	leaf.MoveRightHalfTo(newLeaf)
	newLeaf.SetNextPageID(leaf.NextPageID())
	leaf.SetNextPageID(newLeafID)
	newLeafGuard.SetDirty(true)

	separatorKey := newLeaf.KeyAt(0)
	// The leaf itself is done with; drop its own guard (it is the tail of
	// ctx), keeping the parent chain to walk back up through.
	if _, g, ok := ctx.popTail(); ok {
		g.Drop()
	}
	newLeafGuard.Drop()

	if err := t.insertToParent(ctx, separatorKey, newLeafID); err != nil {
		return false, err
	}
	return true, nil
}

func isNodeSafeForInsert(data []byte) bool {
	if pageTypeOf(data) == leafNodeType {
		return isLeafSafeForInsert(castLeafNode(data))
	}
	return isInternalSafeForInsert(castInternalNode(data))
}

// insertToParent hoists (separatorKey, rightID) into the parent of the node
// that was just split, recursing upward through splits as needed. ctx holds
// the remaining ancestor chain (and possibly the header guard, if the split
// node was the root).
func (t *BPlusTree) insertToParent(ctx *writeContext, separatorKey int32, rightID common.PageID) error {
	_, parentGuard, ok := ctx.popTail()
	if !ok {
		// The split node had no parent in the context: it was the root.
		// Allocate a new internal root, whose slot 0 child is the old root
		// (reachable as ctx's header still points at it before this
		// update) and whose slot 1 entry is (separatorKey, rightID).
		if ctx.headerGuard == nil {
			log.Panicf("bptree: root split without a held header guard")
		}
		header := castHeaderPage(ctx.headerGuard.Data())
		oldRootID := header.RootPageID
		newRootID, newRootGuard := t.bpm.NewPageGuardedWrite()
		newRoot := castInternalNode(newRootGuard.Data())
		newRoot.initInternal(t.internalMaxSize)
		newRoot.SetSlot0Child(oldRootID)
		newRoot.InsertAt(0, separatorKey, rightID)
		newRootGuard.SetDirty(true)
		newRootGuard.Drop()

		header.RootPageID = newRootID
		ctx.headerGuard.SetDirty(true)
		ctx.dropAll()
		return nil
	}

	parent := castInternalNode(parentGuard.Data())
	idx := parent.Lookup(separatorKey, t.cmp)
	if !parent.IsFull() {
		parent.InsertAt(idx, separatorKey, rightID)
		parentGuard.SetDirty(true)
		parentGuard.Drop()
		ctx.dropAll()
		return nil
	}

	// Parent has no room: insert into the conceptual max+1 array (the page
	// must be sized with one spare slot for this), then split.
	parent.InsertAt(idx, separatorKey, rightID)
	parentGuard.SetDirty(true)

	newInternalID, newInternalGuard := t.bpm.NewPageGuardedWrite()
	newInternal := castInternalNode(newInternalGuard.Data())
	newInternal.initInternal(t.internalMaxSize)
	newSeparator := parent.MoveRightHalfTo(newInternal)
	newInternalGuard.SetDirty(true)
	newInternalGuard.Drop()
	parentGuard.Drop()

	return t.insertToParent(ctx, newSeparator, newInternalID)
}

// Remove is a documented no-op: this specification leaves B+ tree deletion
// undefined, treating the index as effectively append-only. It still type
// checks the call and returns immediately when the tree is empty.
func (t *BPlusTree) Remove(key int32) {
	if t.IsEmpty() {
		return
	}
	_ = key
}
