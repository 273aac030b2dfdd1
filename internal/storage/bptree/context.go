package bptree

import (
	"fewduckdb/internal/common"
	"fewduckdb/internal/storage/buffer"
)

// writeContext is the per-call crabbing context for Insert: an ordered,
// single-owner stack of held write guards from root downward, plus an
// optional header-page guard that is dropped as soon as a node on the path
// is proved safe from a cascading split. Modeled as a plain slice rather
// than a container/list deque: the operations needed are push and pop at the
// tail, and dropping every element but the most recent from the head.
type writeContext struct {
	headerGuard *buffer.WriteGuard
	pageIDs     []common.PageID
	guards      []buffer.WriteGuard
}

func newWriteContext(header buffer.WriteGuard) *writeContext {
	return &writeContext{headerGuard: &header}
}

// push adds the guard for the next page descended into.
func (c *writeContext) push(pageID common.PageID, g buffer.WriteGuard) {
	c.pageIDs = append(c.pageIDs, pageID)
	c.guards = append(c.guards, g)
}

// top returns a pointer to the most recently pushed guard, so callers can
// mutate it (SetDirty) in place rather than through a detached copy.
func (c *writeContext) top() *buffer.WriteGuard {
	return &c.guards[len(c.guards)-1]
}

// releaseAncestors drops the header guard (if still held) and every guard in
// the stack except the most recently pushed one — the crabbing release that
// fires once the most recent child is proved safe.
func (c *writeContext) releaseAncestors() {
	if c.headerGuard != nil {
		c.headerGuard.Drop()
		c.headerGuard = nil
	}
	for len(c.guards) > 1 {
		c.guards[0].Drop()
		c.guards = c.guards[1:]
		c.pageIDs = c.pageIDs[1:]
	}
}

// dropAll releases every guard still held, header included. Called once the
// tree operation using this context has fully completed.
func (c *writeContext) dropAll() {
	if c.headerGuard != nil {
		c.headerGuard.Drop()
		c.headerGuard = nil
	}
	for i := range c.guards {
		c.guards[i].Drop()
	}
	c.guards = nil
	c.pageIDs = nil
}

// popTail removes and returns the most recently pushed guard, along with its
// page id, or false if none is held. Insert uses it to release a split leaf;
// insertToParent then uses it to take the parent of the node that was just
// split, walking back up the recursion.
func (c *writeContext) popTail() (common.PageID, buffer.WriteGuard, bool) {
	n := len(c.guards)
	if n == 0 {
		return common.InvalidPageID, buffer.WriteGuard{}, false
	}
	id := c.pageIDs[n-1]
	g := c.guards[n-1]
	c.pageIDs = c.pageIDs[:n-1]
	c.guards = c.guards[:n-1]
	return id, g, true
}
