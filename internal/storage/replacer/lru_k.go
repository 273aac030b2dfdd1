// Package replacer implements the LRU-K page-replacement policy used by the
// buffer pool to pick a victim frame when it needs to reuse a slot.
package replacer

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
)

// AccessType classifies why a frame was touched. The replacer does not
// currently distinguish between access types when scoring victims, but the
// type is threaded through the API so callers (e.g. a future scan-resistant
// policy) can specialize on it later.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessGet
	AccessScan
)

// node is the per-frame bookkeeping the replacer keeps: a bounded FIFO of the
// K most recent access timestamps plus whether the frame is eligible for
// eviction.
type node struct {
	history   []uint64
	evictable bool
}

// LRUKReplacer chooses a victim frame among the frames the buffer pool has
// marked evictable. It never touches disk and never blocks on anything but
// its own mutex.
type LRUKReplacer struct {
	mu sync.Mutex

	replacerSize int
	k            int
	currentTS    uint64
	currSize     int
	nodes        map[common.FrameID]*node

	logger log.FieldLogger
}

// Option configures an LRUKReplacer at construction time.
type Option func(*LRUKReplacer)

// WithLogger overrides the logger used for invalid-argument warnings.
func WithLogger(logger log.FieldLogger) Option {
	return func(r *LRUKReplacer) { r.logger = logger }
}

// NewLRUKReplacer builds a replacer over numFrames frame slots, tracking the
// most recent k accesses per frame.
func NewLRUKReplacer(numFrames, k int, opts ...Option) *LRUKReplacer {
	r := &LRUKReplacer{
		replacerSize: numFrames,
		k:            k,
		nodes:        make(map[common.FrameID]*node),
		logger:       log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *LRUKReplacer) precheck(frameID common.FrameID) error {
	if frameID < 0 || int(frameID) >= r.replacerSize {
		r.logger.Warnf("replacer: invalid frame id %d", frameID)
		return enginerr.ErrInvalidFrameID
	}
	return nil
}

// Evict picks a victim frame per the LRU-K policy and removes it from the
// replacer's bookkeeping. It returns false if no evictable frame exists.
//
// Selection order among evictable frames:
//  1. Any frame with an empty history wins immediately (it was just
//     introduced and never accessed).
//  2. Otherwise prefer frames with fewer than k accesses (infinite backward
//     k-distance), breaking ties toward the smallest oldest timestamp.
//  3. Otherwise pick the frame whose oldest-of-k timestamp is smallest
//     (largest backward k-distance).
func (r *LRUKReplacer) Evict() (common.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize <= 0 {
		return 0, false
	}

	var (
		candidate     common.FrameID
		haveCandidate bool
		candLessThanK bool
		candOldestTS  uint64
	)

	for id, n := range r.nodes {
		if !n.evictable {
			continue
		}
		if len(n.history) == 0 {
			candidate = id
			haveCandidate = true
			break
		}
		oldest := n.history[0]
		lessThanK := len(n.history) < r.k
		switch {
		case lessThanK && (!haveCandidate || !candLessThanK || oldest < candOldestTS):
			candidate, haveCandidate, candLessThanK, candOldestTS = id, true, true, oldest
		case !lessThanK && !candLessThanK && (!haveCandidate || oldest < candOldestTS):
			candidate, haveCandidate, candLessThanK, candOldestTS = id, true, false, oldest
		}
	}

	if !haveCandidate {
		log.Panicf("replacer: curr_size %d > 0 but found no evictable frame", r.currSize)
	}

	delete(r.nodes, candidate)
	r.currSize--
	return candidate, true
}

// RecordAccess bumps the monotonic clock and appends a timestamp to the
// frame's history, trimming it to at most k entries.
func (r *LRUKReplacer) RecordAccess(frameID common.FrameID, accessType AccessType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.precheck(frameID); err != nil {
		return err
	}
	r.currentTS++
	n, ok := r.nodes[frameID]
	if !ok {
		n = &node{}
		r.nodes[frameID] = n
	}
	n.history = append(n.history, r.currentTS)
	if len(n.history) > r.k {
		n.history = n.history[1:]
	}
	return nil
}

// SetEvictable toggles whether a frame may be chosen by Evict, maintaining
// Size() as the count of currently-evictable frames.
func (r *LRUKReplacer) SetEvictable(frameID common.FrameID, evictable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.precheck(frameID); err != nil {
		return err
	}
	n, ok := r.nodes[frameID]
	if !ok {
		return nil
	}
	if evictable && !n.evictable {
		r.currSize++
	} else if !evictable && n.evictable {
		r.currSize--
	}
	n.evictable = evictable
	return nil
}

// Remove drops all bookkeeping for a frame. It is only legal on a frame that
// is currently evictable.
func (r *LRUKReplacer) Remove(frameID common.FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.precheck(frameID); err != nil {
		return err
	}
	n, ok := r.nodes[frameID]
	if !ok {
		return nil
	}
	if !n.evictable {
		return enginerr.ErrFrameNotEvictable
	}
	delete(r.nodes, frameID)
	r.currSize--
	return nil
}

// Size returns the number of frames currently eligible for eviction.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
