package btree

import (
	"errors"

	"github.com/btreecore/ccnbtree/obs"
)

// ErrTreeHasErrors is returned by Destroy when the tree recorded one
// or more errors over its lifetime; the caller's data is still
// flushed (best effort), but the condition is worth surfacing.
var ErrTreeHasErrors = errors.New("btree: tree recorded errors during its lifetime")

// Tree is a handle to one B+-tree. The root always lives at node id
// 1. A freshly created Tree has no resident nodes at all; the root is
// materialized as an empty leaf the first time Lookup or Put touches
// it.
//
// Tree is not safe for concurrent use; serialize access the way a
// single-writer embedded index expects callers to.
type Tree struct {
	// Magic mirrors the node header magic this tree's nodes carry,
	// mostly so a caller inspecting a Tree value can sanity-check it
	// against a constant without reaching into an internal field.
	Magic uint32
	// Errors counts problems observed since creation (or since the
	// last Check reset them): failed node loads, writes, and latched
	// corruption. Destroy reports it, but does not try to interpret
	// it.
	Errors int
	// NextNodeID is the id that will be assigned to the next
	// freshly allocated node; 1 is reserved for the root.
	NextNodeID uint64
	// Full is the entry-count threshold past which InsertEntry's
	// caller should trigger a Split.
	Full int
	// NextSplit and MissedSplit implement the single-slot pending
	// split queue: NextSplit names a node id a caller should Split
	// next; if a second one comes due before the first is served, it
	// displaces the first into MissedSplit and that one is lost. This
	// mirrors ccn_btree's own queue exactly; it is deliberately not a
	// general worklist.
	NextSplit   uint64
	MissedSplit uint64

	cache   *residentCache
	io      IO
	metrics *obs.Metrics
}

// countError records one tree-level error and, if metrics are
// attached, reports it as a corruption event.
func (t *Tree) countError() {
	t.Errors++
	if t.metrics != nil {
		t.metrics.Corruption()
	}
}

// Create returns a new, empty Tree. io may be nil for a purely
// in-memory tree; cacheCapacity bounds the resident node cache (0
// means unbounded). metrics may be nil to disable instrumentation.
func Create(io IO, cacheCapacity int, metrics *obs.Metrics) *Tree {
	return &Tree{
		Magic: Magic,
		// Node id 1 is the root and is materialized directly by
		// Lookup's bootstrap rather than drawn from this counter (in
		// ccn_btree proper, the root is simply the first id the
		// counter ever hands out); starting the counter at 2 avoids
		// handing that id out a second time to a sibling.
		NextNodeID: 2,
		Full:       20,
		cache:      newResidentCache(cacheCapacity),
		io:         io,
		metrics:    metrics,
	}
}

// Destroy finalizes every resident node (writing back and closing
// through the IO backend, if any) and tears down the backend itself.
// It returns ErrTreeHasErrors if the tree ever recorded an error,
// after still attempting the flush.
func (t *Tree) Destroy() error {
	for _, n := range t.cache.all() {
		t.finalizeNode(n)
	}
	var err error
	if t.Errors != 0 {
		err = ErrTreeHasErrors
	}
	if t.io != nil {
		if destroyErr := t.io.Destroy(); destroyErr != nil && err == nil {
			err = destroyErr
		}
	}
	return err
}

// ResidentNodeIDs returns the ids of every node currently cached in
// memory, in no particular order. It exists for diagnostic tools that
// want to sample the tree's working set without reaching into Tree's
// private cache field.
func (t *Tree) ResidentNodeIDs() []uint64 {
	nodes := t.cache.all()
	ids := make([]uint64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// Resident returns the resident node handle for id without loading it
// through the IO backend, mirroring the internal rnode peek.
func (t *Tree) Resident(id uint64) (*Node, bool) {
	return t.rnode(id)
}

// Put inserts (key, payload) into the tree, descending to the
// appropriate leaf and triggering Split as needed, including any
// cascading splits that propagate up toward the root. It does not
// check for an existing entry with the same key: like the index this
// package is modeled on, Put is an append, not an upsert. Enforcing
// key uniqueness, if a caller wants it, belongs above this layer.
//
// Put is sugar over the documented primitives (Lookup, InsertEntry,
// Split); it exists because driving that sequence by hand at every
// call site is repetitive, not because the primitives needed
// replacing.
func (t *Tree) Put(key, payload []byte) error {
	leaf, searchRes, err := t.Lookup(key)
	if err != nil {
		return err
	}
	idx := SearchIndex(searchRes)
	cnt, err := leaf.InsertEntry(idx, key, payload)
	if err != nil {
		return err
	}
	if t.metrics != nil {
		t.metrics.Insert()
	}
	if cnt <= t.Full {
		return nil
	}
	if err := t.Split(leaf); err != nil {
		return err
	}
	if t.metrics != nil {
		t.metrics.Split()
	}
	for t.NextSplit != 0 {
		id := t.NextSplit
		node, err := t.getNode(id)
		if err != nil {
			return err
		}
		if err := t.Split(node); err != nil {
			return err
		}
		if t.metrics != nil {
			t.metrics.Split()
		}
	}
	return nil
}
