package btree

import "container/list"

// IO is the pluggable page-I/O backend a Tree can be attached to. A
// Tree with no IO keeps every node purely in memory; with one, nodes
// are loaded on first reference and written back when evicted, the
// way finalize_node drives ccn_btree's hashtb_destroy callback.
//
// Open prepares node for use (allocating backing storage, mapping a
// file, whatever the backend needs) but does not populate its bytes.
// Read populates node's bytes from the backend, reading at most
// maxBytes. Write persists the node's current bytes. Close releases
// any per-node resource Open acquired. Destroy tears down the whole
// backend (e.g. closing a shared file or database handle) once the
// tree itself is being destroyed.
type IO interface {
	Open(node *Node) error
	Read(node *Node, maxBytes int) error
	Write(node *Node) error
	Close(node *Node) error
	Destroy() error
}

// maxNodeBytes bounds how much a single Read call will pull in, the
// way CCN_BTREE_MAX_NODE_BYTES bounds ccn_btree_getnode's read.
const maxNodeBytes = 1 << 20

// cacheEntry is one resident node plus its position in the LRU list.
type cacheEntry struct {
	node *Node
	elem *list.Element
}

// residentCache is the bounded LRU map of resident nodes backing a
// Tree, grounded on the pager package's lruCache: a doubly linked list
// for recency order plus a map for O(1) lookup. Capacity 0 means
// unbounded, matching ccn_btree's original unbounded hashtb.
type residentCache struct {
	capacity int
	entries  map[uint64]*cacheEntry
	order    *list.List // front = most recently used
}

func newResidentCache(capacity int) *residentCache {
	return &residentCache{
		capacity: capacity,
		entries:  make(map[uint64]*cacheEntry),
		order:    list.New(),
	}
}

// get returns a resident node without loading it, matching
// ccn_btree_rnode: a raw lookup with no side effects on eviction
// order, since rnode is documented as a peek that must not disturb
// anything a concurrent walk depends on.
func (c *residentCache) get(id uint64) (*Node, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// touch moves an already-resident node to the front of the LRU order.
func (c *residentCache) touch(id uint64) {
	if e, ok := c.entries[id]; ok {
		c.order.MoveToFront(e.elem)
	}
}

// insert adds a freshly loaded node to the cache, evicting the least
// recently used entry first if the cache is at capacity. evicted is
// non-nil when a node was pushed out and needs finalizing by the
// caller (the cache itself has no IO backend reference).
func (c *residentCache) insert(node *Node) (evicted *Node) {
	if c.capacity > 0 && len(c.entries) >= c.capacity {
		back := c.order.Back()
		if back != nil {
			evicted = back.Value.(*Node)
			delete(c.entries, evicted.ID)
			c.order.Remove(back)
		}
	}
	elem := c.order.PushFront(node)
	c.entries[node.ID] = &cacheEntry{node: node, elem: elem}
	return evicted
}

// remove drops id from the cache outright (used by Destroy and by
// tests), without producing an eviction for the caller to finalize.
func (c *residentCache) remove(id uint64) (*Node, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	delete(c.entries, id)
	c.order.Remove(e.elem)
	return e.node, true
}

// all returns every resident node, in no particular order. Used by
// Destroy to finalize whatever is left.
func (c *residentCache) all() []*Node {
	nodes := make([]*Node, 0, len(c.entries))
	for _, e := range c.entries {
		nodes = append(nodes, e.node)
	}
	return nodes
}

// getNode returns the resident handle for nodeid, loading it through
// the tree's IO backend on first reference. Callers must not retain
// the handle past the next getNode/Split call: the node can be
// evicted and finalized at any later cache insertion.
func (t *Tree) getNode(nodeid uint64) (*Node, error) {
	if n, ok := t.cache.get(nodeid); ok {
		t.cache.touch(nodeid)
		return n, nil
	}
	n := newNode(nodeid)
	if t.io != nil {
		if err := t.io.Open(n); err != nil {
			t.countError()
			n.markCorrupt(corruptShortHeader)
			return n, err
		}
		if err := t.io.Read(n, maxNodeBytes); err != nil {
			t.countError()
			n.markCorrupt(corruptShortHeader)
			return n, err
		}
		n.Clean = uint32(n.Len())
		if _, err := ChkNode(n); err != nil {
			t.countError()
		}
	}
	if evicted := t.cache.insert(n); evicted != nil {
		t.finalizeNode(evicted)
	}
	if t.metrics != nil {
		t.metrics.CacheLoad()
	}
	return n, nil
}

// rnode returns a node only if it is already resident, mirroring
// ccn_btree_rnode.
func (t *Tree) rnode(nodeid uint64) (*Node, bool) {
	return t.cache.get(nodeid)
}

// finalizeNode writes back (if clean to write) and closes node,
// exactly mirroring finalize_node: a corrupt node is never written,
// only closed, and that counts as an error.
func (t *Tree) finalizeNode(node *Node) {
	if t.metrics != nil {
		t.metrics.CacheEvict()
	}
	if t.io == nil {
		return
	}
	var writeErr, closeErr error
	if node.Corrupt == 0 {
		writeErr = t.io.Write(node)
	} else {
		writeErr = ErrCorrupt
	}
	node.Clean = uint32(node.Len())
	closeErr = t.io.Close(node)
	if writeErr != nil || closeErr != nil {
		t.countError()
	}
}
