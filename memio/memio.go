// Package memio implements btree.IO entirely in memory: a map keyed
// by node id, guarded by a mutex. It is grounded on the mock storage
// pattern used to unit test B+-tree implementations without touching
// a filesystem — useful for tests and for short-lived trees that
// never need to survive a process restart.
package memio

import (
	"sync"

	"github.com/btreecore/ccnbtree/btree"
)

// Backend is an in-memory btree.IO. The zero value is not usable;
// construct with New.
type Backend struct {
	mu    sync.RWMutex
	pages map[uint64][]byte
}

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{pages: make(map[uint64][]byte)}
}

// Open is a no-op: there is no per-node resource to acquire beyond
// the map entry itself, which Read/Write create lazily.
func (b *Backend) Open(node *btree.Node) error { return nil }

// Read loads node's stored bytes, if any. A node with no stored page
// yet is left with a zero-length buffer, the same as a freshly
// allocated node that hasn't been written.
func (b *Backend) Read(node *btree.Node, maxBytes int) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	stored, ok := b.pages[node.ID]
	if !ok {
		return nil
	}
	n := len(stored)
	if n > maxBytes {
		n = maxBytes
	}
	buf := make([]byte, n)
	copy(buf, stored[:n])
	node.SetBytes(buf)
	return nil
}

// Write stores a copy of node's current bytes.
func (b *Backend) Write(node *btree.Node) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, node.Len())
	copy(stored, node.Bytes())
	b.pages[node.ID] = stored
	return nil
}

// Close is a no-op; the map entry persists until Destroy.
func (b *Backend) Close(node *btree.Node) error { return nil }

// Destroy discards every stored page.
func (b *Backend) Destroy() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages = make(map[uint64][]byte)
	return nil
}
