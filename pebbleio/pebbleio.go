// Package pebbleio implements btree.IO on top of CockroachDB's Pebble
// LSM engine, the way the lsm package wraps Pebble behind the bench
// suite's Index interface: node ids encode as big-endian keys so
// Pebble's own key ordering lines up with numeric node id order, and
// node bytes are stored as opaque values.
package pebbleio

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/btreecore/ccnbtree/btree"
)

// Backend is a btree.IO backed by a Pebble database.
type Backend struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at the given directory.
func Open(dir string) (*Backend, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebbleio: open: %w", err)
	}
	return &Backend{db: db}, nil
}

// encodeKey encodes a node id as a big-endian 8-byte slice so
// Pebble's lexical key order matches numeric node id order.
func encodeKey(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// Open is a no-op: the shared database handle is already open.
func (b *Backend) Open(node *btree.Node) error { return nil }

// Read loads node's stored bytes, if any, capped at maxBytes.
func (b *Backend) Read(node *btree.Node, maxBytes int) error {
	val, closer, err := b.db.Get(encodeKey(node.ID))
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pebbleio: get node %d: %w", node.ID, err)
	}
	defer closer.Close()
	if len(val) > maxBytes {
		val = val[:maxBytes]
	}
	buf := make([]byte, len(val))
	copy(buf, val)
	node.SetBytes(buf)
	return nil
}

// Write stores node's current bytes, overwriting any prior value.
func (b *Backend) Write(node *btree.Node) error {
	if err := b.db.Set(encodeKey(node.ID), node.Bytes(), pebble.NoSync); err != nil {
		return fmt.Errorf("pebbleio: set node %d: %w", node.ID, err)
	}
	return nil
}

// Close is a no-op; the shared database stays open until Destroy.
func (b *Backend) Close(node *btree.Node) error { return nil }

// Destroy cleanly shuts down Pebble, flushing any in-memory state.
func (b *Backend) Destroy() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("pebbleio: close: %w", err)
	}
	return nil
}
