// Package fileio implements btree.IO on top of a single append-only
// file, the way the pager package backs its fixed-size pages with one
// *os.File — except a node's byte image is not a fixed size, so
// instead of a page table indexed by a constant stride, fileio keeps
// an in-memory offset index built by scanning the file's length-
// prefixed records once at Open time.
package fileio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/btreecore/ccnbtree/btree"
)

// recordHeaderSize is the on-disk prefix before each node's bytes:
// the node id (8 bytes) and the record's payload length (8 bytes).
const recordHeaderSize = 16

// Backend is a btree.IO backed by one file. Writes are append-only:
// rewriting a node appends a fresh record, and the newest record for
// a given id wins on reload. This trades disk space for a format
// simple enough to rebuild its index with a single sequential scan.
type Backend struct {
	mu      sync.Mutex
	file    *os.File
	offsets map[uint64]int64 // nodeID -> offset of its latest record
	tail    int64
}

// Open opens (creating if necessary) the file at path and rebuilds
// the node offset index by scanning it once.
func Open(path string) (*Backend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("fileio: open %s: %w", path, err)
	}
	b := &Backend{file: f, offsets: make(map[uint64]int64)}
	if err := b.rebuildIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) rebuildIndex() error {
	var off int64
	hdr := make([]byte, recordHeaderSize)
	for {
		if _, err := io.ReadFull(b.file, hdr); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("fileio: scan header at %d: %w", off, err)
		}
		id := binary.LittleEndian.Uint64(hdr[0:8])
		length := binary.LittleEndian.Uint64(hdr[8:16])
		b.offsets[id] = off
		next := off + recordHeaderSize + int64(length)
		if _, err := b.file.Seek(next, io.SeekStart); err != nil {
			return fmt.Errorf("fileio: seek past record at %d: %w", off, err)
		}
		off = next
	}
	b.tail = off
	return nil
}

// Open (the IO method) is a no-op: the shared file is already open;
// there is nothing per-node to acquire.
func (b *Backend) Open(node *btree.Node) error { return nil }

// Read loads node's latest stored record, if any.
func (b *Backend) Read(node *btree.Node, maxBytes int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	off, ok := b.offsets[node.ID]
	if !ok {
		return nil
	}
	hdr := make([]byte, recordHeaderSize)
	if _, err := b.file.ReadAt(hdr, off); err != nil {
		return fmt.Errorf("fileio: read header for node %d: %w", node.ID, err)
	}
	length := int(binary.LittleEndian.Uint64(hdr[8:16]))
	if length > maxBytes {
		length = maxBytes
	}
	buf := make([]byte, length)
	if _, err := b.file.ReadAt(buf, off+recordHeaderSize); err != nil {
		return fmt.Errorf("fileio: read body for node %d: %w", node.ID, err)
	}
	node.SetBytes(buf)
	return nil
}

// Write appends a new record for node and updates the offset index.
func (b *Backend) Write(node *btree.Node) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := node.Bytes()
	hdr := make([]byte, recordHeaderSize)
	binary.LittleEndian.PutUint64(hdr[0:8], node.ID)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(data)))
	off := b.tail
	if _, err := b.file.WriteAt(hdr, off); err != nil {
		return fmt.Errorf("fileio: write header for node %d: %w", node.ID, err)
	}
	if _, err := b.file.WriteAt(data, off+recordHeaderSize); err != nil {
		return fmt.Errorf("fileio: write body for node %d: %w", node.ID, err)
	}
	b.offsets[node.ID] = off
	b.tail = off + recordHeaderSize + int64(len(data))
	return nil
}

// Close is a no-op; the shared file stays open until Destroy.
func (b *Backend) Close(node *btree.Node) error { return nil }

// Destroy closes the backing file.
func (b *Backend) Destroy() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
