package btree

import "testing"

type countingIO struct {
	opens, reads, writes, closes, destroys int
}

func (c *countingIO) Open(node *Node) error          { c.opens++; return nil }
func (c *countingIO) Read(node *Node, max int) error  { c.reads++; return nil }
func (c *countingIO) Write(node *Node) error          { c.writes++; return nil }
func (c *countingIO) Close(node *Node) error          { c.closes++; return nil }
func (c *countingIO) Destroy() error                  { c.destroys++; return nil }

func TestResidentCacheEvictsLRU(t *testing.T) {
	c := newResidentCache(2)
	n1, n2, n3 := newNode(1), newNode(2), newNode(3)

	if evicted := c.insert(n1); evicted != nil {
		t.Fatalf("unexpected eviction on first insert")
	}
	if evicted := c.insert(n2); evicted != nil {
		t.Fatalf("unexpected eviction on second insert")
	}
	c.touch(1) // n1 now most recently used, n2 is the LRU entry
	evicted := c.insert(n3)
	if evicted == nil || evicted.ID != 2 {
		t.Fatalf("expected eviction of node 2, got %v", evicted)
	}
	if _, ok := c.get(2); ok {
		t.Error("node 2 still resident after eviction")
	}
	if _, ok := c.get(1); !ok {
		t.Error("node 1 should still be resident")
	}
	if _, ok := c.get(3); !ok {
		t.Error("node 3 should be resident")
	}
}

func TestGetNodeLoadsThroughIOOnce(t *testing.T) {
	io := &countingIO{}
	tr := Create(io, 0, nil)
	n, err := tr.getNode(5)
	if err != nil {
		t.Fatalf("getNode: %v", err)
	}
	if io.opens != 1 || io.reads != 1 {
		t.Fatalf("expected one open/read, got opens=%d reads=%d", io.opens, io.reads)
	}
	n2, err := tr.getNode(5)
	if err != nil {
		t.Fatalf("getNode again: %v", err)
	}
	if n != n2 {
		t.Error("second getNode for the same id returned a different handle")
	}
	if io.opens != 1 || io.reads != 1 {
		t.Errorf("getNode re-read an already-resident node: opens=%d reads=%d", io.opens, io.reads)
	}
}

func TestCacheEvictionFinalizesNode(t *testing.T) {
	io := &countingIO{}
	tr := Create(io, 1, nil)
	if _, err := tr.getNode(1); err != nil {
		t.Fatalf("getNode(1): %v", err)
	}
	if _, err := tr.getNode(2); err != nil {
		t.Fatalf("getNode(2): %v", err)
	}
	if io.writes != 1 || io.closes != 1 {
		t.Errorf("expected eviction of node 1 to finalize once, got writes=%d closes=%d", io.writes, io.closes)
	}
}

func TestDestroyFinalizesAllResidentNodes(t *testing.T) {
	io := &countingIO{}
	tr := Create(io, 0, nil)
	for id := uint64(1); id <= 3; id++ {
		if _, err := tr.getNode(id); err != nil {
			t.Fatalf("getNode(%d): %v", id, err)
		}
	}
	if err := tr.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if io.writes != 3 || io.closes != 3 || io.destroys != 1 {
		t.Errorf("Destroy did not finalize all nodes: writes=%d closes=%d destroys=%d", io.writes, io.closes, io.destroys)
	}
}
