package btree

import (
	"bytes"
	"strings"
	"testing"
)

func TestChkNodeEmptyBuffer(t *testing.T) {
	n := newNode(1)
	if _, err := ChkNode(n); err != nil {
		t.Fatalf("ChkNode on empty node: %v", err)
	}
	if n.FreeLow != 0 {
		t.Errorf("FreeLow = %d, want 0", n.FreeLow)
	}
}

func TestChkNodeRejectsBadMagic(t *testing.T) {
	n := newNode(1)
	if err := InitNode(n, 0, 0, 0); err != nil {
		t.Fatalf("InitNode: %v", err)
	}
	buf := n.Bytes()
	buf[0] ^= 0xff
	if _, err := ChkNode(n); err != ErrCorrupt {
		t.Fatalf("ChkNode with bad magic: err = %v, want ErrCorrupt", err)
	}
	if n.Corrupt == 0 {
		t.Error("ChkNode did not latch Corrupt on bad magic")
	}
}

func TestChkNodeRecomputesFreeLow(t *testing.T) {
	n := newLeaf(t)
	if _, err := n.InsertEntry(0, []byte("abc"), []byte("12345678")); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	wantFreeLow := n.FreeLow
	n.FreeLow = 0
	if _, err := ChkNode(n); err != nil {
		t.Fatalf("ChkNode: %v", err)
	}
	if n.FreeLow != wantFreeLow {
		t.Errorf("ChkNode recomputed FreeLow = %d, want %d", n.FreeLow, wantFreeLow)
	}
}

func TestCheckWalksConsistentTree(t *testing.T) {
	tr := Create(nil, 0, nil)
	tr.Full = 3
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		if err := tr.Put([]byte(k), []byte("value123")); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	var log bytes.Buffer
	if err := Check(tr, &log); err != nil {
		t.Fatalf("Check on consistent tree: %v\nlog:\n%s", err, log.String())
	}
	if !strings.Contains(log.String(), "%I start check") {
		t.Errorf("Check log missing start marker:\n%s", log.String())
	}
}

func TestCheckDetectsOutOfOrderKeys(t *testing.T) {
	tr := Create(nil, 0, nil)
	leaf, _, err := tr.Lookup([]byte("m"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := leaf.InsertEntry(0, []byte("z"), []byte("v")); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if _, err := leaf.InsertEntry(1, []byte("a"), []byte("v")); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	var log bytes.Buffer
	if err := Check(tr, &log); err == nil {
		t.Fatal("Check did not detect out-of-order keys")
	}
	if !strings.Contains(log.String(), "out of order") {
		t.Errorf("Check log missing out-of-order report:\n%s", log.String())
	}
}
