package btree

import "testing"

func TestPutThenLookupRoundTrip(t *testing.T) {
	tr := Create(nil, 0, nil)
	want := map[string]string{
		"apple":  "fruit001",
		"banana": "fruit002",
		"carrot": "veggie01",
	}
	for k, v := range want {
		if err := tr.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	for k, v := range want {
		leaf, res, err := tr.Lookup([]byte(k))
		if err != nil {
			t.Fatalf("Lookup(%q): %v", k, err)
		}
		if !SearchFound(res) {
			t.Fatalf("Lookup(%q) not found", k)
		}
		payload, err := leaf.Payload(SearchIndex(res))
		if err != nil {
			t.Fatalf("Payload(%q): %v", k, err)
		}
		if string(payload) != v {
			t.Errorf("Payload(%q) = %q, want %q", k, payload, v)
		}
	}
}

func TestLookupMissingKeyGivesInsertionPoint(t *testing.T) {
	tr := Create(nil, 0, nil)
	for _, k := range []string{"b", "d", "f"} {
		if err := tr.Put([]byte(k), []byte("value123")); err != nil {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
	leaf, res, err := tr.Lookup([]byte("c"))
	if err != nil {
		t.Fatalf("Lookup(c): %v", err)
	}
	if SearchFound(res) {
		t.Fatal("Lookup(c) unexpectedly found a match")
	}
	if SearchIndex(res) != 1 {
		t.Errorf("Lookup(c) insertion index = %d, want 1", SearchIndex(res))
	}
	_ = leaf
}

func TestDestroyReportsAccumulatedErrors(t *testing.T) {
	tr := Create(nil, 0, nil)
	if err := tr.Put([]byte("x"), []byte("y")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	tr.Errors++
	if err := tr.Destroy(); err != ErrTreeHasErrors {
		t.Errorf("Destroy() = %v, want ErrTreeHasErrors", err)
	}
}

func TestCorruptNodeLatchesAndRefusesFurtherWork(t *testing.T) {
	tr := Create(nil, 0, nil)
	if err := tr.Put([]byte("a"), []byte("value123")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	root, ok := tr.rnode(1)
	if !ok {
		t.Fatal("root not resident")
	}
	root.Bytes()[0] ^= 0xff // corrupt the magic
	if _, err := ChkNode(root); err != ErrCorrupt {
		t.Fatalf("ChkNode on tampered root: err = %v, want ErrCorrupt", err)
	}
	if _, _, err := tr.Lookup([]byte("a")); err != ErrCorrupt {
		t.Fatalf("Lookup on corrupt root: err = %v, want ErrCorrupt", err)
	}
	if _, err := root.InsertEntry(0, []byte("b"), []byte("value456")); err != ErrCorrupt {
		t.Fatalf("InsertEntry on corrupt node: err = %v, want ErrCorrupt", err)
	}
}

func TestPrefixKeyIsNotConfusedWithFullMatch(t *testing.T) {
	n := buildLeaf(t, [][]byte{[]byte("cat"), []byte("category")}, 4)
	res, err := SearchNode(n, []byte("cat"))
	if err != nil {
		t.Fatalf("SearchNode: %v", err)
	}
	if !SearchFound(res) || SearchIndex(res) != 0 {
		t.Fatalf("SearchNode(cat) = index %d found %v, want index 0 found true", SearchIndex(res), SearchFound(res))
	}
	cmp, err := n.compareEntry([]byte("cat"), 1)
	if err != nil {
		t.Fatalf("compareEntry: %v", err)
	}
	if cmp != -9999 {
		t.Errorf("compareEntry(cat, category) = %d, want -9999 (strict prefix)", cmp)
	}
}
