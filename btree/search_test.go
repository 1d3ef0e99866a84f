package btree

import "testing"

func TestEncodeDecodeSearchResult(t *testing.T) {
	for _, found := range []bool{true, false} {
		for _, idx := range []int{0, 1, 7, 1000} {
			res := encodeSearchResult(idx, found)
			if got := SearchIndex(res); got != idx {
				t.Errorf("SearchIndex(encode(%d,%v)) = %d", idx, found, got)
			}
			if got := SearchFound(res); got != found {
				t.Errorf("SearchFound(encode(%d,%v)) = %v", idx, found, got)
			}
		}
	}
}

func TestSearchNodeFindsExactAndInsertionPoint(t *testing.T) {
	keys := [][]byte{[]byte("bear"), []byte("cat"), []byte("dog"), []byte("fox")}
	n := buildLeaf(t, keys, 4)

	res, err := SearchNode(n, []byte("dog"))
	if err != nil {
		t.Fatalf("SearchNode: %v", err)
	}
	if !SearchFound(res) || SearchIndex(res) != 2 {
		t.Errorf("SearchNode(dog) = index %d found %v, want index 2 found true", SearchIndex(res), SearchFound(res))
	}

	res, err = SearchNode(n, []byte("cow"))
	if err != nil {
		t.Fatalf("SearchNode: %v", err)
	}
	if SearchFound(res) || SearchIndex(res) != 2 {
		t.Errorf("SearchNode(cow) = index %d found %v, want index 2 found false", SearchIndex(res), SearchFound(res))
	}

	res, err = SearchNode(n, []byte("aardvark"))
	if err != nil {
		t.Fatalf("SearchNode: %v", err)
	}
	if SearchFound(res) || SearchIndex(res) != 0 {
		t.Errorf("SearchNode(aardvark) = index %d found %v, want index 0 found false", SearchIndex(res), SearchFound(res))
	}

	res, err = SearchNode(n, []byte("zebra"))
	if err != nil {
		t.Fatalf("SearchNode: %v", err)
	}
	if SearchFound(res) || SearchIndex(res) != len(keys) {
		t.Errorf("SearchNode(zebra) = index %d found %v, want index %d found false", SearchIndex(res), SearchFound(res), len(keys))
	}
}

func TestLookupBootstrapsEmptyRoot(t *testing.T) {
	tr := Create(nil, 0, nil)
	leaf, res, err := tr.Lookup([]byte("x"))
	if err != nil {
		t.Fatalf("Lookup on empty tree: %v", err)
	}
	if leaf == nil {
		t.Fatal("Lookup on empty tree returned nil leaf")
	}
	if leaf.ID != 1 {
		t.Errorf("Lookup on empty tree leaf.ID = %d, want 1", leaf.ID)
	}
	if SearchFound(res) {
		t.Error("Lookup on empty tree should never find a match")
	}
}
