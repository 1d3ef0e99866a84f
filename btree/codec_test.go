package btree

import "testing"

func TestFetchStoreRoundTrip(t *testing.T) {
	cases := []struct {
		width int
		val   uint64
	}{
		{1, 0xAB},
		{2, 0xBEEF},
		{4, 0xDEADBEEF},
		{8, 0x0102030405060708},
	}
	for _, c := range cases {
		p := make([]byte, c.width)
		store(p, c.val)
		got := fetch(p)
		if got != c.val {
			t.Errorf("width %d: store/fetch round trip got %#x, want %#x", c.width, got, c.val)
		}
	}
}

func TestFetchBigEndianOrder(t *testing.T) {
	p := []byte{0x01, 0x02}
	if got := fetch(p); got != 0x0102 {
		t.Errorf("fetch(%v) = %#x, want 0x0102", p, got)
	}
}

func TestStoreTruncatesHighBits(t *testing.T) {
	p := make([]byte, 1)
	store(p, 0x1FF)
	if p[0] != 0xFF {
		t.Errorf("store truncation: got %#x, want 0xff", p[0])
	}
}
