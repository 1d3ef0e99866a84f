package btree

import "bytes"

// seekResult classifies the outcome of locating an entry trailer.
type seekResult int

const (
	seekOK seekResult = iota
	// seekOutOfRange means the index simply has no entry; the node is
	// not corrupt, the caller just asked for something past the end
	// (or before the start).
	seekOutOfRange
	// seekCorrupt means the node's own bookkeeping is inconsistent.
	// Node.Corrupt is latched before this is ever returned.
	seekCorrupt
)

// seekTrailer locates entry i's trailer and returns its byte offset
// within the node's page. It walks backward from the high end of the
// buffer the way ccn_btree's seek_trailer does: each trailer records
// its own entry size, so the trailer before it sits exactly entsz
// bytes further down, and the last trailer (entdx == nent-1) sits
// flush against the end of the buffer.
func (n *Node) seekTrailer(i int) (off int, res seekResult) {
	if n.Corrupt != 0 {
		return 0, seekCorrupt
	}
	p := n.page()
	if len(p) < headerSize+trailerSize {
		return 0, seekOutOfRange
	}
	end := len(p)
	last := p[end-trailerSize : end]
	lastEntdx := fetch(last[tOffEntdx : tOffEntdx+2])
	entsz := int(fetch(last[tOffEntsz:tOffEntsz+2])) * SizeUnit
	if entsz < trailerSize {
		n.markCorrupt(corruptBadTrailerSize)
		return 0, seekCorrupt
	}
	if uint64(entsz)*(lastEntdx+1) > uint64(end) {
		n.markCorrupt(corruptTrailerOverflow)
		return 0, seekCorrupt
	}
	if i < 0 || uint64(i) > lastEntdx {
		return 0, seekOutOfRange
	}
	off = end - entsz*int(lastEntdx-uint64(i)) - trailerSize
	if off < 0 {
		n.markCorrupt(corruptTrailerOverflow)
		return 0, seekCorrupt
	}
	t := p[off : off+trailerSize]
	if fetch(t[tOffEntdx:tOffEntdx+2]) != uint64(i) {
		n.markCorrupt(corruptEntdxMismatch)
		return 0, seekCorrupt
	}
	return off, seekOK
}

// nent returns the node's entry count, 0 if the buffer is too short to
// hold any entries, or -1 if the node is already latched corrupt.
func (n *Node) nent() int {
	if n.Corrupt != 0 {
		return -1
	}
	p := n.page()
	if len(p) < headerSize+trailerSize {
		return 0
	}
	t := p[len(p)-trailerSize:]
	return int(fetch(t[tOffEntdx:tOffEntdx+2])) + 1
}

// entrySize returns the byte size of one whole entry record (payload
// plus trailer), 0 if the node has no entries yet, or -1 if corrupt.
// Every entry in a node shares the same size.
func (n *Node) entrySize() int {
	if n.Corrupt != 0 {
		return -1
	}
	p := n.page()
	if len(p) < headerSize+trailerSize {
		return 0
	}
	t := p[len(p)-trailerSize:]
	return int(fetch(t[tOffEntsz:tOffEntsz+2])) * SizeUnit
}

// payloadSize returns the size of one entry's payload, excluding its
// trailer.
func (n *Node) payloadSize() int {
	sz := n.entrySize()
	if sz <= trailerSize {
		return 0
	}
	return sz - trailerSize
}

// getEntry locates entry i's payload and trailer, checking that the
// entry's recorded size matches the payload size the caller expects
// (payloadBytes). A node mixes only one payload size at a time, but
// this still catches a misconfigured caller before it reads garbage.
func (n *Node) getEntry(payloadBytes, i int) (payload, trailer []byte, res seekResult) {
	off, res := n.seekTrailer(i)
	if res != seekOK {
		return nil, nil, res
	}
	p := n.page()
	t := p[off : off+trailerSize]
	entsz := int(fetch(t[tOffEntsz:tOffEntsz+2])) * SizeUnit
	if entsz != payloadBytes+trailerSize {
		n.markCorrupt(corruptEntrySizeMismatch)
		return nil, nil, seekCorrupt
	}
	start := off - payloadBytes
	if start < 0 {
		n.markCorrupt(corruptKeySpanOverflow)
		return nil, nil, seekCorrupt
	}
	return p[start:off], t, seekOK
}

// keyFetch returns a fresh copy of entry i's stored key.
func (n *Node) keyFetch(i int) ([]byte, error) {
	return n.keyAppend(nil, i)
}

// KeyFetch returns a fresh copy of entry i's stored key. It is the
// exported counterpart to keyFetch, for callers outside the package
// (I/O backends' tests, the diagnostic CLI) that hold a *Node handle
// from Lookup and want to read what they found.
func (n *Node) KeyFetch(i int) ([]byte, error) {
	return n.keyFetch(i)
}

// NumEntries returns the node's entry count, the exported counterpart
// to nent.
func (n *Node) NumEntries() int {
	return n.nent()
}

// Payload returns a copy of entry i's payload. Every entry in a node
// shares one payload size, PayloadSize(); a payload InsertEntry was
// given shorter than that comes back zero-padded to that size.
func (n *Node) Payload(i int) ([]byte, error) {
	pb := n.payloadSize()
	payload, _, res := n.getEntry(pb, i)
	switch res {
	case seekCorrupt:
		return nil, ErrCorrupt
	case seekOutOfRange:
		return nil, ErrBadIndex
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// PayloadSize returns the byte size of one entry's payload in this
// node, the exported counterpart to payloadSize.
func (n *Node) PayloadSize() int {
	return n.payloadSize()
}

// keyAppend appends entry i's stored key to dst and returns the
// result. The key is stored as up to two fragments (koff0/ksiz0 then
// koff1/ksiz1) in the node's key heap; most keys use only the first.
func (n *Node) keyAppend(dst []byte, i int) ([]byte, error) {
	off, res := n.seekTrailer(i)
	switch res {
	case seekCorrupt:
		return dst, ErrCorrupt
	case seekOutOfRange:
		return dst, ErrBadIndex
	}
	p := n.page()
	t := p[off : off+trailerSize]

	koff0 := int(fetch(t[tOffKoff0:tOffKoff0+2]))
	ksiz0 := int(fetch(t[tOffKsiz0:tOffKsiz0+2]))
	if koff0 < 0 || ksiz0 < 0 || koff0+ksiz0 > len(p) {
		return dst, wrapCorrupt(n, corruptKeySpanOverflow)
	}
	dst = append(dst, p[koff0:koff0+ksiz0]...)

	koff1 := int(fetch(t[tOffKoff1:tOffKoff1+2]))
	ksiz1 := int(fetch(t[tOffKsiz1:tOffKsiz1+2]))
	if ksiz1 == 0 {
		return dst, nil
	}
	if koff1 < 0 || ksiz1 < 0 || koff1+ksiz1 > len(p) {
		return dst, wrapCorrupt(n, corruptKeySpanOverflow)
	}
	dst = append(dst, p[koff1:koff1+ksiz1]...)
	return dst, nil
}

// compareEntry compares key lexicographically against entry i's
// stored key, fragment by fragment. It returns 0 on equality, a
// negative number if key sorts before the stored key, a positive
// number if it sorts after, and the sentinel -9999 if key is a strict
// prefix of the stored key (ccn_btree_compare's convention — this is
// the one outcome ordinary lexicographic comparison can't express,
// since it matters for interior-node descent but not for leaf
// equality).
//
// If i is out of range, compareEntry returns 999 (i negative) or -999
// (i beyond the last entry) with a nil error: these are ordering
// signals for a caller walking off one end of the node, not failures.
func (n *Node) compareEntry(key []byte, i int) (int, error) {
	off, res := n.seekTrailer(i)
	if res == seekCorrupt {
		return 0, ErrCorrupt
	}
	if res == seekOutOfRange {
		if i < 0 {
			return 999, nil
		}
		return -999, nil
	}
	p := n.page()
	t := p[off : off+trailerSize]

	koff := int(fetch(t[tOffKoff0:tOffKoff0+2]))
	ksiz := int(fetch(t[tOffKsiz0:tOffKsiz0+2]))
	if koff < 0 || ksiz < 0 || koff+ksiz > len(p) {
		return 0, wrapCorrupt(n, corruptKeySpanOverflow)
	}
	cmplen := len(key)
	if cmplen > ksiz {
		cmplen = ksiz
	}
	if c := bytes.Compare(key[:cmplen], p[koff:koff+cmplen]); c != 0 {
		return c, nil
	}
	if len(key) < ksiz {
		return -9999, nil
	}
	key = key[cmplen:]

	koff = int(fetch(t[tOffKoff1:tOffKoff1+2]))
	ksiz = int(fetch(t[tOffKsiz1:tOffKsiz1+2]))
	if koff < 0 || ksiz < 0 || koff+ksiz > len(p) {
		return 0, wrapCorrupt(n, corruptKeySpanOverflow)
	}
	cmplen = len(key)
	if cmplen > ksiz {
		cmplen = ksiz
	}
	if c := bytes.Compare(key[:cmplen], p[koff:koff+cmplen]); c != 0 {
		return c, nil
	}
	if len(key) < ksiz {
		return -9999, nil
	}
	if len(key) > ksiz {
		return 1, nil
	}
	return 0, nil
}

// getChild returns the child node id stored in an interior node's
// entry i, validating the internal-payload magic that distinguishes a
// child link from a caller's leaf payload landing in the wrong place.
func (n *Node) getChild(i int) (uint64, error) {
	payload, _, res := n.getEntry(internalPayloadSize, i)
	switch res {
	case seekCorrupt:
		return 0, ErrCorrupt
	case seekOutOfRange:
		return 0, ErrBadIndex
	}
	if uint32(fetch(payload[0:4])) != InternalPayloadMagic {
		return 0, wrapCorrupt(n, corruptInternalPayloadMagic)
	}
	return fetch(payload[4:12]), nil
}

// encodeChildPayload builds the fixed interior-node payload pointing
// at childID.
func encodeChildPayload(childID uint64) []byte {
	p := make([]byte, internalPayloadSize)
	store(p[0:4], uint64(InternalPayloadMagic))
	store(p[4:12], childID)
	return p
}

// wrapCorrupt latches code on n and returns ErrCorrupt; it exists so
// call sites that need to return (value, error) from a helper that
// also mutates Corrupt read as a single expression.
func wrapCorrupt(n *Node, code int) error {
	n.markCorrupt(code)
	return ErrCorrupt
}
