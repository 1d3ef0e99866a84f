package btree

import (
	"bytes"
	"fmt"
	"io"
)

// ChkNode checks one node for internal consistency: header magic and
// version, uniform entry size and level across all of a node's
// entries, and every key fragment offset/size landing inside the
// buffer. On success it recomputes FreeLow (the byte offset the key
// heap has grown to) and returns the node's previous Corrupt code for
// diagnostic purposes, clearing Corrupt itself. On failure it latches
// a new Corrupt code and returns ErrCorrupt.
func ChkNode(node *Node) (prevCorrupt int, err error) {
	saved := node.Corrupt
	node.Corrupt = 0
	buf := node.buf.Bytes()
	if len(buf) == 0 {
		node.FreeLow = 0
		return 0, nil
	}
	if len(buf) < headerSize {
		return 0, wrapCorrupt(node, corruptShortHeader)
	}
	p := page(buf)
	if headerMagic(p) != Magic {
		return 0, wrapCorrupt(node, corruptBadMagic)
	}
	if headerVersion(p) != Version {
		return 0, wrapCorrupt(node, corruptBadVersion)
	}
	lev := headerLevel(p)
	strbase := headerSize + int(headerExtSize(p))*SizeUnit
	if strbase > len(buf) {
		return 0, wrapCorrupt(node, corruptShortHeader)
	}
	if strbase == len(buf) {
		node.FreeLow = uint32(strbase)
		return saved, nil
	}

	nent := node.nent()
	if nent < 0 {
		return 0, wrapCorrupt(node, corruptShortHeader)
	}
	var freelow, freemax, entsz int
	for i := 0; i < nent; i++ {
		off, res := node.seekTrailer(i)
		if res != seekOK {
			return 0, ErrCorrupt
		}
		t := p[off : off+trailerSize]
		e := int(fetch(t[tOffEntsz : tOffEntsz+2]))
		if i == 0 {
			freemax = off
			entsz = e
		}
		if e != entsz {
			return 0, wrapCorrupt(node, corruptEntrySizeDrift)
		}
		if int(t[tOffLevel]) != int(lev) {
			return 0, wrapCorrupt(node, corruptLevelMismatch)
		}
		for _, frag := range [2]struct{ koffOff, ksizOff int }{
			{tOffKoff0, tOffKsiz0},
			{tOffKoff1, tOffKsiz1},
		} {
			koff := int(fetch(t[frag.koffOff : frag.koffOff+2]))
			ksiz := int(fetch(t[frag.ksizOff : frag.ksizOff+2]))
			if koff < strbase && ksiz != 0 {
				return 0, wrapCorrupt(node, corruptKeySpanOverflow)
			}
			if koff > freemax {
				return 0, wrapCorrupt(node, corruptKeySpanOverflow)
			}
			if ksiz > freemax-koff {
				return 0, wrapCorrupt(node, corruptKeySpanOverflow)
			}
			if koff+ksiz > freelow {
				freelow = koff + ksiz
			}
		}
	}
	node.FreeLow = uint32(freelow)
	return saved, nil
}

// Check walks the whole tree from the root depth-first, running
// ChkNode at every node, verifying that a non-leaf's key 0 is empty,
// and that keys appear in strictly increasing lexical order across
// the entire walk. It logs findings to w in ccn_btree_check's
// %I/%W/%E line convention (info, warning, error) and returns an
// error if any were found. Only resident nodes are visited; Check
// does not page anything in, so run it against a tree that has
// already been walked (or call Lookup first) to get full coverage.
func Check(t *Tree, w io.Writer) error {
	msg := func(tag, format string, args ...interface{}) {
		fmt.Fprintf(w, "%%%s %s\n", tag, fmt.Sprintf(format, args...))
	}
	msg("I", "start check %d %d %d", len(t.cache.entries), t.NextSplit, t.MissedSplit)
	if t.MissedSplit != 0 || t.Errors != 0 {
		msg("W", "reset error indications")
		t.MissedSplit = 0
		t.Errors = 0
	}

	root, ok := t.rnode(1)
	if !ok {
		msg("E", "no root node!")
		t.Errors++
		msg("W", "finish check %d %d %d %d", len(t.cache.entries), t.NextSplit, t.MissedSplit, t.Errors)
		return ErrCorrupt
	}

	type frame struct {
		nodeid uint64
		nextK  int
	}
	var stack []frame
	node := root
	k := 0
	var prevKey, curKey []byte
	walkRes := 0

	for node != nil && walkRes >= 0 {
		lev := node.Level()
		n := node.nent()
		if k == 0 {
			prior, err := ChkNode(node)
			if err != nil {
				msg("E", "ChkNode(%d) error (%d)", node.ID, node.Corrupt)
				t.Errors++
			} else if prior != 0 {
				msg("W", "ChkNode(%d) returned %d", node.ID, prior)
			}
		}
		if k == n {
			if len(stack) == 0 {
				k = 0
				node = nil
			} else {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				k = top.nextK
				node, _ = t.rnode(top.nodeid)
			}
			continue
		}

		if k == 0 && lev > 0 {
			c, err := node.compareEntry(nil, k)
			if err != nil || c != 0 {
				key, _ := node.keyFetch(k)
				msg("E", "Key [%d 0] %d not empty: (%q)", node.ID, lev, key)
				t.Errors++
			}
		} else {
			fetched, err := node.keyFetch(k)
			if err != nil {
				msg("E", "could not fetch key %d of node %d", k, node.ID)
			} else {
				curKey = fetched
				cmp := compareLexical(prevKey, curKey)
				if cmp < 0 || (cmp == 0 && k == 0 && lev == 0) {
					// correctly ordered
				} else {
					msg("E", "Keys are out of order! [%d %d]", node.ID, k)
					t.Errors++
					if t.Errors > 10 {
						walkRes = -1
					}
				}
				prevKey = curKey
				kind := "node"
				if lev == 0 {
					kind = "leaf"
				}
				msg("I", "(%q) [%d %d] %d %s", curKey, node.ID, k, lev, kind)
			}
		}

		if lev == 0 {
			k++
			continue
		}
		stack = append(stack, frame{nodeid: node.ID, nextK: k + 1})
		if len(stack) >= 40 {
			t.Errors++
			msg("W", "finish check %d %d %d %d", len(t.cache.entries), t.NextSplit, t.MissedSplit, t.Errors)
			return ErrCorrupt
		}
		childID, err := node.getChild(k)
		if err != nil {
			t.Errors++
			msg("W", "finish check %d %d %d %d", len(t.cache.entries), t.NextSplit, t.MissedSplit, t.Errors)
			return ErrCorrupt
		}
		child, ok := t.rnode(childID)
		if !ok {
			t.Errors++
			msg("W", "finish check %d %d %d %d", len(t.cache.entries), t.NextSplit, t.MissedSplit, t.Errors)
			return ErrCorrupt
		}
		if child.Parent != node.ID {
			msg("W", "child->parent != node (%d!=%d)", child.Parent, node.ID)
			child.Parent = node.ID
		}
		node = child
		k = 0
	}

	if walkRes <= 0 && t.Errors == 0 {
		return nil
	}
	t.Errors++
	msg("W", "finish check %d %d %d %d", len(t.cache.entries), t.NextSplit, t.MissedSplit, t.Errors)
	return ErrCorrupt
}

// compareLexical orders two byte strings the way ccn_btree_check's
// compare_lexical does: shorter-but-equal-prefix sorts first.
func compareLexical(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if c := bytes.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	return len(a) - len(b)
}
