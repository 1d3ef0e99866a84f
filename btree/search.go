package btree

// encodeSearchResult and its decoders pack a binary-search outcome
// into a single int, the way CCN_BT_ENCRES/CCN_BT_SRCH_INDEX/
// CCN_BT_SRCH_FOUND do: index*2, plus 1 if the key was found exactly.
func encodeSearchResult(index int, found bool) int {
	e := index * 2
	if found {
		e++
	}
	return e
}

// SearchIndex decodes the entry index from a SearchNode result.
func SearchIndex(res int) int { return res / 2 }

// SearchFound decodes whether a SearchNode result was an exact match.
func SearchFound(res int) bool { return res&1 == 1 }

// SearchNode does a binary search for key among node's entries,
// returning encodeSearchResult(index, found): if found, index is the
// matching entry; if not, index is the position key would be inserted
// at to keep the node sorted.
func SearchNode(node *Node, key []byte) (int, error) {
	if node.Corrupt != 0 {
		return 0, ErrCorrupt
	}
	i, j := 0, node.nent()
	if j < 0 {
		return 0, ErrCorrupt
	}
	for i < j {
		mid := (i + j) >> 1
		res, err := node.compareEntry(key, mid)
		if err != nil {
			return 0, err
		}
		if res == 0 {
			return encodeSearchResult(mid, true), nil
		}
		if res < 0 {
			j = mid
		} else {
			i = mid + 1
		}
	}
	return encodeSearchResult(i, false), nil
}

// Lookup searches the tree starting at the root (node id 1) for key,
// descending all the way to a leaf.
func (t *Tree) Lookup(key []byte) (leaf *Node, searchRes int, err error) {
	root, err := t.getNode(1)
	if err != nil {
		return nil, 0, err
	}
	if root.Len() == 0 {
		if err := InitNode(root, 0, 0, 0); err != nil {
			return nil, 0, err
		}
	}
	if root.Corrupt != 0 {
		return nil, 0, ErrCorrupt
	}
	return t.lookupInternal(root, 0, key)
}

// lookupInternal descends from root to stoplevel (0 reaches a leaf),
// recording parent links on every child it visits along the way, the
// way ccn_btree_lookup_internal does so that a later Split can walk
// back up.
func (t *Tree) lookupInternal(root *Node, stoplevel int, key []byte) (*Node, int, error) {
	node := root
	if node.Corrupt != 0 {
		return nil, 0, ErrCorrupt
	}
	level := node.Level()
	if level < stoplevel {
		return nil, 0, ErrBadIndex
	}
	srchres, err := SearchNode(node, key)
	if err != nil {
		return nil, 0, err
	}
	for level > stoplevel {
		entdx := SearchIndex(srchres)
		if SearchFound(srchres) {
			entdx++
		}
		entdx--
		if entdx < 0 {
			return nil, 0, wrapCorrupt(node, corruptMissingChild)
		}
		childID, err := node.getChild(entdx)
		if err != nil {
			return nil, 0, err
		}
		child, err := t.getNode(childID)
		if err != nil {
			return nil, 0, err
		}
		newlevel := child.Level()
		if newlevel != level-1 {
			t.countError()
			return nil, 0, wrapCorrupt(node, corruptLevelMismatch)
		}
		child.Parent = node.ID
		node = child
		level = newlevel
		srchres, err = SearchNode(node, key)
		if err != nil {
			return nil, 0, err
		}
	}
	return node, srchres, nil
}
