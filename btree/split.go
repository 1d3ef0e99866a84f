package btree

// growALevel adds a level above node (which must be the root, id 1)
// in preparation for a split: the root's old content moves to a
// freshly allocated child, and the root is reinitialized as a
// singleton interior node pointing at that child. It is the only way
// the tree's height ever increases.
func (t *Tree) growALevel(node *Node) (*Node, error) {
	level := node.Level()
	if level < 0 {
		return nil, ErrCorrupt
	}
	child, err := t.getNode(t.NextNodeID)
	if err != nil {
		return nil, err
	}
	t.NextNodeID++
	child.Clean = 0
	node.Clean = 0
	node.buf, child.buf = child.buf, node.buf
	if err := InitNode(node, level+1, 'R', 0); err != nil {
		t.countError()
	}
	if _, err := node.InsertEntry(0, nil, encodeChildPayload(child.ID)); err != nil {
		t.countError()
	}
	child.Parent = node.ID
	return child, nil
}

// Split splits an overfull node into two siblings and links the new
// sibling into node's parent under a freshly computed separator key.
// node must have at least four entries (spreading fewer than that
// across two nodes isn't productive). Splitting the root first grows
// the tree a level so the root always has somewhere to split into.
//
// If the parent ends up with more entries than the tree's Full
// threshold, Split records it as a pending split: callers drive
// cascading splits by consulting Tree.NextSplit (and its single-slot
// overflow, Tree.MissedSplit) after each InsertEntry/Split, the way
// ccn_btree_split's caller does.
func (t *Tree) Split(node *Node) error {
	if t.NextSplit == node.ID {
		t.NextSplit = 0
	}
	n := node.nent()
	if n < 4 {
		return ErrSplitPrecondition
	}
	if node.ID == 1 {
		grown, err := t.growALevel(node)
		if err != nil {
			return err
		}
		if grown.ID == 1 || grown.Parent != 1 || grown.nent() != n {
			panic("btree: grow_a_level invariant violated")
		}
		node = grown
	}

	if node.Parent == 0 {
		return ErrNoParent
	}
	parent, err := t.getNode(node.Parent)
	if err != nil {
		return err
	}
	if parent.nent() < 1 {
		node.markCorrupt(corruptMissingChild)
		return ErrCorrupt
	}
	if parent.payloadSize() != internalPayloadSize {
		node.markCorrupt(corruptInternalPayloadMagic)
		return ErrCorrupt
	}

	pb := node.payloadSize()
	level := node.Level()

	a0 := newNode(node.ID)
	if err := InitNode(a0, level, 0, 0); err != nil {
		t.countError()
		return err
	}
	a0.Parent = node.Parent

	a1, err := t.getNode(t.NextNodeID)
	if err != nil {
		t.countError()
		return err
	}
	t.NextNodeID++
	if a1.nent() != 0 {
		t.countError()
		return ErrCorrupt
	}
	if err := InitNode(a1, level, 0, 0); err != nil {
		t.countError()
		return err
	}
	a1.Parent = node.Parent

	j, half := 0, 0
	for i := 0; i < n; i++ {
		key, err := node.keyFetch(i)
		if err != nil {
			t.countError()
			return err
		}
		if i == n/2 {
			half = 1
			j = 0
			if level > 0 {
				key = nil
			}
		}
		payload, _, res := node.getEntry(pb, i)
		if res != seekOK {
			t.countError()
			return ErrCorrupt
		}
		dest := a0
		if half == 1 {
			dest = a1
		}
		if _, err := dest.InsertEntry(j, key, payload); err != nil {
			t.countError()
			return err
		}
		j++
	}

	splitKey, err := node.keyFetch(n / 2)
	if err != nil {
		t.countError()
		return err
	}
	link := encodeChildPayload(a1.ID)

	srchres, err := SearchNode(parent, splitKey)
	if err != nil {
		t.countError()
		return err
	}
	if SearchFound(srchres) && len(splitKey) != 0 {
		t.countError()
		return ErrCorrupt
	}
	idx := SearchIndex(srchres)
	oldChild, err := parent.getChild(idx - 1)
	if err != nil || oldChild != a0.ID {
		node.markCorrupt(corruptMissingChild)
		parent.markCorrupt(corruptMissingChild)
		t.countError()
		return ErrCorrupt
	}

	cnt, err := parent.InsertEntry(idx, splitKey, link)
	if err != nil {
		parent.markCorrupt(corruptMissingChild)
		t.countError()
		return err
	}
	if cnt > t.Full {
		t.MissedSplit = t.NextSplit
		t.NextSplit = parent.ID
	}

	node.Clean = 0
	node.buf = a0.buf
	if _, err := ChkNode(node); err != nil {
		return err
	}
	return nil
}
