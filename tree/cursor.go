package tree

import (
	"bytes"
	"context"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/dberrors"
)

// Get returns the Value stored under key, or a NotFoundError if no such
// entry exists in the tree rooted at root.
func Get(ctx context.Context, store blockstore.Getter, root cid.CID, key []byte) ([]byte, error) {
	if root.IsEmpty() {
		return nil, dberrors.NewNotFoundError("key %x", key)
	}
	b, err := store.Get(ctx, root)
	if err != nil {
		return nil, err
	}
	n, err := Decode(b.Bytes)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case Leaf:
		i := sortSearchEntries(n.Entries, key)
		if i < len(n.Entries) && bytes.Equal(n.Entries[i].Key, key) {
			return n.Entries[i].Value, nil
		}
		return nil, dberrors.NewNotFoundError("key %x", key)
	case Branch:
		i := sortSearchChildren(n.Children, key)
		if i >= len(n.Children) {
			return nil, dberrors.NewNotFoundError("key %x", key)
		}
		return Get(ctx, store, n.Children[i].CID, key)
	default:
		return nil, dberrors.NewCodecError("unknown node kind")
	}
}

// Cursor is a pull-based iterator over a range of a tree's entries, walked
// in ascending or descending key order depending on which constructor
// built it. Each call to Next fetches at most the blocks needed to produce
// the next entry, so a full table scan never holds more than one
// path-from-root's worth of nodes in memory at a time, in either
// direction.
type Cursor struct {
	ctx        context.Context
	store      blockstore.Getter
	stack      []frame
	lowerOK    func(key []byte) bool
	upperOK    func(key []byte) bool
	descending bool
	started    bool
	exhausted  bool
}

type frame struct {
	node *Node
	idx  int
}

// NewCursor returns a Cursor over root, yielding entries in ascending key
// order, restricted to keys k with lower <= k <= upper (both bounds
// inclusive). Pass nil bounds to scan unbounded in that direction.
// Construction fetches the path from the root to the first leaf in range.
func NewCursor(ctx context.Context, store blockstore.Getter, root cid.CID, lower, upper []byte) (*Cursor, error) {
	c := newBoundedCursor(ctx, store, lower, upper, false)
	if root.IsEmpty() {
		c.exhausted = true
		return c, nil
	}
	n, err := c.fetch(root)
	if err != nil {
		return nil, err
	}
	c.stack = []frame{{node: n, idx: 0}}
	if lower != nil {
		if err := c.seek(lower); err != nil {
			return nil, err
		}
	} else {
		if err := c.descendToFirstLeaf(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewReverseCursor returns a Cursor over root, yielding the same entries
// NewCursor would, but in descending key order: starting from upper (or
// the tree's last entry, if upper is nil) and walking down toward lower.
// It is as lazy as NewCursor — construction fetches only the path from the
// root to the starting leaf, and every later block is fetched by Next — so
// ORDER BY ... DESC never has to buffer the ascending walk and reverse it.
func NewReverseCursor(ctx context.Context, store blockstore.Getter, root cid.CID, lower, upper []byte) (*Cursor, error) {
	c := newBoundedCursor(ctx, store, lower, upper, true)
	if root.IsEmpty() {
		c.exhausted = true
		return c, nil
	}
	n, err := c.fetch(root)
	if err != nil {
		return nil, err
	}
	if upper != nil {
		c.stack = []frame{{node: n, idx: 0}}
		if err := c.seekDescending(upper); err != nil {
			return nil, err
		}
	} else {
		c.stack = []frame{{node: n, idx: lastIdx(n)}}
		if err := c.descendToLastLeaf(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// lastIdx returns the index of a node's rightmost slot — its last entry
// for a leaf, its last child for a branch — the starting position for a
// descending walk that is pushed onto the stack, not yet examined.
func lastIdx(n *Node) int {
	if n.Kind == Leaf {
		return len(n.Entries) - 1
	}
	return len(n.Children) - 1
}

func newBoundedCursor(ctx context.Context, store blockstore.Getter, lower, upper []byte, descending bool) *Cursor {
	return &Cursor{
		ctx:        ctx,
		store:      store,
		descending: descending,
		lowerOK: func(key []byte) bool {
			return lower == nil || bytes.Compare(key, lower) >= 0
		},
		upperOK: func(key []byte) bool {
			return upper == nil || bytes.Compare(key, upper) <= 0
		},
	}
}

func (c *Cursor) fetch(id cid.CID) (*Node, error) {
	b, err := c.store.Get(c.ctx, id)
	if err != nil {
		return nil, err
	}
	return Decode(b.Bytes)
}

// descendToFirstLeaf walks down from the current top-of-stack branch node
// (idx already positioned) until the top of stack is a leaf frame.
func (c *Cursor) descendToFirstLeaf() error {
	for {
		top := &c.stack[len(c.stack)-1]
		if top.node.Kind == Leaf {
			return nil
		}
		if top.idx >= len(top.node.Children) {
			c.popLevel()
			if len(c.stack) == 0 {
				c.exhausted = true
				return nil
			}
			continue
		}
		child, err := c.fetch(top.node.Children[top.idx].CID)
		if err != nil {
			return err
		}
		c.stack = append(c.stack, frame{node: child, idx: 0})
	}
}

// descendToLastLeaf is descendToFirstLeaf's mirror: the current
// top-of-stack frame's idx is already positioned at its rightmost
// remaining slot (by lastIdx, at push time), and this walks down taking
// that slot at each level until the top of stack is a leaf.
func (c *Cursor) descendToLastLeaf() error {
	for {
		top := &c.stack[len(c.stack)-1]
		if top.idx < 0 {
			c.popLevelDescending()
			if len(c.stack) == 0 {
				c.exhausted = true
				return nil
			}
			continue
		}
		if top.node.Kind == Leaf {
			return nil
		}
		child, err := c.fetch(top.node.Children[top.idx].CID)
		if err != nil {
			return err
		}
		c.stack = append(c.stack, frame{node: child, idx: lastIdx(child)})
	}
}

// popLevel discards the current top frame and advances its parent past the
// child it just finished, or pops the stack empty if there is no parent.
func (c *Cursor) popLevel() {
	c.stack = c.stack[:len(c.stack)-1]
	if len(c.stack) > 0 {
		c.stack[len(c.stack)-1].idx++
	}
}

// popLevelDescending is popLevel's mirror: retreats the parent to the
// previous child instead of advancing to the next one.
func (c *Cursor) popLevelDescending() {
	c.stack = c.stack[:len(c.stack)-1]
	if len(c.stack) > 0 {
		c.stack[len(c.stack)-1].idx--
	}
}

// seek descends the tree positioning the cursor at the first entry whose
// key is >= target.
func (c *Cursor) seek(target []byte) error {
	for {
		top := &c.stack[len(c.stack)-1]
		if top.node.Kind == Leaf {
			top.idx = sortSearchEntries(top.node.Entries, target)
			if top.idx >= len(top.node.Entries) {
				return c.advancePastLeaf()
			}
			return nil
		}
		top.idx = sortSearchChildren(top.node.Children, target)
		if top.idx >= len(top.node.Children) {
			c.popLevel()
			if len(c.stack) == 0 {
				c.exhausted = true
				return nil
			}
			continue
		}
		child, err := c.fetch(top.node.Children[top.idx].CID)
		if err != nil {
			return err
		}
		c.stack = append(c.stack, frame{node: child, idx: 0})
	}
}

// seekDescending positions the cursor at the last entry whose key is <=
// target — seek's mirror. A branch's child Key is the max key in its
// subtree, so the first child whose Key is >= target is also the child
// that contains the largest key <= target (or, if target exceeds every
// key in the tree, the rightmost child serves the same purpose).
func (c *Cursor) seekDescending(target []byte) error {
	for {
		top := &c.stack[len(c.stack)-1]
		if top.node.Kind == Leaf {
			top.idx = sortSearchEntriesAtMost(top.node.Entries, target)
			if top.idx < 0 {
				return c.advancePastLeafDescending()
			}
			return nil
		}
		top.idx = sortSearchChildren(top.node.Children, target)
		if top.idx >= len(top.node.Children) {
			top.idx = len(top.node.Children) - 1
		}
		child, err := c.fetch(top.node.Children[top.idx].CID)
		if err != nil {
			return err
		}
		c.stack = append(c.stack, frame{node: child, idx: 0})
	}
}

// advancePastLeaf pops an exhausted leaf frame and re-descends to the next
// leaf, if any remain.
func (c *Cursor) advancePastLeaf() error {
	c.popLevel()
	if len(c.stack) == 0 {
		c.exhausted = true
		return nil
	}
	return c.descendToFirstLeaf()
}

// advancePastLeafDescending is advancePastLeaf's mirror.
func (c *Cursor) advancePastLeafDescending() error {
	c.popLevelDescending()
	if len(c.stack) == 0 {
		c.exhausted = true
		return nil
	}
	return c.descendToLastLeaf()
}

// Next returns the next entry in range, in whichever direction this
// Cursor was constructed to walk, or (Entry{}, false, nil) when exhausted.
func (c *Cursor) Next() (Entry, bool, error) {
	if c.descending {
		return c.nextDescending()
	}
	for {
		if c.exhausted || len(c.stack) == 0 {
			return Entry{}, false, nil
		}
		top := &c.stack[len(c.stack)-1]
		if top.idx >= len(top.node.Entries) {
			if err := c.advancePastLeaf(); err != nil {
				return Entry{}, false, err
			}
			continue
		}
		e := top.node.Entries[top.idx]
		if !c.upperOK(e.Key) {
			c.exhausted = true
			return Entry{}, false, nil
		}
		top.idx++
		if !c.lowerOK(e.Key) {
			continue
		}
		return e, true, nil
	}
}

func (c *Cursor) nextDescending() (Entry, bool, error) {
	for {
		if c.exhausted || len(c.stack) == 0 {
			return Entry{}, false, nil
		}
		top := &c.stack[len(c.stack)-1]
		if top.idx < 0 {
			if err := c.advancePastLeafDescending(); err != nil {
				return Entry{}, false, err
			}
			continue
		}
		e := top.node.Entries[top.idx]
		if !c.lowerOK(e.Key) {
			c.exhausted = true
			return Entry{}, false, nil
		}
		top.idx--
		if !c.upperOK(e.Key) {
			continue
		}
		return e, true, nil
	}
}

// sortSearchEntries returns the index of the first entry whose Key is >=
// target, or len(entries) if none qualifies.
func sortSearchEntries(entries []Entry, target []byte) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(entries[mid].Key, target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// sortSearchEntriesAtMost returns the index of the last entry whose Key is
// <= target, or -1 if none qualifies. It is sortSearchEntries' mirror: it
// finds the first entry >= target and steps back one unless that entry is
// an exact match (keys in a leaf are unique, so an exact match is itself
// the answer).
func sortSearchEntriesAtMost(entries []Entry, target []byte) int {
	i := sortSearchEntries(entries, target)
	if i < len(entries) && bytes.Equal(entries[i].Key, target) {
		return i
	}
	return i - 1
}

// sortSearchChildren returns the index of the first ChildRef whose Key
// (the max key in its subtree) is >= target, or len(children) if the
// target is past every child's range.
func sortSearchChildren(children []ChildRef, target []byte) int {
	lo, hi := 0, len(children)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(children[mid].Key, target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
