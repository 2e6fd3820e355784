// Package tree implements the generic persistent, content-addressed tree
// that both SparseArray and DBIndex are built on. It knows nothing about
// rows, columns, or SQL — it only ever compares and stores raw, already
// order-preserving-encoded []byte keys (see package codec for how typed
// Values become such keys). That separation is what lets one engine serve
// both the row store (keyed by RowID) and every column index (keyed by
// (value, RowID)) with a single Leaf/Branch node shape, as noted in this
// project's module map.
//
// A Node is a tagged variant, not a class hierarchy: every Node carries a
// Kind and only the fields that Kind uses are populated, distinguishing
// leaf data from branch data by an explicit tag rather than by subtype.
package tree

import "github.com/jchris/prolly-trees/cid"

// Kind tags whether a Node is a leaf (holds entries directly) or a branch
// (holds references to child nodes).
type Kind uint8

const (
	Leaf Kind = iota
	Branch
)

// Entry is one key/value pair stored directly in a leaf node. Value is an
// opaque payload blob — an encoded codec.Row for a SparseArray leaf, or a
// zero-length marker for a DBIndex leaf, where the key alone (value bytes +
// RowID suffix) carries all the information.
type Entry struct {
	Key   []byte
	Value []byte
}

// ChildRef is one entry in a branch node: the maximum key reachable under
// the child, and the child's block CID. Branch entries are kept in
// ascending order by Key, so a search descends by finding the first
// ChildRef whose Key is >= the target.
type ChildRef struct {
	Key   []byte
	CID   cid.CID
	Count uint64 // number of leaf entries in the subtree, for size queries
}

// Node is one block's worth of tree structure: either a run of Entries
// (Kind == Leaf) or a run of ChildRefs (Kind == Branch).
type Node struct {
	Kind     Kind
	Entries  []Entry
	Children []ChildRef
}

// MaxKey returns the largest key reachable under this node, or nil if the
// node is empty.
func (n *Node) MaxKey() []byte {
	switch n.Kind {
	case Leaf:
		if len(n.Entries) == 0 {
			return nil
		}
		return n.Entries[len(n.Entries)-1].Key
	case Branch:
		if len(n.Children) == 0 {
			return nil
		}
		return n.Children[len(n.Children)-1].Key
	default:
		return nil
	}
}

// Count returns the number of leaf entries reachable under this node.
func (n *Node) Count() uint64 {
	switch n.Kind {
	case Leaf:
		return uint64(len(n.Entries))
	case Branch:
		var total uint64
		for _, c := range n.Children {
			total += c.Count
		}
		return total
	default:
		return 0
	}
}

// IsEmpty reports whether the node holds no entries at all, which is only
// ever true of a freshly created, empty tree's root leaf.
func (n *Node) IsEmpty() bool {
	return len(n.Entries) == 0 && len(n.Children) == 0
}
