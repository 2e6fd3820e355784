package tree

import (
	"bytes"
	"context"
	"sort"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/chunker"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/d"
)

// Build constructs a whole persistent tree from a complete, sorted,
// deduplicated set of entries and returns its root CID. Rather than
// incrementally appending one item at a time to an open chunker, Build
// takes the tree's entire final entry set at once and chunks it bottom-up
// in a single pass. Both approaches produce the same chunk boundaries for
// the same sorted key sequence — content-defined chunking only depends on
// a rolling window of recently written key bytes, never on how the caller
// got there — so this batch-oriented construction is equivalent to an
// incremental one, and it suits a tree whose "mutations" are really
// "replace the whole tree with a new persistent version."
//
// Every block Build creates (every leaf and every branch) is returned
// alongside the root CID so the caller can write them all to a BlockStore
// in one call.
func Build(ctx context.Context, width uint, entries []Entry) (cid.CID, []blockstore.Block, error) {
	if len(entries) == 0 {
		empty := &Node{Kind: Leaf}
		b := blockstore.New(Encode(empty))
		return b.CID, []blockstore.Block{b}, nil
	}

	var blocks []blockstore.Block
	refs := buildLeafLevel(width, entries, &blocks)
	// flush only ever skips appending to refs when current is empty, and
	// current only goes empty right after a flush — so a non-empty entries
	// slice must leave at least one ref behind. A zero here means
	// buildLeafLevel's chunking lost entries rather than just rearranging
	// them, which is a bug in this function, not a malformed-input case.
	d.Chk.True(len(refs) > 0, "buildLeafLevel produced no refs for %d non-empty entries", len(entries))
	for len(refs) > 1 {
		refs = buildBranchLevel(width, refs, &blocks)
	}
	return refs[0].CID, blocks, nil
}

func buildLeafLevel(width uint, entries []Entry, blocks *[]blockstore.Block) []ChildRef {
	boundary := chunker.New(width)
	var refs []ChildRef
	var current []Entry

	flush := func() {
		if len(current) == 0 {
			return
		}
		n := &Node{Kind: Leaf, Entries: current}
		b := blockstore.New(Encode(n))
		*blocks = append(*blocks, b)
		refs = append(refs, ChildRef{Key: n.MaxKey(), CID: b.CID, Count: uint64(len(current))})
		current = nil
		boundary.Reset()
	}

	for _, e := range entries {
		current = append(current, e)
		if boundary.Write(e.Key) {
			flush()
		}
	}
	flush()
	return refs
}

func buildBranchLevel(width uint, children []ChildRef, blocks *[]blockstore.Block) []ChildRef {
	boundary := chunker.New(width)
	var refs []ChildRef
	var current []ChildRef

	flush := func() {
		if len(current) == 0 {
			return
		}
		n := &Node{Kind: Branch, Children: current}
		b := blockstore.New(Encode(n))
		*blocks = append(*blocks, b)
		refs = append(refs, ChildRef{Key: n.MaxKey(), CID: b.CID, Count: n.Count()})
		current = nil
		boundary.Reset()
	}

	for _, c := range children {
		current = append(current, c)
		// A branch closes only once it holds at least two children, so every
		// level has fewer refs than the one below and Build's loop ends.
		if boundary.Write(c.Key) && len(current) > 1 {
			flush()
		}
	}
	flush()
	return refs
}

// CollectEntries walks the whole tree rooted at root and returns its
// entries in ascending key order, suitable for feeding back into Build
// after merging in new or updated entries. This is the "decode current
// tree to an ordered entry set" half of the persistent update cycle;
// package sparsearray and package dbindex each implement the merge step
// appropriate to their own key shape on top of it.
func CollectEntries(ctx context.Context, store blockstore.Getter, root cid.CID) ([]Entry, error) {
	var out []Entry
	err := walk(ctx, store, root, func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

func walk(ctx context.Context, store blockstore.Getter, root cid.CID, visit func(Entry) error) error {
	if root.IsEmpty() {
		return nil
	}
	b, err := store.Get(ctx, root)
	if err != nil {
		return err
	}
	n, err := Decode(b.Bytes)
	if err != nil {
		return err
	}
	switch n.Kind {
	case Leaf:
		for _, e := range n.Entries {
			if err := visit(e); err != nil {
				return err
			}
		}
	case Branch:
		for _, c := range n.Children {
			if err := walk(ctx, store, c.CID, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// MergeEntries combines an existing, sorted entry slice with a set of
// upserts (also sorted by Key, as produced by a single row or index
// update), replacing any existing entry whose Key matches exactly. It is
// the shared merge step Build's callers use to turn "one new row" into
// "the whole new entry set" without duplicating the same linear-merge logic
// in both sparsearray and dbindex.
func MergeEntries(existing, upserts []Entry) []Entry {
	out := make([]Entry, 0, len(existing)+len(upserts))
	i, j := 0, 0
	for i < len(existing) && j < len(upserts) {
		cmp := bytes.Compare(existing[i].Key, upserts[j].Key)
		switch {
		case cmp < 0:
			out = append(out, existing[i])
			i++
		case cmp > 0:
			out = append(out, upserts[j])
			j++
		default:
			out = append(out, upserts[j])
			i++
			j++
		}
	}
	out = append(out, existing[i:]...)
	out = append(out, upserts[j:]...)
	return out
}

// SortEntries sorts entries by Key, ascending. Callers building a fresh
// upsert batch (e.g. a DBIndex insert, whose composite keys aren't
// naturally produced in order) use this before calling MergeEntries.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
}
