// Package dbindex implements the per-column index: a persistent tree keyed
// by the composite (columnValue, RowID) encoding from package codec, with
// no leaf payload beyond the key itself — the key is the entire fact
// being recorded ("this value appeared at this row"). Range queries over
// one column walk a contiguous span of this tree instead of the planner
// ever touching every row.
package dbindex

import (
	"context"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/tree"
)

// Empty returns the DBIndex for a column with no rows indexed yet: the
// null sentinel CID, with no block ever written for it.
func Empty() blockstore.Block {
	return blockstore.Block{CID: cid.Empty}
}

// Insert adds (value, rowID) facts and returns the new root plus every
// block the rebuilt tree needed.
func Insert(ctx context.Context, store blockstore.Getter, root blockstore.Block, width uint, facts map[uint64]codec.Value) (blockstore.Block, []blockstore.Block, error) {
	existing, err := tree.CollectEntries(ctx, store, root.CID)
	if err != nil {
		return blockstore.Block{}, nil, err
	}

	upserts := make([]tree.Entry, 0, len(facts))
	for rowID, v := range facts {
		upserts = append(upserts, tree.Entry{Key: codec.IndexKey(v, rowID)})
	}
	tree.SortEntries(upserts)

	merged := tree.MergeEntries(existing, upserts)
	rootCID, blocks, err := tree.Build(ctx, width, merged)
	if err != nil {
		return blockstore.Block{}, nil, err
	}
	for _, b := range blocks {
		if b.CID == rootCID {
			return b, blocks, nil
		}
	}
	return blockstore.Block{}, nil, nil
}

// Bound is one end of a range: an inclusive or exclusive Value boundary, or
// Unbounded to scan off to the start/end of the index.
type Bound struct {
	Value     codec.Value
	Inclusive bool
	Unbounded bool
}

// Unbounded is a convenience Bound meaning "no limit on this side."
var Unbounded = Bound{Unbounded: true}

// Range returns a cursor yielding every RowID whose indexed value falls
// between lower and upper, walked in ascending value order, or descending
// if desc is true. Both directions are equally lazy: a descending Range
// walks the tree back to front rather than buffering the ascending walk
// and reversing it.
func Range(ctx context.Context, store blockstore.Getter, root blockstore.Block, colType codec.Type, lower, upper Bound, desc bool) (*Cursor, error) {
	// A plain value encoding, with no RowID suffix, sorts before every real
	// index key for that value (it's a byte-prefix of all of them). To push
	// past every real key for a value instead, append more 0xff bytes than
	// the longest possible RowID suffix (8 bytes) so the synthetic key
	// dominates even a maximum RowID.
	pastAllRowIDs := func(v codec.Value) []byte {
		b := codec.EncodeOrderedValue(v)
		pad := make([]byte, 9)
		for i := range pad {
			pad[i] = 0xff
		}
		return append(b, pad...)
	}

	var lowKey, highKey []byte
	if !lower.Unbounded {
		if lower.Inclusive {
			lowKey = codec.EncodeOrderedValue(lower.Value)
		} else {
			lowKey = pastAllRowIDs(lower.Value)
		}
	}
	if !upper.Unbounded {
		if upper.Inclusive {
			highKey = pastAllRowIDs(upper.Value)
		} else {
			highKey = codec.EncodeOrderedValue(upper.Value)
		}
	}
	var cur *tree.Cursor
	var err error
	if desc {
		cur, err = tree.NewReverseCursor(ctx, store, root.CID, lowKey, highKey)
	} else {
		cur, err = tree.NewCursor(ctx, store, root.CID, lowKey, highKey)
	}
	if err != nil {
		return nil, err
	}
	return &Cursor{cur: cur, colType: colType}, nil
}

// Cursor decodes raw index keys into (Value, RowID) pairs as it walks.
type Cursor struct {
	cur     *tree.Cursor
	colType codec.Type
}

// Next returns the next indexed (value, rowID) pair, or ok == false when
// exhausted.
func (c *Cursor) Next() (v codec.Value, rowID uint64, ok bool, err error) {
	e, ok, err := c.cur.Next()
	if err != nil || !ok {
		return codec.Value{}, 0, ok, err
	}
	valBytes, id := codec.SplitIndexKey(e.Key, c.colType)
	return codec.DecodeOrderedValue(valBytes, c.colType), id, true, nil
}
