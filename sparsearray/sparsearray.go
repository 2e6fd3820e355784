// Package sparsearray implements the per-table row store: a persistent
// tree keyed by RowID that holds the encoded row tuple at each key. It is
// "sparse" in the sense that deleted rows (not modeled yet, but the shape
// allows for it) leave gaps in the RowID space rather than shifting every
// later row down, so a RowID, once assigned, keeps meaning forever.
package sparsearray

import (
	"context"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/tree"
)

// A table's row store has no dedicated handle type of its own: callers
// (package table) just hold the root blockstore.Block returned by Empty or
// Insert and pass it back in on the next operation. Every function here is
// a pure transform from one root to the next.

// Empty returns the SparseArray for a table with no rows yet: the null
// sentinel CID, with no block ever written for it. tree.Get and
// tree.NewCursor already treat that CID as "no entries" without a fetch,
// so an empty table costs zero blocks until the first row lands.
func Empty() blockstore.Block {
	return blockstore.Block{CID: cid.Empty}
}

// Get returns the row stored under id.
func Get(ctx context.Context, store blockstore.Getter, root blockstore.Block, id uint64) (codec.Row, error) {
	val, err := tree.Get(ctx, store, root.CID, codec.EncodeRowID(id))
	if err != nil {
		return nil, err
	}
	return codec.DecodeRow(val)
}

// MaxRowID scans the tree to find the highest assigned RowID, or returns
// (0, false) for an empty table. INSERT uses this to assign each new row
// the next RowID: RowIds increase monotonically and are never reused.
func MaxRowID(ctx context.Context, store blockstore.Getter, root blockstore.Block) (uint64, bool, error) {
	entries, err := tree.CollectEntries(ctx, store, root.CID)
	if err != nil {
		return 0, false, err
	}
	if len(entries) == 0 {
		return 0, false, nil
	}
	return codec.DecodeRowID(entries[len(entries)-1].Key), true, nil
}

// Insert adds rows, assigning them the RowIDs the caller supplies (the
// table layer is responsible for allocating fresh, increasing ids), and
// returns the new root block plus every block the rebuilt tree needed.
func Insert(ctx context.Context, store blockstore.Getter, root blockstore.Block, width uint, rows map[uint64]codec.Row) (blockstore.Block, []blockstore.Block, error) {
	existing, err := tree.CollectEntries(ctx, store, root.CID)
	if err != nil {
		return blockstore.Block{}, nil, err
	}

	upserts := make([]tree.Entry, 0, len(rows))
	for id, row := range rows {
		upserts = append(upserts, tree.Entry{Key: codec.EncodeRowID(id), Value: codec.EncodeRow(row)})
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

// Scan returns a cursor yielding every row in ascending RowID order.
func Scan(ctx context.Context, store blockstore.Getter, root blockstore.Block) (*RowCursor, error) {
	cur, err := tree.NewCursor(ctx, store, root.CID, nil, nil)
	if err != nil {
		return nil, err
	}
	return &RowCursor{cur: cur}, nil
}

// RowCursor decodes tree.Entry payloads into rows as it walks.
type RowCursor struct {
	cur *tree.Cursor
}

// Next returns the next (RowID, Row) pair, or ok == false when exhausted.
func (c *RowCursor) Next() (id uint64, row codec.Row, ok bool, err error) {
	e, ok, err := c.cur.Next()
	if err != nil || !ok {
		return 0, nil, ok, err
	}
	row, err = codec.DecodeRow(e.Value)
	if err != nil {
		return 0, nil, false, err
	}
	return codec.DecodeRowID(e.Key), row, true, nil
}
