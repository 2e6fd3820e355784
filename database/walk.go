package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/schema"
	"github.com/jchris/prolly-trees/table"
	"github.com/jchris/prolly-trees/tree"
)

// Reachable walks every block reachable from root — the database root
// block itself, every table root, every schema block, and every node in
// every rows tree and column index — and returns their CIDs. The walk is
// single-threaded since a BlockStore here is not assumed to tolerate
// concurrent readers. Callers use the result to garbage collect a store:
// anything not in this set, and not reachable from any other live root,
// is an orphan block.
func Reachable(ctx context.Context, store blockstore.Getter, root cid.CID) (map[cid.CID]bool, error) {
	seen := map[cid.CID]bool{}
	if root.IsEmpty() {
		return seen, nil
	}
	seen[root] = true
	b, err := store.Get(ctx, root)
	if err != nil {
		return nil, err
	}
	count, off, err := readUvarint(b.Bytes, 0)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		_, next, err := readString(b.Bytes, off)
		if err != nil {
			return nil, err
		}
		off = next
		tableCID, err := cid.FromWire(b.Bytes[off : off+cid.Size])
		if err != nil {
			return nil, err
		}
		off += cid.Size
		if err := reachableFromTable(ctx, store, tableCID, seen); err != nil {
			return nil, err
		}
	}
	return seen, nil
}

func reachableFromTable(ctx context.Context, store blockstore.Getter, tableCID cid.CID, seen map[cid.CID]bool) error {
	if seen[tableCID] {
		return nil
	}
	seen[tableCID] = true
	tableBlock, err := store.Get(ctx, tableCID)
	if err != nil {
		return err
	}
	root, err := table.Load(ctx, store, tableBlock)
	if err != nil {
		return err
	}
	seen[root.SchemaBlock.CID] = true
	if err := reachableFromTree(ctx, store, root.Rows.CID, seen); err != nil {
		return err
	}
	for _, idx := range root.Indexes {
		if err := reachableFromTree(ctx, store, idx.CID, seen); err != nil {
			return err
		}
	}
	return nil
}

func reachableFromTree(ctx context.Context, store blockstore.Getter, root cid.CID, seen map[cid.CID]bool) error {
	if root.IsEmpty() || seen[root] {
		return nil
	}
	seen[root] = true
	b, err := store.Get(ctx, root)
	if err != nil {
		return err
	}
	n, err := tree.Decode(b.Bytes)
	if err != nil {
		return err
	}
	if n.Kind != tree.Branch {
		return nil
	}
	for _, c := range n.Children {
		if err := reachableFromTree(ctx, store, c.CID, seen); err != nil {
			return err
		}
	}
	return nil
}

// Describe renders a human-readable summary of the database at root: its
// tables, their schemas, and their row counts — letting a developer
// eyeball a content-addressed structure without decoding it by hand.
func Describe(ctx context.Context, store blockstore.Getter, root cid.CID) (string, error) {
	d, err := From(ctx, store, root)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "database %s\n", root.String())

	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tableBlock := d.tables[name]
		tr, err := table.Load(ctx, store, tableBlock)
		if err != nil {
			return "", err
		}
		count, err := countRows(ctx, store, tr.Rows.CID)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "  table %s (%s) rows=%d\n", name, tableBlock.CID.String(), count)
		for _, c := range tr.Schema.Columns {
			fmt.Fprintf(&sb, "    %s\n", describeColumn(c))
		}
	}
	return sb.String(), nil
}

func describeColumn(c schema.Column) string {
	if c.Length > 0 {
		return fmt.Sprintf("%s %s(%d)", c.Name, c.Type, c.Length)
	}
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}

func countRows(ctx context.Context, store blockstore.Getter, root cid.CID) (uint64, error) {
	if root.IsEmpty() {
		return 0, nil
	}
	b, err := store.Get(ctx, root)
	if err != nil {
		return 0, err
	}
	n, err := tree.Decode(b.Bytes)
	if err != nil {
		return 0, err
	}
	return n.Count(), nil
}
