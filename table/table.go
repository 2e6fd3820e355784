// Package table implements one table's full on-disk shape: its schema
// block, its row store (package sparsearray), and one column index
// (package dbindex) per column, all tied together under a single root
// block so the whole table is addressable by one CID. This is the "table
// root" referenced in the module map: {schema, rows, indexes[]}.
package table

import (
	"context"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/chunker"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dberrors"
	"github.com/jchris/prolly-trees/dbindex"
	"github.com/jchris/prolly-trees/schema"
	"github.com/jchris/prolly-trees/sparsearray"
)

// Root is the decoded, in-memory view of a table's root block: pointers to
// its schema block and its rows and index trees. It is immutable — every
// mutating call returns a new Root plus the blocks that make it
// persistable.
type Root struct {
	SchemaBlock blockstore.Block
	Schema      *schema.Table
	Rows        blockstore.Block
	Indexes     map[string]blockstore.Block // column name -> DBIndex root
}

// Create builds the root for a brand-new, empty table.
func Create(ts *schema.Table) (Root, []blockstore.Block, error) {
	var blocks []blockstore.Block

	schemaBytes := schema.Encode(ts)
	schemaBlock := blockstore.New(schemaBytes)
	blocks = append(blocks, schemaBlock)

	// sparsearray.Empty and dbindex.Empty return the null sentinel CID with
	// no backing block, so neither is added to blocks: a brand-new table
	// costs exactly one block (its schema) until the first row lands.
	rowsRoot := sparsearray.Empty()

	indexes := make(map[string]blockstore.Block, len(ts.Columns))
	for _, c := range ts.Columns {
		indexes[c.Name] = dbindex.Empty()
	}

	return Root{SchemaBlock: schemaBlock, Schema: ts, Rows: rowsRoot, Indexes: indexes}, blocks, nil
}

// Encode produces the canonical block bytes for a table root: the schema
// block's CID, the rows tree's CID, then each column index's CID in
// column-declaration order (not map iteration order, so the encoding is
// deterministic).
func Encode(r *Root) []byte {
	buf := append([]byte{}, r.SchemaBlock.CID.Bytes()...)
	buf = append(buf, r.Rows.CID.Bytes()...)
	for _, c := range r.Schema.Columns {
		buf = append(buf, r.Indexes[c.Name].CID.Bytes()...)
	}
	return buf
}

// Load reads a table root block back into memory, fetching its schema
// block (but not its rows or index contents — those stay lazy, fetched
// block by block as queries touch them).
func Load(ctx context.Context, store blockstore.Getter, rootBlock blockstore.Block) (Root, error) {
	b := rootBlock.Bytes
	if len(b) < 2*cid.Size {
		return Root{}, dberrors.NewCodecError("truncated table root")
	}
	schemaCID, err := cid.FromWire(b[0:cid.Size])
	if err != nil {
		return Root{}, err
	}
	rowsCID, err := cid.FromWire(b[cid.Size : 2*cid.Size])
	if err != nil {
		return Root{}, err
	}
	schemaBlock, err := store.Get(ctx, schemaCID)
	if err != nil {
		return Root{}, err
	}
	ts, err := schema.Decode(schemaBlock.Bytes)
	if err != nil {
		return Root{}, err
	}
	// Rows and each column's index are addressed, not fetched: a root CID
	// of cid.Empty means no block was ever written there (see
	// sparsearray.Empty/dbindex.Empty), and every reader of these fields
	// goes through tree.Get/tree.NewCursor, which already treat
	// IsEmpty() as "no entries" without a store round trip.
	rowsBlock := blockstore.Block{CID: rowsCID}

	off := 2 * cid.Size
	indexes := make(map[string]blockstore.Block, len(ts.Columns))
	for _, c := range ts.Columns {
		if off+cid.Size > len(b) {
			return Root{}, dberrors.NewCodecError("truncated table root index list")
		}
		idxCID, err := cid.FromWire(b[off : off+cid.Size])
		if err != nil {
			return Root{}, err
		}
		off += cid.Size
		indexes[c.Name] = blockstore.Block{CID: idxCID}
	}

	return Root{SchemaBlock: schemaBlock, Schema: ts, Rows: rowsBlock, Indexes: indexes}, nil
}

// InsertRows appends raw column values for one or more new rows, assigning
// each the next RowID, padding missing trailing columns with NULL, and
// updating the row store and every column index. It returns the new Root
// and every new block needed to persist it (including the new table root
// block itself, appended last).
func InsertRows(ctx context.Context, store blockstore.Getter, r Root, rawRows [][]codec.Value) (Root, []blockstore.Block, error) {
	var allBlocks []blockstore.Block

	nextID, ok, err := sparsearray.MaxRowID(ctx, store, r.Rows)
	if err != nil {
		return Root{}, nil, err
	}
	startID := uint64(1)
	if ok {
		startID = nextID + 1
	}

	rows := make(map[uint64]codec.Row, len(rawRows))
	perColumnFacts := make(map[string]map[uint64]codec.Value, len(r.Schema.Columns))
	for _, c := range r.Schema.Columns {
		perColumnFacts[c.Name] = make(map[uint64]codec.Value)
	}

	for i, raw := range rawRows {
		if len(raw) > len(r.Schema.Columns) {
			return Root{}, nil, dberrors.NewConstraintError("row %d supplies %d values for %d columns", i, len(raw), len(r.Schema.Columns))
		}
		id := startID + uint64(i)
		row := make(codec.Row, len(r.Schema.Columns))
		for ci, c := range r.Schema.Columns {
			if ci < len(raw) {
				v := raw[ci]
				if !v.IsNull() && v.Type != c.Type {
					return Root{}, nil, dberrors.NewSchemaError("column %s expects %s, got %s", c.Name, c.Type, v.Type)
				}
				if v.Type == codec.Varchar && c.Length > 0 && len(v.Str) > c.Length {
					return Root{}, nil, dberrors.NewConstraintError("value for column %s exceeds VARCHAR(%d)", c.Name, c.Length)
				}
				row[ci] = v
			} else {
				row[ci] = codec.NullValue
			}
			if !row[ci].IsNull() {
				perColumnFacts[c.Name][id] = row[ci]
			}
		}
		rows[id] = row
	}

	newRowsRoot, rowBlocks, err := sparsearray.Insert(ctx, store, r.Rows, chunker.DefaultWidth, rows)
	if err != nil {
		return Root{}, nil, err
	}
	allBlocks = append(allBlocks, rowBlocks...)

	newIndexes := make(map[string]blockstore.Block, len(r.Indexes))
	for name, cur := range r.Indexes {
		facts := perColumnFacts[name]
		if len(facts) == 0 {
			newIndexes[name] = cur
			continue
		}
		newRoot, idxBlocks, err := dbindex.Insert(ctx, store, cur, chunker.DefaultWidth, facts)
		if err != nil {
			return Root{}, nil, err
		}
		allBlocks = append(allBlocks, idxBlocks...)
		newIndexes[name] = newRoot
	}

	newRoot := Root{SchemaBlock: r.SchemaBlock, Schema: r.Schema, Rows: newRowsRoot, Indexes: newIndexes}
	rootBlock := blockstore.New(Encode(&newRoot))
	allBlocks = append(allBlocks, rootBlock)
	return newRoot, allBlocks, nil
}

// ColumnNames returns the table's column names in declaration order.
func (r *Root) ColumnNames() []string {
	names := make([]string, len(r.Schema.Columns))
	for i, c := range r.Schema.Columns {
		names[i] = c.Name
	}
	return names
}
