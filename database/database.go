// Package database is the root façade package's workhorse: it owns the
// mapping from table name to table root, the database root block format,
// and the glue between sqlparser/planner/executor and the underlying
// BlockStore.
package database

import (
	"context"
	"sort"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dberrors"
	"github.com/jchris/prolly-trees/dbindex"
	"github.com/jchris/prolly-trees/executor"
	"github.com/jchris/prolly-trees/internal/dblog"
	"github.com/jchris/prolly-trees/planner"
	"github.com/jchris/prolly-trees/schema"
	"github.com/jchris/prolly-trees/sqlast"
	"github.com/jchris/prolly-trees/sqlparser"
	"github.com/jchris/prolly-trees/table"
)

// QueryResult is what a SELECT statement returns: the resolved column
// names (after Star expansion) alongside the lazily-produced rows.
type QueryResult struct {
	Columns []string
	Cursor  *executor.Cursor
}

// Database is an immutable mapping from table name to table root block.
// Every mutating operation returns a new Database plus the set of new
// blocks needed to persist it; nothing here ever rewrites a block in
// place.
type Database struct {
	tables map[string]blockstore.Block // table name -> table root block
}

// Create returns a brand-new, empty Database.
func Create() *Database {
	return &Database{tables: map[string]blockstore.Block{}}
}

// Encode produces the canonical root block bytes: a table count, then for
// each table (sorted by name, for determinism) its name and root CID.
func Encode(d *Database) []byte {
	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := appendUvarint(nil, uint64(len(names)))
	for _, name := range names {
		buf = appendString(buf, name)
		buf = append(buf, d.tables[name].CID.Bytes()...)
	}
	return buf
}

// From loads the Database whose root block is root. Table headers are
// resolved lazily: only their root blocks are fetched here, not their rows
// or index contents.
func From(ctx context.Context, store blockstore.Getter, root cid.CID) (*Database, error) {
	if root.IsEmpty() {
		return Create(), nil
	}
	b, err := store.Get(ctx, root)
	if err != nil {
		return nil, err
	}
	count, off, err := readUvarint(b.Bytes, 0)
	if err != nil {
		return nil, err
	}
	tables := make(map[string]blockstore.Block, count)
	for i := uint64(0); i < count; i++ {
		name, next, err := readString(b.Bytes, off)
		if err != nil {
			return nil, err
		}
		off = next
		if off+cid.Size > len(b.Bytes) {
			return nil, dberrors.NewCodecError("truncated database root")
		}
		tableCID, err := cid.FromWire(b.Bytes[off : off+cid.Size])
		if err != nil {
			return nil, err
		}
		off += cid.Size
		tableBlock, err := store.Get(ctx, tableCID)
		if err != nil {
			return nil, err
		}
		tables[name] = tableBlock
	}
	return &Database{tables: tables}, nil
}

// Mutation is the result of a DDL/DML statement: the new Database, every
// new block needed to persist it (always in dependency order, children
// before parents, with the new database root block last), and the new
// root's CID for convenience.
type Mutation struct {
	DB     *Database
	Blocks []blockstore.Block
	Root   cid.CID
}

// Exec runs a CREATE TABLE or INSERT statement and returns the resulting
// Mutation. For a SELECT, use Query instead.
func Exec(ctx context.Context, store blockstore.BlockStore, d *Database, text string) (Mutation, error) {
	stmt, err := sqlparser.Parse(text)
	if err != nil {
		return Mutation{}, err
	}
	switch s := stmt.(type) {
	case *sqlast.CreateTable:
		return execCreateTable(ctx, store, d, s)
	case *sqlast.Insert:
		return execInsert(ctx, store, d, s)
	case *sqlast.Select:
		return Mutation{}, dberrors.NewParseError("use Query for SELECT statements")
	default:
		return Mutation{}, dberrors.NewParseError("unrecognized statement")
	}
}

func execCreateTable(ctx context.Context, store blockstore.BlockStore, d *Database, s *sqlast.CreateTable) (Mutation, error) {
	if _, exists := d.tables[s.Table]; exists {
		return Mutation{}, dberrors.NewSchemaError("table %q already exists", s.Table)
	}
	seen := map[string]bool{}
	ts := &schema.Table{Name: s.Table}
	for _, c := range s.Columns {
		if seen[c.Name] {
			return Mutation{}, dberrors.NewSchemaError("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		ts.Columns = append(ts.Columns, schema.Column{Name: c.Name, Type: c.Type, Length: c.Length})
	}

	root, blocks, err := table.Create(ts)
	if err != nil {
		return Mutation{}, err
	}
	tableRootBlock := blockstore.New(table.Encode(&root))
	blocks = append(blocks, tableRootBlock)

	for _, b := range blocks {
		if err := store.Put(ctx, b); err != nil {
			return Mutation{}, err
		}
	}

	newTables := cloneTables(d.tables)
	newTables[s.Table] = tableRootBlock
	newDB := &Database{tables: newTables}
	rootBlock := blockstore.New(Encode(newDB))
	if err := store.Put(ctx, rootBlock); err != nil {
		return Mutation{}, err
	}
	blocks = append(blocks, rootBlock)

	dblog.BlockWrite(s.Table, len(blocks), totalBytes(blocks))
	dblog.Statement("CREATE TABLE", s.Table, rootBlock.CID)
	return Mutation{DB: newDB, Blocks: blocks, Root: rootBlock.CID}, nil
}

func execInsert(ctx context.Context, store blockstore.BlockStore, d *Database, s *sqlast.Insert) (Mutation, error) {
	tableBlock, ok := d.tables[s.Table]
	if !ok {
		return Mutation{}, dberrors.NewSchemaError("unknown table %q", s.Table)
	}
	root, err := table.Load(ctx, store, tableBlock)
	if err != nil {
		return Mutation{}, err
	}

	rows, err := resolveInsertColumns(&root, s)
	if err != nil {
		return Mutation{}, err
	}

	_, blocks, err := table.InsertRows(ctx, store, root, rows)
	if err != nil {
		return Mutation{}, err
	}
	for _, b := range blocks {
		if err := store.Put(ctx, b); err != nil {
			return Mutation{}, err
		}
	}
	newTableBlock := blocks[len(blocks)-1]

	newTables := cloneTables(d.tables)
	newTables[s.Table] = newTableBlock
	newDB := &Database{tables: newTables}
	rootBlock := blockstore.New(Encode(newDB))
	if err := store.Put(ctx, rootBlock); err != nil {
		return Mutation{}, err
	}
	blocks = append(blocks, rootBlock)

	dblog.BlockWrite(s.Table, len(blocks), totalBytes(blocks))
	dblog.Statement("INSERT", s.Table, rootBlock.CID)
	return Mutation{DB: newDB, Blocks: blocks, Root: rootBlock.CID}, nil
}

func totalBytes(blocks []blockstore.Block) int {
	total := 0
	for _, b := range blocks {
		total += len(b.Bytes)
	}
	return total
}

// resolveInsertColumns maps an INSERT's (possibly partial, possibly
// reordered) column list onto the table's full declaration order,
// left-filling and padding the rest with NULL.
func resolveInsertColumns(root *table.Root, s *sqlast.Insert) ([][]codec.Value, error) {
	if len(s.Columns) == 0 {
		return s.Rows, nil
	}
	positions := make([]int, len(s.Columns))
	for i, name := range s.Columns {
		idx := root.Schema.IndexOf(name)
		if idx < 0 {
			return nil, dberrors.NewSchemaError("unknown column %q", name)
		}
		positions[i] = idx
	}
	out := make([][]codec.Value, len(s.Rows))
	for r, raw := range s.Rows {
		if len(raw) != len(positions) {
			return nil, dberrors.NewConstraintError("row %d supplies %d values for %d named columns", r, len(raw), len(positions))
		}
		row := make([]codec.Value, len(root.Schema.Columns))
		for i := range row {
			row[i] = codec.NullValue
		}
		for i, v := range raw {
			row[positions[i]] = v
		}
		out[r] = row
	}
	return out, nil
}

// Query runs a SELECT statement and returns its (lazy) QueryResult.
func Query(ctx context.Context, store blockstore.Getter, d *Database, text string) (QueryResult, error) {
	stmt, err := sqlparser.Parse(text)
	if err != nil {
		return QueryResult{}, err
	}
	sel, ok := stmt.(*sqlast.Select)
	if !ok {
		return QueryResult{}, dberrors.NewParseError("expected a SELECT statement")
	}

	tableBlock, ok := d.tables[sel.Table]
	if !ok {
		return QueryResult{}, dberrors.NewSchemaError("unknown table %q", sel.Table)
	}
	root, err := table.Load(ctx, store, tableBlock)
	if err != nil {
		return QueryResult{}, err
	}

	lookup := func(ctx context.Context, root table.Root, column string, op sqlast.Op, value codec.Value) ([]uint64, error) {
		return rangeLookup(ctx, store, root, column, op, value)
	}

	plan, err := planner.Compile(ctx, root, sel, lookup)
	if err != nil {
		return QueryResult{}, err
	}
	cur, err := executor.Run(ctx, store, root, plan)
	if err != nil {
		return QueryResult{}, err
	}
	dblog.Statement("SELECT", sel.Table, tableBlock.CID)
	return QueryResult{Columns: plan.ResultColumns, Cursor: cur}, nil
}

// rangeLookup is the concrete planner.RangeLookup: it turns one atomic
// comparison into a dbindex.Range call and drains it into an ascending
// RowId slice. The index yields ids in (value, RowId) order, so the slice
// is sorted by RowId before it is returned.
func rangeLookup(ctx context.Context, store blockstore.Getter, root table.Root, column string, op sqlast.Op, value codec.Value) ([]uint64, error) {
	col, ok := root.Schema.Column(column)
	if !ok {
		return nil, dberrors.NewSchemaError("unknown column %q", column)
	}
	idxRoot := root.Indexes[column]

	lower, upper := dbindex.Unbounded, dbindex.Unbounded
	switch op {
	case sqlast.Eq:
		lower = dbindex.Bound{Value: value, Inclusive: true}
		upper = dbindex.Bound{Value: value, Inclusive: true}
	case sqlast.Lt:
		upper = dbindex.Bound{Value: value, Inclusive: false}
	case sqlast.Le:
		upper = dbindex.Bound{Value: value, Inclusive: true}
	case sqlast.Gt:
		lower = dbindex.Bound{Value: value, Inclusive: false}
	case sqlast.Ge:
		lower = dbindex.Bound{Value: value, Inclusive: true}
	}

	cur, err := dbindex.Range(ctx, store, idxRoot, col.Type, lower, upper, false)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for {
		_, id, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	return planner.SortUnique(ids), nil
}

func cloneTables(m map[string]blockstore.Block) map[string]blockstore.Block {
	out := make(map[string]blockstore.Block, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [10]byte
	n := 0
	for v >= 0x80 {
		tmp[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	tmp[n] = byte(v)
	n++
	return append(buf, tmp[:n]...)
}

func readUvarint(b []byte, off int) (uint64, int, error) {
	var v uint64
	var shift uint
	for {
		if off >= len(b) {
			return 0, off, dberrors.NewCodecError("malformed varint at offset %d", off)
		}
		c := b[off]
		off++
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			break
		}
		shift += 7
	}
	return v, off, nil
}

func appendString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(b []byte, off int) (string, int, error) {
	n, off, err := readUvarint(b, off)
	if err != nil {
		return "", off, err
	}
	if off+int(n) > len(b) {
		return "", off, dberrors.NewCodecError("truncated string")
	}
	return string(b[off : off+int(n)]), off + int(n), nil
}
