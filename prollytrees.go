// Package prollytrees is the public entry point: an embeddable relational
// database whose entire persistent state is an immutable, content-
// addressed DAG of blocks, queried through a small SQL-like surface
// (CREATE TABLE, INSERT, SELECT with WHERE and ORDER BY). Every mutation
// returns a new root; prior roots remain valid snapshots forever.
package prollytrees

import (
	"context"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/database"
)

// DB wraps a Database snapshot together with the store it was loaded
// from/persists to, so callers don't have to thread both through every
// call.
type DB struct {
	store blockstore.BlockStore
	inner *database.Database
	root  cid.CID
}

// Create opens a brand-new, empty database backed by store.
func Create(store blockstore.BlockStore) *DB {
	return &DB{store: store, inner: database.Create()}
}

// Open loads the database snapshot rooted at root from store.
func Open(ctx context.Context, store blockstore.BlockStore, root cid.CID) (*DB, error) {
	d, err := database.From(ctx, store, root)
	if err != nil {
		return nil, err
	}
	return &DB{store: store, inner: d, root: root}, nil
}

// Root returns the CID of the database's current snapshot.
func (db *DB) Root() cid.CID {
	return db.root
}

// Exec runs a CREATE TABLE or INSERT statement, persists every block it
// produces, and advances db to the resulting snapshot.
func (db *DB) Exec(ctx context.Context, stmt string) (cid.CID, error) {
	mut, err := database.Exec(ctx, db.store, db.inner, stmt)
	if err != nil {
		return cid.CID{}, err
	}
	db.inner = mut.DB
	db.root = mut.Root
	return mut.Root, nil
}

// Query runs a SELECT statement and returns its lazily-produced rows,
// materialized into a slice for convenience. Use QueryCursor for a
// streaming result.
func (db *DB) Query(ctx context.Context, stmt string) ([]string, [][]codec.Value, error) {
	result, err := database.Query(ctx, db.store, db.inner, stmt)
	if err != nil {
		return nil, nil, err
	}
	rows, err := result.Cursor.All()
	if err != nil {
		return nil, nil, err
	}
	return result.Columns, rows, nil
}

// QueryCursor runs a SELECT statement without draining it, for callers
// that want to pull rows one at a time.
func (db *DB) QueryCursor(ctx context.Context, stmt string) (database.QueryResult, error) {
	return database.Query(ctx, db.store, db.inner, stmt)
}

// Describe renders a human-readable summary of the database's current
// snapshot: its tables, schemas, and row counts.
func (db *DB) Describe(ctx context.Context) (string, error) {
	return database.Describe(ctx, db.store, db.root)
}

// Reachable returns the CIDs of every block reachable from the database's
// current snapshot, for store garbage collection.
func (db *DB) Reachable(ctx context.Context) (map[cid.CID]bool, error) {
	return database.Reachable(ctx, db.store, db.root)
}
