// Package blockstore defines the sole persistence abstraction the core
// relies on: an opaque, content-addressed Block and a BlockStore that can
// fetch or store one. Everything above this package — trees, tables,
// databases — only ever talks to a BlockStore, never to a concrete backend,
// so the same core runs over memory, LevelDB, or S3 without change.
package blockstore

import (
	"context"

	"github.com/jchris/prolly-trees/cid"
)

// Block is the unit of persistence: opaque bytes plus the CID that
// addresses them. Bytes is never mutated after construction.
type Block struct {
	CID   cid.CID
	Bytes []byte
}

// New computes a Block's CID from its bytes.
func New(bytes []byte) Block {
	return Block{CID: cid.FromBytes(bytes), Bytes: bytes}
}

// Getter fetches a block by CID. It returns a *dberrors.NotFoundError
// (checked with dberrors.IsNotFound) if the block is absent.
type Getter interface {
	Get(ctx context.Context, c cid.CID) (Block, error)
}

// Putter stores a block. Put is idempotent by CID: storing the same block
// twice is a no-op the second time.
type Putter interface {
	Put(ctx context.Context, b Block) error
}

// BlockStore is the full read/write contract a backing store must satisfy.
type BlockStore interface {
	Getter
	Putter
}

// PutAll stores every block in bs, in the order given. Callers that collect
// blocks bottom-up (as table/database mutations do) should pass them in
// that same order, so a store that enforces "children before parents" sees
// a consistent stream.
func PutAll(ctx context.Context, store Putter, bs []Block) error {
	for _, b := range bs {
		if err := store.Put(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
