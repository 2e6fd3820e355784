package blockstore

import (
	"context"
	"sync"

	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/dberrors"
)

// MemStore is an in-memory BlockStore, the `nocache`/no-persistence default
// used throughout the tests and suitable for short-lived embedded use.
type MemStore struct {
	mu     sync.RWMutex
	blocks map[cid.CID][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blocks: map[cid.CID][]byte{}}
}

func (s *MemStore) Get(ctx context.Context, c cid.CID) (Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bytes, ok := s.blocks[c]
	if !ok {
		return Block{}, dberrors.NewNotFoundError("block %s", c)
	}
	return Block{CID: c, Bytes: bytes}, nil
}

func (s *MemStore) Put(ctx context.Context, b Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[b.CID]; ok {
		return nil
	}
	s.blocks[b.CID] = b.Bytes
	return nil
}

// Len reports how many distinct blocks are held, for test assertions.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Has reports whether c is present, without triggering the NotFound path.
func (s *MemStore) Has(c cid.CID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocks[c]
	return ok
}
