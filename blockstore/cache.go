package blockstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jchris/prolly-trees/cid"
)

// CachingStore wraps a backing BlockStore with an LRU cache of decoded
// block bytes. Entries are immutable once written (content addressing
// guarantees a CID never changes meaning), so the cache needs no
// invalidation, only an eviction policy. Callers that don't want caching
// just use the backing store directly.
type CachingStore struct {
	backing BlockStore
	cache   *lru.Cache
}

// NewCachingStore wraps backing with an LRU of the given block capacity.
func NewCachingStore(backing BlockStore, size int) (*CachingStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachingStore{backing: backing, cache: cache}, nil
}

func (c *CachingStore) Get(ctx context.Context, id cid.CID) (Block, error) {
	if v, ok := c.cache.Get(id); ok {
		return Block{CID: id, Bytes: v.([]byte)}, nil
	}
	b, err := c.backing.Get(ctx, id)
	if err != nil {
		return Block{}, err
	}
	c.cache.Add(id, b.Bytes)
	return b, nil
}

func (c *CachingStore) Put(ctx context.Context, b Block) error {
	if err := c.backing.Put(ctx, b); err != nil {
		return err
	}
	c.cache.Add(b.CID, b.Bytes)
	return nil
}
