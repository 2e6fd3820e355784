package blockstore

import (
	"context"
	"os"

	"github.com/golang/snappy"
	"github.com/jchris/prolly-trees/cid"
	"github.com/jchris/prolly-trees/dberrors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var blockPrefix = []byte("/block/")

func toBlockKey(c cid.CID) []byte {
	digest := c.Digest()
	key := make([]byte, 0, len(blockPrefix)+len(digest))
	key = append(key, blockPrefix...)
	return append(key, digest[:]...)
}

// LevelDBStore is a durable BlockStore backed by goleveldb, an embedded-KV
// library. Blocks are snappy-compressed on disk when cfg.Compress is set;
// the CID is always computed over the uncompressed, canonical bytes, so
// compression never changes content addresses.
type LevelDBStore struct {
	db  *leveldb.DB
	cfg StoreConfig
}

func NewLevelDBStore(dir string, cfg StoreConfig) (*LevelDBStore, error) {
	if dir == "" {
		return nil, dberrors.NewConstraintError("LevelDBStore: dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{
		Compression: opt.NoCompression, // we snappy-compress ourselves, see Put
		Filter:      filter.NewBloomFilter(cfg.BloomFilterBits),
		WriteBuffer: cfg.WriteBufferMiB << 20,
	})
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db, cfg: cfg}, nil
}

func (l *LevelDBStore) Close() error {
	return l.db.Close()
}

func (l *LevelDBStore) Get(ctx context.Context, c cid.CID) (Block, error) {
	raw, err := l.db.Get(toBlockKey(c), nil)
	if err == errors.ErrNotFound {
		return Block{}, dberrors.NewNotFoundError("block %s", c)
	}
	if err != nil {
		return Block{}, err
	}

	bytes := raw
	if l.cfg.Compress {
		bytes, err = snappy.Decode(nil, raw)
		if err != nil {
			return Block{}, dberrors.NewCodecError("block %s: snappy decode: %v", c, err)
		}
	}
	return Block{CID: c, Bytes: bytes}, nil
}

func (l *LevelDBStore) Put(ctx context.Context, b Block) error {
	key := toBlockKey(b.CID)
	exists, err := l.db.Has(key, &opt.ReadOptions{DontFillCache: true})
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	payload := b.Bytes
	if l.cfg.Compress {
		payload = snappy.Encode(nil, b.Bytes)
	}
	return l.db.Put(key, payload, nil)
}
