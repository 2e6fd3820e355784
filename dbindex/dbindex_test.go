package dbindex_test

import (
	"context"
	"testing"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/chunker"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dbindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) (blockstore.BlockStore, blockstore.Block) {
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root := dbindex.Empty()

	facts := map[uint64]codec.Value{
		1: codec.IntValue(10),
		2: codec.IntValue(20),
		3: codec.IntValue(20),
		4: codec.IntValue(30),
		5: codec.IntValue(5),
	}
	newRoot, blocks, err := dbindex.Insert(ctx, store, root, chunker.DefaultWidth, facts)
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}
	return store, newRoot
}

func collect(t *testing.T, cur *dbindex.Cursor) []uint64 {
	var ids []uint64
	for {
		_, id, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	return ids
}

func TestRangeEqualityMatchesDuplicateValues(t *testing.T) {
	store, root := buildSample(t)
	cur, err := dbindex.Range(context.Background(), store, root, codec.Int,
		dbindex.Bound{Value: codec.IntValue(20), Inclusive: true},
		dbindex.Bound{Value: codec.IntValue(20), Inclusive: true}, false)
	require.NoError(t, err)
	ids := collect(t, cur)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestRangeUnboundedScansEverythingInValueOrder(t *testing.T) {
	store, root := buildSample(t)
	cur, err := dbindex.Range(context.Background(), store, root, codec.Int, dbindex.Unbounded, dbindex.Unbounded, false)
	require.NoError(t, err)
	ids := collect(t, cur)
	assert.Equal(t, []uint64{5, 1, 2, 3, 4}, ids)
}

func TestRangeUnboundedDescendingIsTheReverseWalk(t *testing.T) {
	store, root := buildSample(t)
	cur, err := dbindex.Range(context.Background(), store, root, codec.Int, dbindex.Unbounded, dbindex.Unbounded, true)
	require.NoError(t, err)
	ids := collect(t, cur)
	assert.Equal(t, []uint64{4, 3, 2, 1, 5}, ids)
}

func TestRangeExclusiveBoundsExcludeEndpoints(t *testing.T) {
	store, root := buildSample(t)
	cur, err := dbindex.Range(context.Background(), store, root, codec.Int,
		dbindex.Bound{Value: codec.IntValue(10), Inclusive: false},
		dbindex.Bound{Value: codec.IntValue(30), Inclusive: false}, false)
	require.NoError(t, err)
	ids := collect(t, cur)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestRangeExclusiveBoundsDescending(t *testing.T) {
	store, root := buildSample(t)
	cur, err := dbindex.Range(context.Background(), store, root, codec.Int,
		dbindex.Bound{Value: codec.IntValue(10), Inclusive: false},
		dbindex.Bound{Value: codec.IntValue(30), Inclusive: false}, true)
	require.NoError(t, err)
	ids := collect(t, cur)
	assert.Equal(t, []uint64{3, 2}, ids)
}

func TestRangeLowerBoundOnly(t *testing.T) {
	store, root := buildSample(t)
	cur, err := dbindex.Range(context.Background(), store, root, codec.Int,
		dbindex.Bound{Value: codec.IntValue(20), Inclusive: true}, dbindex.Unbounded, false)
	require.NoError(t, err)
	ids := collect(t, cur)
	assert.ElementsMatch(t, []uint64{2, 3, 4}, ids)
}
