package table_test

import (
	"context"
	"testing"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dbindex"
	"github.com/jchris/prolly-trees/schema"
	"github.com/jchris/prolly-trees/sparsearray"
	"github.com/jchris/prolly-trees/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personsSchema() *schema.Table {
	return &schema.Table{
		Name: "persons",
		Columns: []schema.Column{
			{Name: "id", Type: codec.Int},
			{Name: "name", Type: codec.Varchar, Length: 20},
			{Name: "age", Type: codec.Int},
		},
	}
}

func TestCreateAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemStore()

	root, blocks, err := table.Create(personsSchema())
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}
	rootBlock := blockstore.New(table.Encode(&root))
	require.NoError(t, store.Put(ctx, rootBlock))

	loaded, err := table.Load(ctx, store, rootBlock)
	require.NoError(t, err)
	assert.Equal(t, "persons", loaded.Schema.Name)
	assert.Equal(t, root.Schema.Columns, loaded.Schema.Columns)
}

func TestInsertRowsUpdatesRowsAndIndexes(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemStore()

	root, blocks, err := table.Create(personsSchema())
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}

	newRoot, newBlocks, err := table.InsertRows(ctx, store, root, [][]codec.Value{
		{codec.IntValue(1), codec.VarcharValue("alice"), codec.IntValue(30)},
		{codec.IntValue(2), codec.VarcharValue("bob")}, // age omitted -> NULL
	})
	require.NoError(t, err)
	for _, b := range newBlocks {
		require.NoError(t, store.Put(ctx, b))
	}

	cur, err := sparsearray.Scan(ctx, store, newRoot.Rows)
	require.NoError(t, err)
	id, row, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, codec.VarcharValue("alice"), row[1])

	_, row2, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, row2[2].IsNull())

	ageIdx := newRoot.Indexes["age"]
	idxCur, err := dbindex.Range(ctx, store, ageIdx, codec.Int, dbindex.Unbounded, dbindex.Unbounded, false)
	require.NoError(t, err)
	v, rowID, ok, err := idxCur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, codec.IntValue(30), v)
	assert.Equal(t, uint64(1), rowID)
	// age was NULL for row 2, so only one fact is indexed.
	_, _, ok, err = idxCur.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertRowsRejectsTypeMismatch(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, blocks, err := table.Create(personsSchema())
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}

	_, _, err = table.InsertRows(ctx, store, root, [][]codec.Value{
		{codec.VarcharValue("not an int")},
	})
	assert.Error(t, err)
}

func TestInsertRowsRejectsVarcharOverflow(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemStore()
	root, blocks, err := table.Create(personsSchema())
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}

	_, _, err = table.InsertRows(ctx, store, root, [][]codec.Value{
		{codec.IntValue(1), codec.VarcharValue("this name is far too long for the column")},
	})
	assert.Error(t, err)
}
