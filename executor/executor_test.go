package executor

import (
	"context"
	"testing"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/planner"
	"github.com/jchris/prolly-trees/schema"
	"github.com/jchris/prolly-trees/sqlast"
	"github.com/jchris/prolly-trees/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestTable(t *testing.T) (context.Context, blockstore.BlockStore, table.Root) {
	ctx := context.Background()
	store := blockstore.NewMemStore()
	ts := &schema.Table{
		Name: "People",
		Columns: []schema.Column{
			{Name: "Name", Type: codec.Varchar, Length: 32},
			{Name: "Age", Type: codec.Int},
		},
	}
	root, blocks, err := table.Create(ts)
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}

	rows := [][]codec.Value{
		{codec.VarcharValue("alice"), codec.IntValue(30)},
		{codec.VarcharValue("bob"), codec.IntValue(25)},
		{codec.VarcharValue("carol"), codec.IntValue(40)},
	}
	root, blocks, err = table.InsertRows(ctx, store, root, rows)
	require.NoError(t, err)
	for _, b := range blocks {
		require.NoError(t, store.Put(ctx, b))
	}
	return ctx, store, root
}

func TestRunFullScanWithNoFilter(t *testing.T) {
	ctx, store, root := buildTestTable(t)
	plan := &planner.Plan{ResultColumns: []string{"Name", "Age"}}
	cur, err := Run(ctx, store, root, plan)
	require.NoError(t, err)
	rows, err := cur.All()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, codec.VarcharValue("alice"), rows[0][0])
}

func TestRunWithRowIDFilterProjectsSubsetColumns(t *testing.T) {
	ctx, store, root := buildTestTable(t)
	plan := &planner.Plan{ResultColumns: []string{"Name"}, RowIDFilter: []uint64{2}}
	cur, err := Run(ctx, store, root, plan)
	require.NoError(t, err)
	rows, err := cur.All()
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.VarcharValue("bob")}}, rows)
}

func TestRunOrderedScanAscendingAndDescending(t *testing.T) {
	ctx, store, root := buildTestTable(t)
	plan := &planner.Plan{
		ResultColumns: []string{"Name", "Age"},
		OrderBy:       &sqlast.OrderBy{Column: "Age"},
	}
	cur, err := Run(ctx, store, root, plan)
	require.NoError(t, err)
	asc, err := cur.All()
	require.NoError(t, err)
	assert.Equal(t, []codec.Value{codec.VarcharValue("bob"), codec.IntValue(25)}, asc[0])
	assert.Equal(t, []codec.Value{codec.VarcharValue("carol"), codec.IntValue(40)}, asc[2])

	plan.OrderBy.Direction = sqlast.Desc
	cur, err = Run(ctx, store, root, plan)
	require.NoError(t, err)
	desc, err := cur.All()
	require.NoError(t, err)
	require.Len(t, desc, len(asc))
	for i := range asc {
		assert.Equal(t, asc[len(asc)-1-i], desc[i])
	}
}

func TestRunOrderedScanReEvaluatesWhere(t *testing.T) {
	ctx, store, root := buildTestTable(t)
	plan := &planner.Plan{
		ResultColumns: []string{"Name"},
		OrderBy:       &sqlast.OrderBy{Column: "Age"},
		Where:         sqlast.Comparison{Column: "Age", Op: sqlast.Gt, Value: codec.IntValue(26)},
	}
	cur, err := Run(ctx, store, root, plan)
	require.NoError(t, err)
	rows, err := cur.All()
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.VarcharValue("alice")}, {codec.VarcharValue("carol")}}, rows)
}
