package planner

import (
	"context"
	"testing"

	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/schema"
	"github.com/jchris/prolly-trees/sqlast"
	"github.com/jchris/prolly-trees/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personsSchema() *schema.Table {
	return &schema.Table{
		Name: "Persons",
		Columns: []schema.Column{
			{Name: "ID", Type: codec.Int},
			{Name: "Name", Type: codec.Varchar, Length: 255},
			{Name: "Age", Type: codec.Int},
		},
	}
}

func TestIntersectMergesAscendingDeduplicatedLists(t *testing.T) {
	assert.Equal(t, []uint64{2, 4}, intersect([]uint64{1, 2, 4, 6}, []uint64{2, 3, 4, 5}))
	assert.Nil(t, intersect([]uint64{1, 2}, []uint64{3, 4}))
}

func TestUnionMergesAscendingDeduplicatedLists(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6}, union([]uint64{1, 2, 4, 6}, []uint64{2, 3, 4, 5}))
}

func TestSortUniqueSortsInPlace(t *testing.T) {
	ids := []uint64{5, 1, 3}
	assert.Equal(t, []uint64{1, 3, 5}, SortUnique(ids))
}

func personsRoot() table.Root {
	return table.Root{Schema: personsSchema()}
}

func TestCompileResolvesStarAndRangeLookup(t *testing.T) {
	root := personsRoot()
	calls := 0
	lookup := func(ctx context.Context, r table.Root, column string, op sqlast.Op, value codec.Value) ([]uint64, error) {
		calls++
		if column == "Age" && op == sqlast.Gt {
			return []uint64{3, 7}, nil
		}
		return nil, nil
	}

	sel := &sqlast.Select{
		Star:  true,
		Table: "Persons",
		Where: sqlast.Comparison{Column: "Age", Op: sqlast.Gt, Value: codec.IntValue(18)},
	}
	plan, err := Compile(context.Background(), root, sel, lookup)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Age"}, plan.ResultColumns)
	assert.Equal(t, []uint64{3, 7}, plan.RowIDFilter)
	assert.Equal(t, 1, calls)
}

func TestCompileWithOrderBySkipsRangeLookup(t *testing.T) {
	root := personsRoot()
	lookup := func(ctx context.Context, r table.Root, column string, op sqlast.Op, value codec.Value) ([]uint64, error) {
		t.Fatal("rangeLookup should not be called when ORDER BY drives the scan")
		return nil, nil
	}
	sel := &sqlast.Select{
		Star:    true,
		Table:   "Persons",
		Where:   sqlast.Comparison{Column: "Age", Op: sqlast.Gt, Value: codec.IntValue(18)},
		OrderBy: &sqlast.OrderBy{Column: "ID"},
	}
	plan, err := Compile(context.Background(), root, sel, lookup)
	require.NoError(t, err)
	assert.Nil(t, plan.RowIDFilter)
	assert.NotNil(t, plan.Where)
	assert.Equal(t, "ID", plan.OrderBy.Column)
}

func TestCompileRejectsUnknownColumn(t *testing.T) {
	root := personsRoot()
	sel := &sqlast.Select{Star: true, Table: "Persons", Where: sqlast.Comparison{Column: "Nope", Op: sqlast.Eq, Value: codec.IntValue(1)}}
	_, err := Compile(context.Background(), root, sel, nil)
	assert.Error(t, err)
}

func TestCompileRejectsCrossTypeComparison(t *testing.T) {
	root := personsRoot()
	sel := &sqlast.Select{Star: true, Table: "Persons", Where: sqlast.Comparison{Column: "Age", Op: sqlast.Eq, Value: codec.VarcharValue("nope")}}
	_, err := Compile(context.Background(), root, sel, nil)
	assert.Error(t, err)
}

func TestCompileAndCombinesViaIntersection(t *testing.T) {
	root := personsRoot()
	lookup := func(ctx context.Context, r table.Root, column string, op sqlast.Op, value codec.Value) ([]uint64, error) {
		if column == "Age" {
			return []uint64{1, 2, 3}, nil
		}
		return []uint64{2, 3, 4}, nil
	}
	sel := &sqlast.Select{
		Star:  true,
		Table: "Persons",
		Where: sqlast.And{
			Left:  sqlast.Comparison{Column: "Age", Op: sqlast.Gt, Value: codec.IntValue(18)},
			Right: sqlast.Comparison{Column: "ID", Op: sqlast.Gt, Value: codec.IntValue(0)},
		},
	}
	plan, err := Compile(context.Background(), root, sel, lookup)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, plan.RowIDFilter)
}
