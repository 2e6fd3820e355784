// Package executor runs a compiled planner.Plan against a table's stored
// row and index trees, yielding rows one at a time through a pull-based
// Cursor. Run fetches only the blocks on the path to the first row or
// index leaf; every later block fetch happens inside Next, and everything
// else is synchronous projection and filtering.
package executor

import (
	"context"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dbindex"
	"github.com/jchris/prolly-trees/planner"
	"github.com/jchris/prolly-trees/sparsearray"
	"github.com/jchris/prolly-trees/sqlast"
	"github.com/jchris/prolly-trees/table"
)

// Cursor yields one projected row at a time.
type Cursor struct {
	next func() ([]codec.Value, bool, error)
}

// Next returns the next projected row, or ok == false once the result is
// exhausted.
func (c *Cursor) Next() ([]codec.Value, bool, error) {
	return c.next()
}

// All drains the cursor into a slice, a synchronous convenience for
// callers that don't need streaming.
func (c *Cursor) All() ([][]codec.Value, error) {
	var rows [][]codec.Value
	for {
		row, ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Run executes plan against root and returns a lazy Cursor.
func Run(ctx context.Context, store blockstore.Getter, root table.Root, plan *planner.Plan) (*Cursor, error) {
	if plan.OrderBy != nil {
		return runOrderedScan(ctx, store, root, plan)
	}
	return runFilteredScan(ctx, store, root, plan)
}

// runFilteredScan covers every SELECT without ORDER BY: either a full
// ascending RowId scan of the rows tree (no WHERE) or a scan driven by the
// planner's already-resolved RowIDFilter.
func runFilteredScan(ctx context.Context, store blockstore.Getter, root table.Root, plan *planner.Plan) (*Cursor, error) {
	if plan.RowIDFilter == nil {
		rowCur, err := sparsearray.Scan(ctx, store, root.Rows)
		if err != nil {
			return nil, err
		}
		return &Cursor{next: func() ([]codec.Value, bool, error) {
			_, row, ok, err := rowCur.Next()
			if err != nil || !ok {
				return nil, ok, err
			}
			return project(root, plan.ResultColumns, row), true, nil
		}}, nil
	}

	ids := plan.RowIDFilter
	i := 0
	return &Cursor{next: func() ([]codec.Value, bool, error) {
		if i >= len(ids) {
			return nil, false, nil
		}
		id := ids[i]
		i++
		row, err := sparsearray.Get(ctx, store, root.Rows, id)
		if err != nil {
			return nil, false, err
		}
		return project(root, plan.ResultColumns, row), true, nil
	}}, nil
}

// runOrderedScan drives the scan from the ORDER BY column's index in the
// requested direction and re-evaluates WHERE on each materialized row as
// it streams.
func runOrderedScan(ctx context.Context, store blockstore.Getter, root table.Root, plan *planner.Plan) (*Cursor, error) {
	col := plan.OrderBy.Column
	colType, _ := root.Schema.Column(col)
	idxRoot := root.Indexes[col]

	desc := plan.OrderBy.Direction == sqlast.Desc
	idxCur, err := dbindex.Range(ctx, store, idxRoot, colType.Type, dbindex.Unbounded, dbindex.Unbounded, desc)
	if err != nil {
		return nil, err
	}

	next := func() ([]codec.Value, bool, error) {
		for {
			_, id, ok, err := idxCur.Next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			row, err := sparsearray.Get(ctx, store, root.Rows, id)
			if err != nil {
				return nil, false, err
			}
			if plan.Where != nil {
				matched, err := evalOnRow(root, plan.Where, row)
				if err != nil {
					return nil, false, err
				}
				if !matched {
					continue
				}
			}
			return project(root, plan.ResultColumns, row), true, nil
		}
	}
	return &Cursor{next: next}, nil
}

// project extracts the requested columns from a decoded row, in the order
// requested.
func project(root table.Root, cols []string, row codec.Row) []codec.Value {
	out := make([]codec.Value, len(cols))
	for i, name := range cols {
		idx := root.Schema.IndexOf(name)
		out[i] = row[idx]
	}
	return out
}

// evalOnRow evaluates a WHERE expression directly against a materialized
// row, used only by the ORDER BY-driven path where the planner couldn't
// pre-resolve the predicate to an id set without giving up index ordering.
func evalOnRow(root table.Root, e sqlast.Expr, row codec.Row) (bool, error) {
	switch n := e.(type) {
	case sqlast.Comparison:
		idx := root.Schema.IndexOf(n.Column)
		cmp, err := codec.Compare(row[idx], n.Value)
		if err != nil {
			return false, err
		}
		switch n.Op {
		case sqlast.Eq:
			return cmp == 0, nil
		case sqlast.Lt:
			return cmp < 0, nil
		case sqlast.Le:
			return cmp <= 0, nil
		case sqlast.Gt:
			return cmp > 0, nil
		case sqlast.Ge:
			return cmp >= 0, nil
		}
		return false, nil
	case sqlast.And:
		l, err := evalOnRow(root, n.Left, row)
		if err != nil || !l {
			return false, err
		}
		return evalOnRow(root, n.Right, row)
	case sqlast.Or:
		l, err := evalOnRow(root, n.Left, row)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return evalOnRow(root, n.Right, row)
	default:
		return false, nil
	}
}
