// Package planner compiles a parsed SELECT into a Plan: either an
// index-driven scan (when ORDER BY is present) or a WHERE-predicate scan
// over a merged set of row ids drawn from per-column indexes. It never
// touches the row store or a BlockStore directly — that's package
// executor's job — so a Plan is a pure, serializable description of how to
// answer the query.
package planner

import (
	"context"
	"sort"

	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dberrors"
	"github.com/jchris/prolly-trees/sqlast"
	"github.com/jchris/prolly-trees/table"
)

// Plan is the compiled form of a SELECT.
type Plan struct {
	// ResultColumns is the ordered list of column names to project for each
	// matched row; it is already resolved from Star to the table's full
	// column list.
	ResultColumns []string

	// OrderBy drives the scan from that column's index instead of the rows
	// tree, when present.
	OrderBy *sqlast.OrderBy

	// Where is carried through unchanged so the executor can re-evaluate it
	// against each candidate row during an ORDER BY-driven scan: ORDER BY
	// filters candidates as it streams, rather than intersecting index sets
	// first.
	Where sqlast.Expr

	// RowIDFilter is non-nil only for the non-ORDER-BY path: the exact,
	// already-deduplicated, ascending set of RowIds the WHERE clause
	// matched. nil means "no WHERE clause; scan every row."
	RowIDFilter []uint64
}

// Compile turns a parsed SELECT plus the target table's schema into a
// Plan. ctx and rangeLookup let it consult column indexes when WHERE is
// present without ORDER BY.
func Compile(ctx context.Context, root table.Root, sel *sqlast.Select, rangeLookup RangeLookup) (*Plan, error) {
	resultCols := sel.Columns
	if sel.Star {
		resultCols = root.ColumnNames()
	} else {
		for _, c := range resultCols {
			if root.Schema.IndexOf(c) < 0 {
				return nil, dberrors.NewSchemaError("unknown column %q", c)
			}
		}
	}

	if err := validateExpr(root, sel.Where); err != nil {
		return nil, err
	}

	plan := &Plan{ResultColumns: resultCols, Where: sel.Where}

	if sel.OrderBy != nil {
		if root.Schema.IndexOf(sel.OrderBy.Column) < 0 {
			return nil, dberrors.NewSchemaError("unknown column %q", sel.OrderBy.Column)
		}
		plan.OrderBy = sel.OrderBy
		return plan, nil
	}

	if sel.Where == nil {
		return plan, nil
	}

	ids, err := evalExpr(ctx, root, sel.Where, rangeLookup)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		// A WHERE clause that matched no rows must stay distinguishable from
		// "no WHERE clause", which a nil RowIDFilter means.
		ids = []uint64{}
	}
	plan.RowIDFilter = ids
	return plan, nil
}

// validateExpr rejects unknown columns and cross-type comparisons before
// any index lookup happens, so either surfaces as a planning error rather
// than a silent non-match.
func validateExpr(root table.Root, e sqlast.Expr) error {
	switch n := e.(type) {
	case nil:
		return nil
	case sqlast.Comparison:
		col, ok := root.Schema.Column(n.Column)
		if !ok {
			return dberrors.NewSchemaError("unknown column %q", n.Column)
		}
		if n.Value.Type != col.Type {
			return dberrors.NewSchemaError("cannot compare column %s (%s) to %s literal", n.Column, col.Type, n.Value.Type)
		}
		return nil
	case sqlast.And:
		if err := validateExpr(root, n.Left); err != nil {
			return err
		}
		return validateExpr(root, n.Right)
	case sqlast.Or:
		if err := validateExpr(root, n.Left); err != nil {
			return err
		}
		return validateExpr(root, n.Right)
	default:
		return dberrors.NewSchemaError("unsupported WHERE expression")
	}
}

// RangeLookup resolves one atomic comparison against a column's index to
// the ascending list of matching RowIds. Package database supplies the
// concrete implementation (it's the thing that actually knows about
// BlockStores); planner stays storage-agnostic and testable against a fake.
type RangeLookup func(ctx context.Context, root table.Root, column string, op sqlast.Op, value codec.Value) ([]uint64, error)

// evalExpr implements DNF evaluation: AND is a linear-merge intersection
// of two ascending id lists, OR is a sorted-union dedup merge, and a leaf
// Comparison goes straight to the column's index.
func evalExpr(ctx context.Context, root table.Root, e sqlast.Expr, lookup RangeLookup) ([]uint64, error) {
	switch n := e.(type) {
	case sqlast.Comparison:
		return lookup(ctx, root, n.Column, n.Op, n.Value)
	case sqlast.And:
		left, err := evalExpr(ctx, root, n.Left, lookup)
		if err != nil {
			return nil, err
		}
		right, err := evalExpr(ctx, root, n.Right, lookup)
		if err != nil {
			return nil, err
		}
		return intersect(left, right), nil
	case sqlast.Or:
		left, err := evalExpr(ctx, root, n.Left, lookup)
		if err != nil {
			return nil, err
		}
		right, err := evalExpr(ctx, root, n.Right, lookup)
		if err != nil {
			return nil, err
		}
		return union(left, right), nil
	default:
		return nil, dberrors.NewSchemaError("unsupported WHERE expression")
	}
}

// intersect merges two ascending, deduplicated id lists by linear scan.
func intersect(a, b []uint64) []uint64 {
	var out []uint64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// union merges two ascending, deduplicated id lists into one ascending,
// deduplicated list.
func union(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// SortUnique sorts ids ascending in place and returns them. It is exposed
// for RangeLookup implementations that build their id list from an index
// range scan, which yields RowIds in (value, RowId) order rather than RowId
// order. It does not remove duplicates: a column index holds each RowId at
// most once, so none arise from a single range scan.
func SortUnique(ids []uint64) []uint64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
