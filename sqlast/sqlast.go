// Package sqlast is the typed representation the parser produces and the
// planner consumes: one node type per statement form, plus a small
// expression tree for WHERE clauses. Nothing in this package knows how to
// read SQL text or how to execute a plan — it is purely the shape in
// between.
package sqlast

import "github.com/jchris/prolly-trees/codec"

// ColumnDef is one column from a CREATE TABLE statement.
type ColumnDef struct {
	Name   string
	Type   codec.Type
	Length int // declared VARCHAR(n); 0 for INT or an unbounded VARCHAR
}

// CreateTable is the parsed form of CREATE TABLE.
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

// Insert is the parsed form of INSERT INTO, possibly carrying several
// VALUES tuples from one statement.
type Insert struct {
	Table   string
	Columns []string // empty means "all columns, in declaration order"
	Rows    [][]codec.Value
}

// Op is a comparison operator recognized in a WHERE clause.
type Op int

const (
	Eq Op = iota
	Lt
	Le
	Gt
	Ge
)

// Expr is a WHERE clause: either a leaf Comparison, or an And/Or
// combination of two sub-expressions. There is no Not in this grammar.
type Expr interface {
	isExpr()
}

// Comparison is one atomic `column OP literal` test.
type Comparison struct {
	Column string
	Op     Op
	Value  codec.Value
}

func (Comparison) isExpr() {}

// And is the conjunction of two sub-expressions.
type And struct {
	Left, Right Expr
}

func (And) isExpr() {}

// Or is the disjunction of two sub-expressions.
type Or struct {
	Left, Right Expr
}

func (Or) isExpr() {}

// Direction is the sort direction for ORDER BY.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderBy names the single column SELECT sorts its result by, and the
// direction — this grammar allows at most one ORDER BY column.
type OrderBy struct {
	Column    string
	Direction Direction
}

// Select is the parsed form of SELECT.
type Select struct {
	Columns []string // nil/empty with Star == true means "*"
	Star    bool
	Table   string
	Where   Expr // nil means no WHERE clause
	OrderBy *OrderBy
}
