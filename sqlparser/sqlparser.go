// Package sqlparser is a small hand-rolled recursive-descent parser for a
// SQL subset: CREATE TABLE, INSERT, and SELECT with WHERE/ORDER BY. Its
// shape — a parser struct carrying the input string and a cursor position,
// with peek/match/parseSymbol-style helpers — keeps the grammar this small
// easy to read top to bottom without a parser-generator dependency.
package sqlparser

import (
	"strconv"
	"strings"

	"github.com/jchris/prolly-trees/codec"
	"github.com/jchris/prolly-trees/dberrors"
	"github.com/jchris/prolly-trees/sqlast"
)

type parser struct {
	input string
	pos   int
}

// Parse dispatches on the statement's leading keyword and returns one of
// *sqlast.CreateTable, *sqlast.Insert, or *sqlast.Select.
func Parse(text string) (interface{}, error) {
	p := &parser{input: text}
	p.skipSpace()
	switch {
	case p.matchKeyword("create"):
		return p.parseCreateTable()
	case p.matchKeyword("insert"):
		return p.parseInsert()
	case p.matchKeyword("select"):
		return p.parseSelect()
	default:
		return nil, dberrors.NewParseError("expected CREATE, INSERT, or SELECT")
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		break
	}
}

// matchKeyword consumes str case-insensitively if it appears next, bounded
// so it doesn't match a keyword as a prefix of a longer identifier.
func (p *parser) matchKeyword(str string) bool {
	p.skipSpace()
	end := p.pos + len(str)
	if end > len(p.input) || !strings.EqualFold(p.input[p.pos:end], str) {
		return false
	}
	if end < len(p.input) && isIdentByte(p.input[end]) {
		return false
	}
	p.pos = end
	return true
}

// matchSymbol consumes a literal punctuation token, e.g. "(" or ",".
func (p *parser) matchSymbol(str string) bool {
	p.skipSpace()
	end := p.pos + len(str)
	if end > len(p.input) || p.input[p.pos:end] != str {
		return false
	}
	p.pos = end
	return true
}

func isIdentByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

func (p *parser) parseIdent() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", dberrors.NewParseError("expected identifier at position %d", start)
	}
	return p.input[start:p.pos], nil
}

func (p *parser) parseStringLiteral() (string, error) {
	p.skipSpace()
	if p.peek() != '"' {
		return "", dberrors.NewParseError("expected string literal at position %d", p.pos)
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return "", dberrors.NewParseError("unterminated string literal")
	}
	s := p.input[start:p.pos]
	p.pos++
	return s, nil
}

func (p *parser) parseIntLiteral() (int64, error) {
	p.skipSpace()
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, dberrors.NewParseError("expected integer literal at position %d", start)
	}
	n, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
	if err != nil {
		return 0, dberrors.NewParseError("malformed integer literal: %v", err)
	}
	return n, nil
}

// parseLiteral parses either a quoted string or a bare integer into a
// codec.Value.
func (p *parser) parseLiteral() (codec.Value, error) {
	p.skipSpace()
	if p.peek() == '"' {
		s, err := p.parseStringLiteral()
		if err != nil {
			return codec.Value{}, err
		}
		return codec.VarcharValue(s), nil
	}
	n, err := p.parseIntLiteral()
	if err != nil {
		return codec.Value{}, err
	}
	return codec.IntValue(n), nil
}

func (p *parser) atEnd() bool {
	p.skipSpace()
	return p.pos >= len(p.input)
}

// -- CREATE TABLE --

func (p *parser) parseCreateTable() (*sqlast.CreateTable, error) {
	if !p.matchKeyword("table") {
		return nil, dberrors.NewParseError("expected TABLE after CREATE")
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if !p.matchSymbol("(") {
		return nil, dberrors.NewParseError("expected '(' after table name")
	}

	stmt := &sqlast.CreateTable{Table: name}
	for {
		colName, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		colType, length, err := p.parseColumnType()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, sqlast.ColumnDef{Name: colName, Type: colType, Length: length})
		if p.matchSymbol(",") {
			continue
		}
		break
	}
	if !p.matchSymbol(")") {
		return nil, dberrors.NewParseError("expected ')' to close column list")
	}
	return stmt, nil
}

func (p *parser) parseColumnType() (codec.Type, int, error) {
	switch {
	case p.matchKeyword("int"):
		return codec.Int, 0, nil
	case p.matchKeyword("varchar"):
		if !p.matchSymbol("(") {
			return 0, 0, dberrors.NewParseError("expected '(' after VARCHAR")
		}
		n, err := p.parseIntLiteral()
		if err != nil {
			return 0, 0, err
		}
		if !p.matchSymbol(")") {
			return 0, 0, dberrors.NewParseError("expected ')' after VARCHAR length")
		}
		return codec.Varchar, int(n), nil
	default:
		return 0, 0, dberrors.NewParseError("expected a column type (INT or VARCHAR(n))")
	}
}

// -- INSERT --

func (p *parser) parseInsert() (*sqlast.Insert, error) {
	if !p.matchKeyword("into") {
		return nil, dberrors.NewParseError("expected INTO after INSERT")
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	stmt := &sqlast.Insert{Table: name}

	if p.matchSymbol("(") {
		for {
			col, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.matchSymbol(",") {
				continue
			}
			break
		}
		if !p.matchSymbol(")") {
			return nil, dberrors.NewParseError("expected ')' to close column list")
		}
	}

	if !p.matchKeyword("values") {
		return nil, dberrors.NewParseError("expected VALUES")
	}

	for {
		if !p.matchSymbol("(") {
			return nil, dberrors.NewParseError("expected '(' to start a VALUES tuple")
		}
		var row []codec.Value
		for {
			v, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
			if p.matchSymbol(",") {
				continue
			}
			break
		}
		if !p.matchSymbol(")") {
			return nil, dberrors.NewParseError("expected ')' to close a VALUES tuple")
		}
		stmt.Rows = append(stmt.Rows, row)
		if p.matchSymbol(",") {
			continue
		}
		break
	}
	return stmt, nil
}

// -- SELECT --

func (p *parser) parseSelect() (*sqlast.Select, error) {
	stmt := &sqlast.Select{}

	if p.matchSymbol("*") {
		stmt.Star = true
	} else {
		for {
			col, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.matchSymbol(",") {
				continue
			}
			break
		}
	}

	if !p.matchKeyword("from") {
		return nil, dberrors.NewParseError("expected FROM")
	}
	table, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if p.matchKeyword("where") {
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.matchKeyword("order") {
		if !p.matchKeyword("by") {
			return nil, dberrors.NewParseError("expected BY after ORDER")
		}
		col, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		dir := sqlast.Asc
		if p.matchKeyword("desc") {
			dir = sqlast.Desc
		} else {
			p.matchKeyword("asc")
		}
		stmt.OrderBy = &sqlast.OrderBy{Column: col, Direction: dir}
	}

	if !p.atEnd() {
		return nil, dberrors.NewParseError("unexpected trailing input at position %d", p.pos)
	}
	return stmt, nil
}

// parseOrExpr and parseAndExpr give OR lower precedence than AND, matching
// ordinary SQL/boolean-logic convention.
func (p *parser) parseOrExpr() (sqlast.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("or") {
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = sqlast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (sqlast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("and") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = sqlast.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (sqlast.Expr, error) {
	col, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return sqlast.Comparison{Column: col, Op: op, Value: lit}, nil
}

// parseOp checks the two-character operators before the one-character ones
// that prefix them (<=, >=) so "<=" isn't mis-lexed as "<" followed by a
// dangling "=".
func (p *parser) parseOp() (sqlast.Op, error) {
	p.skipSpace()
	switch {
	case p.matchSymbol("<="):
		return sqlast.Le, nil
	case p.matchSymbol(">="):
		return sqlast.Ge, nil
	case p.matchSymbol("="):
		return sqlast.Eq, nil
	case p.matchSymbol("<"):
		return sqlast.Lt, nil
	case p.matchSymbol(">"):
		return sqlast.Gt, nil
	default:
		return 0, dberrors.NewParseError("expected a comparison operator at position %d", p.pos)
	}
}
