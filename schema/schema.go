// Package schema holds the typed column and table definitions that
// CREATE TABLE produces and every later INSERT/SELECT is checked against.
package schema

import "github.com/jchris/prolly-trees/codec"

// Column describes one column's declared type. Length is only meaningful
// for VARCHAR and records the declared maximum, which INSERT enforces.
type Column struct {
	Name   string
	Type   codec.Type
	Length int
}

// Table is the full schema for one table: its columns in declaration
// order, which SELECT * and row padding both rely on.
type Table struct {
	Name    string
	Columns []Column
}

// IndexOf returns the position of the named column, or -1 if none exists.
func (t *Table) IndexOf(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.IndexOf(name)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}
