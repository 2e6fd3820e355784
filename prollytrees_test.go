package prollytrees_test

import (
	"context"
	"testing"

	"github.com/jchris/prolly-trees/blockstore"
	"github.com/jchris/prolly-trees/codec"
	prollytrees "github.com/jchris/prolly-trees"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *prollytrees.DB {
	return prollytrees.Create(blockstore.NewMemStore())
}

func mustExec(t *testing.T, db *prollytrees.DB, stmt string) {
	_, err := db.Exec(context.Background(), stmt)
	require.NoError(t, err)
}

// Scenario 1: CREATE the Persons table; querying it back yields no rows
// and the declared column schema in order.
func TestScenarioCreatePersonsTable(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Persons (PersonID INT, LastName VARCHAR(255), FirstName VARCHAR(255), Address VARCHAR(255), City VARCHAR(255))`)

	cols, rows, err := db.Query(context.Background(), `SELECT * FROM Persons`)
	require.NoError(t, err)
	assert.Equal(t, []string{"PersonID", "LastName", "FirstName", "Address", "City"}, cols)
	assert.Empty(t, rows)
}

// Scenario 2: one INSERT, SELECT * returns exactly that row.
func TestScenarioInsertAndSelectStar(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Persons (PersonID INT, LastName VARCHAR(255), FirstName VARCHAR(255), Address VARCHAR(255), City VARCHAR(255))`)
	mustExec(t, db, `INSERT INTO Persons VALUES (12, "Rogers", "Mikeal", "241 BVA", "San Francisco")`)

	_, rows, err := db.Query(context.Background(), `SELECT * FROM Persons`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []codec.Value{
		codec.IntValue(12), codec.VarcharValue("Rogers"), codec.VarcharValue("Mikeal"),
		codec.VarcharValue("241 BVA"), codec.VarcharValue("San Francisco"),
	}, rows[0])
}

// Scenario 3: AND over two equality predicates, and OR across two rows.
func TestScenarioAndOrPredicates(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Persons (PersonID INT, LastName VARCHAR(255), FirstName VARCHAR(255), Address VARCHAR(255), City VARCHAR(255))`)
	mustExec(t, db, `INSERT INTO Persons VALUES (12, "Rogers", "Mikeal", "241 BVA", "San Francisco")`)
	mustExec(t, db, `INSERT INTO Persons VALUES (13, "NotMikeal", "NotMikeal", "241 BVA", "San Francisco")`)

	_, rows, err := db.Query(context.Background(), `SELECT * FROM Persons WHERE FirstName="Mikeal" AND LastName="Rogers"`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, codec.IntValue(12), rows[0][0])

	_, rows, err = db.Query(context.Background(), `SELECT * FROM Persons WHERE FirstName="Mikeal" AND LastName="NotRogers"`)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, rows, err = db.Query(context.Background(), `SELECT * FROM Persons WHERE FirstName="Mikeal" OR LastName="NotRogers"`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, codec.IntValue(12), rows[0][0])
}

// Scenario 4: integer range predicates.
func TestScenarioIntegerRanges(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Test (ID INT)`)
	for i := 0; i < 10; i++ {
		mustExec(t, db, sprintfInsert(i))
	}

	_, rows, err := db.Query(context.Background(), `SELECT * FROM Test WHERE ID > 1 AND ID < 3`)
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.IntValue(2)}}, rows)

	_, rows, err = db.Query(context.Background(), `SELECT * FROM Test WHERE ID >= 2 AND ID <= 3`)
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.IntValue(2)}, {codec.IntValue(3)}}, rows)

	_, rows, err = db.Query(context.Background(), `SELECT * FROM Test WHERE ID < 3`)
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.IntValue(0)}, {codec.IntValue(1)}, {codec.IntValue(2)}}, rows)
}

func sprintfInsert(i int) string {
	return "INSERT INTO Test VALUES (" + itoa(i) + ")"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

// Scenario 5: string range predicates.
func TestScenarioStringRanges(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Test (Name VARCHAR(255))`)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		mustExec(t, db, `INSERT INTO Test VALUES ("`+name+`")`)
	}

	_, rows, err := db.Query(context.Background(), `SELECT * FROM Test WHERE Name > "a" AND Name < "c"`)
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.VarcharValue("b")}}, rows)

	_, rows, err = db.Query(context.Background(), `SELECT * FROM Test WHERE Name <= "b"`)
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{{codec.VarcharValue("a")}, {codec.VarcharValue("b")}}, rows)
}

// Scenario 6: ORDER BY ASC/DESC over an index-driven scan with WHERE.
func TestScenarioOrderByAscAndDesc(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Test (Name VARCHAR(255), Id INT)`)
	names := []string{"f", "e", "d", "c", "b", "a"}
	for i, name := range names {
		mustExec(t, db, `INSERT INTO Test VALUES ("`+name+`", `+itoa(i)+`)`)
	}

	_, rows, err := db.Query(context.Background(), `SELECT Name, Id FROM Test WHERE Name > "a" AND Name < "f" ORDER BY Id`)
	require.NoError(t, err)
	assert.Equal(t, [][]codec.Value{
		{codec.VarcharValue("e"), codec.IntValue(1)},
		{codec.VarcharValue("d"), codec.IntValue(2)},
		{codec.VarcharValue("c"), codec.IntValue(3)},
		{codec.VarcharValue("b"), codec.IntValue(4)},
	}, rows)

	_, desc, err := db.Query(context.Background(), `SELECT Name, Id FROM Test WHERE Name > "a" AND Name < "f" ORDER BY Id DESC`)
	require.NoError(t, err)
	require.Len(t, desc, len(rows))
	for i := range rows {
		assert.Equal(t, rows[len(rows)-1-i], desc[i])
	}
}

// Content-addressing determinism: the same statement sequence from an
// empty database, run against two independent stores, produces identical
// final roots.
func TestContentAddressingDeterminism(t *testing.T) {
	run := func() string {
		db := newDB(t)
		mustExec(t, db, `CREATE TABLE Test (ID INT)`)
		mustExec(t, db, `INSERT INTO Test VALUES (1), (2), (3)`)
		return db.Root().String()
	}
	assert.Equal(t, run(), run())
}

// Insertion-order independence: SELECT * WHERE P returns the same set of
// rows regardless of the order rows were inserted in.
func TestInsertionOrderIndependenceForSelect(t *testing.T) {
	dbA := newDB(t)
	mustExec(t, dbA, `CREATE TABLE Test (ID INT)`)
	mustExec(t, dbA, `INSERT INTO Test VALUES (3), (1), (2)`)

	dbB := newDB(t)
	mustExec(t, dbB, `CREATE TABLE Test (ID INT)`)
	mustExec(t, dbB, `INSERT INTO Test VALUES (1), (2), (3)`)

	_, rowsA, err := dbA.Query(context.Background(), `SELECT * FROM Test WHERE ID > 1`)
	require.NoError(t, err)
	_, rowsB, err := dbB.Query(context.Background(), `SELECT * FROM Test WHERE ID > 1`)
	require.NoError(t, err)
	assert.ElementsMatch(t, rowsA, rowsB)
}

func TestUnknownColumnIsAPlanningError(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Test (ID INT)`)
	_, _, err := db.Query(context.Background(), `SELECT * FROM Test WHERE Nope = 1`)
	assert.Error(t, err)
}

func TestCrossTypeComparisonIsAPlanningError(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Test (ID INT)`)
	_, _, err := db.Query(context.Background(), `SELECT * FROM Test WHERE ID = "nope"`)
	assert.Error(t, err)
}

func TestDescribeAndReachable(t *testing.T) {
	db := newDB(t)
	mustExec(t, db, `CREATE TABLE Test (ID INT)`)
	mustExec(t, db, `INSERT INTO Test VALUES (1), (2)`)

	desc, err := db.Describe(context.Background())
	require.NoError(t, err)
	assert.Contains(t, desc, "Test")
	assert.Contains(t, desc, "rows=2")

	reach, err := db.Reachable(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, reach)
}
