package database

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
)

// TableRef names a table, e.g. "schema.table".
type TableRef string

// ColumnRef names one column of one table together with its type.
type ColumnRef struct {
	Table TableRef   `cbor:"1,keyasint"`
	Name  string     `cbor:"2,keyasint"`
	Type  ColumnType `cbor:"3,keyasint"`
}

// ColumnField describes one column of a result set.
type ColumnField struct {
	Name string
	Type ColumnType
}

var (
	errRowCountMismatch = errors.New("database: columns of one table must share a row count")
	errDuplicateColumn  = errors.New("database: duplicate column name")
	// ErrColumnNotFound is returned when a table or accessor lookup misses.
	ErrColumnNotFound = errors.New("database: column not found")
)

// Table is an ordered name -> Column mapping; all columns share one row
// count. It is owned by the plan node that produced it or borrowed from an
// accessor for a scan.
type Table struct {
	names   []string
	columns []Column
	numRows int
}

// NewTable returns an empty table with the given row count; used for plans
// whose output starts empty.
func NewTable(numRows int) *Table {
	return &Table{numRows: numRows}
}

// AddColumn appends a named column; every column must match the table's row
// count.
func (t *Table) AddColumn(name string, c Column) error {
	if len(t.names) == 0 && t.numRows == 0 {
		t.numRows = c.Len()
	}
	if c.Len() != t.numRows {
		return fmt.Errorf("%w: %q has %d rows, table has %d", errRowCountMismatch, name, c.Len(), t.numRows)
	}
	for _, n := range t.names {
		if n == name {
			return fmt.Errorf("%w: %q", errDuplicateColumn, name)
		}
	}
	t.names = append(t.names, name)
	t.columns = append(t.columns, c)
	return nil
}

// MustAddColumn is AddColumn for statically well-formed tables.
func (t *Table) MustAddColumn(name string, c Column) *Table {
	if err := t.AddColumn(name, c); err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.numRows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Names returns the column names in insertion order.
func (t *Table) Names() []string { return t.names }

// Column returns the named column.
func (t *Table) Column(name string) (Column, error) {
	for i, n := range t.names {
		if n == name {
			return t.columns[i], nil
		}
	}
	return Column{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) Column { return t.columns[i] }

// Fields returns the table schema as result fields.
func (t *Table) Fields() []ColumnField {
	res := make([]ColumnField, len(t.columns))
	for i := range t.columns {
		res[i] = ColumnField{Name: t.names[i], Type: t.columns[i].Type()}
	}
	return res
}

// MLEEvaluations evaluates every column's multilinear extension at the given
// point, in column order. The verifier uses this to check the revealed
// result against the claimed output evaluations.
func (t *Table) MLEEvaluations(point []fr.Element) []fr.Element {
	evaluationVec := make([]fr.Element, t.numRows)
	polynomial.ComputeEvaluationVector(evaluationVec, point)
	res := make([]fr.Element, len(t.columns))
	for i, c := range t.columns {
		scalars := c.Scalars()
		var acc, term fr.Element
		for j := range scalars {
			term.Mul(&scalars[j], &evaluationVec[j])
			acc.Add(&acc, &term)
		}
		res[i] = acc
	}
	return res
}

// Equal reports whether two tables have identical schema and rows.
func (t *Table) Equal(other *Table) bool {
	if t.numRows != other.numRows || len(t.columns) != len(other.columns) {
		return false
	}
	for i := range t.columns {
		if t.names[i] != other.names[i] || !t.columns[i].Equal(other.columns[i]) {
			return false
		}
	}
	return true
}
