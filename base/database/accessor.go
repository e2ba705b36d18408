package database

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/commitment"
)

// MetadataAccessor looks up table shapes: row counts and the generator
// offset at which a table's columns were committed.
type MetadataAccessor interface {
	GetLength(table TableRef) int
	GetOffset(table TableRef) int
}

// SchemaAccessor looks up column types by name.
type SchemaAccessor interface {
	GetColumnType(column ColumnRef) (ColumnType, bool)
}

// CommitmentAccessor looks up the commitment of an anchored column; the
// verifier's view of the data.
type CommitmentAccessor interface {
	MetadataAccessor
	GetCommitment(column ColumnRef) (commitment.Commitment, error)
}

// DataAccessor looks up column data; the prover's view of the data.
type DataAccessor interface {
	MetadataAccessor
	GetColumn(column ColumnRef) (Column, error)
	GetTable(table TableRef, columns []ColumnRef) (*Table, error)
}

// InMemoryAccessor is a reference accessor holding owned tables and their
// commitments. It implements every accessor interface.
type InMemoryAccessor struct {
	tables      map[TableRef]*Table
	offsets     map[TableRef]int
	commitments map[ColumnRef]commitment.Commitment
}

// NewInMemoryAccessor returns an empty accessor.
func NewInMemoryAccessor() *InMemoryAccessor {
	return &InMemoryAccessor{
		tables:      make(map[TableRef]*Table),
		offsets:     make(map[TableRef]int),
		commitments: make(map[ColumnRef]commitment.Commitment),
	}
}

// AddTable registers a table with its generator offset and commits every
// column with the given scheme.
func (a *InMemoryAccessor) AddTable(ref TableRef, table *Table, offset int, scheme commitment.Scheme) error {
	names := table.Names()
	data := make([][]fr.Element, len(names))
	for i, name := range names {
		col, err := table.Column(name)
		if err != nil {
			return err
		}
		data[i] = col.Scalars()
	}
	commitments, err := scheme.Commit(data, uint64(offset))
	if err != nil {
		return fmt.Errorf("commit table %q: %w", ref, err)
	}
	a.tables[ref] = table
	a.offsets[ref] = offset
	for i, name := range names {
		col, _ := table.Column(name)
		a.commitments[ColumnRef{Table: ref, Name: name, Type: col.Type()}] = commitments[i]
	}
	return nil
}

// GetLength returns the table's row count.
func (a *InMemoryAccessor) GetLength(table TableRef) int {
	if t, ok := a.tables[table]; ok {
		return t.NumRows()
	}
	return 0
}

// GetOffset returns the table's generator offset.
func (a *InMemoryAccessor) GetOffset(table TableRef) int { return a.offsets[table] }

// GetColumnType returns the type of the named column.
func (a *InMemoryAccessor) GetColumnType(column ColumnRef) (ColumnType, bool) {
	t, ok := a.tables[column.Table]
	if !ok {
		return 0, false
	}
	c, err := t.Column(column.Name)
	if err != nil {
		return 0, false
	}
	return c.Type(), true
}

// GetCommitment returns the stored commitment of an anchored column.
func (a *InMemoryAccessor) GetCommitment(column ColumnRef) (commitment.Commitment, error) {
	c, ok := a.commitments[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q.%q", ErrColumnNotFound, column.Table, column.Name)
	}
	return c, nil
}

// SetCommitment overwrites a stored commitment; exists so tests can model a
// verifier whose view of the data was tampered with.
func (a *InMemoryAccessor) SetCommitment(column ColumnRef, c commitment.Commitment) {
	a.commitments[column] = c
}

// GetColumn returns the data of one column.
func (a *InMemoryAccessor) GetColumn(column ColumnRef) (Column, error) {
	t, ok := a.tables[column.Table]
	if !ok {
		return Column{}, fmt.Errorf("%w: table %q", ErrColumnNotFound, column.Table)
	}
	return t.Column(column.Name)
}

// GetTable returns a table restricted to the requested columns.
func (a *InMemoryAccessor) GetTable(table TableRef, columns []ColumnRef) (*Table, error) {
	t, ok := a.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: table %q", ErrColumnNotFound, table)
	}
	res := NewTable(t.NumRows())
	for _, ref := range columns {
		c, err := t.Column(ref.Name)
		if err != nil {
			return nil, err
		}
		if err := res.AddColumn(ref.Name, c); err != nil {
			return nil, err
		}
	}
	return res, nil
}
