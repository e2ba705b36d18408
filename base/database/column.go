// Package database defines the typed column and table model the proof
// machinery operates on, along with the accessor interfaces that keep the
// arithmetization agnostic to physical data location.
package database

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
)

// ColumnType identifies the SQL type of a column. Every type is
// field-representable: each row maps to one scalar.
type ColumnType uint8

const (
	Boolean ColumnType = iota
	TinyInt
	SmallInt
	Int
	BigInt
	Int128
	Decimal75
	VarChar
	TimestampTZ
)

func (t ColumnType) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case TinyInt:
		return "tinyint"
	case SmallInt:
		return "smallint"
	case Int:
		return "int"
	case BigInt:
		return "bigint"
	case Int128:
		return "int128"
	case Decimal75:
		return "decimal75"
	case VarChar:
		return "varchar"
	case TimestampTZ:
		return "timestamptz"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

var errTypeMismatch = errors.New("database: column type mismatch")

// Column is an immutable typed view over the data of one column for one
// proof. All variants expose their rows as field scalars.
type Column struct {
	typ       ColumnType
	bools     []bool
	tinyInts  []int8
	smallInts []int16
	ints      []int32
	bigInts   []int64 // BigInt and TimestampTZ
	int128s   []*big.Int
	scalars   []fr.Element // Decimal75
	varchars  []string
}

func NewBooleanColumn(v []bool) Column    { return Column{typ: Boolean, bools: v} }
func NewTinyIntColumn(v []int8) Column    { return Column{typ: TinyInt, tinyInts: v} }
func NewSmallIntColumn(v []int16) Column  { return Column{typ: SmallInt, smallInts: v} }
func NewIntColumn(v []int32) Column       { return Column{typ: Int, ints: v} }
func NewBigIntColumn(v []int64) Column    { return Column{typ: BigInt, bigInts: v} }
func NewInt128Column(v []*big.Int) Column { return Column{typ: Int128, int128s: v} }
func NewDecimal75Column(v []fr.Element) Column {
	return Column{typ: Decimal75, scalars: v}
}
func NewVarCharColumn(v []string) Column { return Column{typ: VarChar, varchars: v} }
func NewTimestampTZColumn(v []int64) Column {
	return Column{typ: TimestampTZ, bigInts: v}
}

// NewScalarColumn views raw scalars as a Decimal75 column; intermediate
// prover-computed columns use this.
func NewScalarColumn(v []fr.Element) Column { return Column{typ: Decimal75, scalars: v} }

// Type returns the SQL type of the column.
func (c Column) Type() ColumnType { return c.typ }

// Len returns the number of rows.
func (c Column) Len() int {
	switch c.typ {
	case Boolean:
		return len(c.bools)
	case TinyInt:
		return len(c.tinyInts)
	case SmallInt:
		return len(c.smallInts)
	case Int:
		return len(c.ints)
	case BigInt, TimestampTZ:
		return len(c.bigInts)
	case Int128:
		return len(c.int128s)
	case Decimal75:
		return len(c.scalars)
	case VarChar:
		return len(c.varchars)
	default:
		return 0
	}
}

// hashToScalar maps arbitrary bytes into the field; VarChar rows commit to
// this image.
func hashToScalar(data []byte) fr.Element {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var e fr.Element
	e.SetBytes(h.Sum(nil))
	return e
}

// Scalars materializes the column as field elements.
func (c Column) Scalars() []fr.Element {
	res := make([]fr.Element, c.Len())
	switch c.typ {
	case Boolean:
		for i, v := range c.bools {
			if v {
				res[i].SetOne()
			}
		}
	case TinyInt:
		for i, v := range c.tinyInts {
			res[i].SetInt64(int64(v))
		}
	case SmallInt:
		for i, v := range c.smallInts {
			res[i].SetInt64(int64(v))
		}
	case Int:
		for i, v := range c.ints {
			res[i].SetInt64(int64(v))
		}
	case BigInt, TimestampTZ:
		for i, v := range c.bigInts {
			res[i].SetInt64(v)
		}
	case Int128:
		for i, v := range c.int128s {
			res[i].SetBigInt(v)
		}
	case Decimal75:
		copy(res, c.scalars)
	case VarChar:
		for i, v := range c.varchars {
			res[i] = hashToScalar([]byte(v))
		}
	}
	return res
}

// TinyInts returns the underlying int8 rows.
func (c Column) TinyInts() ([]int8, error) {
	if c.typ != TinyInt {
		return nil, fmt.Errorf("%w: want tinyint, got %s", errTypeMismatch, c.typ)
	}
	return c.tinyInts, nil
}

// SmallInts returns the underlying int16 rows.
func (c Column) SmallInts() ([]int16, error) {
	if c.typ != SmallInt {
		return nil, fmt.Errorf("%w: want smallint, got %s", errTypeMismatch, c.typ)
	}
	return c.smallInts, nil
}

// Ints returns the underlying int32 rows.
func (c Column) Ints() ([]int32, error) {
	if c.typ != Int {
		return nil, fmt.Errorf("%w: want int, got %s", errTypeMismatch, c.typ)
	}
	return c.ints, nil
}

// Int128s returns the underlying big.Int rows.
func (c Column) Int128s() ([]*big.Int, error) {
	if c.typ != Int128 {
		return nil, fmt.Errorf("%w: want int128, got %s", errTypeMismatch, c.typ)
	}
	return c.int128s, nil
}

// Decimal75s returns the underlying scalar rows of a Decimal75 column.
func (c Column) Decimal75s() ([]fr.Element, error) {
	if c.typ != Decimal75 {
		return nil, fmt.Errorf("%w: want decimal75, got %s", errTypeMismatch, c.typ)
	}
	return c.scalars, nil
}

// Bools returns the underlying boolean rows; fails on non-boolean columns.
func (c Column) Bools() ([]bool, error) {
	if c.typ != Boolean {
		return nil, fmt.Errorf("%w: want boolean, got %s", errTypeMismatch, c.typ)
	}
	return c.bools, nil
}

// BigInts returns the underlying int64 rows of a BigInt or TimestampTZ column.
func (c Column) BigInts() ([]int64, error) {
	if c.typ != BigInt && c.typ != TimestampTZ {
		return nil, fmt.Errorf("%w: want bigint, got %s", errTypeMismatch, c.typ)
	}
	return c.bigInts, nil
}

// VarChars returns the underlying string rows.
func (c Column) VarChars() ([]string, error) {
	if c.typ != VarChar {
		return nil, fmt.Errorf("%w: want varchar, got %s", errTypeMismatch, c.typ)
	}
	return c.varchars, nil
}

// Gather returns the column restricted to the given row indices, in order.
func (c Column) Gather(indices []int) Column {
	switch c.typ {
	case Boolean:
		v := make([]bool, len(indices))
		for i, idx := range indices {
			v[i] = c.bools[idx]
		}
		return NewBooleanColumn(v)
	case TinyInt:
		v := make([]int8, len(indices))
		for i, idx := range indices {
			v[i] = c.tinyInts[idx]
		}
		return NewTinyIntColumn(v)
	case SmallInt:
		v := make([]int16, len(indices))
		for i, idx := range indices {
			v[i] = c.smallInts[idx]
		}
		return NewSmallIntColumn(v)
	case Int:
		v := make([]int32, len(indices))
		for i, idx := range indices {
			v[i] = c.ints[idx]
		}
		return NewIntColumn(v)
	case BigInt, TimestampTZ:
		v := make([]int64, len(indices))
		for i, idx := range indices {
			v[i] = c.bigInts[idx]
		}
		if c.typ == TimestampTZ {
			return NewTimestampTZColumn(v)
		}
		return NewBigIntColumn(v)
	case Int128:
		v := make([]*big.Int, len(indices))
		for i, idx := range indices {
			v[i] = c.int128s[idx]
		}
		return NewInt128Column(v)
	case Decimal75:
		v := make([]fr.Element, len(indices))
		for i, idx := range indices {
			v[i] = c.scalars[idx]
		}
		return NewDecimal75Column(v)
	case VarChar:
		v := make([]string, len(indices))
		for i, idx := range indices {
			v[i] = c.varchars[idx]
		}
		return NewVarCharColumn(v)
	}
	return Column{}
}

// Equal reports whether two columns have the same type and rows.
func (c Column) Equal(other Column) bool {
	if c.typ != other.typ || c.Len() != other.Len() {
		return false
	}
	a, b := c.Scalars(), other.Scalars()
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}
