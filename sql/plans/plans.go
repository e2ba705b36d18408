// Package plans implements the provable query operators. Each operator walks
// its proof schedule three times — first round, final round, verification —
// and the three walks must stay in lockstep with each other and with the
// operator's Count declaration.
package plans

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/exprs"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// transcript tags, one per operator kind
const (
	tagTable byte = iota + 1
	tagProjection
	tagFilter
	tagGroupBy
	tagSlice
	tagUnion
	tagShift
	tagRangeCheck
)

var (
	// ErrSchemaMismatch is returned when an operator's inputs do not line up,
	// such as union branches with different schemas.
	ErrSchemaMismatch = errors.New("plans: input schemas do not match")
	// ErrUnsortedGroups is returned when a revealed group-by result is not in
	// strictly increasing key order.
	ErrUnsortedGroups = errors.New("plans: group by result keys are not strictly increasing")
)

// AliasedExpr names one output column of a projection or filter.
type AliasedExpr struct {
	Expr  exprs.ProofExpr
	Alias string
}

// outputField resolves the schema field an aliased expression yields: plain
// column references keep their SQL type, everything else surfaces as the
// type the expression computes in.
func outputField(a AliasedExpr) database.ColumnField {
	if c, ok := a.Expr.(*exprs.ColumnExpr); ok {
		return database.ColumnField{Name: a.Alias, Type: c.Ref.Type}
	}
	return database.ColumnField{Name: a.Alias, Type: a.Expr.OutputType()}
}

// materializeColumn turns computed scalars into a typed column matching
// outputField's typing.
func materializeColumn(typ database.ColumnType, scalars []fr.Element) (database.Column, error) {
	switch typ {
	case database.Boolean:
		v := make([]bool, len(scalars))
		for i := range scalars {
			v[i] = scalars[i].IsOne()
		}
		return database.NewBooleanColumn(v), nil
	case database.Decimal75:
		return database.NewDecimal75Column(scalars), nil
	default:
		return database.Column{}, fmt.Errorf("plans: cannot materialize computed column of type %s", typ)
	}
}

// evaluateOutput computes one output column of an operator over the input
// table, typed per outputField. Plain column references pass through with
// their native representation.
func evaluateOutput(a AliasedExpr, table *database.Table) (database.Column, []fr.Element, error) {
	scalars, err := a.Expr.ResultEvaluate(table)
	if err != nil {
		return database.Column{}, nil, err
	}
	if c, ok := a.Expr.(*exprs.ColumnExpr); ok {
		col, err := table.Column(c.Ref.Name)
		if err != nil {
			return database.Column{}, nil, err
		}
		return col, scalars, nil
	}
	col, err := materializeColumn(a.Expr.OutputType(), scalars)
	if err != nil {
		return database.Column{}, nil, err
	}
	return col, scalars, nil
}

// evaluateOutputFinal is evaluateOutput's final-round twin: the expression
// registers its constraints while the column is computed.
func evaluateOutputFinal(a AliasedExpr, b *proof.FinalRoundBuilder, table *database.Table) (database.Column, []fr.Element, error) {
	scalars, err := a.Expr.FinalRoundEvaluate(b, table)
	if err != nil {
		return database.Column{}, nil, err
	}
	if c, ok := a.Expr.(*exprs.ColumnExpr); ok {
		col, err := table.Column(c.Ref.Name)
		if err != nil {
			return database.Column{}, nil, err
		}
		return col, scalars, nil
	}
	col, err := materializeColumn(a.Expr.OutputType(), scalars)
	if err != nil {
		return database.Column{}, nil, err
	}
	return col, scalars, nil
}

// selectionBools converts a 0/1 selection column to booleans.
func selectionBools(s []fr.Element) []bool {
	res := make([]bool, len(s))
	for i := range s {
		res[i] = s[i].IsOne()
	}
	return res
}

// columnScalars extracts every column of a table as scalars, in order.
func columnScalars(t *database.Table) [][]fr.Element {
	res := make([][]fr.Element, t.NumColumns())
	for i := range res {
		res[i] = t.ColumnAt(i).Scalars()
	}
	return res
}
