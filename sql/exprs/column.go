package exprs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// ColumnExpr reads one anchored column.
type ColumnExpr struct {
	Ref database.ColumnRef
}

// NewColumnExpr builds a column reference expression.
func NewColumnExpr(ref database.ColumnRef) *ColumnExpr { return &ColumnExpr{Ref: ref} }

func (e *ColumnExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	col, err := table.Column(e.Ref.Name)
	if err != nil {
		return nil, err
	}
	return col.Scalars(), nil
}

func (e *ColumnExpr) FinalRoundEvaluate(_ *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	return e.ResultEvaluate(table)
}

func (e *ColumnExpr) VerifierEvaluate(b *proof.VerificationBuilder, _ fr.Element) (fr.Element, error) {
	return b.ColumnEvaluation(e.Ref)
}

func (e *ColumnExpr) Count(_ *proof.CountBuilder) error { return nil }

func (e *ColumnExpr) ColumnRefs() []database.ColumnRef {
	return []database.ColumnRef{e.Ref}
}

func (e *ColumnExpr) OutputType() database.ColumnType { return e.Ref.Type }

func (e *ColumnExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagColumn})
	tr.Append("column-table", []byte(e.Ref.Table))
	tr.Append("column-name", []byte(e.Ref.Name))
	tr.AppendUint64("column-type", uint64(e.Ref.Type))
}

// LiteralExpr is a constant; over an n-row input it denotes the constant
// column of length n, so its evaluation scales the chi evaluation.
type LiteralExpr struct {
	Value fr.Element
	Type  database.ColumnType
}

// NewLiteralExpr builds a literal of the given type.
func NewLiteralExpr(value fr.Element, typ database.ColumnType) *LiteralExpr {
	return &LiteralExpr{Value: value, Type: typ}
}

// NewBigIntLiteral builds a bigint literal.
func NewBigIntLiteral(v int64) *LiteralExpr {
	var e fr.Element
	e.SetInt64(v)
	return NewLiteralExpr(e, database.BigInt)
}

// NewBooleanLiteral builds a boolean literal.
func NewBooleanLiteral(v bool) *LiteralExpr {
	var e fr.Element
	if v {
		e.SetOne()
	}
	return NewLiteralExpr(e, database.Boolean)
}

func (e *LiteralExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	res := make([]fr.Element, table.NumRows())
	for i := range res {
		res[i] = e.Value
	}
	return res, nil
}

func (e *LiteralExpr) FinalRoundEvaluate(_ *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	return e.ResultEvaluate(table)
}

func (e *LiteralExpr) VerifierEvaluate(_ *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	var res fr.Element
	res.Mul(&e.Value, &chiEval)
	return res, nil
}

func (e *LiteralExpr) Count(_ *proof.CountBuilder) error { return nil }

func (e *LiteralExpr) ColumnRefs() []database.ColumnRef { return nil }

func (e *LiteralExpr) OutputType() database.ColumnType { return e.Type }

func (e *LiteralExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagLiteral})
	tr.AppendScalars("literal-value", []fr.Element{e.Value})
	tr.AppendUint64("literal-type", uint64(e.Type))
}
