package exprs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// EqualsExpr is lhs = rhs, proven as lhs - rhs = 0 with the equals-zero
// gadget.
type EqualsExpr struct {
	Lhs ProofExpr
	Rhs ProofExpr
}

// NewEqualsExpr builds an equality comparison.
func NewEqualsExpr(lhs, rhs ProofExpr) *EqualsExpr { return &EqualsExpr{Lhs: lhs, Rhs: rhs} }

func diffColumns(lhs, rhs []fr.Element) []fr.Element {
	res := make([]fr.Element, len(lhs))
	for i := range res {
		res[i].Sub(&lhs[i], &rhs[i])
	}
	return res
}

func (e *EqualsExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	lhs, err := e.Lhs.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Rhs.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	return gadgets.EvaluateEqualsZero(diffColumns(lhs, rhs)), nil
}

func (e *EqualsExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	lhs, err := e.Lhs.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Rhs.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	return gadgets.ProverEqualsZero(b, diffColumns(lhs, rhs), table.NumRows()), nil
}

func (e *EqualsExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	lhsEval, err := e.Lhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	rhsEval, err := e.Rhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	var cEval fr.Element
	cEval.Sub(&lhsEval, &rhsEval)
	return gadgets.VerifierEqualsZero(b, cEval, chiEval)
}

func (e *EqualsExpr) Count(b *proof.CountBuilder) error {
	if err := e.Lhs.Count(b); err != nil {
		return err
	}
	if err := e.Rhs.Count(b); err != nil {
		return err
	}
	gadgets.CountEqualsZero(b)
	return nil
}

func (e *EqualsExpr) ColumnRefs() []database.ColumnRef {
	return append(e.Lhs.ColumnRefs(), e.Rhs.ColumnRefs()...)
}

func (e *EqualsExpr) OutputType() database.ColumnType { return database.Boolean }

func (e *EqualsExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagEquals})
	e.Lhs.AppendToTranscript(tr)
	e.Rhs.AppendToTranscript(tr)
}
