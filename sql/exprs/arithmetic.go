package exprs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// binaryOp is the shared shape of +, -, and *; only the combine step and the
// proof obligations differ.
type binaryOp struct {
	Lhs ProofExpr
	Rhs ProofExpr
}

func (e *binaryOp) evaluateChildren(table *database.Table, final *proof.FinalRoundBuilder) (lhs, rhs []fr.Element, err error) {
	if final != nil {
		lhs, err = e.Lhs.FinalRoundEvaluate(final, table)
	} else {
		lhs, err = e.Lhs.ResultEvaluate(table)
	}
	if err != nil {
		return nil, nil, err
	}
	if final != nil {
		rhs, err = e.Rhs.FinalRoundEvaluate(final, table)
	} else {
		rhs, err = e.Rhs.ResultEvaluate(table)
	}
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

func (e *binaryOp) ColumnRefs() []database.ColumnRef {
	return append(e.Lhs.ColumnRefs(), e.Rhs.ColumnRefs()...)
}

// arithmetic happens in the field, so computed columns surface as scalars
func (e *binaryOp) OutputType() database.ColumnType { return database.Decimal75 }

// AddExpr is entrywise addition; linear, so it needs no committed column.
type AddExpr struct{ binaryOp }

// NewAddExpr builds an addition.
func NewAddExpr(lhs, rhs ProofExpr) *AddExpr {
	return &AddExpr{binaryOp{Lhs: lhs, Rhs: rhs}}
}

func (e *AddExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	lhs, rhs, err := e.evaluateChildren(table, nil)
	if err != nil {
		return nil, err
	}
	res := make([]fr.Element, len(lhs))
	for i := range res {
		res[i].Add(&lhs[i], &rhs[i])
	}
	return res, nil
}

func (e *AddExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	lhs, rhs, err := e.evaluateChildren(table, b)
	if err != nil {
		return nil, err
	}
	res := make([]fr.Element, len(lhs))
	for i := range res {
		res[i].Add(&lhs[i], &rhs[i])
	}
	return res, nil
}

func (e *AddExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	lhsEval, err := e.Lhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	rhsEval, err := e.Rhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	var res fr.Element
	res.Add(&lhsEval, &rhsEval)
	return res, nil
}

func (e *AddExpr) Count(b *proof.CountBuilder) error {
	if err := e.Lhs.Count(b); err != nil {
		return err
	}
	return e.Rhs.Count(b)
}

func (e *AddExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagAdd})
	e.Lhs.AppendToTranscript(tr)
	e.Rhs.AppendToTranscript(tr)
}

// SubtractExpr is entrywise subtraction.
type SubtractExpr struct{ binaryOp }

// NewSubtractExpr builds a subtraction.
func NewSubtractExpr(lhs, rhs ProofExpr) *SubtractExpr {
	return &SubtractExpr{binaryOp{Lhs: lhs, Rhs: rhs}}
}

func (e *SubtractExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	lhs, rhs, err := e.evaluateChildren(table, nil)
	if err != nil {
		return nil, err
	}
	return diffColumns(lhs, rhs), nil
}

func (e *SubtractExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	lhs, rhs, err := e.evaluateChildren(table, b)
	if err != nil {
		return nil, err
	}
	return diffColumns(lhs, rhs), nil
}

func (e *SubtractExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	lhsEval, err := e.Lhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	rhsEval, err := e.Rhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	var res fr.Element
	res.Sub(&lhsEval, &rhsEval)
	return res, nil
}

func (e *SubtractExpr) Count(b *proof.CountBuilder) error {
	if err := e.Lhs.Count(b); err != nil {
		return err
	}
	return e.Rhs.Count(b)
}

func (e *SubtractExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagSubtract})
	e.Lhs.AppendToTranscript(tr)
	e.Rhs.AppendToTranscript(tr)
}

// MultiplyExpr is entrywise multiplication; quadratic, so the product is
// committed and constrained like a conjunction.
type MultiplyExpr struct{ binaryOp }

// NewMultiplyExpr builds a multiplication.
func NewMultiplyExpr(lhs, rhs ProofExpr) *MultiplyExpr {
	return &MultiplyExpr{binaryOp{Lhs: lhs, Rhs: rhs}}
}

func (e *MultiplyExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	lhs, rhs, err := e.evaluateChildren(table, nil)
	if err != nil {
		return nil, err
	}
	res := make([]fr.Element, len(lhs))
	for i := range res {
		res[i].Mul(&lhs[i], &rhs[i])
	}
	return res, nil
}

func (e *MultiplyExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	lhs, rhs, err := e.evaluateChildren(table, b)
	if err != nil {
		return nil, err
	}
	return proverProduct(b, lhs, rhs), nil
}

func (e *MultiplyExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	lhsEval, err := e.Lhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	rhsEval, err := e.Rhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	return verifierProduct(b, lhsEval, rhsEval)
}

func (e *MultiplyExpr) Count(b *proof.CountBuilder) error {
	if err := e.Lhs.Count(b); err != nil {
		return err
	}
	if err := e.Rhs.Count(b); err != nil {
		return err
	}
	countProduct(b)
	return nil
}

func (e *MultiplyExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagMultiply})
	e.Lhs.AppendToTranscript(tr)
	e.Rhs.AppendToTranscript(tr)
}
