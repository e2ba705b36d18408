package exprs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// proverProduct registers the entrywise product of two already-proven
// columns as an intermediate column constrained by lhs*rhs - m = 0, the
// multiplication pattern shared by AND, OR, and arithmetic multiply.
func proverProduct(b *proof.FinalRoundBuilder, lhs, rhs []fr.Element) []fr.Element {
	m := make([]fr.Element, len(lhs))
	for i := range m {
		m[i].Mul(&lhs[i], &rhs[i])
	}
	b.ProduceIntermediateMLE(m)
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(lhs, rhs),
		proof.NewNegTerm(m),
	})
	return m
}

// verifierProduct mirrors proverProduct, returning the product's claimed
// evaluation.
func verifierProduct(b *proof.VerificationBuilder, lhsEval, rhsEval fr.Element) (fr.Element, error) {
	mEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return fr.Element{}, err
	}
	var eval fr.Element
	eval.Mul(&lhsEval, &rhsEval)
	eval.Sub(&eval, &mEval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return fr.Element{}, err
	}
	return mEval, nil
}

func countProduct(b *proof.CountBuilder) {
	b.CountFinalRoundMLEs(1)
	b.CountSubpolynomials(1)
	b.CountDegree(3)
}

// AndExpr is boolean conjunction: the entrywise product of 0/1 columns.
type AndExpr struct {
	Lhs ProofExpr
	Rhs ProofExpr
}

// NewAndExpr builds a conjunction.
func NewAndExpr(lhs, rhs ProofExpr) *AndExpr { return &AndExpr{Lhs: lhs, Rhs: rhs} }

func (e *AndExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	lhs, err := e.Lhs.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Rhs.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	res := make([]fr.Element, len(lhs))
	for i := range res {
		res[i].Mul(&lhs[i], &rhs[i])
	}
	return res, nil
}

func (e *AndExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	lhs, err := e.Lhs.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Rhs.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	return proverProduct(b, lhs, rhs), nil
}

func (e *AndExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
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

func (e *AndExpr) Count(b *proof.CountBuilder) error {
	if err := e.Lhs.Count(b); err != nil {
		return err
	}
	if err := e.Rhs.Count(b); err != nil {
		return err
	}
	countProduct(b)
	return nil
}

func (e *AndExpr) ColumnRefs() []database.ColumnRef {
	return append(e.Lhs.ColumnRefs(), e.Rhs.ColumnRefs()...)
}

func (e *AndExpr) OutputType() database.ColumnType { return database.Boolean }

func (e *AndExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagAnd})
	e.Lhs.AppendToTranscript(tr)
	e.Rhs.AppendToTranscript(tr)
}

// OrExpr is boolean disjunction: lhs + rhs - lhs*rhs, reusing the product
// constraint.
type OrExpr struct {
	Lhs ProofExpr
	Rhs ProofExpr
}

// NewOrExpr builds a disjunction.
func NewOrExpr(lhs, rhs ProofExpr) *OrExpr { return &OrExpr{Lhs: lhs, Rhs: rhs} }

func (e *OrExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	lhs, err := e.Lhs.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Rhs.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	res := make([]fr.Element, len(lhs))
	var t fr.Element
	for i := range res {
		t.Mul(&lhs[i], &rhs[i])
		res[i].Add(&lhs[i], &rhs[i])
		res[i].Sub(&res[i], &t)
	}
	return res, nil
}

func (e *OrExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	lhs, err := e.Lhs.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	rhs, err := e.Rhs.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	m := proverProduct(b, lhs, rhs)
	res := make([]fr.Element, len(lhs))
	for i := range res {
		res[i].Add(&lhs[i], &rhs[i])
		res[i].Sub(&res[i], &m[i])
	}
	return res, nil
}

func (e *OrExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	lhsEval, err := e.Lhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	rhsEval, err := e.Rhs.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	mEval, err := verifierProduct(b, lhsEval, rhsEval)
	if err != nil {
		return fr.Element{}, err
	}
	var res fr.Element
	res.Add(&lhsEval, &rhsEval)
	res.Sub(&res, &mEval)
	return res, nil
}

func (e *OrExpr) Count(b *proof.CountBuilder) error {
	if err := e.Lhs.Count(b); err != nil {
		return err
	}
	if err := e.Rhs.Count(b); err != nil {
		return err
	}
	countProduct(b)
	return nil
}

func (e *OrExpr) ColumnRefs() []database.ColumnRef {
	return append(e.Lhs.ColumnRefs(), e.Rhs.ColumnRefs()...)
}

func (e *OrExpr) OutputType() database.ColumnType { return database.Boolean }

func (e *OrExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagOr})
	e.Lhs.AppendToTranscript(tr)
	e.Rhs.AppendToTranscript(tr)
}

// NotExpr is boolean negation: chi_n - operand, which flips a 0/1 column on
// the live rows and stays zero past them.
type NotExpr struct {
	Operand ProofExpr
}

// NewNotExpr builds a negation.
func NewNotExpr(operand ProofExpr) *NotExpr { return &NotExpr{Operand: operand} }

func (e *NotExpr) ResultEvaluate(table *database.Table) ([]fr.Element, error) {
	v, err := e.Operand.ResultEvaluate(table)
	if err != nil {
		return nil, err
	}
	chi := gadgets.ChiColumn(len(v))
	res := make([]fr.Element, len(v))
	for i := range res {
		res[i].Sub(&chi[i], &v[i])
	}
	return res, nil
}

func (e *NotExpr) FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error) {
	v, err := e.Operand.FinalRoundEvaluate(b, table)
	if err != nil {
		return nil, err
	}
	chi := gadgets.ChiColumn(len(v))
	res := make([]fr.Element, len(v))
	for i := range res {
		res[i].Sub(&chi[i], &v[i])
	}
	return res, nil
}

func (e *NotExpr) VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error) {
	vEval, err := e.Operand.VerifierEvaluate(b, chiEval)
	if err != nil {
		return fr.Element{}, err
	}
	var res fr.Element
	res.Sub(&chiEval, &vEval)
	return res, nil
}

func (e *NotExpr) Count(b *proof.CountBuilder) error { return e.Operand.Count(b) }

func (e *NotExpr) ColumnRefs() []database.ColumnRef { return e.Operand.ColumnRefs() }

func (e *NotExpr) OutputType() database.ColumnType { return database.Boolean }

func (e *NotExpr) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("expr-tag", []byte{tagNot})
	e.Operand.AppendToTranscript(tr)
}
