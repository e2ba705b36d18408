package gadgets

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// EvaluateEqualsZero computes the selection column s with s[i] = 1 when
// c[i] = 0, the raw half shared by the first round and the final round.
func EvaluateEqualsZero(c []fr.Element) []fr.Element {
	s := make([]fr.Element, len(c))
	for i := range c {
		if c[i].IsZero() {
			s[i].SetOne()
		}
	}
	return s
}

// ProverEqualsZero proves s[i] = (c[i] == 0) over the first n rows and
// returns s. Two constraints do it: s*c = 0 kills s on nonzero rows, and
// chi_n - s = c * cInv forces s to one on zero rows, with cInv the
// pseudoinverse of c.
func ProverEqualsZero(b *proof.FinalRoundBuilder, c []fr.Element, n int) []fr.Element {
	cInv := fr.BatchInvert(c)
	s := EvaluateEqualsZero(c)
	chiN := ChiColumn(n)

	b.ProduceIntermediateMLE(cInv)
	b.ProduceIntermediateMLE(s)
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(s, c),
	})
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(chiN),
		proof.NewNegTerm(s),
		proof.NewNegTerm(c, cInv),
	})
	return s
}

// VerifierEqualsZero mirrors ProverEqualsZero and returns the claimed
// evaluation of the selection column.
func VerifierEqualsZero(b *proof.VerificationBuilder, cEval, chiNEval fr.Element) (fr.Element, error) {
	cInvEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return fr.Element{}, err
	}
	sEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return fr.Element{}, err
	}

	var eval fr.Element
	eval.Mul(&sEval, &cEval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return fr.Element{}, err
	}
	var t fr.Element
	eval.Sub(&chiNEval, &sEval)
	t.Mul(&cEval, &cInvEval)
	eval.Sub(&eval, &t)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return fr.Element{}, err
	}
	return sEval, nil
}

// CountEqualsZero declares the gadget's proof shape.
func CountEqualsZero(b *proof.CountBuilder) {
	b.CountFinalRoundMLEs(2)
	b.CountSubpolynomials(2)
	b.CountDegree(3)
}
