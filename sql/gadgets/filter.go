package gadgets

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// FilterPostResultChallenges is how many challenges the filter argument
// draws: one to shift the folds away from zero, one to fold columns.
const FilterPostResultChallenges = 2

// ProverFilter proves that the m output rows are exactly the selected input
// rows. It is a logarithmic-derivative argument: each side's rows are folded
// into one column, shifted by alpha, inverted, and the inverses of selected
// input rows must sum to the inverses of output rows.
//
// inputs are the n-row columns, outputs the m-row columns, selection the
// 0/1 column over the inputs.
func ProverFilter(
	b *proof.FinalRoundBuilder,
	inputs [][]fr.Element,
	selection []fr.Element,
	outputs [][]fr.Element,
	n, m int,
) {
	alpha := b.ConsumePostResultChallenge()
	beta := b.ConsumePostResultChallenge()
	chiN := ChiColumn(n)
	chiM := ChiColumn(m)

	cFold := AddConstant(FoldColumns(inputs, &beta, n), &alpha, n)
	cStar := fr.BatchInvert(cFold)
	dFold := AddConstant(FoldColumns(outputs, &beta, m), &alpha, m)
	dStar := fr.BatchInvert(dFold)

	b.ProduceIntermediateMLE(cStar)
	b.ProduceIntermediateMLE(dStar)

	b.ProduceSumcheckSubpolynomial(proof.ZeroSum, []proof.Term{
		proof.NewTerm(cStar, selection),
		proof.NewNegTerm(dStar),
	})
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(cFold, cStar),
		proof.NewNegTerm(chiN),
	})
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(dFold, dStar),
		proof.NewNegTerm(chiM),
	})
}

// VerifierFilter mirrors ProverFilter over claimed evaluations.
func VerifierFilter(
	b *proof.VerificationBuilder,
	inputEvals []fr.Element,
	selectionEval fr.Element,
	outputEvals []fr.Element,
	chiNEval, chiMEval fr.Element,
) error {
	alpha, err := b.ConsumePostResultChallenge()
	if err != nil {
		return err
	}
	beta, err := b.ConsumePostResultChallenge()
	if err != nil {
		return err
	}
	cStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return err
	}
	dStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return err
	}

	// fold evaluations compose linearly from the component evaluations
	var cFoldEval, dFoldEval, t fr.Element
	cFoldEval = FoldEvals(inputEvals, &beta)
	t.Mul(&alpha, &chiNEval)
	cFoldEval.Add(&cFoldEval, &t)
	dFoldEval = FoldEvals(outputEvals, &beta)
	t.Mul(&alpha, &chiMEval)
	dFoldEval.Add(&dFoldEval, &t)

	var eval fr.Element
	eval.Mul(&cStarEval, &selectionEval)
	eval.Sub(&eval, &dStarEval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.ZeroSum, eval); err != nil {
		return err
	}
	eval.Mul(&cFoldEval, &cStarEval)
	eval.Sub(&eval, &chiNEval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return err
	}
	eval.Mul(&dFoldEval, &dStarEval)
	eval.Sub(&eval, &chiMEval)
	return b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval)
}

// CountFilter declares the gadget's proof shape.
func CountFilter(b *proof.CountBuilder) {
	b.CountFinalRoundMLEs(2)
	b.CountSubpolynomials(3)
	b.CountDegree(3)
	b.CountPostResultChallenges(FilterPostResultChallenges)
}
