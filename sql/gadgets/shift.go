package gadgets

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// ShiftPostResultChallenges is how many challenges the shift argument draws.
const ShiftPostResultChallenges = 2

// ShiftColumn returns the column shifted down by one: out[0] = 0,
// out[i] = col[i-1], with length len(col)+1.
func ShiftColumn(col []fr.Element) []fr.Element {
	res := make([]fr.Element, len(col)+1)
	copy(res[1:], col)
	return res
}

// FirstRoundShift registers the first-round shape of the shift argument over
// an n-row input: the verifier needs chi and rho evaluations at both n and
// n+1, and the argument draws two challenges.
func FirstRoundShift(b *proof.FirstRoundBuilder, n int) {
	b.ProduceChiEvaluationLength(n)
	b.ProduceChiEvaluationLength(n + 1)
	b.ProduceRhoEvaluationLength(n)
	b.ProduceRhoEvaluationLength(n + 1)
	b.RequestPostResultChallenges(ShiftPostResultChallenges)
}

// ProverShift proves shifted[i] = col[i-1] over n+1 rows. Rows are tagged
// with their index before folding, so unlike the filter argument the multiset
// equality binds positions: tag i+1 on input row i must meet tag i on output
// row i. Row 0 of the output carries the sentinel tag 0, whose fold is 0 and
// whose inverse contribution is 1 on both sides.
func ProverShift(
	b *proof.FinalRoundBuilder,
	col []fr.Element,
	shifted []fr.Element,
	n int,
) {
	alpha := b.ConsumePostResultChallenge()
	beta := b.ConsumePostResultChallenge()
	chiN1 := ChiColumn(n + 1)

	// cFold[i] = alpha*((i+1) + beta*col[i]) for i < n, 0 at i = n
	cFold := make([]fr.Element, n+1)
	var t fr.Element
	for i := 0; i < n; i++ {
		cFold[i].SetUint64(uint64(i + 1))
		t.Mul(&beta, &col[i])
		cFold[i].Add(&cFold[i], &t)
		cFold[i].Mul(&cFold[i], &alpha)
	}
	// dFold[i] = alpha*(i + beta*shifted[i]) for i < n+1
	dFold := make([]fr.Element, n+1)
	for i := 0; i <= n; i++ {
		dFold[i].SetUint64(uint64(i))
		t.Mul(&beta, &shifted[i])
		dFold[i].Add(&dFold[i], &t)
		dFold[i].Mul(&dFold[i], &alpha)
	}

	// stars invert 1 + fold, so the sentinel rows contribute exactly 1
	cStar := make([]fr.Element, n+1)
	dStar := make([]fr.Element, n+1)
	var one fr.Element
	one.SetOne()
	for i := 0; i <= n; i++ {
		cStar[i].Add(&one, &cFold[i])
		dStar[i].Add(&one, &dFold[i])
	}
	cStar = fr.BatchInvert(cStar)
	dStar = fr.BatchInvert(dStar)

	b.ProduceIntermediateMLE(cStar)
	b.ProduceIntermediateMLE(dStar)

	b.ProduceSumcheckSubpolynomial(proof.ZeroSum, []proof.Term{
		proof.NewTerm(cStar),
		proof.NewNegTerm(dStar),
	})
	// cStar*(1 + cFold) = chi_{n+1}
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(cStar),
		proof.NewTerm(cFold, cStar),
		proof.NewNegTerm(chiN1),
	})
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(dStar),
		proof.NewTerm(dFold, dStar),
		proof.NewNegTerm(chiN1),
	})
}

// VerifierShift mirrors ProverShift. colEval and shiftedEval are the claimed
// evaluations of the input and the shifted column; the returned evaluation is
// chi at the output length n+1, which the caller's output shape needs.
func VerifierShift(b *proof.VerificationBuilder, colEval, shiftedEval fr.Element) (fr.Element, error) {
	var zero fr.Element
	alpha, err := b.ConsumePostResultChallenge()
	if err != nil {
		return zero, err
	}
	beta, err := b.ConsumePostResultChallenge()
	if err != nil {
		return zero, err
	}
	chiNEval, _, err := b.ConsumeChiEvaluation()
	if err != nil {
		return zero, err
	}
	chiN1Eval, _, err := b.ConsumeChiEvaluation()
	if err != nil {
		return zero, err
	}
	rhoNEval, _, err := b.ConsumeRhoEvaluation()
	if err != nil {
		return zero, err
	}
	rhoN1Eval, _, err := b.ConsumeRhoEvaluation()
	if err != nil {
		return zero, err
	}
	cStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return zero, err
	}
	dStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return zero, err
	}

	// cFold = alpha*(rho_n + chi_n + beta*col), dFold = alpha*(rho_{n+1} + beta*shifted)
	var cFoldEval, dFoldEval, t fr.Element
	t.Mul(&beta, &colEval)
	cFoldEval.Add(&rhoNEval, &chiNEval)
	cFoldEval.Add(&cFoldEval, &t)
	cFoldEval.Mul(&cFoldEval, &alpha)
	t.Mul(&beta, &shiftedEval)
	dFoldEval.Add(&rhoN1Eval, &t)
	dFoldEval.Mul(&dFoldEval, &alpha)

	var eval fr.Element
	eval.Sub(&cStarEval, &dStarEval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.ZeroSum, eval); err != nil {
		return zero, err
	}
	eval.Mul(&cFoldEval, &cStarEval)
	eval.Add(&eval, &cStarEval)
	eval.Sub(&eval, &chiN1Eval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return zero, err
	}
	eval.Mul(&dFoldEval, &dStarEval)
	eval.Add(&eval, &dStarEval)
	eval.Sub(&eval, &chiN1Eval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return zero, err
	}
	return chiN1Eval, nil
}

// CountShift declares the gadget's proof shape.
func CountShift(b *proof.CountBuilder) {
	b.CountFinalRoundMLEs(2)
	b.CountSubpolynomials(3)
	b.CountChiEvaluations(2)
	b.CountRhoEvaluations(2)
	b.CountDegree(3)
	b.CountPostResultChallenges(ShiftPostResultChallenges)
}
