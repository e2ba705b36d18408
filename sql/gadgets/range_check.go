package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// wordBase is the digit radix; every digit is one byte.
const wordBase = 256

// decomposeColumn splits each entry into base-256 digits and returns the
// distribution, one scalar column per varying digit position in increasing
// position order, and the occurrence count of each byte value across those
// columns.
func decomposeColumn(column []fr.Element) (words.Distribution, [][]fr.Element, [wordBase]int, error) {
	var occurrences [wordBase]int
	digits := make([][words.Count]byte, len(column))
	for i := range column {
		d, err := words.Decompose(&column[i])
		if err != nil {
			return words.Distribution{}, nil, occurrences, fmt.Errorf("row %d: %w", i, err)
		}
		digits[i] = d
	}
	dist := words.NewDistribution(digits)
	varying := dist.VaryingIndices()
	wordColumns := make([][]fr.Element, len(varying))
	for k, j := range varying {
		col := make([]fr.Element, len(column))
		for i := range column {
			col[i].SetUint64(uint64(digits[i][j]))
			occurrences[digits[i][j]]++
		}
		wordColumns[k] = col
	}
	return dist, wordColumns, occurrences, nil
}

// FirstRoundRangeCheck decomposes the column into byte words, commits the
// varying word columns, and registers the 256-row lookup-table shape. It
// fails when any entry exceeds the usable 248-bit range, which is a prover
// data error rather than a proof failure.
func FirstRoundRangeCheck(b *proof.FirstRoundBuilder, column []fr.Element) error {
	dist, wordColumns, _, err := decomposeColumn(column)
	if err != nil {
		return err
	}
	for _, col := range wordColumns {
		b.ProduceIntermediateMLE(col)
	}
	b.ProduceBitDistribution(dist)
	b.ProduceChiEvaluationLength(wordBase)
	b.ProduceRhoEvaluationLength(wordBase)
	b.RequestPostResultChallenges(1)
	return nil
}

// FinalRoundRangeCheck registers the logarithmic-derivative lookup: every
// word w contributes 1/(w+alpha), the table side contributes
// counts[v]/(v+alpha), and the two sides must sum to the same value, which
// forces every word into 0..255.
func FinalRoundRangeCheck(b *proof.FinalRoundBuilder, column []fr.Element, n int) error {
	_, wordColumns, occurrences, err := decomposeColumn(column)
	if err != nil {
		return err
	}
	alpha := b.ConsumePostResultChallenge()

	rho256 := RhoColumn(wordBase)
	chi256 := ChiColumn(wordBase)
	chiN := ChiColumn(n)

	rhoInv := make([]fr.Element, wordBase)
	for i := range rhoInv {
		rhoInv[i].Add(&rho256[i], &alpha)
	}
	rhoInv = fr.BatchInvert(rhoInv)
	b.ProduceIntermediateMLE(rhoInv)
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(rho256, rhoInv),
		proof.NewScaledTerm(alpha, rhoInv),
		proof.NewNegTerm(chi256),
	})

	counts := make([]fr.Element, wordBase)
	for v := range counts {
		counts[v].SetUint64(uint64(occurrences[v]))
	}
	invWords := make([][]fr.Element, len(wordColumns))
	for k, col := range wordColumns {
		inv := make([]fr.Element, len(col))
		for i := range col {
			inv[i].Add(&col[i], &alpha)
		}
		inv = fr.BatchInvert(inv)
		invWords[k] = inv
		b.ProduceIntermediateMLE(inv)
		b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
			proof.NewTerm(col, inv),
			proof.NewScaledTerm(alpha, inv),
			proof.NewNegTerm(chiN),
		})
	}

	b.ProduceIntermediateMLE(counts)
	terms := []proof.Term{proof.NewTerm(rhoInv, counts)}
	for _, inv := range invWords {
		terms = append(terms, proof.NewNegTerm(inv))
	}
	b.ProduceSumcheckSubpolynomial(proof.ZeroSum, terms)
	return nil
}

// VerifierRangeCheck mirrors the two prover rounds and additionally checks
// the base-256 recomposition: the word evaluations, weighted by their place
// value, must rebuild the claimed column evaluation, with constant digit
// positions entering through the chi evaluation.
func VerifierRangeCheck(b *proof.VerificationBuilder, columnEval, chiNEval fr.Element) error {
	dist, err := b.ConsumeBitDistribution()
	if err != nil {
		return err
	}
	wordEvals, err := b.ConsumeFirstRoundMLEEvaluations(dist.VaryingCount())
	if err != nil {
		return err
	}
	alpha, err := b.ConsumePostResultChallenge()
	if err != nil {
		return err
	}
	chi256Eval, length, err := b.ConsumeChiEvaluation()
	if err != nil {
		return err
	}
	if length != wordBase {
		return fmt.Errorf("%w: lookup chi length %d", proof.ErrInvalidProof, length)
	}
	rho256Eval, length, err := b.ConsumeRhoEvaluation()
	if err != nil {
		return err
	}
	if length != wordBase {
		return fmt.Errorf("%w: lookup rho length %d", proof.ErrInvalidProof, length)
	}

	rhoInvEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return err
	}
	var eval, t fr.Element
	eval.Mul(&rho256Eval, &rhoInvEval)
	t.Mul(&alpha, &rhoInvEval)
	eval.Add(&eval, &t)
	eval.Sub(&eval, &chi256Eval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return err
	}

	var invSum fr.Element
	for _, wEval := range wordEvals {
		invWEval, err := b.ConsumeFinalRoundMLEEvaluation()
		if err != nil {
			return err
		}
		eval.Mul(&wEval, &invWEval)
		t.Mul(&alpha, &invWEval)
		eval.Add(&eval, &t)
		eval.Sub(&eval, &chiNEval)
		if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
			return err
		}
		invSum.Add(&invSum, &invWEval)
	}

	countsEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return err
	}
	eval.Mul(&rhoInvEval, &countsEval)
	eval.Sub(&eval, &invSum)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.ZeroSum, eval); err != nil {
		return err
	}

	// base-256 recomposition binds the words to the column
	var recomposed, placeValue, base fr.Element
	placeValue.SetOne()
	base.SetUint64(wordBase)
	k := 0
	for j := 0; j < words.Count; j++ {
		if dist.VaryingMask.Test(uint(j)) {
			t.Mul(&placeValue, &wordEvals[k])
			k++
		} else {
			t.SetUint64(uint64(dist.ConstantBytes[j]))
			t.Mul(&t, &chiNEval)
			t.Mul(&t, &placeValue)
		}
		recomposed.Add(&recomposed, &t)
		placeValue.Mul(&placeValue, &base)
	}
	if !recomposed.Equal(&columnEval) {
		return fmt.Errorf("%w: word recomposition does not match column", proof.ErrInvalidProof)
	}
	return nil
}

// CountRangeCheck declares the gadget's proof shape; the committed word
// count comes from the proof's distribution.
func CountRangeCheck(b *proof.CountBuilder) error {
	dist, err := b.ConsumeBitDistribution()
	if err != nil {
		return err
	}
	varying := dist.VaryingCount()
	b.CountFirstRoundMLEs(varying)
	b.CountFinalRoundMLEs(varying + 2)
	b.CountSubpolynomials(varying + 2)
	b.CountChiEvaluations(1)
	b.CountRhoEvaluations(1)
	b.CountDegree(3)
	b.CountPostResultChallenges(1)
	return nil
}
