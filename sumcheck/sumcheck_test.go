package sumcheck

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
)

// testComposite is a random two-product composite over three multilinear
// tables, kept alongside a pristine copy since Prove folds in place.
type testComposite struct {
	numVars    int
	degree     int
	products   []Product
	tables     [][]fr.Element
	claimedSum fr.Element
}

func newTestComposite(t *testing.T, numVars int) *testComposite {
	t.Helper()
	n := 1 << numVars
	tables := make([][]fr.Element, 3)
	for i := range tables {
		tables[i] = make([]fr.Element, n)
		for j := range tables[i] {
			_, err := tables[i][j].SetRandom()
			require.NoError(t, err)
		}
	}
	var c0, c1 fr.Element
	_, err := c0.SetRandom()
	require.NoError(t, err)
	_, err = c1.SetRandom()
	require.NoError(t, err)
	products := []Product{
		{Coefficient: c0, Multiplicands: []int{0, 1}},
		{Coefficient: c1, Multiplicands: []int{2}},
	}

	// claimed sum, brute force over the hypercube
	var sum, term fr.Element
	for x := 0; x < n; x++ {
		term.Mul(&c0, &tables[0][x])
		term.Mul(&term, &tables[1][x])
		sum.Add(&sum, &term)
		term.Mul(&c1, &tables[2][x])
		sum.Add(&sum, &term)
	}
	return &testComposite{
		numVars:    numVars,
		degree:     2,
		products:   products,
		tables:     tables,
		claimedSum: sum,
	}
}

// evaluateAt evaluates the composite at a point using the pristine tables.
func (c *testComposite) evaluateAt(point []fr.Element) fr.Element {
	var res, term fr.Element
	for _, p := range c.products {
		term = p.Coefficient
		for _, idx := range p.Multiplicands {
			e := polynomial.EvaluateMLE(c.tables[idx], point)
			term.Mul(&term, &e)
		}
		res.Add(&res, &term)
	}
	return res
}

func (c *testComposite) proverState(t *testing.T) *ProverState {
	t.Helper()
	copied := make([][]fr.Element, len(c.tables))
	for i := range c.tables {
		copied[i] = make([]fr.Element, len(c.tables[i]))
		copy(copied[i], c.tables[i])
	}
	state, err := NewProverState(c.numVars, c.degree, c.products, copied)
	require.NoError(t, err)
	return state
}

func TestProveVerify(t *testing.T) {
	for _, numVars := range []int{1, 2, 5} {
		composite := newTestComposite(t, numVars)

		proverTr := transcript.New("sumcheck-test")
		proof, evaluationPoint := Prove(proverTr, composite.proverState(t))
		require.Len(t, proof.RoundEvaluations, numVars)
		require.Len(t, evaluationPoint, numVars)

		verifierTr := transcript.New("sumcheck-test")
		subclaim, err := VerifyWithoutEvaluation(verifierTr, proof, composite.claimedSum, numVars, composite.degree)
		require.NoError(t, err)

		// both sides must agree on the evaluation point
		for i := range evaluationPoint {
			require.True(t, evaluationPoint[i].Equal(&subclaim.EvaluationPoint[i]))
		}
		// the subclaim must be dischargeable by the actual MLEs
		got := composite.evaluateAt(subclaim.EvaluationPoint)
		require.True(t, got.Equal(&subclaim.ExpectedEvaluation))
	}
}

func TestVerifyRejectsWrongClaim(t *testing.T) {
	composite := newTestComposite(t, 3)
	proof, _ := Prove(transcript.New("sumcheck-test"), composite.proverState(t))

	var wrong, one fr.Element
	one.SetOne()
	wrong.Add(&composite.claimedSum, &one)
	_, err := VerifyWithoutEvaluation(transcript.New("sumcheck-test"), proof, wrong, 3, composite.degree)
	require.ErrorIs(t, err, ErrRoundSumMismatch)
}

func TestVerifyRejectsTamperedRound(t *testing.T) {
	composite := newTestComposite(t, 3)
	proof, _ := Prove(transcript.New("sumcheck-test"), composite.proverState(t))

	var one fr.Element
	one.SetOne()
	proof.RoundEvaluations[1][0].Add(&proof.RoundEvaluations[1][0], &one)
	_, err := VerifyWithoutEvaluation(transcript.New("sumcheck-test"), proof, composite.claimedSum, 3, composite.degree)
	require.ErrorIs(t, err, ErrRoundSumMismatch)
}

func TestVerifyRejectsWrongShape(t *testing.T) {
	composite := newTestComposite(t, 3)
	proof, _ := Prove(transcript.New("sumcheck-test"), composite.proverState(t))

	_, err := VerifyWithoutEvaluation(transcript.New("sumcheck-test"), proof, composite.claimedSum, 4, composite.degree)
	require.ErrorIs(t, err, ErrRoundCountMismatch)

	_, err = VerifyWithoutEvaluation(transcript.New("sumcheck-test"), proof, composite.claimedSum, 3, composite.degree+1)
	require.ErrorIs(t, err, ErrRoundDegreeMismatch)
}

func TestVerifyRejectsDegreeZero(t *testing.T) {
	// a degree below one must be rejected up front, not read past the
	// round's evaluations
	proof := &Proof{RoundEvaluations: [][]fr.Element{make([]fr.Element, 1)}}
	_, err := VerifyWithoutEvaluation(transcript.New("sumcheck-test"), proof, fr.Element{}, 1, 0)
	require.ErrorIs(t, err, ErrRoundDegreeMismatch)
}

func TestVerifyRejectsDivergentTranscript(t *testing.T) {
	composite := newTestComposite(t, 3)
	proof, _ := Prove(transcript.New("sumcheck-test"), composite.proverState(t))

	// a verifier with a different transcript seed derives different
	// challenges, so the final subclaim no longer matches the MLEs
	verifierTr := transcript.New("some-other-protocol")
	subclaim, err := VerifyWithoutEvaluation(verifierTr, proof, composite.claimedSum, 3, composite.degree)
	if err != nil {
		return
	}
	got := composite.evaluateAt(subclaim.EvaluationPoint)
	require.False(t, got.Equal(&subclaim.ExpectedEvaluation))
}

func TestNewProverStateValidation(t *testing.T) {
	n := 1 << 2
	tables := [][]fr.Element{make([]fr.Element, n)}
	products := []Product{{Multiplicands: []int{0}}}

	_, err := NewProverState(0, 1, products, tables)
	require.Error(t, err)

	_, err = NewProverState(2, 1, products, [][]fr.Element{make([]fr.Element, n-1)})
	require.Error(t, err)

	_, err = NewProverState(2, 1, []Product{{Multiplicands: []int{0, 0}}}, tables)
	require.Error(t, err)

	_, err = NewProverState(2, 1, []Product{{Multiplicands: []int{1}}}, tables)
	require.Error(t, err)

	_, err = NewProverState(2, 1, []Product{{Multiplicands: nil}}, tables)
	require.Error(t, err)
}
