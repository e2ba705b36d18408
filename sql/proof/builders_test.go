package proof

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
)

func scalars(vs ...uint64) []fr.Element {
	res := make([]fr.Element, len(vs))
	for i, v := range vs {
		res[i].SetUint64(v)
	}
	return res
}

func TestFirstRoundBuilderRangeLength(t *testing.T) {
	b := NewFirstRoundBuilder(5)
	require.Equal(t, 5, b.RangeLength())

	b.ProduceIntermediateMLE(make([]fr.Element, 3))
	require.Equal(t, 5, b.RangeLength())

	b.ProduceChiEvaluationLength(9)
	require.Equal(t, 9, b.RangeLength())

	b.ProduceRhoEvaluationLength(12)
	require.Equal(t, 12, b.RangeLength())

	b.ProduceIntermediateMLE(make([]fr.Element, 20))
	require.Equal(t, 20, b.RangeLength())

	require.Len(t, b.MLEs(), 2)
	require.Equal(t, []int{9}, b.ChiEvaluationLengths())
	require.Equal(t, []int{12}, b.RhoEvaluationLengths())

	b.RequestPostResultChallenges(2)
	b.RequestPostResultChallenges(1)
	require.Equal(t, 3, b.NumPostResultChallenges())
}

func TestFirstRoundBuilderMinimumRange(t *testing.T) {
	b := NewFirstRoundBuilder(0)
	require.Equal(t, 1, b.RangeLength())
}

func TestFinalRoundBuilderChallengeSchedule(t *testing.T) {
	challenges := scalars(11, 22)
	b := NewFinalRoundBuilder(3, challenges)
	require.Equal(t, 3, b.NumVariables())

	c := b.ConsumePostResultChallenge()
	require.True(t, c.Equal(&challenges[0]))
	c = b.ConsumePostResultChallenge()
	require.True(t, c.Equal(&challenges[1]))
	require.Panics(t, func() { b.ConsumePostResultChallenge() })
}

func TestSubpolynomialDegree(t *testing.T) {
	a := scalars(1, 2)
	sp := Subpolynomial{Type: ZeroSum, Terms: []Term{NewTerm(a, a), NewTerm(a)}}
	require.Equal(t, 2, sp.Degree())
	sp.Type = Identity
	require.Equal(t, 3, sp.Degree())
}

func TestCountBuilderDegreeIsMax(t *testing.T) {
	b := NewCountBuilder(nil)
	b.CountDegree(3)
	b.CountDegree(2)
	b.CountDegree(5)
	require.Equal(t, 5, b.Counts().SumcheckDegree)

	_, err := b.ConsumeBitDistribution()
	require.ErrorIs(t, err, ErrExhaustedQueue)
}

func TestCountBuilderDegreeFloor(t *testing.T) {
	// plans with no subpolynomials still run a multilinear sumcheck, so the
	// declared degree never drops below the prover's floor of one
	b := NewCountBuilder(nil)
	require.Equal(t, 1, b.Counts().SumcheckDegree)
}

func TestCountBuilderConsumesDistributions(t *testing.T) {
	d := words.NewDistribution(nil)
	b := NewCountBuilder([]words.Distribution{d})
	got, err := b.ConsumeBitDistribution()
	require.NoError(t, err)
	require.True(t, got.IsValid())
	require.Equal(t, 1, b.Counts().BitDistributions)
	require.Zero(t, b.remainingBitDistributions())
}

func newTestVerificationBuilder(t *testing.T) *VerificationBuilder {
	t.Helper()
	point := make([]fr.Element, 3)
	for i := range point {
		_, err := point[i].SetRandom()
		require.NoError(t, err)
	}
	ref := database.ColumnRef{Table: "s.t", Name: "a", Type: database.BigInt}
	return NewVerificationBuilder(
		point, 8,
		map[database.ColumnRef]fr.Element{ref: scalars(7)[0]},
		scalars(1, 2),
		scalars(3),
		[]int{5}, []int{6},
		scalars(9),
		[]words.Distribution{words.NewDistribution(nil)},
		scalars(4, 8),
		scalars(13)[0],
	)
}

func TestVerificationBuilderQueues(t *testing.T) {
	b := newTestVerificationBuilder(t)

	evals, err := b.ConsumeFirstRoundMLEEvaluations(2)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	_, err = b.ConsumeFirstRoundMLEEvaluation()
	require.ErrorIs(t, err, ErrExhaustedQueue)

	_, err = b.ConsumeFinalRoundMLEEvaluation()
	require.NoError(t, err)
	_, err = b.ConsumeFinalRoundMLEEvaluation()
	require.ErrorIs(t, err, ErrExhaustedQueue)

	chi, length, err := b.ConsumeChiEvaluation()
	require.NoError(t, err)
	require.Equal(t, 5, length)
	want := polynomial.TruncatedLagrangeBasisSum(5, b.EvaluationPoint())
	require.True(t, chi.Equal(&want))
	_, _, err = b.ConsumeChiEvaluation()
	require.ErrorIs(t, err, ErrExhaustedQueue)

	rho, length, err := b.ConsumeRhoEvaluation()
	require.NoError(t, err)
	require.Equal(t, 6, length)
	wantRho := polynomial.TruncatedRhoEvaluation(6, b.EvaluationPoint())
	require.True(t, rho.Equal(&wantRho))

	_, err = b.ConsumePostResultChallenge()
	require.NoError(t, err)
	_, err = b.ConsumePostResultChallenge()
	require.ErrorIs(t, err, ErrExhaustedQueue)

	_, err = b.ConsumeBitDistribution()
	require.NoError(t, err)
	_, err = b.ConsumeBitDistribution()
	require.ErrorIs(t, err, ErrExhaustedQueue)

	require.NoError(t, b.ProduceSumcheckSubpolynomialEvaluation(Identity, scalars(2)[0]))
	require.NoError(t, b.ProduceSumcheckSubpolynomialEvaluation(ZeroSum, scalars(3)[0]))
	err = b.ProduceSumcheckSubpolynomialEvaluation(ZeroSum, scalars(1)[0])
	require.ErrorIs(t, err, ErrExhaustedQueue)

	// identity: 2 * entrywise(13) * multiplier(4); zerosum: 3 * multiplier(8)
	want = scalars(2*13*4 + 3*8)[0]
	got := b.SumcheckEvaluation()
	require.True(t, got.Equal(&want))

	require.NoError(t, b.AssertConsumed())
}

func TestVerificationBuilderAssertConsumed(t *testing.T) {
	b := newTestVerificationBuilder(t)
	require.ErrorIs(t, b.AssertConsumed(), ErrUnconsumedElements)
}

func TestVerificationBuilderColumnEvaluation(t *testing.T) {
	b := newTestVerificationBuilder(t)
	ref := database.ColumnRef{Table: "s.t", Name: "a", Type: database.BigInt}
	e, err := b.ColumnEvaluation(ref)
	require.NoError(t, err)
	want := scalars(7)[0]
	require.True(t, e.Equal(&want))

	_, err = b.ColumnEvaluation(database.ColumnRef{Table: "s.t", Name: "missing"})
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestVerificationBuilderRejectsMalformedDistribution(t *testing.T) {
	var bad words.Distribution
	b := NewVerificationBuilder(nil, 1, nil, nil, nil, nil, nil, nil,
		[]words.Distribution{bad}, nil, fr.Element{})
	_, err := b.ConsumeBitDistribution()
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestMakeSumcheckProverStateDedupsMLEs(t *testing.T) {
	col := scalars(1, 2, 3, 4)
	entrywise := scalars(5, 6, 7, 8)
	subpolys := []Subpolynomial{
		{Type: Identity, Terms: []Term{NewTerm(col, col), NewNegTerm(col)}},
		{Type: ZeroSum, Terms: []Term{NewTerm(col)}},
	}
	state, err := makeSumcheckProverState(subpolys, entrywise, scalars(1, 1), 2)
	require.NoError(t, err)
	// entrywise vector and the column, interned once each
	require.Equal(t, 2, state.NumVariables())
	require.Equal(t, 3, state.Degree())
}

func TestMakeSumcheckProverStatePanicsOnConstantZeroSum(t *testing.T) {
	subpolys := []Subpolynomial{
		{Type: ZeroSum, Terms: []Term{NewScaledTerm(scalars(3)[0])}},
	}
	require.Panics(t, func() {
		_, _ = makeSumcheckProverState(subpolys, scalars(0, 0), scalars(1), 1)
	})
}
