package pedersen

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/commitment"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
)

func randomColumn(t *testing.T, n int) []fr.Element {
	t.Helper()
	res := make([]fr.Element, n)
	for i := range res {
		_, err := res[i].SetRandom()
		require.NoError(t, err)
	}
	return res
}

func TestSetupIsDeterministic(t *testing.T) {
	a, err := NewScheme(8)
	require.NoError(t, err)
	b, err := NewScheme(8)
	require.NoError(t, err)

	col := randomColumn(t, 8)
	ca, err := a.Commit([][]fr.Element{col}, 0)
	require.NoError(t, err)
	cb, err := b.Commit([][]fr.Element{col}, 0)
	require.NoError(t, err)
	require.True(t, ca[0].Equal(cb[0]))
}

func TestCommitBinds(t *testing.T) {
	scheme, err := NewScheme(8)
	require.NoError(t, err)

	col := randomColumn(t, 8)
	other := make([]fr.Element, len(col))
	copy(other, col)
	var one fr.Element
	one.SetOne()
	other[3].Add(&other[3], &one)

	cs, err := scheme.Commit([][]fr.Element{col, other, col}, 0)
	require.NoError(t, err)
	require.False(t, cs[0].Equal(cs[1]))
	require.True(t, cs[0].Equal(cs[2]))
}

func TestCommitOffsetMatters(t *testing.T) {
	scheme, err := NewScheme(8)
	require.NoError(t, err)
	col := randomColumn(t, 4)
	at0, err := scheme.Commit([][]fr.Element{col}, 0)
	require.NoError(t, err)
	at2, err := scheme.Commit([][]fr.Element{col}, 2)
	require.NoError(t, err)
	require.False(t, at0[0].Equal(at2[0]))
}

func TestCommitSetupTooSmall(t *testing.T) {
	scheme, err := NewScheme(4)
	require.NoError(t, err)
	_, err = scheme.Commit([][]fr.Element{randomColumn(t, 5)}, 0)
	require.ErrorIs(t, err, commitment.ErrSetupTooSmall)
	_, err = scheme.Commit([][]fr.Element{randomColumn(t, 4)}, 1)
	require.ErrorIs(t, err, commitment.ErrSetupTooSmall)
}

// batchedFixture commits two columns and folds them with random batching
// factors the way the query protocol does.
type batchedFixture struct {
	scheme      *Scheme
	commitments []commitment.Commitment
	batching    []fr.Element
	folded      []fr.Element
	point       []fr.Element
	product     fr.Element
}

func newBatchedFixture(t *testing.T, tableLength int, offset uint64) *batchedFixture {
	t.Helper()
	scheme, err := NewScheme(int(offset) + tableLength)
	require.NoError(t, err)

	columns := [][]fr.Element{randomColumn(t, tableLength), randomColumn(t, tableLength)}
	commitments, err := scheme.Commit(columns, offset)
	require.NoError(t, err)

	batching := randomColumn(t, len(columns))
	folded := make([]fr.Element, tableLength)
	for i, col := range columns {
		polynomial.MulAdd(folded, col, &batching[i])
	}
	point := randomColumn(t, polynomial.Log2Up(tableLength))
	var product, term fr.Element
	for i, col := range columns {
		e := polynomial.EvaluateMLE(col, point)
		term.Mul(&batching[i], &e)
		product.Add(&product, &term)
	}
	return &batchedFixture{
		scheme:      scheme,
		commitments: commitments,
		batching:    batching,
		folded:      folded,
		point:       point,
		product:     product,
	}
}

func TestProveVerifyBatched(t *testing.T) {
	f := newBatchedFixture(t, 8, 0)

	proverTr := transcript.New("pedersen-test")
	proof, err := f.scheme.ProveEvaluation(proverTr, f.folded, f.point, 0)
	require.NoError(t, err)

	verifierTr := transcript.New("pedersen-test")
	require.NoError(t, proof.VerifyBatched(verifierTr, f.commitments, f.batching, &f.product, f.point, 0, 8))
}

func TestProveVerifyBatchedWithOffset(t *testing.T) {
	f := newBatchedFixture(t, 8, 3)

	proof, err := f.scheme.ProveEvaluation(transcript.New("pedersen-test"), f.folded, f.point, 3)
	require.NoError(t, err)
	require.NoError(t, proof.VerifyBatched(transcript.New("pedersen-test"), f.commitments, f.batching, &f.product, f.point, 3, 8))

	// the same witness at the wrong offset recommits differently
	err = proof.VerifyBatched(transcript.New("pedersen-test"), f.commitments, f.batching, &f.product, f.point, 0, 8)
	require.ErrorIs(t, err, commitment.ErrVerificationFailed)
}

func TestVerifyBatchedRejectsWrongProduct(t *testing.T) {
	f := newBatchedFixture(t, 8, 0)
	proof, err := f.scheme.ProveEvaluation(transcript.New("pedersen-test"), f.folded, f.point, 0)
	require.NoError(t, err)

	var one, wrong fr.Element
	one.SetOne()
	wrong.Add(&f.product, &one)
	err = proof.VerifyBatched(transcript.New("pedersen-test"), f.commitments, f.batching, &wrong, f.point, 0, 8)
	require.ErrorIs(t, err, commitment.ErrVerificationFailed)
}

func TestVerifyBatchedRejectsWrongCommitment(t *testing.T) {
	f := newBatchedFixture(t, 8, 0)
	proof, err := f.scheme.ProveEvaluation(transcript.New("pedersen-test"), f.folded, f.point, 0)
	require.NoError(t, err)

	forged, err := f.scheme.Commit([][]fr.Element{randomColumn(t, 8)}, 0)
	require.NoError(t, err)
	tampered := []commitment.Commitment{forged[0], f.commitments[1]}
	err = proof.VerifyBatched(transcript.New("pedersen-test"), tampered, f.batching, &f.product, f.point, 0, 8)
	require.ErrorIs(t, err, commitment.ErrVerificationFailed)
}

func TestVerifyBatchedRejectsWrongWitnessLength(t *testing.T) {
	f := newBatchedFixture(t, 8, 0)
	proof, err := f.scheme.ProveEvaluation(transcript.New("pedersen-test"), f.folded[:7], f.point, 0)
	require.NoError(t, err)
	err = proof.VerifyBatched(transcript.New("pedersen-test"), f.commitments, f.batching, &f.product, f.point, 0, 8)
	require.ErrorIs(t, err, commitment.ErrVerificationFailed)
}

func TestCommitmentRoundTrip(t *testing.T) {
	scheme, err := NewScheme(4)
	require.NoError(t, err)
	cs, err := scheme.Commit([][]fr.Element{randomColumn(t, 4)}, 0)
	require.NoError(t, err)

	decoded, err := scheme.CommitmentFromBytes(cs[0].Bytes())
	require.NoError(t, err)
	require.True(t, cs[0].Equal(decoded))

	_, err = scheme.CommitmentFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestProofRoundTrip(t *testing.T) {
	f := newBatchedFixture(t, 4, 0)
	proof, err := f.scheme.ProveEvaluation(transcript.New("pedersen-test"), f.folded, f.point, 0)
	require.NoError(t, err)

	decoded, err := f.scheme.ProofFromBytes(proof.Bytes())
	require.NoError(t, err)
	require.NoError(t, decoded.VerifyBatched(transcript.New("pedersen-test"), f.commitments, f.batching, &f.product, f.point, 0, 4))

	_, err = f.scheme.ProofFromBytes(make([]byte, fr.Bytes+1))
	require.Error(t, err)
}
