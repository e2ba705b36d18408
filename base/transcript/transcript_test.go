package transcript

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestSameSequenceSameChallenge(t *testing.T) {
	a := New("test-protocol")
	b := New("test-protocol")

	a.Append("data", []byte{1, 2, 3})
	b.Append("data", []byte{1, 2, 3})
	a.AppendUint64("count", 42)
	b.AppendUint64("count", 42)

	ca := a.ChallengeScalar("challenge")
	cb := b.ChallengeScalar("challenge")
	require.True(t, ca.Equal(&cb))
}

func TestDivergentDataDivergentChallenge(t *testing.T) {
	a := New("test-protocol")
	b := New("test-protocol")
	a.Append("data", []byte{1, 2, 3})
	b.Append("data", []byte{1, 2, 4})
	ca := a.ChallengeScalar("challenge")
	cb := b.ChallengeScalar("challenge")
	require.False(t, ca.Equal(&cb))
}

func TestDivergentLabelDivergentChallenge(t *testing.T) {
	a := New("test-protocol")
	b := New("test-protocol")
	a.Append("lhs", []byte{1})
	b.Append("rhs", []byte{1})
	ca := a.ChallengeScalar("challenge")
	cb := b.ChallengeScalar("challenge")
	require.False(t, ca.Equal(&cb))
}

func TestLabelDataBoundary(t *testing.T) {
	// length prefixing must keep ("ab", "c") and ("a", "bc") apart
	a := New("test-protocol")
	b := New("test-protocol")
	a.Append("ab", []byte("c"))
	b.Append("a", []byte("bc"))
	ca := a.ChallengeScalar("challenge")
	cb := b.ChallengeScalar("challenge")
	require.False(t, ca.Equal(&cb))
}

func TestDivergentSeedDivergentChallenge(t *testing.T) {
	a := New("protocol-a")
	b := New("protocol-b")
	ca := a.ChallengeScalar("challenge")
	cb := b.ChallengeScalar("challenge")
	require.False(t, ca.Equal(&cb))
}

func TestChallengeAdvancesState(t *testing.T) {
	tr := New("test-protocol")
	c1 := tr.ChallengeScalar("challenge")
	c2 := tr.ChallengeScalar("challenge")
	require.False(t, c1.Equal(&c2))
}

func TestChallengeScalarsDistinctAndReplayable(t *testing.T) {
	a := New("test-protocol")
	b := New("test-protocol")
	ca := a.ChallengeScalars("batch", 4)
	cb := b.ChallengeScalars("batch", 4)
	require.Len(t, ca, 4)
	for i := range ca {
		require.True(t, ca[i].Equal(&cb[i]))
		for j := i + 1; j < len(ca); j++ {
			require.False(t, ca[i].Equal(&ca[j]))
		}
	}
}

func TestAppendScalarsMatchesManualEncoding(t *testing.T) {
	scalars := make([]fr.Element, 3)
	for i := range scalars {
		scalars[i].SetUint64(uint64(i + 7))
	}
	buf := make([]byte, 0, fr.Bytes*len(scalars))
	for i := range scalars {
		b := scalars[i].Bytes()
		buf = append(buf, b[:]...)
	}

	a := New("test-protocol")
	b := New("test-protocol")
	a.AppendScalars("scalars", scalars)
	b.Append("scalars", buf)
	ca := a.ChallengeScalar("challenge")
	cb := b.ChallengeScalar("challenge")
	require.True(t, ca.Equal(&cb))
}
