package polynomial

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func randomPoint(t *testing.T, n int) []fr.Element {
	t.Helper()
	res := make([]fr.Element, n)
	for i := range res {
		_, err := res[i].SetRandom()
		require.NoError(t, err)
	}
	return res
}

// weight computes the Lagrange weight of hypercube entry i the slow way,
// straight from the bit definition.
func weight(i int, point []fr.Element) fr.Element {
	var res, oneMinus fr.Element
	res.SetOne()
	for j := range point {
		if i>>j&1 == 1 {
			res.Mul(&res, &point[j])
		} else {
			oneMinus.SetOne()
			oneMinus.Sub(&oneMinus, &point[j])
			res.Mul(&res, &oneMinus)
		}
	}
	return res
}

func TestComputeEvaluationVector(t *testing.T) {
	point := randomPoint(t, 4)
	for _, length := range []int{0, 1, 2, 3, 5, 8, 13, 16} {
		dst := make([]fr.Element, length)
		ComputeEvaluationVector(dst, point)
		for i := 0; i < length; i++ {
			w := weight(i, point)
			require.True(t, dst[i].Equal(&w), "length %d entry %d", length, i)
		}
	}
}

func TestComputeEvaluationVectorVariableOrder(t *testing.T) {
	// bit j of the entry index must pair with point[j]: entry 0b01 carries
	// x0*(1-x1) and entry 0b10 carries (1-x0)*x1, never the other way round
	var x0, x1 fr.Element
	x0.SetUint64(2)
	x1.SetUint64(3)
	dst := make([]fr.Element, 4)
	ComputeEvaluationVector(dst, []fr.Element{x0, x1})

	var oneMinusX0, oneMinusX1, want fr.Element
	oneMinusX0.SetOne()
	oneMinusX0.Sub(&oneMinusX0, &x0)
	oneMinusX1.SetOne()
	oneMinusX1.Sub(&oneMinusX1, &x1)

	want.Mul(&x0, &oneMinusX1)
	require.True(t, dst[1].Equal(&want))
	want.Mul(&oneMinusX0, &x1)
	require.True(t, dst[2].Equal(&want))
}

func TestComputeEvaluationVectorTooLong(t *testing.T) {
	dst := make([]fr.Element, 5)
	require.Panics(t, func() { ComputeEvaluationVector(dst, randomPoint(t, 2)) })
}

func TestTruncatedLagrangeBasisSum(t *testing.T) {
	point := randomPoint(t, 4)
	full := make([]fr.Element, 16)
	ComputeEvaluationVector(full, point)
	for length := 0; length <= 16; length++ {
		var want fr.Element
		for i := 0; i < length; i++ {
			want.Add(&want, &full[i])
		}
		got := TruncatedLagrangeBasisSum(length, point)
		require.True(t, got.Equal(&want), "length %d", length)
	}
}

func TestTruncatedLagrangeBasisSumEmptyPoint(t *testing.T) {
	var one, zero fr.Element
	one.SetOne()
	got := TruncatedLagrangeBasisSum(1, nil)
	require.True(t, got.Equal(&one))
	got = TruncatedLagrangeBasisSum(0, nil)
	require.True(t, got.Equal(&zero))
}

func TestTruncatedRhoEvaluation(t *testing.T) {
	point := randomPoint(t, 4)
	full := make([]fr.Element, 16)
	ComputeEvaluationVector(full, point)
	for length := 0; length <= 16; length++ {
		var want, term, idx fr.Element
		for i := 0; i < length; i++ {
			idx.SetUint64(uint64(i))
			term.Mul(&idx, &full[i])
			want.Add(&want, &term)
		}
		got := TruncatedRhoEvaluation(length, point)
		require.True(t, got.Equal(&want), "length %d", length)
	}
}

func TestTruncatedLagrangeBasisInnerProduct(t *testing.T) {
	a := randomPoint(t, 4)
	b := randomPoint(t, 4)
	fullA := make([]fr.Element, 16)
	fullB := make([]fr.Element, 16)
	ComputeEvaluationVector(fullA, a)
	ComputeEvaluationVector(fullB, b)
	for length := 0; length <= 16; length++ {
		want := InnerProduct(fullA[:length], fullB[:length])
		got := TruncatedLagrangeBasisInnerProduct(length, a, b)
		require.True(t, got.Equal(&want), "length %d", length)
	}
}

func TestTruncatedLagrangeBasisInnerProductMismatchedPoints(t *testing.T) {
	require.Panics(t, func() {
		TruncatedLagrangeBasisInnerProduct(2, randomPoint(t, 2), randomPoint(t, 3))
	})
}

func TestChiSumProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("chi closed form matches the materialized column", prop.ForAll(
		func(seed uint64, lengthSeed uint8) bool {
			point := make([]fr.Element, 5)
			for i := range point {
				point[i].SetUint64(seed + uint64(i)*0x9e3779b97f4a7c15)
			}
			length := int(lengthSeed) % 33
			chi := make([]fr.Element, 32)
			for i := 0; i < length; i++ {
				chi[i].SetOne()
			}
			want := EvaluateMLE(chi, point)
			got := TruncatedLagrangeBasisSum(length, point)
			return got.Equal(&want)
		},
		gen.UInt64(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func TestInterpolateUniPoly(t *testing.T) {
	// f(x) = 7x^3 - 2x^2 + 5x + 11
	coeffs := make([]fr.Element, 4)
	coeffs[0].SetUint64(11)
	coeffs[1].SetUint64(5)
	var two fr.Element
	two.SetUint64(2)
	coeffs[2].Neg(&two)
	coeffs[3].SetUint64(7)
	eval := func(x *fr.Element) fr.Element {
		var res fr.Element
		for i := len(coeffs) - 1; i >= 0; i-- {
			res.Mul(&res, x)
			res.Add(&res, &coeffs[i])
		}
		return res
	}

	evals := make([]fr.Element, 4)
	var x fr.Element
	for i := range evals {
		x.SetUint64(uint64(i))
		evals[i] = eval(&x)
	}

	_, err := x.SetRandom()
	require.NoError(t, err)
	want := eval(&x)
	got := InterpolateUniPoly(evals, &x)
	require.True(t, got.Equal(&want))

	// evaluating at a node returns the node value
	x.SetUint64(2)
	got = InterpolateUniPoly(evals, &x)
	require.True(t, got.Equal(&evals[2]))
}

func TestInnerProductTruncates(t *testing.T) {
	a := make([]fr.Element, 3)
	b := make([]fr.Element, 5)
	for i := range a {
		a[i].SetUint64(uint64(i + 1))
	}
	for i := range b {
		b[i].SetUint64(uint64(i + 1))
	}
	var want fr.Element
	want.SetUint64(1*1 + 2*2 + 3*3)
	got := InnerProduct(a, b)
	require.True(t, got.Equal(&want))
	got = InnerProduct(b, a)
	require.True(t, got.Equal(&want))
}

func TestPadToVariables(t *testing.T) {
	v := []fr.Element{{}, {}}
	v[0].SetUint64(3)
	v[1].SetUint64(4)
	padded := PadToVariables(v, 3)
	require.Len(t, padded, 8)
	require.True(t, padded[0].Equal(&v[0]))
	require.True(t, padded[1].Equal(&v[1]))
	for i := 2; i < 8; i++ {
		require.True(t, padded[i].IsZero())
	}
	require.Panics(t, func() { PadToVariables(make([]fr.Element, 9), 3) })
}

func TestLog2Up(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 1024: 10, 1025: 11}
	for n, want := range cases {
		require.Equal(t, want, Log2Up(n), "n=%d", n)
	}
}
