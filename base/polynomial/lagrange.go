package polynomial

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// TruncatedLagrangeBasisSum computes χ_length(point) = Σ_{i<length} w_i(point)
// where w_i is the Lagrange weight of hypercube entry i. This is the
// evaluation of the "indicator of the first `length` coordinates" column at
// the point, computed in O(len(point)) without materializing the column.
func TruncatedLagrangeBasisSum(length int, point []fr.Element) fr.Element {
	var res fr.Element
	if length >= 1<<len(point) {
		res.SetOne()
		return res
	}
	if len(point) == 0 {
		// length is 0 here, the >= case above caught length 1
		return res
	}
	even := TruncatedLagrangeBasisSum((length+1)/2, point[1:])
	odd := TruncatedLagrangeBasisSum(length/2, point[1:])
	return lagrangeMix(&point[0], &even, &odd)
}

// lagrangeMix returns (1-x)*a + x*b.
func lagrangeMix(x, a, b *fr.Element) fr.Element {
	var res, t fr.Element
	t.Sub(b, a)
	res.Mul(x, &t)
	res.Add(&res, a)
	return res
}

// TruncatedLagrangeBasisInnerProduct computes
// Σ_{i<length} w_i(a) * w_i(b), the inner product of the two truncated
// Lagrange weight vectors. a and b must have the same number of variables.
func TruncatedLagrangeBasisInnerProduct(length int, a, b []fr.Element) fr.Element {
	if len(a) != len(b) {
		panic("polynomial: mismatched evaluation point lengths")
	}
	var res fr.Element
	if len(a) == 0 {
		if length >= 1 {
			res.SetOne()
		}
		return res
	}
	if length > 1<<len(a) {
		length = 1 << len(a)
	}
	even := TruncatedLagrangeBasisInnerProduct((length+1)/2, a[1:], b[1:])
	odd := TruncatedLagrangeBasisInnerProduct(length/2, a[1:], b[1:])
	// res = (1-a0)(1-b0)*even + a0*b0*odd
	var oneMinusA, oneMinusB, t fr.Element
	oneMinusA.SetOne()
	oneMinusA.Sub(&oneMinusA, &a[0])
	oneMinusB.SetOne()
	oneMinusB.Sub(&oneMinusB, &b[0])
	res.Mul(&oneMinusA, &oneMinusB)
	res.Mul(&res, &even)
	t.Mul(&a[0], &b[0])
	t.Mul(&t, &odd)
	res.Add(&res, &t)
	return res
}

// TruncatedRhoEvaluation computes Σ_{i<length} i * w_i(point), the evaluation
// of the index column ρ = (0, 1, ..., length-1, 0, ...) at the point.
func TruncatedRhoEvaluation(length int, point []fr.Element) fr.Element {
	var res fr.Element
	if len(point) == 0 {
		return res
	}
	if length > 1<<len(point) {
		length = 1 << len(point)
	}
	even := TruncatedRhoEvaluation((length+1)/2, point[1:])
	odd := TruncatedRhoEvaluation(length/2, point[1:])
	oddChi := TruncatedLagrangeBasisSum(length/2, point[1:])
	// res = (1-x0)*2*even + x0*(2*odd + oddChi)
	var two, left, right, oneMinus fr.Element
	two.SetUint64(2)
	left.Mul(&two, &even)
	oneMinus.SetOne()
	oneMinus.Sub(&oneMinus, &point[0])
	left.Mul(&left, &oneMinus)
	right.Mul(&two, &odd)
	right.Add(&right, &oddChi)
	right.Mul(&right, &point[0])
	res.Add(&left, &right)
	return res
}
