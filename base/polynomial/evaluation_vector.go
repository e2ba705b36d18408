// Package polynomial provides the multilinear-extension arithmetic used by
// the sumcheck protocol: evaluation vectors over the boolean hypercube,
// truncated Lagrange basis closed forms, and univariate interpolation.
//
// Conventions: a column of length n is viewed as a zero-padded vector of
// length 2^ν. Entry i carries the Lagrange weight ∏_j (bit_j(i) ? x_j : 1-x_j)
// where bit 0 is the least significant bit and x_0 is the first variable, the
// one the sumcheck prover folds first.
package polynomial

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ComputeEvaluationVector fills dst with the Lagrange weights of the given
// evaluation point, truncated to len(dst). len(dst) must be at most
// 2^len(point).
func ComputeEvaluationVector(dst []fr.Element, point []fr.Element) {
	if len(dst) > 1<<len(point) {
		panic("polynomial: evaluation vector longer than the hypercube")
	}
	if len(dst) == 0 {
		return
	}
	var oneMinus fr.Element
	dst[0].SetOne()
	for j := range point {
		block := 1 << j
		top := block
		if top > len(dst) {
			top = len(dst)
		}
		oneMinus.SetOne()
		oneMinus.Sub(&oneMinus, &point[j])
		// double the block in place, keeping variable j at bit j:
		// new[k+2^j] = old[k]*x_j, new[k] = old[k]*(1-x_j)
		for k := top - 1; k >= 0; k-- {
			if k+block < len(dst) {
				dst[k+block].Mul(&dst[k], &point[j])
			}
			dst[k].Mul(&dst[k], &oneMinus)
		}
	}
}

// InnerProduct returns the inner product of a and b over the shorter of the
// two; the longer one is implicitly zero-padded.
func InnerProduct(a, b []fr.Element) fr.Element {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var res, t fr.Element
	for i := 0; i < n; i++ {
		t.Mul(&a[i], &b[i])
		res.Add(&res, &t)
	}
	return res
}

// MulAdd computes res[i] += multiplier * v[i] for every index of v.
// v must not be longer than res.
func MulAdd(res []fr.Element, v []fr.Element, multiplier *fr.Element) {
	var t fr.Element
	for i := range v {
		t.Mul(&v[i], multiplier)
		res[i].Add(&res[i], &t)
	}
}

// PadToVariables returns a copy of v zero-padded to length 2^numVars, the
// form the sumcheck prover folds in place.
func PadToVariables(v []fr.Element, numVars int) []fr.Element {
	n := 1 << numVars
	if len(v) > n {
		panic("polynomial: vector longer than the hypercube")
	}
	res := make([]fr.Element, n)
	copy(res, v)
	return res
}

// EvaluateMLE evaluates the multilinear extension of v at the given point.
// This materializes the evaluation vector; prefer precomputing it when
// evaluating many columns at the same point.
func EvaluateMLE(v []fr.Element, point []fr.Element) fr.Element {
	evaluationVec := make([]fr.Element, len(v))
	ComputeEvaluationVector(evaluationVec, point)
	return InnerProduct(v, evaluationVec)
}

// Log2Up returns ceil(log2(n)) for n >= 1.
func Log2Up(n int) int {
	k := 0
	for 1<<k < n {
		k++
	}
	return k
}
