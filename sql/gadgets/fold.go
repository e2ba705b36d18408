// Package gadgets holds the reusable constraint patterns plan nodes are
// assembled from. Each gadget comes in matched halves: a prover half that
// registers columns and subpolynomials on the round builders, and a verifier
// half that consumes the claimed evaluations in the identical order.
package gadgets

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// FoldColumns computes fold[i] = Σ_j beta^j * columns[j][i] over n rows.
// Columns shorter than n are treated as zero-padded.
func FoldColumns(columns [][]fr.Element, beta *fr.Element, n int) []fr.Element {
	res := make([]fr.Element, n)
	var power fr.Element
	power.SetOne()
	var t fr.Element
	for j, col := range columns {
		if j > 0 {
			power.Mul(&power, beta)
		}
		limit := len(col)
		if limit > n {
			limit = n
		}
		for i := 0; i < limit; i++ {
			t.Mul(&col[i], &power)
			res[i].Add(&res[i], &t)
		}
	}
	return res
}

// FoldEvals is the verifier's image of FoldColumns: Σ_j beta^j * evals[j].
func FoldEvals(evals []fr.Element, beta *fr.Element) fr.Element {
	var res, power, t fr.Element
	power.SetOne()
	for j := range evals {
		if j > 0 {
			power.Mul(&power, beta)
		}
		t.Mul(&evals[j], &power)
		res.Add(&res, &t)
	}
	return res
}

// AddConstant returns col with c added to the first n entries; the fold
// helpers use it to shift a fold away from zero.
func AddConstant(col []fr.Element, c *fr.Element, n int) []fr.Element {
	res := make([]fr.Element, n)
	copy(res, col)
	for i := 0; i < n; i++ {
		res[i].Add(&res[i], c)
	}
	return res
}

// ChiColumn returns the indicator column of the first n rows.
func ChiColumn(n int) []fr.Element {
	res := make([]fr.Element, n)
	for i := range res {
		res[i].SetOne()
	}
	return res
}

// RhoColumn returns the index column 0..n-1.
func RhoColumn(n int) []fr.Element {
	res := make([]fr.Element, n)
	for i := range res {
		res[i].SetUint64(uint64(i))
	}
	return res
}
