package polynomial

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// InterpolateUniPoly evaluates at x the unique polynomial of degree
// len(evals)-1 passing through (i, evals[i]) for i = 0..len(evals)-1.
// Used by the sumcheck verifier to fold a round polynomial at the round
// challenge; the degree is small (the maximum multiplicand count), so the
// quadratic Lagrange form is fine.
func InterpolateUniPoly(evals []fr.Element, x *fr.Element) fr.Element {
	n := len(evals)
	var res fr.Element
	if n == 0 {
		return res
	}

	// diffs[j] = x - j
	diffs := make([]fr.Element, n)
	var j fr.Element
	for i := 0; i < n; i++ {
		diffs[i].Sub(x, &j)
		if diffs[i].IsZero() {
			// x is a node, the value is already known
			return evals[i]
		}
		j.SetUint64(uint64(i + 1))
	}

	// prefix[i] = prod_{j<i} (x-j), suffix[i] = prod_{j>i} (x-j)
	prefix := make([]fr.Element, n)
	suffix := make([]fr.Element, n)
	prefix[0].SetOne()
	for i := 1; i < n; i++ {
		prefix[i].Mul(&prefix[i-1], &diffs[i-1])
	}
	suffix[n-1].SetOne()
	for i := n - 2; i >= 0; i-- {
		suffix[i].Mul(&suffix[i+1], &diffs[i+1])
	}

	// denominator for node i is i! * (n-1-i)! with sign (-1)^(n-1-i)
	denominators := make([]fr.Element, n)
	var factI, factNI, sign fr.Element
	for i := 0; i < n; i++ {
		factI.SetOne()
		for k := 2; k <= i; k++ {
			var kEl fr.Element
			kEl.SetUint64(uint64(k))
			factI.Mul(&factI, &kEl)
		}
		factNI.SetOne()
		for k := 2; k <= n-1-i; k++ {
			var kEl fr.Element
			kEl.SetUint64(uint64(k))
			factNI.Mul(&factNI, &kEl)
		}
		denominators[i].Mul(&factI, &factNI)
		if (n-1-i)&1 == 1 {
			sign.Neg(&denominators[i])
			denominators[i] = sign
		}
	}
	denominators = fr.BatchInvert(denominators)

	var term fr.Element
	for i := 0; i < n; i++ {
		term.Mul(&prefix[i], &suffix[i])
		term.Mul(&term, &denominators[i])
		term.Mul(&term, &evals[i])
		res.Add(&res, &term)
	}
	return res
}
