package proof

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sumcheck"
)

// mleKey identifies a column slice so the flattened multiplicand table can be
// deduplicated; the same column referenced by several terms is folded once.
type mleKey struct {
	ptr *fr.Element
	n   int
}

func keyOf(v []fr.Element) mleKey {
	if len(v) == 0 {
		return mleKey{}
	}
	return mleKey{ptr: &v[0], n: len(v)}
}

// makeSumcheckProverState batches the registered subpolynomials into a single
// sumcheck instance over 2^numVars rows. Each subpolynomial is scaled by its
// random multiplier; identities are additionally multiplied entrywise by the
// random equality vector so that vanishing everywhere and summing to zero
// coincide.
func makeSumcheckProverState(
	subpolynomials []Subpolynomial,
	entrywiseVector []fr.Element,
	multipliers []fr.Element,
	numVars int,
) (*sumcheck.ProverState, error) {
	var (
		multiplicands [][]fr.Element
		indexByKey    = make(map[mleKey]int)
		products      []sumcheck.Product
		maxDegree     = 1
	)
	internMLE := func(v []fr.Element) int {
		k := keyOf(v)
		if idx, ok := indexByKey[k]; ok {
			return idx
		}
		idx := len(multiplicands)
		indexByKey[k] = idx
		multiplicands = append(multiplicands, polynomial.PadToVariables(v, numVars))
		return idx
	}
	entrywiseIdx := internMLE(entrywiseVector)

	for i, sp := range subpolynomials {
		if d := sp.Degree(); d > maxDegree {
			maxDegree = d
		}
		for _, term := range sp.Terms {
			if sp.Type == ZeroSum && len(term.Multiplicands) == 0 {
				panic("proof: constant zero-sum term is not supported")
			}
			var indices []int
			if sp.Type == Identity {
				indices = append(indices, entrywiseIdx)
			}
			for _, m := range term.Multiplicands {
				indices = append(indices, internMLE(m))
			}
			var coeff fr.Element
			coeff.Mul(&term.Coefficient, &multipliers[i])
			products = append(products, sumcheck.Product{Coefficient: coeff, Multiplicands: indices})
		}
	}

	return sumcheck.NewProverState(numVars, maxDegree, products, multiplicands)
}
