// Package proof contains the proof-building machinery shared by every plan
// node: the two prover round builders, the verifier's mirror builder, the
// count schedule, and the query proof that ties them to the sumcheck protocol
// and the commitment scheme.
package proof

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// SubpolynomialType says how a subpolynomial constrains the hypercube.
type SubpolynomialType uint8

const (
	// Identity subpolynomials must vanish at every row. They are multiplied
	// entrywise by a random equality vector before batching, so a single
	// sumcheck claim of zero forces every row to zero.
	Identity SubpolynomialType = iota
	// ZeroSum subpolynomials must sum to zero over the hypercube.
	ZeroSum
)

// Term is coefficient times a product of multilinear extensions. An empty
// multiplicand list is the constant polynomial equal to the coefficient.
type Term struct {
	Coefficient   fr.Element
	Multiplicands [][]fr.Element
}

// NewTerm builds a term with coefficient +1.
func NewTerm(multiplicands ...[]fr.Element) Term {
	t := Term{Multiplicands: multiplicands}
	t.Coefficient.SetOne()
	return t
}

// NewScaledTerm builds a term with an explicit coefficient.
func NewScaledTerm(coefficient fr.Element, multiplicands ...[]fr.Element) Term {
	return Term{Coefficient: coefficient, Multiplicands: multiplicands}
}

// NewNegTerm builds a term with coefficient -1.
func NewNegTerm(multiplicands ...[]fr.Element) Term {
	t := Term{Multiplicands: multiplicands}
	t.Coefficient.SetOne()
	t.Coefficient.Neg(&t.Coefficient)
	return t
}

// Subpolynomial is one constraint registered by a plan node during the final
// round.
type Subpolynomial struct {
	Type  SubpolynomialType
	Terms []Term
}

// Degree returns the sumcheck degree the subpolynomial contributes: the
// longest product, plus one for the entrywise multiplier on identities.
func (s *Subpolynomial) Degree() int {
	d := 0
	for _, t := range s.Terms {
		if len(t.Multiplicands) > d {
			d = len(t.Multiplicands)
		}
	}
	if s.Type == Identity {
		d++
	}
	return d
}
