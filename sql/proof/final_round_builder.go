package proof

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// FinalRoundBuilder collects what a plan produces after the post-result
// challenges exist: challenge-dependent columns and the sumcheck constraints
// over them. Challenges are consumed FIFO in the same order the first round
// requested them.
type FinalRoundBuilder struct {
	numVars              int
	mles                 [][]fr.Element
	subpolynomials       []Subpolynomial
	postResultChallenges []fr.Element
}

// NewFinalRoundBuilder starts the final round over a 2^numVars hypercube with
// the already-drawn post-result challenges.
func NewFinalRoundBuilder(numVars int, postResultChallenges []fr.Element) *FinalRoundBuilder {
	return &FinalRoundBuilder{numVars: numVars, postResultChallenges: postResultChallenges}
}

// NumVariables returns the sumcheck variable count.
func (b *FinalRoundBuilder) NumVariables() int { return b.numVars }

// ProduceIntermediateMLE registers a challenge-dependent column; it is
// committed with the final-round commitments and evaluated in the PCS batch.
func (b *FinalRoundBuilder) ProduceIntermediateMLE(column []fr.Element) {
	b.mles = append(b.mles, column)
}

// MLEs returns the registered columns in production order.
func (b *FinalRoundBuilder) MLEs() [][]fr.Element { return b.mles }

// ProduceSumcheckSubpolynomial registers one constraint.
func (b *FinalRoundBuilder) ProduceSumcheckSubpolynomial(typ SubpolynomialType, terms []Term) {
	b.subpolynomials = append(b.subpolynomials, Subpolynomial{Type: typ, Terms: terms})
}

// Subpolynomials returns the registered constraints in production order.
func (b *FinalRoundBuilder) Subpolynomials() []Subpolynomial { return b.subpolynomials }

// ConsumePostResultChallenge pops the next challenge. Running out is a
// schedule bug in the plan, not a verification failure, hence the panic.
func (b *FinalRoundBuilder) ConsumePostResultChallenge() fr.Element {
	if len(b.postResultChallenges) == 0 {
		panic("proof: final round consumed more post-result challenges than the first round requested")
	}
	c := b.postResultChallenges[0]
	b.postResultChallenges = b.postResultChallenges[1:]
	return c
}
