package proof

import (
	"fmt"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
)

// Counts is the proof shape a plan declares: how many of each proof element
// the prover must have produced. The verifier checks the received proof
// against it before replaying the transcript.
type Counts struct {
	FirstRoundMLEs       int
	FinalRoundMLEs       int
	Subpolynomials       int
	ChiEvaluations       int
	RhoEvaluations       int
	PostResultChallenges int
	BitDistributions     int
	// SumcheckDegree is the largest subpolynomial degree, which fixes the
	// round-polynomial evaluation count.
	SumcheckDegree int
}

// CountBuilder runs the counting dry-run of a plan. Bit distributions are fed
// from the proof because the number of committed word columns depends on
// them; everything else is derived from the plan alone.
type CountBuilder struct {
	counts           Counts
	bitDistributions []words.Distribution
}

// NewCountBuilder starts a count pass over the proof's bit distributions.
func NewCountBuilder(bitDistributions []words.Distribution) *CountBuilder {
	return &CountBuilder{bitDistributions: bitDistributions}
}

// Counts returns the accumulated counts. The sumcheck degree is floored at
// one: the prover always folds multilinear tables, so every round carries at
// least two evaluations even when a plan registers no subpolynomial.
func (b *CountBuilder) Counts() Counts {
	c := b.counts
	if c.SumcheckDegree < 1 {
		c.SumcheckDegree = 1
	}
	return c
}

// CountFirstRoundMLEs adds n committed first-round columns.
func (b *CountBuilder) CountFirstRoundMLEs(n int) { b.counts.FirstRoundMLEs += n }

// CountFinalRoundMLEs adds n committed final-round columns.
func (b *CountBuilder) CountFinalRoundMLEs(n int) { b.counts.FinalRoundMLEs += n }

// CountSubpolynomials adds n sumcheck constraints.
func (b *CountBuilder) CountSubpolynomials(n int) { b.counts.Subpolynomials += n }

// CountChiEvaluations adds n chi evaluation consumptions.
func (b *CountBuilder) CountChiEvaluations(n int) { b.counts.ChiEvaluations += n }

// CountRhoEvaluations adds n rho evaluation consumptions.
func (b *CountBuilder) CountRhoEvaluations(n int) { b.counts.RhoEvaluations += n }

// CountPostResultChallenges adds n challenge consumptions.
func (b *CountBuilder) CountPostResultChallenges(n int) { b.counts.PostResultChallenges += n }

// CountDegree raises the sumcheck degree bound to at least d.
func (b *CountBuilder) CountDegree(d int) {
	if d > b.counts.SumcheckDegree {
		b.counts.SumcheckDegree = d
	}
}

// ConsumeBitDistribution pops the next distribution from the proof; plans use
// it to count the word columns the prover committed.
func (b *CountBuilder) ConsumeBitDistribution() (words.Distribution, error) {
	if len(b.bitDistributions) == 0 {
		return words.Distribution{}, fmt.Errorf("%w: bit distributions", ErrExhaustedQueue)
	}
	d := b.bitDistributions[0]
	b.bitDistributions = b.bitDistributions[1:]
	b.counts.BitDistributions++
	return d, nil
}

// remainingBitDistributions reports leftovers after the count pass.
func (b *CountBuilder) remainingBitDistributions() int { return len(b.bitDistributions) }
