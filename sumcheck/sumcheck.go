// Package sumcheck implements the multivariate sumcheck protocol over
// products of multilinear extensions: the prover convinces the verifier that
// Σ_{x∈{0,1}^ν} Σ_p coeff_p · Π_j m_{p,j}(x) equals a claimed sum, one
// variable per round, with Fiat-Shamir challenges in between.
package sumcheck

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
)

var (
	// ErrRoundCountMismatch is returned when a proof has the wrong number of
	// rounds for the claimed variable count.
	ErrRoundCountMismatch = errors.New("sumcheck: round count does not match variable count")
	// ErrRoundDegreeMismatch is returned when a round polynomial has the wrong
	// number of evaluations for the claimed degree.
	ErrRoundDegreeMismatch = errors.New("sumcheck: round evaluation count does not match degree")
	// ErrRoundSumMismatch is returned when a round polynomial does not sum to
	// the running claim; this is the check that catches a lying prover.
	ErrRoundSumMismatch = errors.New("sumcheck: round polynomial does not sum to claim")
)

// Product is one term of the composite polynomial: a coefficient times the
// product of the referenced multiplicand tables.
type Product struct {
	Coefficient   fr.Element
	Multiplicands []int
}

// ProverState holds the composite polynomial in flattened form. Multiplicand
// tables are owned by the state and folded in place round by round.
type ProverState struct {
	numVars          int
	maxMultiplicands int
	products         []Product
	multiplicands    [][]fr.Element
}

// NewProverState builds a prover state over tables already padded to
// 2^numVars. maxMultiplicands bounds the round-polynomial degree and must be
// at least the longest product.
func NewProverState(numVars, maxMultiplicands int, products []Product, multiplicands [][]fr.Element) (*ProverState, error) {
	if numVars < 1 {
		return nil, fmt.Errorf("sumcheck: need at least one variable, got %d", numVars)
	}
	n := 1 << numVars
	for i, m := range multiplicands {
		if len(m) != n {
			return nil, fmt.Errorf("sumcheck: multiplicand %d has length %d, want %d", i, len(m), n)
		}
	}
	for i, p := range products {
		if len(p.Multiplicands) == 0 || len(p.Multiplicands) > maxMultiplicands {
			return nil, fmt.Errorf("sumcheck: product %d has %d multiplicands, max is %d", i, len(p.Multiplicands), maxMultiplicands)
		}
		for _, idx := range p.Multiplicands {
			if idx < 0 || idx >= len(multiplicands) {
				return nil, fmt.Errorf("sumcheck: product %d references multiplicand %d of %d", i, idx, len(multiplicands))
			}
		}
	}
	return &ProverState{
		numVars:          numVars,
		maxMultiplicands: maxMultiplicands,
		products:         products,
		multiplicands:    multiplicands,
	}, nil
}

// NumVariables returns the round count.
func (s *ProverState) NumVariables() int { return s.numVars }

// Degree returns the round-polynomial degree bound.
func (s *ProverState) Degree() int { return s.maxMultiplicands }

// Proof is the prover's messages: one round polynomial per variable, given by
// its evaluations at 0..degree.
type Proof struct {
	RoundEvaluations [][]fr.Element
}

// Prove runs the protocol, consuming the state. It returns the proof and the
// evaluation point assembled from the round challenges, ordered first
// challenge first.
func Prove(tr *transcript.Transcript, state *ProverState) (*Proof, []fr.Element) {
	degree := state.maxMultiplicands
	proof := &Proof{RoundEvaluations: make([][]fr.Element, state.numVars)}
	evaluationPoint := make([]fr.Element, state.numVars)

	tables := state.multiplicands
	size := 1 << state.numVars
	// m(t) per multiplicand for the current pair, reused across t.
	vals := make([]fr.Element, len(tables))
	steps := make([]fr.Element, len(tables))

	for round := 0; round < state.numVars; round++ {
		half := size >> 1
		evals := make([]fr.Element, degree+1)

		for b := 0; b < half; b++ {
			for j := range tables {
				vals[j] = tables[j][2*b]
				steps[j].Sub(&tables[j][2*b+1], &tables[j][2*b])
			}
			for t := 0; t <= degree; t++ {
				var term, prod fr.Element
				for _, p := range state.products {
					prod = p.Coefficient
					for _, idx := range p.Multiplicands {
						prod.Mul(&prod, &vals[idx])
					}
					term.Add(&term, &prod)
				}
				evals[t].Add(&evals[t], &term)
				if t < degree {
					for j := range tables {
						vals[j].Add(&vals[j], &steps[j])
					}
				}
			}
		}

		tr.AppendScalars("sumcheck-round", evals)
		challenge := tr.ChallengeScalar("sumcheck-challenge")
		evaluationPoint[round] = challenge
		proof.RoundEvaluations[round] = evals

		// fold: table[b] = table[2b] + r*(table[2b+1] - table[2b])
		var step fr.Element
		for j := range tables {
			tbl := tables[j]
			for b := 0; b < half; b++ {
				step.Sub(&tbl[2*b+1], &tbl[2*b])
				step.Mul(&step, &challenge)
				tbl[b].Add(&tbl[2*b], &step)
			}
			tables[j] = tbl[:half]
		}
		size = half
	}
	return proof, evaluationPoint
}

// Subclaim is what a verified sumcheck reduces to: the composite polynomial
// is expected to evaluate to ExpectedEvaluation at EvaluationPoint. The
// caller discharges it with MLE evaluations from the commitment scheme.
type Subclaim struct {
	EvaluationPoint    []fr.Element
	ExpectedEvaluation fr.Element
}

// VerifyWithoutEvaluation checks the round-to-round consistency of a proof
// against the claimed sum and returns the final subclaim. It performs every
// check except the final polynomial evaluation, which needs the committed
// MLEs.
func VerifyWithoutEvaluation(tr *transcript.Transcript, proof *Proof, claimedSum fr.Element, numVars, degree int) (*Subclaim, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: degree %d, want at least 1", ErrRoundDegreeMismatch, degree)
	}
	if len(proof.RoundEvaluations) != numVars {
		return nil, fmt.Errorf("%w: %d rounds, %d variables", ErrRoundCountMismatch, len(proof.RoundEvaluations), numVars)
	}
	expected := claimedSum
	evaluationPoint := make([]fr.Element, numVars)
	for round, evals := range proof.RoundEvaluations {
		if len(evals) != degree+1 {
			return nil, fmt.Errorf("%w: round %d has %d evaluations, want %d", ErrRoundDegreeMismatch, round, len(evals), degree+1)
		}
		var sum fr.Element
		sum.Add(&evals[0], &evals[1])
		if !sum.Equal(&expected) {
			return nil, fmt.Errorf("%w: round %d", ErrRoundSumMismatch, round)
		}
		tr.AppendScalars("sumcheck-round", evals)
		challenge := tr.ChallengeScalar("sumcheck-challenge")
		evaluationPoint[round] = challenge
		expected = polynomial.InterpolateUniPoly(evals, &challenge)
	}
	return &Subclaim{EvaluationPoint: evaluationPoint, ExpectedEvaluation: expected}, nil
}
