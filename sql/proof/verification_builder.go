package proof

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
)

// VerificationBuilder is the verifier's mirror of the two prover builders: a
// plan replays the exact production schedule as a consumption schedule,
// folding every constraint evaluation into one scalar that must match the
// sumcheck subclaim.
type VerificationBuilder struct {
	evaluationPoint []fr.Element
	rangeLength     int

	columnEvaluations map[database.ColumnRef]fr.Element

	firstRoundEvaluations []fr.Element
	finalRoundEvaluations []fr.Element
	chiEvaluationLengths  []int
	rhoEvaluationLengths  []int
	postResultChallenges  []fr.Element
	bitDistributions      []words.Distribution

	multipliers   []fr.Element
	entrywiseEval fr.Element

	sumcheckEvaluation fr.Element
}

// NewVerificationBuilder assembles the builder from the proof's claimed
// evaluations and the replayed challenges. entrywiseEval is the evaluation of
// the truncated entrywise random vector at the sumcheck point.
func NewVerificationBuilder(
	evaluationPoint []fr.Element,
	rangeLength int,
	columnEvaluations map[database.ColumnRef]fr.Element,
	firstRoundEvaluations []fr.Element,
	finalRoundEvaluations []fr.Element,
	chiEvaluationLengths []int,
	rhoEvaluationLengths []int,
	postResultChallenges []fr.Element,
	bitDistributions []words.Distribution,
	multipliers []fr.Element,
	entrywiseEval fr.Element,
) *VerificationBuilder {
	return &VerificationBuilder{
		evaluationPoint:       evaluationPoint,
		rangeLength:           rangeLength,
		columnEvaluations:     columnEvaluations,
		firstRoundEvaluations: firstRoundEvaluations,
		finalRoundEvaluations: finalRoundEvaluations,
		chiEvaluationLengths:  chiEvaluationLengths,
		rhoEvaluationLengths:  rhoEvaluationLengths,
		postResultChallenges:  postResultChallenges,
		bitDistributions:      bitDistributions,
		multipliers:           multipliers,
		entrywiseEval:         entrywiseEval,
	}
}

// EvaluationPoint returns the sumcheck evaluation point.
func (b *VerificationBuilder) EvaluationPoint() []fr.Element { return b.evaluationPoint }

// RangeLength returns the row count the sumcheck ran over.
func (b *VerificationBuilder) RangeLength() int { return b.rangeLength }

// ColumnEvaluation returns the claimed evaluation of an anchored column.
func (b *VerificationBuilder) ColumnEvaluation(ref database.ColumnRef) (fr.Element, error) {
	e, ok := b.columnEvaluations[ref]
	if !ok {
		return fr.Element{}, fmt.Errorf("%w: no evaluation for column %q.%q", ErrInvalidProof, ref.Table, ref.Name)
	}
	return e, nil
}

// ConsumeFirstRoundMLEEvaluation pops the next first-round claimed evaluation.
func (b *VerificationBuilder) ConsumeFirstRoundMLEEvaluation() (fr.Element, error) {
	if len(b.firstRoundEvaluations) == 0 {
		return fr.Element{}, fmt.Errorf("%w: first-round evaluations", ErrExhaustedQueue)
	}
	e := b.firstRoundEvaluations[0]
	b.firstRoundEvaluations = b.firstRoundEvaluations[1:]
	return e, nil
}

// ConsumeFirstRoundMLEEvaluations pops the next n first-round evaluations.
func (b *VerificationBuilder) ConsumeFirstRoundMLEEvaluations(n int) ([]fr.Element, error) {
	res := make([]fr.Element, n)
	for i := range res {
		e, err := b.ConsumeFirstRoundMLEEvaluation()
		if err != nil {
			return nil, err
		}
		res[i] = e
	}
	return res, nil
}

// ConsumeFinalRoundMLEEvaluation pops the next final-round claimed evaluation.
func (b *VerificationBuilder) ConsumeFinalRoundMLEEvaluation() (fr.Element, error) {
	if len(b.finalRoundEvaluations) == 0 {
		return fr.Element{}, fmt.Errorf("%w: final-round evaluations", ErrExhaustedQueue)
	}
	e := b.finalRoundEvaluations[0]
	b.finalRoundEvaluations = b.finalRoundEvaluations[1:]
	return e, nil
}

// ConsumeChiEvaluation pops the next chi length and returns its evaluation,
// derived in closed form, together with the length.
func (b *VerificationBuilder) ConsumeChiEvaluation() (fr.Element, int, error) {
	if len(b.chiEvaluationLengths) == 0 {
		return fr.Element{}, 0, fmt.Errorf("%w: chi evaluations", ErrExhaustedQueue)
	}
	length := b.chiEvaluationLengths[0]
	b.chiEvaluationLengths = b.chiEvaluationLengths[1:]
	return polynomial.TruncatedLagrangeBasisSum(length, b.evaluationPoint), length, nil
}

// ConsumeRhoEvaluation pops the next rho length and returns the index
// column's evaluation together with the length.
func (b *VerificationBuilder) ConsumeRhoEvaluation() (fr.Element, int, error) {
	if len(b.rhoEvaluationLengths) == 0 {
		return fr.Element{}, 0, fmt.Errorf("%w: rho evaluations", ErrExhaustedQueue)
	}
	length := b.rhoEvaluationLengths[0]
	b.rhoEvaluationLengths = b.rhoEvaluationLengths[1:]
	return polynomial.TruncatedRhoEvaluation(length, b.evaluationPoint), length, nil
}

// ChiEvaluation derives the chi evaluation of a length the verifier already
// knows, such as an anchored table's row count; nothing is consumed.
func (b *VerificationBuilder) ChiEvaluation(length int) fr.Element {
	return polynomial.TruncatedLagrangeBasisSum(length, b.evaluationPoint)
}

// ConsumePostResultChallenge pops the next post-result challenge.
func (b *VerificationBuilder) ConsumePostResultChallenge() (fr.Element, error) {
	if len(b.postResultChallenges) == 0 {
		return fr.Element{}, fmt.Errorf("%w: post-result challenges", ErrExhaustedQueue)
	}
	c := b.postResultChallenges[0]
	b.postResultChallenges = b.postResultChallenges[1:]
	return c, nil
}

// ConsumeBitDistribution pops the next word distribution, rejecting malformed
// ones.
func (b *VerificationBuilder) ConsumeBitDistribution() (words.Distribution, error) {
	if len(b.bitDistributions) == 0 {
		return words.Distribution{}, fmt.Errorf("%w: bit distributions", ErrExhaustedQueue)
	}
	d := b.bitDistributions[0]
	b.bitDistributions = b.bitDistributions[1:]
	if !d.IsValid() {
		return words.Distribution{}, fmt.Errorf("%w: malformed bit distribution", ErrInvalidProof)
	}
	return d, nil
}

// ProduceSumcheckSubpolynomialEvaluation folds one constraint's evaluation
// into the running total, mirroring the prover's batching: each constraint
// gets the next random multiplier, and identities are additionally scaled by
// the entrywise vector's evaluation.
func (b *VerificationBuilder) ProduceSumcheckSubpolynomialEvaluation(typ SubpolynomialType, eval fr.Element) error {
	if len(b.multipliers) == 0 {
		return fmt.Errorf("%w: subpolynomial multipliers", ErrExhaustedQueue)
	}
	m := b.multipliers[0]
	b.multipliers = b.multipliers[1:]
	if typ == Identity {
		eval.Mul(&eval, &b.entrywiseEval)
	}
	eval.Mul(&eval, &m)
	b.sumcheckEvaluation.Add(&b.sumcheckEvaluation, &eval)
	return nil
}

// SumcheckEvaluation returns the folded constraint evaluation, to be compared
// with the sumcheck subclaim.
func (b *VerificationBuilder) SumcheckEvaluation() fr.Element { return b.sumcheckEvaluation }

// AssertConsumed fails unless every queue was drained, which is the
// completeness half of the schedule check.
func (b *VerificationBuilder) AssertConsumed() error {
	switch {
	case len(b.firstRoundEvaluations) > 0:
		return fmt.Errorf("%w: %d first-round evaluations", ErrUnconsumedElements, len(b.firstRoundEvaluations))
	case len(b.finalRoundEvaluations) > 0:
		return fmt.Errorf("%w: %d final-round evaluations", ErrUnconsumedElements, len(b.finalRoundEvaluations))
	case len(b.chiEvaluationLengths) > 0:
		return fmt.Errorf("%w: %d chi evaluations", ErrUnconsumedElements, len(b.chiEvaluationLengths))
	case len(b.rhoEvaluationLengths) > 0:
		return fmt.Errorf("%w: %d rho evaluations", ErrUnconsumedElements, len(b.rhoEvaluationLengths))
	case len(b.postResultChallenges) > 0:
		return fmt.Errorf("%w: %d post-result challenges", ErrUnconsumedElements, len(b.postResultChallenges))
	case len(b.bitDistributions) > 0:
		return fmt.Errorf("%w: %d bit distributions", ErrUnconsumedElements, len(b.bitDistributions))
	case len(b.multipliers) > 0:
		return fmt.Errorf("%w: %d subpolynomial multipliers", ErrUnconsumedElements, len(b.multipliers))
	}
	return nil
}
