package proof

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
)

// FirstRoundBuilder collects everything a plan produces before any
// query-dependent challenge exists: the result-shape columns that get
// committed, the chi and rho lengths whose evaluations the verifier derives
// in closed form, the sumcheck range, the word distributions of range-checked
// columns, and the number of post-result challenges the final round needs.
type FirstRoundBuilder struct {
	rangeLength             int
	mles                    [][]fr.Element
	chiEvaluationLengths    []int
	rhoEvaluationLengths    []int
	bitDistributions        []words.Distribution
	numPostResultChallenges int
}

// NewFirstRoundBuilder starts a builder whose sumcheck range covers at least
// initialRangeLength rows, normally the longest input table.
func NewFirstRoundBuilder(initialRangeLength int) *FirstRoundBuilder {
	if initialRangeLength < 1 {
		initialRangeLength = 1
	}
	return &FirstRoundBuilder{rangeLength: initialRangeLength}
}

// UpdateRangeLength grows the sumcheck range to cover length rows.
func (b *FirstRoundBuilder) UpdateRangeLength(length int) {
	if length > b.rangeLength {
		b.rangeLength = length
	}
}

// RangeLength returns the number of rows the sumcheck runs over.
func (b *FirstRoundBuilder) RangeLength() int { return b.rangeLength }

// ProduceIntermediateMLE registers a prover-computed column that is committed
// before the post-result challenges are drawn; result columns live here.
func (b *FirstRoundBuilder) ProduceIntermediateMLE(column []fr.Element) {
	b.UpdateRangeLength(len(column))
	b.mles = append(b.mles, column)
}

// MLEs returns the registered columns in production order.
func (b *FirstRoundBuilder) MLEs() [][]fr.Element { return b.mles }

// ProduceChiEvaluationLength registers a length whose chi evaluation (the
// indicator of the first `length` rows) the verifier will consume.
func (b *FirstRoundBuilder) ProduceChiEvaluationLength(length int) {
	b.UpdateRangeLength(length)
	b.chiEvaluationLengths = append(b.chiEvaluationLengths, length)
}

// ChiEvaluationLengths returns the registered chi lengths in order.
func (b *FirstRoundBuilder) ChiEvaluationLengths() []int { return b.chiEvaluationLengths }

// ProduceRhoEvaluationLength registers a length whose rho evaluation (the
// index column 0..length-1) the verifier will consume.
func (b *FirstRoundBuilder) ProduceRhoEvaluationLength(length int) {
	b.UpdateRangeLength(length)
	b.rhoEvaluationLengths = append(b.rhoEvaluationLengths, length)
}

// RhoEvaluationLengths returns the registered rho lengths in order.
func (b *FirstRoundBuilder) RhoEvaluationLengths() []int { return b.rhoEvaluationLengths }

// ProduceBitDistribution records which byte positions of a range-checked
// column vary; the verifier reads committed word columns only for those.
func (b *FirstRoundBuilder) ProduceBitDistribution(d words.Distribution) {
	b.bitDistributions = append(b.bitDistributions, d)
}

// BitDistributions returns the recorded distributions in order.
func (b *FirstRoundBuilder) BitDistributions() []words.Distribution { return b.bitDistributions }

// RequestPostResultChallenges asks for n challenges to be drawn after the
// first-round commitments are absorbed; the final round consumes them FIFO.
func (b *FirstRoundBuilder) RequestPostResultChallenges(n int) {
	b.numPostResultChallenges += n
}

// NumPostResultChallenges returns the total challenge request.
func (b *FirstRoundBuilder) NumPostResultChallenges() int { return b.numPostResultChallenges }
