// Package commitment defines the homomorphic commitment scheme interface the
// proof machinery is written against. A scheme commits to columns of scalars
// and proves multilinear-extension evaluations of committed columns.
package commitment

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
)

var (
	// ErrVerificationFailed is returned when an evaluation proof does not
	// check out against the commitments and claimed evaluations.
	ErrVerificationFailed = errors.New("commitment: evaluation proof verification failed")
	// ErrSetupTooSmall is returned when the scheme's setup does not cover the
	// requested column length plus offset.
	ErrSetupTooSmall = errors.New("commitment: setup does not cover requested range")
)

// Commitment is an additively homomorphic commitment to one column.
type Commitment interface {
	// Bytes returns a canonical encoding for transcript absorption and wire
	// serialization.
	Bytes() []byte
	// Equal reports whether two commitments open to the same value.
	Equal(other Commitment) bool
}

// EvaluationProof attests that a batch of committed columns, folded by the
// given factors, evaluates to the claimed product at an evaluation point.
type EvaluationProof interface {
	// VerifyBatched checks the proof against the folded commitment
	// sum_i batchingFactors[i] * commitments[i] and the folded claimed
	// evaluation product. tableLength is the committed column length;
	// generatorsOffset is the offset the columns were committed at.
	VerifyBatched(
		tr *transcript.Transcript,
		commitments []Commitment,
		batchingFactors []fr.Element,
		product *fr.Element,
		evaluationPoint []fr.Element,
		generatorsOffset uint64,
		tableLength int,
	) error
	// Bytes returns a canonical encoding for wire serialization.
	Bytes() []byte
}

// Scheme produces commitments and evaluation proofs.
type Scheme interface {
	// Commit commits to each column at the given generator offset.
	Commit(columns [][]fr.Element, generatorsOffset uint64) ([]Commitment, error)
	// ProveEvaluation proves the MLE evaluation of an already-folded witness
	// column at the given point. The transcript must be in the same state the
	// verifier's will be when calling VerifyBatched.
	ProveEvaluation(
		tr *transcript.Transcript,
		witness []fr.Element,
		evaluationPoint []fr.Element,
		generatorsOffset uint64,
	) (EvaluationProof, error)
	// CommitmentFromBytes decodes a commitment produced by this scheme.
	CommitmentFromBytes(data []byte) (Commitment, error)
	// ProofFromBytes decodes an evaluation proof produced by this scheme.
	ProofFromBytes(data []byte) (EvaluationProof, error)
}
