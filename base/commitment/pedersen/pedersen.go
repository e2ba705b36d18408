// Package pedersen implements the commitment.Scheme interface with Pedersen
// vector commitments over BN254: column entries are exponents of a fixed
// hash-derived generator vector, so commitments add homomorphically and a
// column committed at offset j uses generators starting at index j.
//
// The evaluation proof is the transparent one: the proof reveals the folded
// witness column and the verifier recommits it. It is succinctness-free but
// binding, and exercises the full batching path end to end.
package pedersen

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/commitment"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/logger"
)

// generatorDomain separates the generator derivation from any other use of
// the hash-to-curve map.
const generatorDomain = "sxt-proof-of-sql-pedersen-generators-v1"

// Scheme holds the public generator vector. Columns of length n committed at
// offset j use generators[j : j+n].
type Scheme struct {
	generators []bn254.G1Affine
}

// NewScheme derives maxLength generators from the hash-to-curve map. The
// derivation is deterministic, so provers and verifiers agree on the setup
// without a ceremony.
func NewScheme(maxLength int) (*Scheme, error) {
	log := logger.Logger()
	log.Debug().Int("maxLength", maxLength).Msg("deriving pedersen generators")

	gens := make([]bn254.G1Affine, maxLength)
	var g errgroup.Group
	nbChunks := runtime.NumCPU()
	if nbChunks > maxLength {
		nbChunks = 1
	}
	chunkSize := (maxLength + nbChunks - 1) / nbChunks
	for start := 0; start < maxLength; start += chunkSize {
		start := start
		end := start + chunkSize
		if end > maxLength {
			end = maxLength
		}
		g.Go(func() error {
			var msg [8]byte
			for i := start; i < end; i++ {
				binary.BigEndian.PutUint64(msg[:], uint64(i))
				p, err := bn254.HashToG1(msg[:], []byte(generatorDomain))
				if err != nil {
					return fmt.Errorf("pedersen: hash to curve at index %d: %w", i, err)
				}
				gens[i] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Scheme{generators: gens}, nil
}

// NumGenerators returns the setup size.
func (s *Scheme) NumGenerators() int { return len(s.generators) }

// Commitment is a point on G1.
type Commitment struct {
	point bn254.G1Affine
}

// Bytes returns the compressed point encoding.
func (c *Commitment) Bytes() []byte {
	b := c.point.Bytes()
	return b[:]
}

// Equal reports point equality.
func (c *Commitment) Equal(other commitment.Commitment) bool {
	o, ok := other.(*Commitment)
	if !ok {
		return false
	}
	return c.point.Equal(&o.point)
}

// Commit commits to each column with a multi-scalar multiplication; columns
// are committed in parallel.
func (s *Scheme) Commit(columns [][]fr.Element, generatorsOffset uint64) ([]commitment.Commitment, error) {
	res := make([]commitment.Commitment, len(columns))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, col := range columns {
		if generatorsOffset+uint64(len(col)) > uint64(len(s.generators)) {
			return nil, fmt.Errorf("%w: need %d generators at offset %d, have %d",
				commitment.ErrSetupTooSmall, len(col), generatorsOffset, len(s.generators))
		}
		i, col := i, col
		g.Go(func() error {
			var p bn254.G1Jac
			if _, err := p.MultiExp(s.generators[generatorsOffset:generatorsOffset+uint64(len(col))], col, ecc.MultiExpConfig{}); err != nil {
				return fmt.Errorf("pedersen: multiexp: %w", err)
			}
			c := &Commitment{}
			c.point.FromJacobian(&p)
			res[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// CommitmentFromBytes decodes a compressed G1 point.
func (s *Scheme) CommitmentFromBytes(data []byte) (commitment.Commitment, error) {
	c := &Commitment{}
	if _, err := c.point.SetBytes(data); err != nil {
		return nil, fmt.Errorf("pedersen: decode commitment: %w", err)
	}
	return c, nil
}

// EvaluationProof reveals the folded witness column. Verification recommits
// the column against the batched commitment and recomputes the claimed
// evaluation directly.
type EvaluationProof struct {
	witness []fr.Element
	scheme  *Scheme
}

// ProveEvaluation absorbs the folded witness into the transcript and wraps it
// as the proof.
func (s *Scheme) ProveEvaluation(
	tr *transcript.Transcript,
	witness []fr.Element,
	evaluationPoint []fr.Element,
	generatorsOffset uint64,
) (commitment.EvaluationProof, error) {
	if generatorsOffset+uint64(len(witness)) > uint64(len(s.generators)) {
		return nil, fmt.Errorf("%w: need %d generators at offset %d, have %d",
			commitment.ErrSetupTooSmall, len(witness), generatorsOffset, len(s.generators))
	}
	tr.AppendScalars("pedersen-witness", witness)
	w := make([]fr.Element, len(witness))
	copy(w, witness)
	return &EvaluationProof{witness: w, scheme: s}, nil
}

// VerifyBatched checks that the revealed witness (a) recommits to the folding
// of the column commitments by the batching factors and (b) evaluates, as a
// multilinear extension, to the claimed folded product at the evaluation
// point.
func (p *EvaluationProof) VerifyBatched(
	tr *transcript.Transcript,
	commitments []commitment.Commitment,
	batchingFactors []fr.Element,
	product *fr.Element,
	evaluationPoint []fr.Element,
	generatorsOffset uint64,
	tableLength int,
) error {
	if len(commitments) != len(batchingFactors) {
		return fmt.Errorf("%w: %d commitments, %d batching factors",
			commitment.ErrVerificationFailed, len(commitments), len(batchingFactors))
	}
	if len(p.witness) != tableLength {
		return fmt.Errorf("%w: witness length %d, table length %d",
			commitment.ErrVerificationFailed, len(p.witness), tableLength)
	}
	tr.AppendScalars("pedersen-witness", p.witness)

	// Recommit the witness.
	recommitted, err := p.scheme.Commit([][]fr.Element{p.witness}, generatorsOffset)
	if err != nil {
		return err
	}

	// Fold the column commitments.
	points := make([]bn254.G1Affine, len(commitments))
	for i, c := range commitments {
		pc, ok := c.(*Commitment)
		if !ok {
			return fmt.Errorf("%w: foreign commitment type", commitment.ErrVerificationFailed)
		}
		points[i] = pc.point
	}
	var foldedJac bn254.G1Jac
	if _, err := foldedJac.MultiExp(points, batchingFactors, ecc.MultiExpConfig{}); err != nil {
		return fmt.Errorf("pedersen: multiexp: %w", err)
	}
	var folded bn254.G1Affine
	folded.FromJacobian(&foldedJac)
	if !recommitted[0].(*Commitment).point.Equal(&folded) {
		return fmt.Errorf("%w: witness does not match batched commitment", commitment.ErrVerificationFailed)
	}

	// Recompute the claimed evaluation.
	evaluationVec := make([]fr.Element, tableLength)
	polynomial.ComputeEvaluationVector(evaluationVec, evaluationPoint)
	got := polynomial.InnerProduct(p.witness, evaluationVec)
	if !got.Equal(product) {
		return fmt.Errorf("%w: witness evaluation does not match claimed product", commitment.ErrVerificationFailed)
	}
	return nil
}

// Bytes concatenates the canonical encodings of the witness entries.
func (p *EvaluationProof) Bytes() []byte {
	buf := make([]byte, 0, len(p.witness)*fr.Bytes)
	for i := range p.witness {
		b := p.witness[i].Bytes()
		buf = append(buf, b[:]...)
	}
	return buf
}

// ProofFromBytes decodes an evaluation proof.
func (s *Scheme) ProofFromBytes(data []byte) (commitment.EvaluationProof, error) {
	if len(data)%fr.Bytes != 0 {
		return nil, fmt.Errorf("pedersen: proof length %d is not a multiple of %d", len(data), fr.Bytes)
	}
	w := make([]fr.Element, len(data)/fr.Bytes)
	for i := range w {
		w[i].SetBytes(data[i*fr.Bytes : (i+1)*fr.Bytes])
	}
	return &EvaluationProof{witness: w, scheme: s}, nil
}
