package proof

import "errors"

var (
	// ErrInvalidProof is the generic rejection for a structurally broken or
	// unsound proof.
	ErrInvalidProof = errors.New("proof: verification failed")
	// ErrExhaustedQueue is returned when a plan consumes more proof elements
	// than the proof carries; the prover and verifier schedules diverged.
	ErrExhaustedQueue = errors.New("proof: consumed past the end of a proof element queue")
	// ErrUnconsumedElements is returned when a plan leaves proof elements
	// unconsumed; extra elements are as much a divergence as missing ones.
	ErrUnconsumedElements = errors.New("proof: proof elements left unconsumed")
	// ErrCountMismatch is returned when the proof's element counts do not
	// match the plan's declared counts.
	ErrCountMismatch = errors.New("proof: proof element counts do not match the plan")
	// ErrResultMismatch is returned when the revealed result table does not
	// match the proven output evaluations.
	ErrResultMismatch = errors.New("proof: result table does not match proven output")
	// ErrMixedOffsets is returned when a plan spans tables committed at
	// different generator offsets.
	ErrMixedOffsets = errors.New("proof: tables committed at different generator offsets")
)
