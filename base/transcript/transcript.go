// Package transcript implements the Fiat-Shamir transcript threading public
// data and challenges between the prover and the verifier.
//
// Both sides must perform the exact same sequence of Append and Challenge
// calls; any divergence makes a later identity check fail, which is the
// soundness mechanism for query-dependent randomization.
package transcript

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
)

// Transcript is a deterministic Keccak256-based absorb/squeeze state.
// The zero value is not usable; call New.
type Transcript struct {
	state [32]byte
}

// New returns a transcript seeded with a domain separation label.
func New(label string) *Transcript {
	t := &Transcript{}
	t.ratchet([]byte(label))
	return t
}

// ratchet sets state <- Keccak256(state || data).
func (t *Transcript) ratchet(data []byte) {
	h := sha3.NewLegacyKeccak256()
	h.Write(t.state[:])
	h.Write(data)
	h.Sum(t.state[:0])
}

// Append absorbs labeled bytes into the transcript. The label is length
// prefixed so distinct (label, data) pairs cannot collide.
func (t *Transcript) Append(label string, data []byte) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(label)))
	h := sha3.NewLegacyKeccak256()
	h.Write(t.state[:])
	h.Write(buf[:])
	h.Write([]byte(label))
	binary.LittleEndian.PutUint64(buf[:], uint64(len(data)))
	h.Write(buf[:])
	h.Write(data)
	h.Sum(t.state[:0])
}

// AppendUint64 absorbs a labeled integer.
func (t *Transcript) AppendUint64(label string, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	t.Append(label, buf[:])
}

// AppendUint64s absorbs a labeled integer slice.
func (t *Transcript) AppendUint64s(label string, vs []uint64) {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[8*i:], v)
	}
	t.Append(label, buf)
}

// AppendScalars absorbs a labeled slice of field elements in their canonical
// byte encoding.
func (t *Transcript) AppendScalars(label string, scalars []fr.Element) {
	buf := make([]byte, 0, fr.Bytes*len(scalars))
	for i := range scalars {
		b := scalars[i].Bytes()
		buf = append(buf, b[:]...)
	}
	t.Append(label, buf)
}

// ChallengeScalar squeezes one field element from the current state.
func (t *Transcript) ChallengeScalar(label string) fr.Element {
	t.ratchet([]byte(label))
	var e fr.Element
	e.SetBytes(t.state[:])
	return e
}

// ChallengeScalars squeezes n field elements from the current state.
func (t *Transcript) ChallengeScalars(label string, n int) []fr.Element {
	res := make([]fr.Element, n)
	for i := range res {
		res[i] = t.ChallengeScalar(label)
	}
	return res
}
