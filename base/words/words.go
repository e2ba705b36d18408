// Package words decomposes field elements into base-256 digit words for the
// logarithmic-derivative range check, and tracks which digit positions of a
// column vary via a bitset distribution carried in the proof.
package words

import (
	"errors"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Count is the number of byte digits proving membership in the usable
// 248-bit range of the scalar field.
const Count = 31

// ErrOutOfRange is returned when a scalar does not fit in Count bytes.
var ErrOutOfRange = errors.New("words: scalar does not fit in 248 bits")

// Decompose returns the little-endian base-256 digits of e. It fails when e
// needs more than Count digits, i.e. when the value is outside the usable
// range.
func Decompose(e *fr.Element) ([Count]byte, error) {
	var digits [Count]byte
	b := e.Bytes() // big-endian, 32 bytes
	if b[0] != 0 {
		return digits, ErrOutOfRange
	}
	for j := 0; j < Count; j++ {
		digits[j] = b[31-j]
	}
	return digits, nil
}

// Distribution records which digit positions of a column vary across rows.
// Constant positions do not need committed word columns: their value is
// public and enters the verifier's base-256 recomposition directly.
type Distribution struct {
	// VaryingMask has bit j set when digit position j varies.
	VaryingMask *bitset.BitSet
	// ConstantBytes holds the shared digit at constant positions; entries at
	// varying positions are zero.
	ConstantBytes [Count]byte
}

// NewDistribution inspects the digit matrix of a column (one digit row per
// column row) and splits positions into varying and constant.
func NewDistribution(digits [][Count]byte) Distribution {
	dist := Distribution{VaryingMask: bitset.New(Count)}
	if len(digits) == 0 {
		return dist
	}
	for j := 0; j < Count; j++ {
		first := digits[0][j]
		varying := false
		for i := 1; i < len(digits); i++ {
			if digits[i][j] != first {
				varying = true
				break
			}
		}
		if varying {
			dist.VaryingMask.Set(uint(j))
		} else {
			dist.ConstantBytes[j] = first
		}
	}
	return dist
}

// VaryingCount returns the number of varying digit positions.
func (d *Distribution) VaryingCount() int {
	if d.VaryingMask == nil {
		return 0
	}
	return int(d.VaryingMask.Count())
}

// VaryingIndices returns the varying digit positions in increasing order.
func (d *Distribution) VaryingIndices() []int {
	res := make([]int, 0, d.VaryingCount())
	if d.VaryingMask == nil {
		return res
	}
	for j, ok := d.VaryingMask.NextSet(0); ok; j, ok = d.VaryingMask.NextSet(j + 1) {
		res = append(res, int(j))
	}
	return res
}

// IsValid checks the structural invariants of a distribution received from
// an untrusted proof: the mask fits the digit count and constant bytes at
// varying positions are zero.
func (d *Distribution) IsValid() bool {
	if d.VaryingMask == nil {
		return false
	}
	for j, ok := d.VaryingMask.NextSet(0); ok; j, ok = d.VaryingMask.NextSet(j + 1) {
		if j >= Count {
			return false
		}
		if d.ConstantBytes[j] != 0 {
			return false
		}
	}
	return true
}

// Bytes returns a canonical encoding for transcript absorption.
func (d *Distribution) Bytes() []byte {
	buf := make([]byte, 0, 2*Count)
	var mask [Count]byte
	if d.VaryingMask != nil {
		for j, ok := d.VaryingMask.NextSet(0); ok; j, ok = d.VaryingMask.NextSet(j + 1) {
			if j < Count {
				mask[j] = 1
			}
		}
	}
	buf = append(buf, mask[:]...)
	buf = append(buf, d.ConstantBytes[:]...)
	return buf
}
