package proof

import (
	"fmt"
	"io"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/commitment"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sumcheck"
)

// encMode is the deterministic encoder: a proof must serialize to the same
// bytes on every machine, since clients compare and cache them.
var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func scalarsToBytes(scalars []fr.Element) []byte {
	buf := make([]byte, 0, len(scalars)*fr.Bytes)
	for i := range scalars {
		b := scalars[i].Bytes()
		buf = append(buf, b[:]...)
	}
	return buf
}

func scalarsFromBytes(data []byte) ([]fr.Element, error) {
	if len(data)%fr.Bytes != 0 {
		return nil, fmt.Errorf("%w: scalar blob of %d bytes", ErrInvalidProof, len(data))
	}
	res := make([]fr.Element, len(data)/fr.Bytes)
	for i := range res {
		res[i].SetBytes(data[i*fr.Bytes : (i+1)*fr.Bytes])
	}
	return res, nil
}

type wireDistribution struct {
	VaryingMask   []byte `cbor:"1,keyasint"`
	ConstantBytes []byte `cbor:"2,keyasint"`
}

type wireProof struct {
	FirstRoundCommitments [][]byte           `cbor:"1,keyasint"`
	FinalRoundCommitments [][]byte           `cbor:"2,keyasint"`
	ChiEvaluationLengths  []int              `cbor:"3,keyasint"`
	RhoEvaluationLengths  []int              `cbor:"4,keyasint"`
	RangeLength           int                `cbor:"5,keyasint"`
	BitDistributions      []wireDistribution `cbor:"6,keyasint"`
	SumcheckRounds        [][]byte           `cbor:"7,keyasint"`
	PCSProofEvaluations   []byte             `cbor:"8,keyasint"`
	EvaluationProof       []byte             `cbor:"9,keyasint"`
}

// Bytes returns the deterministic wire encoding of the proof.
func (p *QueryProof) Bytes() ([]byte, error) {
	w := wireProof{
		ChiEvaluationLengths: p.ChiEvaluationLengths,
		RhoEvaluationLengths: p.RhoEvaluationLengths,
		RangeLength:          p.RangeLength,
		PCSProofEvaluations:  scalarsToBytes(p.PCSProofEvaluations),
		EvaluationProof:      p.EvaluationProof.Bytes(),
	}
	for _, c := range p.FirstRoundCommitments {
		w.FirstRoundCommitments = append(w.FirstRoundCommitments, c.Bytes())
	}
	for _, c := range p.FinalRoundCommitments {
		w.FinalRoundCommitments = append(w.FinalRoundCommitments, c.Bytes())
	}
	for i := range p.BitDistributions {
		d := &p.BitDistributions[i]
		mask, err := d.VaryingMask.MarshalBinary()
		if err != nil {
			return nil, err
		}
		w.BitDistributions = append(w.BitDistributions, wireDistribution{
			VaryingMask:   mask,
			ConstantBytes: d.ConstantBytes[:],
		})
	}
	for _, round := range p.Sumcheck.RoundEvaluations {
		w.SumcheckRounds = append(w.SumcheckRounds, scalarsToBytes(round))
	}
	return encMode.Marshal(w)
}

// WriteTo writes the wire encoding; it exists so callers can stream proofs
// without an intermediate call to Bytes.
func (p *QueryProof) WriteTo(w io.Writer) (int64, error) {
	data, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// QueryProofFromBytes decodes a proof; the scheme decodes its own commitment
// and evaluation-proof encodings.
func QueryProofFromBytes(data []byte, scheme commitment.Scheme) (*QueryProof, error) {
	var w wireProof
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	p := &QueryProof{
		ChiEvaluationLengths: w.ChiEvaluationLengths,
		RhoEvaluationLengths: w.RhoEvaluationLengths,
		RangeLength:          w.RangeLength,
		Sumcheck:             &sumcheck.Proof{},
	}
	for _, b := range w.FirstRoundCommitments {
		c, err := scheme.CommitmentFromBytes(b)
		if err != nil {
			return nil, err
		}
		p.FirstRoundCommitments = append(p.FirstRoundCommitments, c)
	}
	for _, b := range w.FinalRoundCommitments {
		c, err := scheme.CommitmentFromBytes(b)
		if err != nil {
			return nil, err
		}
		p.FinalRoundCommitments = append(p.FinalRoundCommitments, c)
	}
	for _, wd := range w.BitDistributions {
		d := words.Distribution{VaryingMask: bitset.New(words.Count)}
		if err := d.VaryingMask.UnmarshalBinary(wd.VaryingMask); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
		if len(wd.ConstantBytes) != words.Count {
			return nil, fmt.Errorf("%w: distribution constant bytes", ErrInvalidProof)
		}
		copy(d.ConstantBytes[:], wd.ConstantBytes)
		p.BitDistributions = append(p.BitDistributions, d)
	}
	for _, round := range w.SumcheckRounds {
		evals, err := scalarsFromBytes(round)
		if err != nil {
			return nil, err
		}
		p.Sumcheck.RoundEvaluations = append(p.Sumcheck.RoundEvaluations, evals)
	}
	evals, err := scalarsFromBytes(w.PCSProofEvaluations)
	if err != nil {
		return nil, err
	}
	p.PCSProofEvaluations = evals
	ep, err := scheme.ProofFromBytes(w.EvaluationProof)
	if err != nil {
		return nil, err
	}
	p.EvaluationProof = ep
	return p, nil
}

type wireColumn struct {
	Type    uint8      `cbor:"1,keyasint"`
	Bools   []bool     `cbor:"2,keyasint,omitempty"`
	Ints    []int64    `cbor:"3,keyasint,omitempty"`
	Scalars []byte     `cbor:"4,keyasint,omitempty"`
	Strings []string   `cbor:"5,keyasint,omitempty"`
	BigInts []*big.Int `cbor:"6,keyasint,omitempty"`
}

type wireTable struct {
	NumRows int          `cbor:"1,keyasint"`
	Names   []string     `cbor:"2,keyasint"`
	Columns []wireColumn `cbor:"3,keyasint"`
}

func columnToWire(c database.Column) (wireColumn, error) {
	w := wireColumn{Type: uint8(c.Type())}
	switch c.Type() {
	case database.Boolean:
		v, err := c.Bools()
		if err != nil {
			return w, err
		}
		w.Bools = v
	case database.TinyInt:
		v, err := c.TinyInts()
		if err != nil {
			return w, err
		}
		for _, x := range v {
			w.Ints = append(w.Ints, int64(x))
		}
	case database.SmallInt:
		v, err := c.SmallInts()
		if err != nil {
			return w, err
		}
		for _, x := range v {
			w.Ints = append(w.Ints, int64(x))
		}
	case database.Int:
		v, err := c.Ints()
		if err != nil {
			return w, err
		}
		for _, x := range v {
			w.Ints = append(w.Ints, int64(x))
		}
	case database.BigInt, database.TimestampTZ:
		v, err := c.BigInts()
		if err != nil {
			return w, err
		}
		w.Ints = v
	case database.Int128:
		v, err := c.Int128s()
		if err != nil {
			return w, err
		}
		w.BigInts = v
	case database.Decimal75:
		v, err := c.Decimal75s()
		if err != nil {
			return w, err
		}
		w.Scalars = scalarsToBytes(v)
	case database.VarChar:
		v, err := c.VarChars()
		if err != nil {
			return w, err
		}
		w.Strings = v
	default:
		return w, fmt.Errorf("proof: cannot serialize column type %s", c.Type())
	}
	return w, nil
}

func columnFromWire(w wireColumn) (database.Column, error) {
	switch database.ColumnType(w.Type) {
	case database.Boolean:
		return database.NewBooleanColumn(w.Bools), nil
	case database.TinyInt:
		v := make([]int8, len(w.Ints))
		for i, x := range w.Ints {
			v[i] = int8(x)
		}
		return database.NewTinyIntColumn(v), nil
	case database.SmallInt:
		v := make([]int16, len(w.Ints))
		for i, x := range w.Ints {
			v[i] = int16(x)
		}
		return database.NewSmallIntColumn(v), nil
	case database.Int:
		v := make([]int32, len(w.Ints))
		for i, x := range w.Ints {
			v[i] = int32(x)
		}
		return database.NewIntColumn(v), nil
	case database.BigInt:
		return database.NewBigIntColumn(w.Ints), nil
	case database.TimestampTZ:
		return database.NewTimestampTZColumn(w.Ints), nil
	case database.Int128:
		return database.NewInt128Column(w.BigInts), nil
	case database.Decimal75:
		v, err := scalarsFromBytes(w.Scalars)
		if err != nil {
			return database.Column{}, err
		}
		return database.NewDecimal75Column(v), nil
	case database.VarChar:
		return database.NewVarCharColumn(w.Strings), nil
	default:
		return database.Column{}, fmt.Errorf("%w: unknown column type %d", ErrInvalidProof, w.Type)
	}
}

func tableToWire(t *database.Table) (wireTable, error) {
	w := wireTable{NumRows: t.NumRows(), Names: t.Names()}
	for i := 0; i < t.NumColumns(); i++ {
		wc, err := columnToWire(t.ColumnAt(i))
		if err != nil {
			return w, err
		}
		w.Columns = append(w.Columns, wc)
	}
	return w, nil
}

func tableFromWire(w wireTable) (*database.Table, error) {
	if len(w.Names) != len(w.Columns) {
		return nil, fmt.Errorf("%w: table shape", ErrInvalidProof)
	}
	t := database.NewTable(w.NumRows)
	for i, name := range w.Names {
		c, err := columnFromWire(w.Columns[i])
		if err != nil {
			return nil, err
		}
		if err := t.AddColumn(name, c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type wireVerifiableResult struct {
	Proof  []byte    `cbor:"1,keyasint"`
	Result wireTable `cbor:"2,keyasint"`
}

// VerifiableQueryResult bundles the revealed result table with its proof; it
// is the unit a prover ships to a client.
type VerifiableQueryResult struct {
	Proof  *QueryProof
	Result *database.Table
}

// NewVerifiableQueryResult proves the plan and bundles the outcome.
func NewVerifiableQueryResult(plan ProofPlan, accessor database.DataAccessor, scheme commitment.Scheme) (*VerifiableQueryResult, error) {
	proof, result, err := New(plan, accessor, scheme)
	if err != nil {
		return nil, err
	}
	return &VerifiableQueryResult{Proof: proof, Result: result}, nil
}

// Verify checks the bundled proof and returns the result table on success.
func (r *VerifiableQueryResult) Verify(plan ProofPlan, accessor database.CommitmentAccessor) (*database.Table, error) {
	if err := r.Proof.Verify(plan, accessor, r.Result); err != nil {
		return nil, err
	}
	return r.Result, nil
}

// Bytes returns the deterministic wire encoding of the bundle.
func (r *VerifiableQueryResult) Bytes() ([]byte, error) {
	proofBytes, err := r.Proof.Bytes()
	if err != nil {
		return nil, err
	}
	table, err := tableToWire(r.Result)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(wireVerifiableResult{Proof: proofBytes, Result: table})
}

// WriteTo writes the wire encoding of the bundle.
func (r *VerifiableQueryResult) WriteTo(w io.Writer) (int64, error) {
	data, err := r.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// VerifiableQueryResultFromBytes decodes a bundle.
func VerifiableQueryResultFromBytes(data []byte, scheme commitment.Scheme) (*VerifiableQueryResult, error) {
	var w wireVerifiableResult
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	proof, err := QueryProofFromBytes(w.Proof, scheme)
	if err != nil {
		return nil, err
	}
	result, err := tableFromWire(w.Result)
	if err != nil {
		return nil, err
	}
	return &VerifiableQueryResult{Proof: proof, Result: result}, nil
}
