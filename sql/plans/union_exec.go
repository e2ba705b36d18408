package plans

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// UnionExec concatenates the outputs of its inputs (UNION ALL). Each input's
// folded rows are inverted and the inverses must sum to the output side's, a
// multiset equality; concatenation order is whatever the prover committed,
// which is fine because UNION ALL is unordered.
type UnionExec struct {
	Inputs []ProofPlan
}

// NewUnionExec builds a union; all inputs must share a schema.
func NewUnionExec(inputs []ProofPlan) *UnionExec { return &UnionExec{Inputs: inputs} }

func (p *UnionExec) checkSchemas() error {
	fields := p.Inputs[0].Fields()
	for _, in := range p.Inputs[1:] {
		other := in.Fields()
		if len(other) != len(fields) {
			return fmt.Errorf("%w: %d vs %d columns", ErrSchemaMismatch, len(fields), len(other))
		}
		for i := range fields {
			if fields[i].Type != other[i].Type {
				return fmt.Errorf("%w: column %d is %s vs %s", ErrSchemaMismatch, i, fields[i].Type, other[i].Type)
			}
		}
	}
	return nil
}

// concat builds the output table from child outputs; column values are
// concatenated as scalars and surfaced with the first child's schema.
func (p *UnionExec) concat(children []*database.Table) (*database.Table, [][]fr.Element, error) {
	fields := p.Inputs[0].Fields()
	m := 0
	for _, c := range children {
		m += c.NumRows()
	}
	outCols := make([][]fr.Element, len(fields))
	for j := range outCols {
		col := make([]fr.Element, 0, m)
		for _, c := range children {
			col = append(col, c.ColumnAt(j).Scalars()...)
		}
		outCols[j] = col
	}
	out := database.NewTable(m)
	for j, f := range fields {
		col, err := materializeUnionColumn(f.Type, children, j)
		if err != nil {
			return nil, nil, err
		}
		if err := out.AddColumn(f.Name, col); err != nil {
			return nil, nil, err
		}
	}
	return out, outCols, nil
}

// materializeUnionColumn concatenates the j-th columns of the children with
// their native representation where possible.
func materializeUnionColumn(typ database.ColumnType, children []*database.Table, j int) (database.Column, error) {
	switch typ {
	case database.Boolean:
		var v []bool
		for _, c := range children {
			b, err := c.ColumnAt(j).Bools()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		return database.NewBooleanColumn(v), nil
	case database.TinyInt:
		var v []int8
		for _, c := range children {
			b, err := c.ColumnAt(j).TinyInts()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		return database.NewTinyIntColumn(v), nil
	case database.SmallInt:
		var v []int16
		for _, c := range children {
			b, err := c.ColumnAt(j).SmallInts()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		return database.NewSmallIntColumn(v), nil
	case database.Int:
		var v []int32
		for _, c := range children {
			b, err := c.ColumnAt(j).Ints()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		return database.NewIntColumn(v), nil
	case database.Int128:
		var v []*big.Int
		for _, c := range children {
			b, err := c.ColumnAt(j).Int128s()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		return database.NewInt128Column(v), nil
	case database.BigInt, database.TimestampTZ:
		var v []int64
		for _, c := range children {
			b, err := c.ColumnAt(j).BigInts()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		if typ == database.TimestampTZ {
			return database.NewTimestampTZColumn(v), nil
		}
		return database.NewBigIntColumn(v), nil
	case database.VarChar:
		var v []string
		for _, c := range children {
			b, err := c.ColumnAt(j).VarChars()
			if err != nil {
				return database.Column{}, err
			}
			v = append(v, b...)
		}
		return database.NewVarCharColumn(v), nil
	default:
		var v []fr.Element
		for _, c := range children {
			v = append(v, c.ColumnAt(j).Scalars()...)
		}
		return database.NewDecimal75Column(v), nil
	}
}

func (p *UnionExec) FirstRoundEvaluate(b *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	if err := p.checkSchemas(); err != nil {
		return nil, err
	}
	children := make([]*database.Table, len(p.Inputs))
	for i, in := range p.Inputs {
		child, err := in.FirstRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	out, outCols, err := p.concat(children)
	if err != nil {
		return nil, err
	}
	for _, col := range outCols {
		b.ProduceIntermediateMLE(col)
	}
	b.ProduceChiEvaluationLength(out.NumRows())
	b.RequestPostResultChallenges(2)
	return out, nil
}

func (p *UnionExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	children := make([]*database.Table, len(p.Inputs))
	for i, in := range p.Inputs {
		child, err := in.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	out, outCols, err := p.concat(children)
	if err != nil {
		return nil, err
	}

	alpha := b.ConsumePostResultChallenge()
	beta := b.ConsumePostResultChallenge()
	m := out.NumRows()
	chiM := gadgets.ChiColumn(m)

	zeroSumTerms := make([]proof.Term, 0, len(children)+1)
	for _, child := range children {
		n := child.NumRows()
		cFold := gadgets.AddConstant(gadgets.FoldColumns(columnScalars(child), &beta, n), &alpha, n)
		cStar := fr.BatchInvert(cFold)
		b.ProduceIntermediateMLE(cStar)
		b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
			proof.NewTerm(cFold, cStar),
			proof.NewNegTerm(gadgets.ChiColumn(n)),
		})
		zeroSumTerms = append(zeroSumTerms, proof.NewTerm(cStar))
	}
	dFold := gadgets.AddConstant(gadgets.FoldColumns(outCols, &beta, m), &alpha, m)
	dStar := fr.BatchInvert(dFold)
	b.ProduceIntermediateMLE(dStar)
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(dFold, dStar),
		proof.NewNegTerm(chiM),
	})
	zeroSumTerms = append(zeroSumTerms, proof.NewNegTerm(dStar))
	b.ProduceSumcheckSubpolynomial(proof.ZeroSum, zeroSumTerms)
	return out, nil
}

func (p *UnionExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	childEvals := make([]proof.TableEvaluation, len(p.Inputs))
	for i, in := range p.Inputs {
		ev, err := in.VerifierEvaluate(b, accessor, nil)
		if err != nil {
			return proof.TableEvaluation{}, err
		}
		childEvals[i] = ev
	}
	numFields := len(p.Inputs[0].Fields())
	outputEvals, err := b.ConsumeFirstRoundMLEEvaluations(numFields)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	chiM, m, err := b.ConsumeChiEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	total := 0
	for _, ev := range childEvals {
		total += ev.Length
	}
	if m != total {
		return proof.TableEvaluation{}, fmt.Errorf("%w: union output length %d, children total %d", proof.ErrInvalidProof, m, total)
	}
	alpha, err := b.ConsumePostResultChallenge()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	beta, err := b.ConsumePostResultChallenge()
	if err != nil {
		return proof.TableEvaluation{}, err
	}

	var zeroSumEval, t fr.Element
	for _, ev := range childEvals {
		cStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
		if err != nil {
			return proof.TableEvaluation{}, err
		}
		cFoldEval := gadgets.FoldEvals(ev.ColumnEvaluations, &beta)
		t.Mul(&alpha, &ev.ChiEvaluation)
		cFoldEval.Add(&cFoldEval, &t)
		var identity fr.Element
		identity.Mul(&cFoldEval, &cStarEval)
		identity.Sub(&identity, &ev.ChiEvaluation)
		if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, identity); err != nil {
			return proof.TableEvaluation{}, err
		}
		zeroSumEval.Add(&zeroSumEval, &cStarEval)
	}
	dStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	dFoldEval := gadgets.FoldEvals(outputEvals, &beta)
	t.Mul(&alpha, &chiM)
	dFoldEval.Add(&dFoldEval, &t)
	var identity fr.Element
	identity.Mul(&dFoldEval, &dStarEval)
	identity.Sub(&identity, &chiM)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, identity); err != nil {
		return proof.TableEvaluation{}, err
	}
	zeroSumEval.Sub(&zeroSumEval, &dStarEval)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.ZeroSum, zeroSumEval); err != nil {
		return proof.TableEvaluation{}, err
	}
	return proof.TableEvaluation{ColumnEvaluations: outputEvals, ChiEvaluation: chiM, Length: m}, nil
}

func (p *UnionExec) Count(b *proof.CountBuilder) error {
	for _, in := range p.Inputs {
		if err := in.Count(b); err != nil {
			return err
		}
	}
	b.CountFirstRoundMLEs(len(p.Inputs[0].Fields()))
	b.CountChiEvaluations(1)
	b.CountFinalRoundMLEs(len(p.Inputs) + 1)
	b.CountSubpolynomials(len(p.Inputs) + 2)
	b.CountDegree(3)
	b.CountPostResultChallenges(2)
	return nil
}

func (p *UnionExec) ColumnRefs() []database.ColumnRef {
	var refs []database.ColumnRef
	for _, in := range p.Inputs {
		refs = append(refs, in.ColumnRefs()...)
	}
	return proof.DedupColumnRefs(refs)
}

func (p *UnionExec) TableRefs() []database.TableRef {
	var refs []database.TableRef
	for _, in := range p.Inputs {
		refs = append(refs, in.TableRefs()...)
	}
	return proof.DedupTableRefs(refs)
}

func (p *UnionExec) Fields() []database.ColumnField { return p.Inputs[0].Fields() }

func (p *UnionExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagUnion})
	tr.AppendUint64("union-inputs", uint64(len(p.Inputs)))
	for _, in := range p.Inputs {
		in.AppendToTranscript(tr)
	}
}
