package plans

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// RangeCheckExec passes a committed column through unchanged while proving
// that every entry fits in the usable 248-bit range. The output column is
// anchored, so the plan commits only the gadget's word columns.
type RangeCheckExec struct {
	Column database.ColumnRef
}

// NewRangeCheckExec builds a range check of one committed column.
func NewRangeCheckExec(column database.ColumnRef) *RangeCheckExec {
	return &RangeCheckExec{Column: column}
}

func (p *RangeCheckExec) inputColumn(accessor database.DataAccessor) (*database.Table, []fr.Element, error) {
	input, err := accessor.GetTable(p.Column.Table, []database.ColumnRef{p.Column})
	if err != nil {
		return nil, nil, err
	}
	return input, input.ColumnAt(0).Scalars(), nil
}

func (p *RangeCheckExec) FirstRoundEvaluate(b *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	input, col, err := p.inputColumn(accessor)
	if err != nil {
		return nil, err
	}
	if err := gadgets.FirstRoundRangeCheck(b, col); err != nil {
		return nil, err
	}
	return input, nil
}

func (p *RangeCheckExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	input, col, err := p.inputColumn(accessor)
	if err != nil {
		return nil, err
	}
	if err := gadgets.FinalRoundRangeCheck(b, col, len(col)); err != nil {
		return nil, err
	}
	return input, nil
}

func (p *RangeCheckExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	n := accessor.GetLength(p.Column.Table)
	chiN := b.ChiEvaluation(n)
	colEval, err := b.ColumnEvaluation(p.Column)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	if err := gadgets.VerifierRangeCheck(b, colEval, chiN); err != nil {
		return proof.TableEvaluation{}, err
	}
	return proof.TableEvaluation{
		ColumnEvaluations: []fr.Element{colEval},
		ChiEvaluation:     chiN,
		Length:            n,
	}, nil
}

func (p *RangeCheckExec) Count(b *proof.CountBuilder) error {
	return gadgets.CountRangeCheck(b)
}

func (p *RangeCheckExec) ColumnRefs() []database.ColumnRef {
	return []database.ColumnRef{p.Column}
}

func (p *RangeCheckExec) TableRefs() []database.TableRef {
	return []database.TableRef{p.Column.Table}
}

func (p *RangeCheckExec) Fields() []database.ColumnField {
	return []database.ColumnField{{Name: p.Column.Name, Type: p.Column.Type}}
}

func (p *RangeCheckExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagRangeCheck})
	tr.Append("table-ref", []byte(p.Column.Table))
	tr.Append("column-name", []byte(p.Column.Name))
	tr.AppendUint64("column-type", uint64(p.Column.Type))
}
