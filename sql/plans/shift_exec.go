package plans

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// ShiftExec produces a column shifted down by one row: output row 0 is zero
// and output row i+1 is input row i, so the output has n+1 rows. The shift
// argument ties the committed output to the anchored input positionally.
type ShiftExec struct {
	Column database.ColumnRef
	Alias  string
}

// NewShiftExec builds a shift of one committed column.
func NewShiftExec(column database.ColumnRef, alias string) *ShiftExec {
	return &ShiftExec{Column: column, Alias: alias}
}

func (p *ShiftExec) shiftedColumn(accessor database.DataAccessor) ([]fr.Element, []fr.Element, error) {
	input, err := accessor.GetTable(p.Column.Table, []database.ColumnRef{p.Column})
	if err != nil {
		return nil, nil, err
	}
	col := input.ColumnAt(0).Scalars()
	return col, gadgets.ShiftColumn(col), nil
}

func (p *ShiftExec) outputTable(shifted []fr.Element) (*database.Table, error) {
	out := database.NewTable(len(shifted))
	if err := out.AddColumn(p.Alias, database.NewDecimal75Column(shifted)); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ShiftExec) FirstRoundEvaluate(b *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	col, shifted, err := p.shiftedColumn(accessor)
	if err != nil {
		return nil, err
	}
	b.ProduceIntermediateMLE(shifted)
	gadgets.FirstRoundShift(b, len(col))
	return p.outputTable(shifted)
}

func (p *ShiftExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	col, shifted, err := p.shiftedColumn(accessor)
	if err != nil {
		return nil, err
	}
	gadgets.ProverShift(b, col, shifted, len(col))
	return p.outputTable(shifted)
}

func (p *ShiftExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	n := accessor.GetLength(p.Column.Table)
	colEval, err := b.ColumnEvaluation(p.Column)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	shiftedEval, err := b.ConsumeFirstRoundMLEEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	chiN1, err := gadgets.VerifierShift(b, colEval, shiftedEval)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	return proof.TableEvaluation{
		ColumnEvaluations: []fr.Element{shiftedEval},
		ChiEvaluation:     chiN1,
		Length:            n + 1,
	}, nil
}

func (p *ShiftExec) Count(b *proof.CountBuilder) error {
	b.CountFirstRoundMLEs(1)
	gadgets.CountShift(b)
	return nil
}

func (p *ShiftExec) ColumnRefs() []database.ColumnRef {
	return []database.ColumnRef{p.Column}
}

func (p *ShiftExec) TableRefs() []database.TableRef {
	return []database.TableRef{p.Column.Table}
}

func (p *ShiftExec) Fields() []database.ColumnField {
	return []database.ColumnField{{Name: p.Alias, Type: database.Decimal75}}
}

func (p *ShiftExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagShift})
	tr.Append("table-ref", []byte(p.Column.Table))
	tr.Append("column-name", []byte(p.Column.Name))
	tr.AppendUint64("column-type", uint64(p.Column.Type))
	tr.Append("alias", []byte(p.Alias))
}
