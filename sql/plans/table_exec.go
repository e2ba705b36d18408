package plans

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// TableExec scans a committed table. Its outputs are anchored columns, so it
// produces no proof elements of its own: the claimed evaluations check out
// against the accessor's commitments in the batched PCS step.
type TableExec struct {
	Ref     database.TableRef
	Columns []database.ColumnRef
}

// NewTableExec builds a scan of the given columns.
func NewTableExec(ref database.TableRef, columns []database.ColumnRef) *TableExec {
	return &TableExec{Ref: ref, Columns: columns}
}

func (p *TableExec) FirstRoundEvaluate(_ *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	return accessor.GetTable(p.Ref, p.Columns)
}

func (p *TableExec) FinalRoundEvaluate(_ *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	return accessor.GetTable(p.Ref, p.Columns)
}

func (p *TableExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	n := accessor.GetLength(p.Ref)
	evals := make([]fr.Element, len(p.Columns))
	for i, ref := range p.Columns {
		e, err := b.ColumnEvaluation(ref)
		if err != nil {
			return proof.TableEvaluation{}, err
		}
		evals[i] = e
	}
	return proof.TableEvaluation{
		ColumnEvaluations: evals,
		ChiEvaluation:     b.ChiEvaluation(n),
		Length:            n,
	}, nil
}

func (p *TableExec) Count(_ *proof.CountBuilder) error { return nil }

func (p *TableExec) ColumnRefs() []database.ColumnRef { return p.Columns }

func (p *TableExec) TableRefs() []database.TableRef { return []database.TableRef{p.Ref} }

func (p *TableExec) Fields() []database.ColumnField {
	res := make([]database.ColumnField, len(p.Columns))
	for i, ref := range p.Columns {
		res[i] = database.ColumnField{Name: ref.Name, Type: ref.Type}
	}
	return res
}

func (p *TableExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagTable})
	tr.Append("table-ref", []byte(p.Ref))
	for _, ref := range p.Columns {
		tr.Append("column-name", []byte(ref.Name))
		tr.AppendUint64("column-type", uint64(ref.Type))
	}
}
