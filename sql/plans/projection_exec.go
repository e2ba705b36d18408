package plans

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// ProjectionExec evaluates expressions over every row of a scanned table.
// The output evaluations compose linearly (or via committed products) from
// the anchored columns, so the projection itself commits nothing.
type ProjectionExec struct {
	Input   *TableExec
	Results []AliasedExpr
}

// NewProjectionExec builds a projection over a table scan.
func NewProjectionExec(input *TableExec, results []AliasedExpr) *ProjectionExec {
	return &ProjectionExec{Input: input, Results: results}
}

func (p *ProjectionExec) evaluate(accessor database.DataAccessor, b *proof.FinalRoundBuilder) (*database.Table, error) {
	input, err := accessor.GetTable(p.Input.Ref, p.ColumnRefs())
	if err != nil {
		return nil, err
	}
	out := database.NewTable(input.NumRows())
	for _, a := range p.Results {
		var col database.Column
		if b != nil {
			col, _, err = evaluateOutputFinal(a, b, input)
		} else {
			col, _, err = evaluateOutput(a, input)
		}
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(a.Alias, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *ProjectionExec) FirstRoundEvaluate(_ *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	return p.evaluate(accessor, nil)
}

func (p *ProjectionExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	return p.evaluate(accessor, b)
}

func (p *ProjectionExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	n := accessor.GetLength(p.Input.Ref)
	chiN := b.ChiEvaluation(n)
	evals := make([]fr.Element, len(p.Results))
	for i, a := range p.Results {
		e, err := a.Expr.VerifierEvaluate(b, chiN)
		if err != nil {
			return proof.TableEvaluation{}, err
		}
		evals[i] = e
	}
	return proof.TableEvaluation{ColumnEvaluations: evals, ChiEvaluation: chiN, Length: n}, nil
}

func (p *ProjectionExec) Count(b *proof.CountBuilder) error {
	for _, a := range p.Results {
		if err := a.Expr.Count(b); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProjectionExec) ColumnRefs() []database.ColumnRef {
	var refs []database.ColumnRef
	for _, a := range p.Results {
		refs = append(refs, a.Expr.ColumnRefs()...)
	}
	return proof.DedupColumnRefs(refs)
}

func (p *ProjectionExec) TableRefs() []database.TableRef {
	return []database.TableRef{p.Input.Ref}
}

func (p *ProjectionExec) Fields() []database.ColumnField {
	res := make([]database.ColumnField, len(p.Results))
	for i, a := range p.Results {
		res[i] = outputField(a)
	}
	return res
}

func (p *ProjectionExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagProjection})
	tr.Append("table-ref", []byte(p.Input.Ref))
	for _, a := range p.Results {
		tr.Append("alias", []byte(a.Alias))
		a.Expr.AppendToTranscript(tr)
	}
}
