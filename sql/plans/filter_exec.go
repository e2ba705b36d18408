package plans

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/exprs"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// FilterExec keeps the rows of a scanned table where the predicate holds.
// The output columns are committed in the first round; the final round ties
// them to the selected input rows with the filter gadget.
type FilterExec struct {
	Input   *TableExec
	Where   exprs.ProofExpr
	Results []AliasedExpr
}

// NewFilterExec builds a filter over a table scan.
func NewFilterExec(input *TableExec, where exprs.ProofExpr, results []AliasedExpr) *FilterExec {
	return &FilterExec{Input: input, Where: where, Results: results}
}

// evaluateRows computes the predicate and the pre-filter expression columns
// over the full input; both rounds share this.
func (p *FilterExec) evaluateRows(input *database.Table, b *proof.FinalRoundBuilder) (selection []fr.Element, inputCols [][]fr.Element, typed []database.Column, err error) {
	if b != nil {
		selection, err = p.Where.FinalRoundEvaluate(b, input)
	} else {
		selection, err = p.Where.ResultEvaluate(input)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	inputCols = make([][]fr.Element, len(p.Results))
	typed = make([]database.Column, len(p.Results))
	for i, a := range p.Results {
		var col database.Column
		var scalars []fr.Element
		if b != nil {
			col, scalars, err = evaluateOutputFinal(a, b, input)
		} else {
			col, scalars, err = evaluateOutput(a, input)
		}
		if err != nil {
			return nil, nil, nil, err
		}
		inputCols[i] = scalars
		typed[i] = col
	}
	return selection, inputCols, typed, nil
}

func (p *FilterExec) FirstRoundEvaluate(b *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	input, err := accessor.GetTable(p.Input.Ref, p.ColumnRefs())
	if err != nil {
		return nil, err
	}
	selection, _, typed, err := p.evaluateRows(input, nil)
	if err != nil {
		return nil, err
	}
	kept, m := database.FilterColumns(typed, selectionBools(selection))

	out := database.NewTable(m)
	for i, a := range p.Results {
		if err := out.AddColumn(a.Alias, kept[i]); err != nil {
			return nil, err
		}
	}
	for _, col := range kept {
		b.ProduceIntermediateMLE(col.Scalars())
	}
	b.ProduceChiEvaluationLength(m)
	b.RequestPostResultChallenges(gadgets.FilterPostResultChallenges)
	return out, nil
}

func (p *FilterExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	input, err := accessor.GetTable(p.Input.Ref, p.ColumnRefs())
	if err != nil {
		return nil, err
	}
	selection, inputCols, typed, err := p.evaluateRows(input, b)
	if err != nil {
		return nil, err
	}
	kept, m := database.FilterColumns(typed, selectionBools(selection))

	out := database.NewTable(m)
	outputCols := make([][]fr.Element, len(kept))
	for i, a := range p.Results {
		if err := out.AddColumn(a.Alias, kept[i]); err != nil {
			return nil, err
		}
		outputCols[i] = kept[i].Scalars()
	}
	gadgets.ProverFilter(b, inputCols, selection, outputCols, input.NumRows(), m)
	return out, nil
}

func (p *FilterExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	n := accessor.GetLength(p.Input.Ref)
	chiN := b.ChiEvaluation(n)
	selectionEval, err := p.Where.VerifierEvaluate(b, chiN)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	inputEvals := make([]fr.Element, len(p.Results))
	for i, a := range p.Results {
		e, err := a.Expr.VerifierEvaluate(b, chiN)
		if err != nil {
			return proof.TableEvaluation{}, err
		}
		inputEvals[i] = e
	}
	outputEvals, err := b.ConsumeFirstRoundMLEEvaluations(len(p.Results))
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	chiM, m, err := b.ConsumeChiEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	if err := gadgets.VerifierFilter(b, inputEvals, selectionEval, outputEvals, chiN, chiM); err != nil {
		return proof.TableEvaluation{}, err
	}
	return proof.TableEvaluation{ColumnEvaluations: outputEvals, ChiEvaluation: chiM, Length: m}, nil
}

func (p *FilterExec) Count(b *proof.CountBuilder) error {
	if err := p.Where.Count(b); err != nil {
		return err
	}
	for _, a := range p.Results {
		if err := a.Expr.Count(b); err != nil {
			return err
		}
	}
	b.CountFirstRoundMLEs(len(p.Results))
	b.CountChiEvaluations(1)
	gadgets.CountFilter(b)
	return nil
}

func (p *FilterExec) ColumnRefs() []database.ColumnRef {
	refs := p.Where.ColumnRefs()
	for _, a := range p.Results {
		refs = append(refs, a.Expr.ColumnRefs()...)
	}
	return proof.DedupColumnRefs(refs)
}

func (p *FilterExec) TableRefs() []database.TableRef {
	return []database.TableRef{p.Input.Ref}
}

func (p *FilterExec) Fields() []database.ColumnField {
	res := make([]database.ColumnField, len(p.Results))
	for i, a := range p.Results {
		res[i] = outputField(a)
	}
	return res
}

func (p *FilterExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagFilter})
	tr.Append("table-ref", []byte(p.Input.Ref))
	p.Where.AppendToTranscript(tr)
	for _, a := range p.Results {
		tr.Append("alias", []byte(a.Alias))
		a.Expr.AppendToTranscript(tr)
	}
}
