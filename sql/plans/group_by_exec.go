package plans

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/exprs"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// GroupByExec groups the selected rows of a scanned table by key columns,
// sums the requested columns per group, and counts group sizes.
//
// The argument folds each input row's keys and summands into a fraction
// 1/(alpha + fold(keys)) weighted by (1 + beta*fold(sums)); rows of one group
// share a denominator, so the weighted fractions of a group add up to
// (count + beta*fold(groupSums)) over that same denominator, which is
// exactly what the output side folds to. Strictly increasing revealed keys
// rule out split groups.
type GroupByExec struct {
	Input        *TableExec
	GroupColumns []database.ColumnRef
	SumColumns   []database.ColumnRef
	CountAlias   string
	Where        exprs.ProofExpr
}

// NewGroupByExec builds a group-by over a table scan.
func NewGroupByExec(input *TableExec, groupColumns, sumColumns []database.ColumnRef, countAlias string, where exprs.ProofExpr) *GroupByExec {
	return &GroupByExec{
		Input:        input,
		GroupColumns: groupColumns,
		SumColumns:   sumColumns,
		CountAlias:   countAlias,
		Where:        where,
	}
}

// aggregate runs the raw aggregation shared by both prover rounds.
func (p *GroupByExec) aggregate(input *database.Table, selection []fr.Element) (database.AggregatedColumns, error) {
	groupCols := make([]database.Column, len(p.GroupColumns))
	for i, ref := range p.GroupColumns {
		col, err := input.Column(ref.Name)
		if err != nil {
			return database.AggregatedColumns{}, err
		}
		groupCols[i] = col
	}
	sumCols := make([]database.Column, len(p.SumColumns))
	for i, ref := range p.SumColumns {
		col, err := input.Column(ref.Name)
		if err != nil {
			return database.AggregatedColumns{}, err
		}
		sumCols[i] = col
	}
	return database.AggregateColumns(groupCols, sumCols, selectionBools(selection))
}

// outputTable assembles the revealed table from an aggregation.
func (p *GroupByExec) outputTable(agg database.AggregatedColumns) (*database.Table, error) {
	m := len(agg.CountColumn)
	out := database.NewTable(m)
	for i, ref := range p.GroupColumns {
		if err := out.AddColumn(ref.Name, agg.GroupColumns[i]); err != nil {
			return nil, err
		}
	}
	for i, ref := range p.SumColumns {
		if err := out.AddColumn(ref.Name, database.NewDecimal75Column(agg.SumColumns[i])); err != nil {
			return nil, err
		}
	}
	if err := out.AddColumn(p.CountAlias, database.NewBigIntColumn(agg.CountColumn)); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *GroupByExec) FirstRoundEvaluate(b *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	input, err := accessor.GetTable(p.Input.Ref, p.ColumnRefs())
	if err != nil {
		return nil, err
	}
	selection, err := p.Where.ResultEvaluate(input)
	if err != nil {
		return nil, err
	}
	agg, err := p.aggregate(input, selection)
	if err != nil {
		return nil, err
	}
	out, err := p.outputTable(agg)
	if err != nil {
		return nil, err
	}
	for i := 0; i < out.NumColumns(); i++ {
		b.ProduceIntermediateMLE(out.ColumnAt(i).Scalars())
	}
	b.ProduceChiEvaluationLength(out.NumRows())
	b.RequestPostResultChallenges(2)
	return out, nil
}

func (p *GroupByExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	input, err := accessor.GetTable(p.Input.Ref, p.ColumnRefs())
	if err != nil {
		return nil, err
	}
	selection, err := p.Where.FinalRoundEvaluate(b, input)
	if err != nil {
		return nil, err
	}
	agg, err := p.aggregate(input, selection)
	if err != nil {
		return nil, err
	}
	out, err := p.outputTable(agg)
	if err != nil {
		return nil, err
	}

	alpha := b.ConsumePostResultChallenge()
	beta := b.ConsumePostResultChallenge()
	n := input.NumRows()
	m := out.NumRows()
	chiN := gadgets.ChiColumn(n)
	chiM := gadgets.ChiColumn(m)

	groupIn := make([][]fr.Element, len(p.GroupColumns))
	for i, ref := range p.GroupColumns {
		col, _ := input.Column(ref.Name)
		groupIn[i] = col.Scalars()
	}
	sumIn := make([][]fr.Element, len(p.SumColumns))
	for i, ref := range p.SumColumns {
		col, _ := input.Column(ref.Name)
		sumIn[i] = col.Scalars()
	}
	groupOut := make([][]fr.Element, len(agg.GroupColumns))
	for i := range agg.GroupColumns {
		groupOut[i] = agg.GroupColumns[i].Scalars()
	}
	countOut := make([]fr.Element, m)
	for i, c := range agg.CountColumn {
		countOut[i].SetInt64(c)
	}

	// gInFold = alpha + fold(beta, keys) on the input side, gOutFold on the
	// output side; the stars are their inverses on live rows.
	gInFold := gadgets.AddConstant(gadgets.FoldColumns(groupIn, &beta, n), &alpha, n)
	gInStar := fr.BatchInvert(gInFold)
	gOutFold := gadgets.AddConstant(gadgets.FoldColumns(groupOut, &beta, m), &alpha, m)
	gOutStar := fr.BatchInvert(gOutFold)

	// sumInFold = 1 + beta*fold(beta, summands); the constant 1 makes
	// unweighted rows count toward the group size.
	sumInFold := make([]fr.Element, n)
	folded := gadgets.FoldColumns(sumIn, &beta, n)
	for i := 0; i < n; i++ {
		sumInFold[i].Mul(&folded[i], &beta)
		sumInFold[i].Add(&sumInFold[i], &chiN[i])
	}
	// sumOutBarFold = count + beta*fold(beta, groupSums)
	sumOutBarFold := make([]fr.Element, m)
	foldedOut := gadgets.FoldColumns(agg.SumColumns, &beta, m)
	for i := 0; i < m; i++ {
		sumOutBarFold[i].Mul(&foldedOut[i], &beta)
		sumOutBarFold[i].Add(&sumOutBarFold[i], &countOut[i])
	}

	b.ProduceIntermediateMLE(gInStar)
	b.ProduceIntermediateMLE(gOutStar)
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(gInFold, gInStar),
		proof.NewNegTerm(chiN),
	})
	b.ProduceSumcheckSubpolynomial(proof.Identity, []proof.Term{
		proof.NewTerm(gOutFold, gOutStar),
		proof.NewNegTerm(chiM),
	})
	b.ProduceSumcheckSubpolynomial(proof.ZeroSum, []proof.Term{
		proof.NewTerm(gInStar, selection, sumInFold),
		proof.NewNegTerm(gOutStar, sumOutBarFold),
	})
	return out, nil
}

func (p *GroupByExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, result *database.Table) (proof.TableEvaluation, error) {
	n := accessor.GetLength(p.Input.Ref)
	chiN := b.ChiEvaluation(n)
	selectionEval, err := p.Where.VerifierEvaluate(b, chiN)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	groupInEvals := make([]fr.Element, len(p.GroupColumns))
	for i, ref := range p.GroupColumns {
		if groupInEvals[i], err = b.ColumnEvaluation(ref); err != nil {
			return proof.TableEvaluation{}, err
		}
	}
	sumInEvals := make([]fr.Element, len(p.SumColumns))
	for i, ref := range p.SumColumns {
		if sumInEvals[i], err = b.ColumnEvaluation(ref); err != nil {
			return proof.TableEvaluation{}, err
		}
	}

	numOutputs := len(p.GroupColumns) + len(p.SumColumns) + 1
	outputEvals, err := b.ConsumeFirstRoundMLEEvaluations(numOutputs)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	groupOutEvals := outputEvals[:len(p.GroupColumns)]
	sumOutEvals := outputEvals[len(p.GroupColumns) : len(p.GroupColumns)+len(p.SumColumns)]
	countEval := outputEvals[numOutputs-1]
	chiM, m, err := b.ConsumeChiEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	alpha, err := b.ConsumePostResultChallenge()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	beta, err := b.ConsumePostResultChallenge()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	gInStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	gOutStarEval, err := b.ConsumeFinalRoundMLEEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}

	var gInFoldEval, gOutFoldEval, sumInFoldEval, sumOutBarEval, t fr.Element
	gInFoldEval = gadgets.FoldEvals(groupInEvals, &beta)
	t.Mul(&alpha, &chiN)
	gInFoldEval.Add(&gInFoldEval, &t)
	gOutFoldEval = gadgets.FoldEvals(groupOutEvals, &beta)
	t.Mul(&alpha, &chiM)
	gOutFoldEval.Add(&gOutFoldEval, &t)
	sumInFoldEval = gadgets.FoldEvals(sumInEvals, &beta)
	sumInFoldEval.Mul(&sumInFoldEval, &beta)
	sumInFoldEval.Add(&sumInFoldEval, &chiN)
	sumOutBarEval = gadgets.FoldEvals(sumOutEvals, &beta)
	sumOutBarEval.Mul(&sumOutBarEval, &beta)
	sumOutBarEval.Add(&sumOutBarEval, &countEval)

	var eval fr.Element
	eval.Mul(&gInFoldEval, &gInStarEval)
	eval.Sub(&eval, &chiN)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return proof.TableEvaluation{}, err
	}
	eval.Mul(&gOutFoldEval, &gOutStarEval)
	eval.Sub(&eval, &chiM)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.Identity, eval); err != nil {
		return proof.TableEvaluation{}, err
	}
	eval.Mul(&gInStarEval, &selectionEval)
	eval.Mul(&eval, &sumInFoldEval)
	t.Mul(&gOutStarEval, &sumOutBarEval)
	eval.Sub(&eval, &t)
	if err := b.ProduceSumcheckSubpolynomialEvaluation(proof.ZeroSum, eval); err != nil {
		return proof.TableEvaluation{}, err
	}

	// the revealed keys must be strictly increasing, otherwise a dishonest
	// prover could split one group across several output rows
	if result != nil {
		if err := p.checkResultOrdering(result); err != nil {
			return proof.TableEvaluation{}, err
		}
	}
	return proof.TableEvaluation{ColumnEvaluations: outputEvals, ChiEvaluation: chiM, Length: m}, nil
}

func (p *GroupByExec) checkResultOrdering(result *database.Table) error {
	keys := make([][]fr.Element, len(p.GroupColumns))
	for i, ref := range p.GroupColumns {
		col, err := result.Column(ref.Name)
		if err != nil {
			return err
		}
		keys[i] = col.Scalars()
	}
	for row := 1; row < result.NumRows(); row++ {
		cmp := 0
		for k := range keys {
			if cmp = keys[k][row-1].Cmp(&keys[k][row]); cmp != 0 {
				break
			}
		}
		if cmp >= 0 {
			return fmt.Errorf("%w: row %d", ErrUnsortedGroups, row)
		}
	}
	return nil
}

func (p *GroupByExec) Count(b *proof.CountBuilder) error {
	if err := p.Where.Count(b); err != nil {
		return err
	}
	b.CountFirstRoundMLEs(len(p.GroupColumns) + len(p.SumColumns) + 1)
	b.CountChiEvaluations(1)
	b.CountFinalRoundMLEs(2)
	b.CountSubpolynomials(3)
	b.CountDegree(3)
	b.CountPostResultChallenges(2)
	return nil
}

func (p *GroupByExec) ColumnRefs() []database.ColumnRef {
	refs := p.Where.ColumnRefs()
	refs = append(refs, p.GroupColumns...)
	refs = append(refs, p.SumColumns...)
	return proof.DedupColumnRefs(refs)
}

func (p *GroupByExec) TableRefs() []database.TableRef {
	return []database.TableRef{p.Input.Ref}
}

func (p *GroupByExec) Fields() []database.ColumnField {
	var res []database.ColumnField
	for _, ref := range p.GroupColumns {
		res = append(res, database.ColumnField{Name: ref.Name, Type: ref.Type})
	}
	for _, ref := range p.SumColumns {
		res = append(res, database.ColumnField{Name: ref.Name, Type: database.Decimal75})
	}
	res = append(res, database.ColumnField{Name: p.CountAlias, Type: database.BigInt})
	return res
}

func (p *GroupByExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagGroupBy})
	tr.Append("table-ref", []byte(p.Input.Ref))
	for _, ref := range p.GroupColumns {
		tr.Append("group-column", []byte(ref.Name))
	}
	for _, ref := range p.SumColumns {
		tr.Append("sum-column", []byte(ref.Name))
	}
	tr.Append("count-alias", []byte(p.CountAlias))
	p.Where.AppendToTranscript(tr)
}
