package plans

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/gadgets"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// SliceExec implements OFFSET/LIMIT over a child plan: it keeps rows
// [skip, skip+fetch) of the child's output. The window is expressed as the
// difference of two row-index indicators and discharged with the filter
// gadget.
type SliceExec struct {
	Input ProofPlan
	Skip  int
	// Fetch < 0 means no limit.
	Fetch int
}

// ProofPlan re-exports the plan interface so nested operators read naturally
// at call sites.
type ProofPlan = proof.ProofPlan

// NewSliceExec builds a slice; fetch < 0 keeps everything past skip.
func NewSliceExec(input ProofPlan, skip, fetch int) *SliceExec {
	return &SliceExec{Input: input, Skip: skip, Fetch: fetch}
}

// window clamps the slice bounds to the child's length.
func (p *SliceExec) window(n int) (lo, hi int) {
	lo = p.Skip
	if lo > n {
		lo = n
	}
	if p.Fetch < 0 {
		return lo, n
	}
	hi = p.Skip + p.Fetch
	if hi > n {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func (p *SliceExec) slice(child *database.Table) (*database.Table, error) {
	lo, hi := p.window(child.NumRows())
	indices := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		indices = append(indices, i)
	}
	out := database.NewTable(len(indices))
	for i, name := range child.Names() {
		if err := out.AddColumn(name, child.ColumnAt(i).Gather(indices)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *SliceExec) FirstRoundEvaluate(b *proof.FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	child, err := p.Input.FirstRoundEvaluate(b, accessor)
	if err != nil {
		return nil, err
	}
	out, err := p.slice(child)
	if err != nil {
		return nil, err
	}
	lo, hi := p.window(child.NumRows())
	for _, col := range columnScalars(out) {
		b.ProduceIntermediateMLE(col)
	}
	b.ProduceChiEvaluationLength(out.NumRows())
	b.ProduceChiEvaluationLength(lo)
	b.ProduceChiEvaluationLength(hi)
	b.RequestPostResultChallenges(gadgets.FilterPostResultChallenges)
	return out, nil
}

func (p *SliceExec) FinalRoundEvaluate(b *proof.FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error) {
	child, err := p.Input.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, err
	}
	out, err := p.slice(child)
	if err != nil {
		return nil, err
	}
	n := child.NumRows()
	lo, hi := p.window(n)

	// selection = chi_hi - chi_lo picks out exactly the window
	selection := make([]fr.Element, n)
	for i := lo; i < hi; i++ {
		selection[i].SetOne()
	}
	gadgets.ProverFilter(b, columnScalars(child), selection, columnScalars(out), n, out.NumRows())
	return out, nil
}

func (p *SliceExec) VerifierEvaluate(b *proof.VerificationBuilder, accessor database.CommitmentAccessor, _ *database.Table) (proof.TableEvaluation, error) {
	childEval, err := p.Input.VerifierEvaluate(b, accessor, nil)
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	n := childEval.Length
	lo, hi := p.window(n)

	outputEvals, err := b.ConsumeFirstRoundMLEEvaluations(len(childEval.ColumnEvaluations))
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	chiM, m, err := b.ConsumeChiEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	chiLo, gotLo, err := b.ConsumeChiEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	chiHi, gotHi, err := b.ConsumeChiEvaluation()
	if err != nil {
		return proof.TableEvaluation{}, err
	}
	// the window lengths are derivable, so claimed lengths must match
	if gotLo != lo || gotHi != hi || m != hi-lo {
		return proof.TableEvaluation{}, fmt.Errorf("%w: slice window lengths %d/%d/%d, want %d/%d/%d",
			proof.ErrInvalidProof, gotLo, gotHi, m, lo, hi, hi-lo)
	}

	var selectionEval fr.Element
	selectionEval.Sub(&chiHi, &chiLo)
	if err := gadgets.VerifierFilter(b, childEval.ColumnEvaluations, selectionEval, outputEvals,
		childEval.ChiEvaluation, chiM); err != nil {
		return proof.TableEvaluation{}, err
	}
	return proof.TableEvaluation{ColumnEvaluations: outputEvals, ChiEvaluation: chiM, Length: m}, nil
}

func (p *SliceExec) Count(b *proof.CountBuilder) error {
	if err := p.Input.Count(b); err != nil {
		return err
	}
	b.CountFirstRoundMLEs(len(p.Input.Fields()))
	b.CountChiEvaluations(3)
	gadgets.CountFilter(b)
	return nil
}

func (p *SliceExec) ColumnRefs() []database.ColumnRef { return p.Input.ColumnRefs() }

func (p *SliceExec) TableRefs() []database.TableRef { return p.Input.TableRefs() }

func (p *SliceExec) Fields() []database.ColumnField { return p.Input.Fields() }

func (p *SliceExec) AppendToTranscript(tr *transcript.Transcript) {
	tr.Append("plan-tag", []byte{tagSlice})
	tr.AppendUint64("slice-skip", uint64(p.Skip))
	tr.AppendUint64("slice-fetch", uint64(int64(p.Fetch)))
	p.Input.AppendToTranscript(tr)
}
