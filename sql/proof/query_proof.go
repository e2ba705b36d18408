package proof

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/commitment"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/polynomial"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/words"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/logger"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sumcheck"
)

const transcriptLabel = "proof-of-sql-query"

// QueryProof proves that a result table is the correct output of a plan over
// committed tables. Everything the verifier cannot derive is carried here.
type QueryProof struct {
	FirstRoundCommitments []commitment.Commitment
	FinalRoundCommitments []commitment.Commitment
	ChiEvaluationLengths  []int
	RhoEvaluationLengths  []int
	RangeLength           int
	BitDistributions      []words.Distribution
	Sumcheck              *sumcheck.Proof
	PCSProofEvaluations   []fr.Element
	EvaluationProof       commitment.EvaluationProof
}

// planShape resolves the tables a plan touches: the longest row count and the
// single generator offset they share.
func planShape(tableRefs []database.TableRef, accessor database.MetadataAccessor) (maxLength, offset int, err error) {
	maxLength = 1
	for i, ref := range tableRefs {
		if n := accessor.GetLength(ref); n > maxLength {
			maxLength = n
		}
		o := accessor.GetOffset(ref)
		if i == 0 {
			offset = o
		} else if o != offset {
			return 0, 0, fmt.Errorf("%w: %q at %d, %q at %d", ErrMixedOffsets, tableRefs[0], offset, ref, o)
		}
	}
	return maxLength, offset, nil
}

// appendTableToTranscript absorbs a result table: schema first, then column
// data in canonical scalar form.
func appendTableToTranscript(tr *transcript.Transcript, t *database.Table) {
	tr.AppendUint64("table-num-rows", uint64(t.NumRows()))
	for _, f := range t.Fields() {
		tr.Append("column-name", []byte(f.Name))
		tr.AppendUint64("column-type", uint64(f.Type))
	}
	for i := 0; i < t.NumColumns(); i++ {
		tr.AppendScalars("column-data", t.ColumnAt(i).Scalars())
	}
}

// replayPublicInputs absorbs everything both sides know before the
// post-result challenges: the plan, the table metadata, the revealed result,
// and the proof's first-round messages.
func replayPublicInputs(
	tr *transcript.Transcript,
	plan ProofPlan,
	tableRefs []database.TableRef,
	accessor database.MetadataAccessor,
	offset int,
	result *database.Table,
	rangeLength int,
	chiLengths, rhoLengths []int,
	bitDistributions []words.Distribution,
	firstRoundCommitments []commitment.Commitment,
) {
	plan.AppendToTranscript(tr)
	for _, ref := range tableRefs {
		tr.Append("table-ref", []byte(ref))
		tr.AppendUint64("table-length", uint64(accessor.GetLength(ref)))
		tr.AppendUint64("table-offset", uint64(offset))
	}
	appendTableToTranscript(tr, result)
	tr.AppendUint64("range-length", uint64(rangeLength))
	lengths := make([]uint64, len(chiLengths))
	for i, n := range chiLengths {
		lengths[i] = uint64(n)
	}
	tr.AppendUint64s("chi-evaluation-lengths", lengths)
	lengths = make([]uint64, len(rhoLengths))
	for i, n := range rhoLengths {
		lengths[i] = uint64(n)
	}
	tr.AppendUint64s("rho-evaluation-lengths", lengths)
	for i := range bitDistributions {
		tr.Append("bit-distribution", bitDistributions[i].Bytes())
	}
	for _, c := range firstRoundCommitments {
		tr.Append("first-round-commitment", c.Bytes())
	}
}

// numSumcheckVariables returns the hypercube dimension covering rangeLength
// rows; the protocol needs at least one round.
func numSumcheckVariables(rangeLength int) int {
	v := polynomial.Log2Up(rangeLength)
	if v < 1 {
		v = 1
	}
	return v
}

// New proves a plan over the accessor's data and returns the proof together
// with the result table the verifier should be handed.
func New(plan ProofPlan, accessor database.DataAccessor, scheme commitment.Scheme) (*QueryProof, *database.Table, error) {
	log := logger.Logger()

	tableRefs := plan.TableRefs()
	maxLength, offset, err := planShape(tableRefs, accessor)
	if err != nil {
		return nil, nil, err
	}

	// First round: compute the result and the result-shape proof elements.
	firstRound := NewFirstRoundBuilder(maxLength)
	result, err := plan.FirstRoundEvaluate(firstRound, accessor)
	if err != nil {
		return nil, nil, err
	}
	rangeLength := firstRound.RangeLength()
	numVars := numSumcheckVariables(rangeLength)
	log.Debug().
		Int("rangeLength", rangeLength).
		Int("numVars", numVars).
		Int("resultRows", result.NumRows()).
		Msg("first round evaluated")

	firstRoundCommitments, err := scheme.Commit(firstRound.MLEs(), uint64(offset))
	if err != nil {
		return nil, nil, err
	}

	tr := transcript.New(transcriptLabel)
	replayPublicInputs(tr, plan, tableRefs, accessor, offset, result, rangeLength,
		firstRound.ChiEvaluationLengths(), firstRound.RhoEvaluationLengths(),
		firstRound.BitDistributions(), firstRoundCommitments)
	postResultChallenges := tr.ChallengeScalars("post-result-challenge", firstRound.NumPostResultChallenges())

	// Final round: challenge-dependent columns and constraints.
	finalRound := NewFinalRoundBuilder(numVars, postResultChallenges)
	if _, err := plan.FinalRoundEvaluate(finalRound, accessor); err != nil {
		return nil, nil, err
	}
	finalRoundCommitments, err := scheme.Commit(finalRound.MLEs(), uint64(offset))
	if err != nil {
		return nil, nil, err
	}
	for _, c := range finalRoundCommitments {
		tr.Append("final-round-commitment", c.Bytes())
	}
	tr.AppendUint64("num-sumcheck-variables", uint64(numVars))

	// Batch the constraints and run sumcheck.
	entrywisePoint := tr.ChallengeScalars("entrywise-point", numVars)
	multipliers := tr.ChallengeScalars("subpolynomial-multiplier", len(finalRound.Subpolynomials()))
	entrywiseVector := make([]fr.Element, rangeLength)
	polynomial.ComputeEvaluationVector(entrywiseVector, entrywisePoint)
	state, err := makeSumcheckProverState(finalRound.Subpolynomials(), entrywiseVector, multipliers, numVars)
	if err != nil {
		return nil, nil, err
	}
	sumcheckProof, evaluationPoint := sumcheck.Prove(tr, state)

	// Open every committed or anchored column at the sumcheck point.
	evaluationVec := make([]fr.Element, rangeLength)
	polynomial.ComputeEvaluationVector(evaluationVec, evaluationPoint)
	columnRefs := plan.ColumnRefs()
	pcsColumns := make([][]fr.Element, 0, len(columnRefs)+len(firstRound.MLEs())+len(finalRound.MLEs()))
	for _, ref := range columnRefs {
		col, err := accessor.GetColumn(ref)
		if err != nil {
			return nil, nil, err
		}
		pcsColumns = append(pcsColumns, col.Scalars())
	}
	pcsColumns = append(pcsColumns, firstRound.MLEs()...)
	pcsColumns = append(pcsColumns, finalRound.MLEs()...)
	pcsEvaluations := make([]fr.Element, len(pcsColumns))
	for i, col := range pcsColumns {
		pcsEvaluations[i] = polynomial.InnerProduct(col, evaluationVec)
	}
	tr.AppendScalars("pcs-evaluations", pcsEvaluations)

	// Fold everything into one column and prove its evaluation.
	batching := tr.ChallengeScalars("pcs-batching", len(pcsColumns))
	folded := make([]fr.Element, rangeLength)
	for i, col := range pcsColumns {
		polynomial.MulAdd(folded, col, &batching[i])
	}
	evaluationProof, err := scheme.ProveEvaluation(tr, folded, evaluationPoint, uint64(offset))
	if err != nil {
		return nil, nil, err
	}

	proof := &QueryProof{
		FirstRoundCommitments: firstRoundCommitments,
		FinalRoundCommitments: finalRoundCommitments,
		ChiEvaluationLengths:  firstRound.ChiEvaluationLengths(),
		RhoEvaluationLengths:  firstRound.RhoEvaluationLengths(),
		RangeLength:           rangeLength,
		BitDistributions:      firstRound.BitDistributions(),
		Sumcheck:              sumcheckProof,
		PCSProofEvaluations:   pcsEvaluations,
		EvaluationProof:       evaluationProof,
	}
	log.Debug().
		Int("firstRoundCommitments", len(firstRoundCommitments)).
		Int("finalRoundCommitments", len(finalRoundCommitments)).
		Int("subpolynomials", len(finalRound.Subpolynomials())).
		Msg("query proof created")
	return proof, result, nil
}

// Verify checks the proof against the plan, the commitment accessor's view of
// the data, and the revealed result table.
func (p *QueryProof) Verify(plan ProofPlan, accessor database.CommitmentAccessor, result *database.Table) error {
	log := logger.Logger()

	tableRefs := plan.TableRefs()
	maxLength, offset, err := planShape(tableRefs, accessor)
	if err != nil {
		return err
	}

	// Dry-run the plan to learn the proof shape it demands.
	countBuilder := NewCountBuilder(p.BitDistributions)
	if err := plan.Count(countBuilder); err != nil {
		return err
	}
	if countBuilder.remainingBitDistributions() > 0 {
		return fmt.Errorf("%w: %d extra bit distributions", ErrCountMismatch, countBuilder.remainingBitDistributions())
	}
	counts := countBuilder.Counts()
	columnRefs := plan.ColumnRefs()
	switch {
	case len(p.FirstRoundCommitments) != counts.FirstRoundMLEs:
		return fmt.Errorf("%w: %d first-round commitments, plan needs %d", ErrCountMismatch, len(p.FirstRoundCommitments), counts.FirstRoundMLEs)
	case len(p.FinalRoundCommitments) != counts.FinalRoundMLEs:
		return fmt.Errorf("%w: %d final-round commitments, plan needs %d", ErrCountMismatch, len(p.FinalRoundCommitments), counts.FinalRoundMLEs)
	case len(p.ChiEvaluationLengths) != counts.ChiEvaluations:
		return fmt.Errorf("%w: %d chi lengths, plan needs %d", ErrCountMismatch, len(p.ChiEvaluationLengths), counts.ChiEvaluations)
	case len(p.RhoEvaluationLengths) != counts.RhoEvaluations:
		return fmt.Errorf("%w: %d rho lengths, plan needs %d", ErrCountMismatch, len(p.RhoEvaluationLengths), counts.RhoEvaluations)
	case len(p.PCSProofEvaluations) != len(columnRefs)+counts.FirstRoundMLEs+counts.FinalRoundMLEs:
		return fmt.Errorf("%w: %d claimed evaluations, plan needs %d", ErrCountMismatch, len(p.PCSProofEvaluations), len(columnRefs)+counts.FirstRoundMLEs+counts.FinalRoundMLEs)
	case p.Sumcheck == nil || p.EvaluationProof == nil || result == nil:
		return fmt.Errorf("%w: missing proof component", ErrInvalidProof)
	}

	// The sumcheck range must cover the inputs and every claimed length.
	rangeLength := p.RangeLength
	if rangeLength < maxLength {
		return fmt.Errorf("%w: range length %d shorter than table length %d", ErrInvalidProof, rangeLength, maxLength)
	}
	for _, n := range p.ChiEvaluationLengths {
		if n < 0 || n > rangeLength {
			return fmt.Errorf("%w: chi length %d outside range %d", ErrInvalidProof, n, rangeLength)
		}
	}
	for _, n := range p.RhoEvaluationLengths {
		if n < 0 || n > rangeLength {
			return fmt.Errorf("%w: rho length %d outside range %d", ErrInvalidProof, n, rangeLength)
		}
	}
	numVars := numSumcheckVariables(rangeLength)

	tr := transcript.New(transcriptLabel)
	replayPublicInputs(tr, plan, tableRefs, accessor, offset, result, rangeLength,
		p.ChiEvaluationLengths, p.RhoEvaluationLengths, p.BitDistributions, p.FirstRoundCommitments)
	postResultChallenges := tr.ChallengeScalars("post-result-challenge", counts.PostResultChallenges)

	for _, c := range p.FinalRoundCommitments {
		tr.Append("final-round-commitment", c.Bytes())
	}
	tr.AppendUint64("num-sumcheck-variables", uint64(numVars))
	entrywisePoint := tr.ChallengeScalars("entrywise-point", numVars)
	multipliers := tr.ChallengeScalars("subpolynomial-multiplier", counts.Subpolynomials)

	var zero fr.Element
	subclaim, err := sumcheck.VerifyWithoutEvaluation(tr, p.Sumcheck, zero, numVars, counts.SumcheckDegree)
	if err != nil {
		return err
	}
	entrywiseEval := polynomial.TruncatedLagrangeBasisInnerProduct(rangeLength, entrywisePoint, subclaim.EvaluationPoint)

	// Hand the claimed evaluations to the plan in the prover's order.
	columnEvaluations := make(map[database.ColumnRef]fr.Element, len(columnRefs))
	for i, ref := range columnRefs {
		columnEvaluations[ref] = p.PCSProofEvaluations[i]
	}
	firstRoundEvaluations := p.PCSProofEvaluations[len(columnRefs) : len(columnRefs)+counts.FirstRoundMLEs]
	finalRoundEvaluations := p.PCSProofEvaluations[len(columnRefs)+counts.FirstRoundMLEs:]
	vb := NewVerificationBuilder(
		subclaim.EvaluationPoint, rangeLength, columnEvaluations,
		firstRoundEvaluations, finalRoundEvaluations,
		p.ChiEvaluationLengths, p.RhoEvaluationLengths,
		postResultChallenges, p.BitDistributions,
		multipliers, entrywiseEval,
	)
	tableEvaluation, err := plan.VerifierEvaluate(vb, accessor, result)
	if err != nil {
		return err
	}
	if err := vb.AssertConsumed(); err != nil {
		return err
	}
	sumcheckEvaluation := vb.SumcheckEvaluation()
	if !sumcheckEvaluation.Equal(&subclaim.ExpectedEvaluation) {
		return fmt.Errorf("%w: folded constraint evaluation does not match sumcheck subclaim", ErrInvalidProof)
	}

	// The revealed result must realize the proven output evaluations.
	if tableEvaluation.Length != result.NumRows() {
		return fmt.Errorf("%w: proven output has %d rows, result has %d", ErrResultMismatch, tableEvaluation.Length, result.NumRows())
	}
	fields := plan.Fields()
	resultFields := result.Fields()
	if len(fields) != len(resultFields) || len(fields) != len(tableEvaluation.ColumnEvaluations) {
		return fmt.Errorf("%w: schema shape mismatch", ErrResultMismatch)
	}
	for i := range fields {
		if fields[i] != resultFields[i] {
			return fmt.Errorf("%w: field %d is %v, plan yields %v", ErrResultMismatch, i, resultFields[i], fields[i])
		}
	}
	resultEvaluations := result.MLEEvaluations(subclaim.EvaluationPoint)
	for i := range resultEvaluations {
		if !resultEvaluations[i].Equal(&tableEvaluation.ColumnEvaluations[i]) {
			return fmt.Errorf("%w: column %d evaluation mismatch", ErrResultMismatch, i)
		}
	}

	// Batched PCS check discharges every claimed evaluation at once.
	tr.AppendScalars("pcs-evaluations", p.PCSProofEvaluations)
	batching := tr.ChallengeScalars("pcs-batching", len(p.PCSProofEvaluations))
	commitments := make([]commitment.Commitment, 0, len(p.PCSProofEvaluations))
	for _, ref := range columnRefs {
		c, err := accessor.GetCommitment(ref)
		if err != nil {
			return err
		}
		commitments = append(commitments, c)
	}
	commitments = append(commitments, p.FirstRoundCommitments...)
	commitments = append(commitments, p.FinalRoundCommitments...)
	var foldedClaim, t fr.Element
	for i := range batching {
		t.Mul(&batching[i], &p.PCSProofEvaluations[i])
		foldedClaim.Add(&foldedClaim, &t)
	}
	if err := p.EvaluationProof.VerifyBatched(tr, commitments, batching, &foldedClaim,
		subclaim.EvaluationPoint, uint64(offset), rangeLength); err != nil {
		return err
	}
	log.Debug().Int("rangeLength", rangeLength).Msg("query proof verified")
	return nil
}
