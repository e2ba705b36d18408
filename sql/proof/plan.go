package proof

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
)

// TableEvaluation is the verifier-side image of a plan node's output: one
// claimed MLE evaluation per output column, plus the chi evaluation and
// length of the output shape.
type TableEvaluation struct {
	ColumnEvaluations []fr.Element
	ChiEvaluation     fr.Element
	Length            int
}

// ProofPlan is a provable query operator. The prover walks it twice — once
// before and once after the post-result challenges — and the verifier walks
// it a third time, consuming claimed evaluations in the same order the
// prover produced them.
type ProofPlan interface {
	// FirstRoundEvaluate computes the node's output table and registers the
	// result-shape proof elements.
	FirstRoundEvaluate(b *FirstRoundBuilder, accessor database.DataAccessor) (*database.Table, error)
	// FinalRoundEvaluate recomputes the output and registers the
	// challenge-dependent columns and sumcheck constraints.
	FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Table, error)
	// VerifierEvaluate consumes the node's proof elements and returns the
	// claimed output evaluation. result is the revealed result table; only
	// nodes that check revealed data (such as group-by key ordering) look at
	// it.
	VerifierEvaluate(b *VerificationBuilder, accessor database.CommitmentAccessor, result *database.Table) (TableEvaluation, error)
	// Count declares the node's proof shape.
	Count(b *CountBuilder) error
	// ColumnRefs lists the anchored columns the node reads, deduplicated, in
	// a deterministic traversal order shared by prover and verifier.
	ColumnRefs() []database.ColumnRef
	// TableRefs lists the tables the node reads.
	TableRefs() []database.TableRef
	// Fields describes the output schema.
	Fields() []database.ColumnField
	// AppendToTranscript absorbs a canonical description of the node, so the
	// challenges bind the query being proven.
	AppendToTranscript(tr *transcript.Transcript)
}

// DedupColumnRefs removes duplicates preserving first occurrence; plan nodes
// use it when merging child reference lists.
func DedupColumnRefs(refs []database.ColumnRef) []database.ColumnRef {
	seen := make(map[database.ColumnRef]struct{}, len(refs))
	res := make([]database.ColumnRef, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		res = append(res, r)
	}
	return res
}

// DedupTableRefs removes duplicates preserving first occurrence.
func DedupTableRefs(refs []database.TableRef) []database.TableRef {
	seen := make(map[database.TableRef]struct{}, len(refs))
	res := make([]database.TableRef, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		res = append(res, r)
	}
	return res
}
