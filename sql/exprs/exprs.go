// Package exprs implements provable scalar expressions over table rows.
// Expressions are evaluated three times per query: raw during the first
// round to shape the result, constraint-producing during the final round,
// and claim-consuming during verification.
package exprs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/transcript"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

// ProofExpr is a provable expression. The three evaluation methods must
// agree: the verifier's result is the MLE evaluation of the column the two
// prover passes compute.
type ProofExpr interface {
	// ResultEvaluate computes the expression over the table rows with no
	// proof side effects; the first round uses it to shape the result.
	ResultEvaluate(table *database.Table) ([]fr.Element, error)
	// FinalRoundEvaluate recomputes the expression, registering intermediate
	// columns and constraints as it goes.
	FinalRoundEvaluate(b *proof.FinalRoundBuilder, table *database.Table) ([]fr.Element, error)
	// VerifierEvaluate consumes the expression's claims and returns the
	// claimed evaluation of its column. chiEval is the input length
	// indicator's evaluation.
	VerifierEvaluate(b *proof.VerificationBuilder, chiEval fr.Element) (fr.Element, error)
	// Count declares the expression's proof shape.
	Count(b *proof.CountBuilder) error
	// ColumnRefs lists the anchored columns the expression reads.
	ColumnRefs() []database.ColumnRef
	// OutputType is the SQL type of the expression's column.
	OutputType() database.ColumnType
	// AppendToTranscript absorbs a canonical description of the expression.
	AppendToTranscript(tr *transcript.Transcript)
}

// transcript tags, one per expression kind
const (
	tagColumn byte = iota + 1
	tagLiteral
	tagEquals
	tagAnd
	tagOr
	tagNot
	tagAdd
	tagSubtract
	tagMultiply
)
