package plans

import (
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/commitment/pedersen"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/exprs"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

const testTable = database.TableRef("test.t")

var (
	schemeOnce sync.Once
	scheme     *pedersen.Scheme
	schemeErr  error
)

// testScheme derives one shared setup; the range check needs 256 generators,
// so 512 covers every test comfortably.
func testScheme(t *testing.T) *pedersen.Scheme {
	t.Helper()
	schemeOnce.Do(func() { scheme, schemeErr = pedersen.NewScheme(512) })
	require.NoError(t, schemeErr)
	return scheme
}

func aRef() database.ColumnRef {
	return database.ColumnRef{Table: testTable, Name: "a", Type: database.BigInt}
}

func bRef() database.ColumnRef {
	return database.ColumnRef{Table: testTable, Name: "b", Type: database.BigInt}
}

// testAccessor loads the standard fixture: t(a, b) with a = [1,4,5,2,5] and
// b = [1,2,3,4,5].
func testAccessor(t *testing.T) *database.InMemoryAccessor {
	t.Helper()
	accessor := database.NewInMemoryAccessor()
	tbl := database.NewTable(5)
	require.NoError(t, tbl.AddColumn("a", database.NewBigIntColumn([]int64{1, 4, 5, 2, 5})))
	require.NoError(t, tbl.AddColumn("b", database.NewBigIntColumn([]int64{1, 2, 3, 4, 5})))
	require.NoError(t, accessor.AddTable(testTable, tbl, 0, testScheme(t)))
	return accessor
}

// proveAndVerify runs the full protocol both ways and hands back the pieces
// for tamper tests.
func proveAndVerify(t *testing.T, plan ProofPlan, accessor *database.InMemoryAccessor) (*proof.QueryProof, *database.Table) {
	t.Helper()
	p, result, err := proof.New(plan, accessor, testScheme(t))
	require.NoError(t, err)
	require.NoError(t, p.Verify(plan, accessor, result))
	return p, result
}

func selectBWhereAEquals(v int64) *FilterExec {
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	where := exprs.NewEqualsExpr(exprs.NewColumnExpr(aRef()), exprs.NewBigIntLiteral(v))
	return NewFilterExec(scan, where, []AliasedExpr{
		{Expr: exprs.NewColumnExpr(bRef()), Alias: "b"},
	})
}

func TestFilterExecEndToEnd(t *testing.T) {
	accessor := testAccessor(t)
	_, result := proveAndVerify(t, selectBWhereAEquals(5), accessor)

	want := database.NewTable(2)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{3, 5})))
	require.True(t, result.Equal(want))
}

func TestFilterExecSingleMatch(t *testing.T) {
	accessor := testAccessor(t)
	_, result := proveAndVerify(t, selectBWhereAEquals(4), accessor)

	want := database.NewTable(1)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{2})))
	require.True(t, result.Equal(want))
}

func TestFilterExecLogicalPredicates(t *testing.T) {
	accessor := testAccessor(t)
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	// (a = 5 OR a = 1) AND NOT b = 3
	where := exprs.NewAndExpr(
		exprs.NewOrExpr(
			exprs.NewEqualsExpr(exprs.NewColumnExpr(aRef()), exprs.NewBigIntLiteral(5)),
			exprs.NewEqualsExpr(exprs.NewColumnExpr(aRef()), exprs.NewBigIntLiteral(1)),
		),
		exprs.NewNotExpr(exprs.NewEqualsExpr(exprs.NewColumnExpr(bRef()), exprs.NewBigIntLiteral(3))),
	)
	plan := NewFilterExec(scan, where, []AliasedExpr{
		{Expr: exprs.NewColumnExpr(bRef()), Alias: "b"},
	})
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(2)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{1, 5})))
	require.True(t, result.Equal(want))
}

func TestProjectionExecEndToEnd(t *testing.T) {
	accessor := testAccessor(t)
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	plan := NewProjectionExec(scan, []AliasedExpr{
		{Expr: exprs.NewAddExpr(exprs.NewColumnExpr(aRef()), exprs.NewColumnExpr(bRef())), Alias: "s"},
		{Expr: exprs.NewMultiplyExpr(exprs.NewColumnExpr(aRef()), exprs.NewColumnExpr(bRef())), Alias: "p"},
		{Expr: exprs.NewColumnExpr(bRef()), Alias: "b"},
	})
	_, result := proveAndVerify(t, plan, accessor)

	sums := make([]fr.Element, 5)
	prods := make([]fr.Element, 5)
	a := []uint64{1, 4, 5, 2, 5}
	b := []uint64{1, 2, 3, 4, 5}
	for i := range a {
		sums[i].SetUint64(a[i] + b[i])
		prods[i].SetUint64(a[i] * b[i])
	}
	want := database.NewTable(5)
	require.NoError(t, want.AddColumn("s", database.NewDecimal75Column(sums)))
	require.NoError(t, want.AddColumn("p", database.NewDecimal75Column(prods)))
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{1, 2, 3, 4, 5})))
	require.True(t, result.Equal(want))
}

func TestProjectionExecSubtract(t *testing.T) {
	accessor := testAccessor(t)
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	plan := NewProjectionExec(scan, []AliasedExpr{
		{Expr: exprs.NewSubtractExpr(exprs.NewColumnExpr(aRef()), exprs.NewColumnExpr(bRef())), Alias: "d"},
	})
	_, result := proveAndVerify(t, plan, accessor)

	diffs := make([]fr.Element, 5)
	a := []int64{1, 4, 5, 2, 5}
	b := []int64{1, 2, 3, 4, 5}
	for i := range a {
		diffs[i].SetInt64(a[i] - b[i])
	}
	want := database.NewTable(5)
	require.NoError(t, want.AddColumn("d", database.NewDecimal75Column(diffs)))
	require.True(t, result.Equal(want))
}

func TestVerifyRejectsTamperedResult(t *testing.T) {
	accessor := testAccessor(t)
	plan := selectBWhereAEquals(5)
	p, _ := proveAndVerify(t, plan, accessor)

	forged := database.NewTable(2)
	require.NoError(t, forged.AddColumn("b", database.NewBigIntColumn([]int64{3, 6})))
	require.Error(t, p.Verify(plan, accessor, forged))
}

func TestVerifyRejectsTamperedCommitment(t *testing.T) {
	accessor := testAccessor(t)
	plan := selectBWhereAEquals(5)
	p, result := proveAndVerify(t, plan, accessor)

	forged := make([]fr.Element, 5)
	for i := range forged {
		forged[i].SetUint64(uint64(i + 100))
	}
	cs, err := testScheme(t).Commit([][]fr.Element{forged}, 0)
	require.NoError(t, err)
	accessor.SetCommitment(aRef(), cs[0])
	require.Error(t, p.Verify(plan, accessor, result))
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	accessor := testAccessor(t)
	plan := selectBWhereAEquals(5)

	var one fr.Element
	one.SetOne()

	t.Run("claimed evaluation", func(t *testing.T) {
		p, result := proveAndVerify(t, plan, accessor)
		p.PCSProofEvaluations[0].Add(&p.PCSProofEvaluations[0], &one)
		require.Error(t, p.Verify(plan, accessor, result))
	})

	t.Run("sumcheck round", func(t *testing.T) {
		p, result := proveAndVerify(t, plan, accessor)
		p.Sumcheck.RoundEvaluations[0][0].Add(&p.Sumcheck.RoundEvaluations[0][0], &one)
		require.Error(t, p.Verify(plan, accessor, result))
	})

	t.Run("missing commitment", func(t *testing.T) {
		p, result := proveAndVerify(t, plan, accessor)
		p.FirstRoundCommitments = p.FirstRoundCommitments[:len(p.FirstRoundCommitments)-1]
		require.ErrorIs(t, p.Verify(plan, accessor, result), proof.ErrCountMismatch)
	})

	t.Run("swapped commitments", func(t *testing.T) {
		p, result := proveAndVerify(t, plan, accessor)
		p.FinalRoundCommitments[0], p.FinalRoundCommitments[1] = p.FinalRoundCommitments[1], p.FinalRoundCommitments[0]
		require.Error(t, p.Verify(plan, accessor, result))
	})

	t.Run("shrunk range", func(t *testing.T) {
		p, result := proveAndVerify(t, plan, accessor)
		p.RangeLength = 1
		require.Error(t, p.Verify(plan, accessor, result))
	})
}

func TestVerifyRejectsWrongPlan(t *testing.T) {
	accessor := testAccessor(t)
	p, result := proveAndVerify(t, selectBWhereAEquals(5), accessor)

	// same shape, different predicate: the transcript diverges
	require.Error(t, p.Verify(selectBWhereAEquals(4), accessor, result))
}

func TestProofIsDeterministic(t *testing.T) {
	accessor := testAccessor(t)
	plan := selectBWhereAEquals(5)

	p1, _, err := proof.New(plan, accessor, testScheme(t))
	require.NoError(t, err)
	p2, _, err := proof.New(plan, accessor, testScheme(t))
	require.NoError(t, err)

	b1, err := p1.Bytes()
	require.NoError(t, err)
	b2, err := p2.Bytes()
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestQueryProofSerializationRoundTrip(t *testing.T) {
	accessor := testAccessor(t)
	plan := selectBWhereAEquals(5)
	p, result := proveAndVerify(t, plan, accessor)

	data, err := p.Bytes()
	require.NoError(t, err)
	decoded, err := proof.QueryProofFromBytes(data, testScheme(t))
	require.NoError(t, err)
	require.NoError(t, decoded.Verify(plan, accessor, result))

	_, err = proof.QueryProofFromBytes([]byte{0xff, 0x00}, testScheme(t))
	require.Error(t, err)
}

func TestVerifiableQueryResultRoundTrip(t *testing.T) {
	accessor := testAccessor(t)
	plan := selectBWhereAEquals(5)

	bundle, err := proof.NewVerifiableQueryResult(plan, accessor, testScheme(t))
	require.NoError(t, err)
	data, err := bundle.Bytes()
	require.NoError(t, err)

	decoded, err := proof.VerifiableQueryResultFromBytes(data, testScheme(t))
	require.NoError(t, err)
	result, err := decoded.Verify(plan, accessor)
	require.NoError(t, err)

	want := database.NewTable(2)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{3, 5})))
	require.True(t, result.Equal(want))

	// a tampered bundle must not verify
	forged := database.NewTable(2)
	require.NoError(t, forged.AddColumn("b", database.NewBigIntColumn([]int64{3, 6})))
	decoded.Result = forged
	_, err = decoded.Verify(plan, accessor)
	require.Error(t, err)
}
