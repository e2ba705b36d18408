package plans

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/base/database"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/exprs"
	"github.com/spaceandtimelabs/sxt-proof-of-sql-sub004/sql/proof"
)

const otherTable = database.TableRef("test.u")

func otherARef() database.ColumnRef {
	return database.ColumnRef{Table: otherTable, Name: "a", Type: database.BigInt}
}

func otherBRef() database.ColumnRef {
	return database.ColumnRef{Table: otherTable, Name: "b", Type: database.BigInt}
}

// twoTableAccessor extends the standard fixture with u(a, b): a = [7,8,9],
// b = [6,7,8], committed at the same generator offset.
func twoTableAccessor(t *testing.T) *database.InMemoryAccessor {
	t.Helper()
	accessor := testAccessor(t)
	tbl := database.NewTable(3)
	require.NoError(t, tbl.AddColumn("a", database.NewBigIntColumn([]int64{7, 8, 9})))
	require.NoError(t, tbl.AddColumn("b", database.NewBigIntColumn([]int64{6, 7, 8})))
	require.NoError(t, accessor.AddTable(otherTable, tbl, 0, testScheme(t)))
	return accessor
}

func decimals(vs ...uint64) []fr.Element {
	res := make([]fr.Element, len(vs))
	for i, v := range vs {
		res[i].SetUint64(v)
	}
	return res
}

func TestGroupByExecEndToEnd(t *testing.T) {
	accessor := testAccessor(t)
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	plan := NewGroupByExec(scan, []database.ColumnRef{aRef()}, []database.ColumnRef{bRef()}, "cnt", exprs.NewBooleanLiteral(true))
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(4)
	require.NoError(t, want.AddColumn("a", database.NewBigIntColumn([]int64{1, 2, 4, 5})))
	require.NoError(t, want.AddColumn("b", database.NewDecimal75Column(decimals(1, 4, 2, 8))))
	require.NoError(t, want.AddColumn("cnt", database.NewBigIntColumn([]int64{1, 1, 1, 2})))
	require.True(t, result.Equal(want))
}

func TestGroupByExecWithPredicate(t *testing.T) {
	accessor := testAccessor(t)
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	where := exprs.NewEqualsExpr(exprs.NewColumnExpr(aRef()), exprs.NewBigIntLiteral(5))
	plan := NewGroupByExec(scan, []database.ColumnRef{aRef()}, []database.ColumnRef{bRef()}, "cnt", where)
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(1)
	require.NoError(t, want.AddColumn("a", database.NewBigIntColumn([]int64{5})))
	require.NoError(t, want.AddColumn("b", database.NewDecimal75Column(decimals(8))))
	require.NoError(t, want.AddColumn("cnt", database.NewBigIntColumn([]int64{2})))
	require.True(t, result.Equal(want))
}

func TestGroupByExecRejectsReorderedResult(t *testing.T) {
	accessor := testAccessor(t)
	scan := NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()})
	plan := NewGroupByExec(scan, []database.ColumnRef{aRef()}, []database.ColumnRef{bRef()}, "cnt", exprs.NewBooleanLiteral(true))
	p, _ := proveAndVerify(t, plan, accessor)

	// same multiset of rows, wrong order
	forged := database.NewTable(4)
	require.NoError(t, forged.AddColumn("a", database.NewBigIntColumn([]int64{2, 1, 4, 5})))
	require.NoError(t, forged.AddColumn("b", database.NewDecimal75Column(decimals(4, 1, 2, 8))))
	require.NoError(t, forged.AddColumn("cnt", database.NewBigIntColumn([]int64{1, 1, 1, 2})))
	require.Error(t, p.Verify(plan, accessor, forged))
}

func TestSliceExecEndToEnd(t *testing.T) {
	accessor := testAccessor(t)
	plan := NewSliceExec(selectBWhereAEquals(5), 1, 1)
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(1)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{5})))
	require.True(t, result.Equal(want))
}

func TestSliceExecNoLimit(t *testing.T) {
	accessor := testAccessor(t)
	plan := NewSliceExec(selectBWhereAEquals(5), 1, -1)
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(1)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{5})))
	require.True(t, result.Equal(want))
}

func TestSliceExecWindowClamps(t *testing.T) {
	accessor := testAccessor(t)
	plan := NewSliceExec(selectBWhereAEquals(5), 0, 100)
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(2)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{3, 5})))
	require.True(t, result.Equal(want))
}

func TestUnionExecEndToEnd(t *testing.T) {
	accessor := twoTableAccessor(t)
	plan := NewUnionExec([]ProofPlan{
		NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()}),
		NewTableExec(otherTable, []database.ColumnRef{otherARef(), otherBRef()}),
	})
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(8)
	require.NoError(t, want.AddColumn("a", database.NewBigIntColumn([]int64{1, 4, 5, 2, 5, 7, 8, 9})))
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{1, 2, 3, 4, 5, 6, 7, 8})))
	require.True(t, result.Equal(want))
}

func TestUnionExecOverFilters(t *testing.T) {
	accessor := testAccessor(t)
	plan := NewUnionExec([]ProofPlan{
		selectBWhereAEquals(5),
		selectBWhereAEquals(1),
	})
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(3)
	require.NoError(t, want.AddColumn("b", database.NewBigIntColumn([]int64{3, 5, 1})))
	require.True(t, result.Equal(want))
}

func TestUnionExecRejectsMismatchedSchemas(t *testing.T) {
	accessor := twoTableAccessor(t)
	plan := NewUnionExec([]ProofPlan{
		NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()}),
		NewTableExec(otherTable, []database.ColumnRef{otherARef()}),
	})
	_, _, err := proof.New(plan, accessor, testScheme(t))
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMixedOffsetsRejected(t *testing.T) {
	accessor := testAccessor(t)
	tbl := database.NewTable(2)
	require.NoError(t, tbl.AddColumn("a", database.NewBigIntColumn([]int64{1, 2})))
	require.NoError(t, tbl.AddColumn("b", database.NewBigIntColumn([]int64{3, 4})))
	shifted := database.TableRef("test.w")
	require.NoError(t, accessor.AddTable(shifted, tbl, 8, testScheme(t)))

	plan := NewUnionExec([]ProofPlan{
		NewTableExec(testTable, []database.ColumnRef{aRef(), bRef()}),
		NewTableExec(shifted, []database.ColumnRef{
			{Table: shifted, Name: "a", Type: database.BigInt},
			{Table: shifted, Name: "b", Type: database.BigInt},
		}),
	})
	_, _, err := proof.New(plan, accessor, testScheme(t))
	require.ErrorIs(t, err, proof.ErrMixedOffsets)
}

func TestShiftExecEndToEnd(t *testing.T) {
	accessor := testAccessor(t)
	plan := NewShiftExec(aRef(), "shifted")
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(6)
	require.NoError(t, want.AddColumn("shifted", database.NewDecimal75Column(decimals(0, 1, 4, 5, 2, 5))))
	require.True(t, result.Equal(want))
}

func TestRangeCheckExecEndToEnd(t *testing.T) {
	accessor := testAccessor(t)
	plan := NewRangeCheckExec(aRef())
	_, result := proveAndVerify(t, plan, accessor)

	want := database.NewTable(5)
	require.NoError(t, want.AddColumn("a", database.NewBigIntColumn([]int64{1, 4, 5, 2, 5})))
	require.True(t, result.Equal(want))
}

func TestRangeCheckExecRejectsOutOfRange(t *testing.T) {
	// a negative value maps to a huge field element, outside 248 bits
	accessor := database.NewInMemoryAccessor()
	tbl := database.NewTable(2)
	require.NoError(t, tbl.AddColumn("a", database.NewBigIntColumn([]int64{1, -1})))
	require.NoError(t, accessor.AddTable(testTable, tbl, 0, testScheme(t)))

	plan := NewRangeCheckExec(aRef())
	_, _, err := proof.New(plan, accessor, testScheme(t))
	require.Error(t, err)
}
