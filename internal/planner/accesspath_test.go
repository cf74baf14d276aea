package planner_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/plan"
	"github.com/elka-projekt/cs-voltdb/internal/planner"
	"github.com/elka-projekt/cs-voltdb/internal/statement"
	"github.com/elka-projekt/cs-voltdb/internal/types"
)

func col(table, name string, idx int, tp types.Type) *expr.TupleValue {
	return &expr.TupleValue{Table: table, ColumnIndex: idx, ColumnName: name, Tp: tp}
}

func integer(x int32) *expr.Constant {
	return &expr.Constant{Value: types.NewIntegerValue(x)}
}

func text(s string) *expr.Constant {
	return &expr.Constant{Value: types.NewTextValue(s)}
}

func prefix(s string) *expr.Constant {
	return &expr.Constant{Value: types.NewTextValue(s), PrefixPattern: true}
}

// testTable returns t1(a integer, b integer, doc text) with no indexes.
func testTable(t *testing.T) *catalog.Table {
	t.Helper()

	tbl := catalog.Table{
		Name: "t1",
		Columns: []*catalog.Column{
			{Name: "a", Type: types.TypeInteger},
			{Name: "b", Type: types.TypeInteger},
			{Name: "doc", Type: types.TypeText},
		},
		Indexes: make(map[string]*catalog.Index),
	}
	for i, c := range tbl.Columns {
		c.Index = i
	}

	return &tbl
}

func addTreeIndex(t *testing.T, tbl *catalog.Table, name string, cols ...string) *catalog.Index {
	t.Helper()

	idx := catalog.Index{Name: name, Type: catalog.BalancedTree}
	for _, c := range cols {
		require.NotNil(t, tbl.Column(c))
		idx.Columns = append(idx.Columns, tbl.Column(c))
	}
	require.NoError(t, tbl.AddIndex(&idx))

	return &idx
}

func selectStmt(filters ...expr.Expr) *statement.Statement {
	return &statement.Statement{
		Kind:    statement.Select,
		Filters: map[string][]expr.Expr{"t1": filters},
	}
}

// render renders a comparison list for structural diffing.
func render[E expr.Expr](exprs []E) []string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = e.String()
	}
	return out
}

func TestEqualityPrefixWithTrailingRange(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_ab", "a", "b")

	eqA := expr.NewComparison(expr.Eq, col("t1", "a", 0, types.TypeInteger), integer(5))
	gtB := expr.NewComparison(expr.Gt, col("t1", "b", 1, types.TypeInteger), integer(7))

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(eqA, gtB))
	require.Len(t, paths, 2)

	seq := paths[0]
	require.True(t, seq.IsSequential())
	require.Equal(t, []expr.Expr{eqA, gtB}, seq.OtherExprs)
	require.Equal(t, plan.SortNone, seq.Sort)

	p := paths[1]
	require.Equal(t, "ix_ab", p.Index.Name)
	require.Empty(t, cmp.Diff([]string{"a = 5", "b > 7"}, render(p.IndexExprs)))
	require.Empty(t, cmp.Diff([]string{"a = 5"}, render(p.EndExprs)))
	require.Equal(t, plan.LookupGt, p.Lookup)
	require.Equal(t, planner.IndexScan, p.Use)
	require.Equal(t, plan.SortNone, p.Sort)
	require.True(t, p.KeyIterate)
	require.Empty(t, p.OtherExprs)
}

func TestOrderingOnlyPath(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_ab", "a", "b")

	stmt := selectStmt()
	stmt.OrderBy = []statement.OrderBy{
		{Expr: col("t1", "a", 0, types.TypeInteger), Asc: true},
		{Expr: col("t1", "b", 1, types.TypeInteger), Asc: true},
	}

	paths := planner.EnumerateAccessPaths(tbl, stmt)
	require.Len(t, paths, 2)
	require.Equal(t, plan.SortNone, paths[0].Sort)

	p := paths[1]
	require.Empty(t, p.IndexExprs)
	require.Empty(t, p.EndExprs)
	require.Equal(t, plan.SortAscending, p.Sort)
	require.Equal(t, planner.IndexScan, p.Use)
	require.Equal(t, plan.LookupGte, p.Lookup)
}

func TestExpressionIndexBinding(t *testing.T) {
	tbl := testTable(t)

	exprs, err := expr.EncodeList([]expr.Expr{
		&expr.Call{
			Name: "substr",
			Args: []expr.Expr{
				col("t1", "doc", 2, types.TypeText),
				integer(1),
				integer(1),
			},
			Tp: types.TypeText,
		},
	})
	require.NoError(t, err)
	require.NoError(t, tbl.AddIndex(&catalog.Index{
		Name:            "ix_sub",
		Type:            catalog.BalancedTree,
		Columns:         []*catalog.Column{tbl.Column("doc")},
		ExpressionsJSON: exprs,
	}))

	param := expr.Parameter{Index: 0, Original: integer(1)}
	filter := expr.NewComparison(expr.Eq,
		&expr.Call{
			Name: "substr",
			Args: []expr.Expr{col("t1", "doc", 2, types.TypeText), &param, integer(1)},
			Tp:   types.TypeText,
		},
		text("x"),
	)

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(filter))
	require.Len(t, paths, 2)

	p := paths[1]
	require.Equal(t, "ix_sub", p.Index.Name)
	require.Equal(t, []*expr.Comparison{filter}, p.IndexExprs)
	require.Len(t, p.Bindings, 1)
	require.Same(t, &param, p.Bindings[0])
	require.Equal(t, planner.CoveringUniqueEquality, p.Use)
	require.Equal(t, plan.LookupEq, p.Lookup)
	require.False(t, p.KeyIterate)
}

func TestHashIndexNeedsFullEquality(t *testing.T) {
	tbl := testTable(t)
	require.NoError(t, tbl.AddIndex(&catalog.Index{
		Name:    "ix_h",
		Type:    catalog.Hash,
		Columns: []*catalog.Column{tbl.Column("a")},
	}))

	t.Run("partial coverage is rejected", func(t *testing.T) {
		gtA := expr.NewComparison(expr.Gt, col("t1", "a", 0, types.TypeInteger), integer(3))

		paths := planner.EnumerateAccessPaths(tbl, selectStmt(gtA))
		require.Len(t, paths, 1)
		require.True(t, paths[0].IsSequential())
	})

	t.Run("full equality is kept", func(t *testing.T) {
		eqA := expr.NewComparison(expr.Eq, col("t1", "a", 0, types.TypeInteger), integer(3))

		paths := planner.EnumerateAccessPaths(tbl, selectStmt(eqA))
		require.Len(t, paths, 2)

		p := paths[1]
		require.Len(t, p.IndexExprs, len(p.Index.Columns))
		require.Equal(t, plan.LookupEq, p.Lookup)
		require.Equal(t, planner.CoveringUniqueEquality, p.Use)
	})

	t.Run("ordering cannot come from a hash index", func(t *testing.T) {
		stmt := selectStmt()
		stmt.OrderBy = []statement.OrderBy{{Expr: col("t1", "a", 0, types.TypeInteger), Asc: true}}

		paths := planner.EnumerateAccessPaths(tbl, stmt)
		require.Len(t, paths, 1)
	})
}

func TestLikeDoubleEndedBounds(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_doc", "doc")

	like := expr.NewComparison(expr.Like, col("t1", "doc", 2, types.TypeText), prefix("foo%"))

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(like))
	require.Len(t, paths, 2)

	p := paths[1]
	require.Empty(t, cmp.Diff([]string{"doc >= 'foo'"}, render(p.IndexExprs)))
	require.Empty(t, cmp.Diff([]string{"doc < 'fop'"}, render(p.EndExprs)))
	require.Equal(t, plan.LookupGte, p.Lookup)
	require.Equal(t, planner.IndexScan, p.Use)
	require.Empty(t, p.OtherExprs)
}

func TestLikeNonPrefixPatternIsResidual(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_doc", "doc")

	like := expr.NewComparison(expr.Like, col("t1", "doc", 2, types.TypeText), text("%foo"))

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(like))
	require.Len(t, paths, 1)
	require.Equal(t, []expr.Expr{like}, paths[0].OtherExprs)
}

func TestReverseScan(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	orderDesc := []statement.OrderBy{{Expr: col("t1", "a", 0, types.TypeInteger), Asc: false}}

	t.Run("upper bound initializes the reverse scan", func(t *testing.T) {
		ltA := expr.NewComparison(expr.Lt, col("t1", "a", 0, types.TypeInteger), integer(10))
		stmt := selectStmt(ltA)
		stmt.OrderBy = orderDesc

		paths := planner.EnumerateAccessPaths(tbl, stmt)
		require.Len(t, paths, 2)

		p := paths[1]
		require.Equal(t, plan.SortDescending, p.Sort)
		require.Empty(t, p.IndexExprs)
		require.Equal(t, []*expr.Comparison{ltA}, p.EndExprs)
		require.Empty(t, p.OtherExprs)
	})

	t.Run("lower bound becomes the backward stop condition", func(t *testing.T) {
		gtA := expr.NewComparison(expr.Gt, col("t1", "a", 0, types.TypeInteger), integer(3))
		stmt := selectStmt(gtA)
		stmt.OrderBy = orderDesc

		paths := planner.EnumerateAccessPaths(tbl, stmt)
		require.Len(t, paths, 2)

		p := paths[1]
		require.Equal(t, plan.SortDescending, p.Sort)
		require.Empty(t, p.IndexExprs)
		require.Equal(t, []*expr.Comparison{gtA}, p.EndExprs)
	})

	t.Run("two bounds withdraw the descending claim", func(t *testing.T) {
		gtA := expr.NewComparison(expr.Gt, col("t1", "a", 0, types.TypeInteger), integer(3))
		ltA := expr.NewComparison(expr.Lt, col("t1", "a", 0, types.TypeInteger), integer(10))
		stmt := selectStmt(gtA, ltA)
		stmt.OrderBy = orderDesc

		paths := planner.EnumerateAccessPaths(tbl, stmt)
		require.Len(t, paths, 2)
		require.Equal(t, plan.SortNone, paths[1].Sort)
	})

	t.Run("equality echo withdraws the descending claim", func(t *testing.T) {
		tbl := testTable(t)
		addTreeIndex(t, tbl, "ix_ab", "a", "b")

		eqA := expr.NewComparison(expr.Eq, col("t1", "a", 0, types.TypeInteger), integer(5))
		stmt := selectStmt(eqA)
		stmt.OrderBy = []statement.OrderBy{
			{Expr: col("t1", "a", 0, types.TypeInteger), Asc: false},
			{Expr: col("t1", "b", 1, types.TypeInteger), Asc: false},
		}

		paths := planner.EnumerateAccessPaths(tbl, stmt)
		require.Len(t, paths, 2)
		require.Equal(t, plan.SortNone, paths[1].Sort)
	})
}

func TestStrictBoundPaddingRefilter(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_ab", "a", "b")

	gtA := expr.NewComparison(expr.Gt, col("t1", "a", 0, types.TypeInteger), integer(3))

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(gtA))
	require.Len(t, paths, 2)

	// the strict bound positions the scan and is also re-checked per
	// row: a prefix-only GT scan also visits compound keys whose
	// prefix equals the bound
	p := paths[1]
	require.Equal(t, []*expr.Comparison{gtA}, p.IndexExprs)
	require.Equal(t, plan.LookupGt, p.Lookup)
	require.Equal(t, []expr.Expr{gtA}, p.OtherExprs)
}

func TestSelfComparisonIsResidual(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	aEqB := expr.NewComparison(expr.Eq,
		col("t1", "a", 0, types.TypeInteger),
		col("t1", "b", 1, types.TypeInteger),
	)

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(aEqB))
	require.Len(t, paths, 1)
	require.Equal(t, []expr.Expr{aEqB}, paths[0].OtherExprs)
}

func TestLossyComparandIsRejected(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	big := expr.NewComparison(expr.Eq,
		col("t1", "a", 0, types.TypeInteger),
		&expr.Constant{Value: types.NewBigintValue(5_000_000_000)},
	)

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(big))
	require.Len(t, paths, 1)
	require.Equal(t, []expr.Expr{big}, paths[0].OtherExprs)
}

func TestReversedFilterNormalization(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	// 5 < a positions the index as a > 5
	lt := expr.NewComparison(expr.Lt, integer(5), col("t1", "a", 0, types.TypeInteger))

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(lt))
	require.Len(t, paths, 2)

	p := paths[1]
	require.Empty(t, cmp.Diff([]string{"a > 5"}, render(p.IndexExprs)))
	require.Equal(t, plan.LookupGt, p.Lookup)
	// the statement's filter is shared, not rewritten in place
	require.Equal(t, expr.Lt, lt.Op)
}

func TestMalformedExpressionIndexIsSkipped(t *testing.T) {
	tbl := testTable(t)
	require.NoError(t, tbl.AddIndex(&catalog.Index{
		Name:            "ix_bad",
		Type:            catalog.BalancedTree,
		Columns:         []*catalog.Column{tbl.Column("doc")},
		ExpressionsJSON: `[{"kind": "window"}]`,
	}))

	eqDoc := expr.NewComparison(expr.Eq, col("t1", "doc", 2, types.TypeText), text("x"))

	paths := planner.EnumerateAccessPaths(tbl, selectStmt(eqDoc))
	require.Len(t, paths, 1)
	require.True(t, paths[0].IsSequential())
}

func TestJoinPredicatesFoldIntoResidual(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	eqA := expr.NewComparison(expr.Eq, col("t1", "a", 0, types.TypeInteger), integer(5))
	join := expr.NewComparison(expr.Eq,
		col("t1", "b", 1, types.TypeInteger),
		col("t2", "b", 1, types.TypeInteger),
	)

	stmt := selectStmt(eqA)
	stmt.Joins = map[statement.TablePair][]expr.Expr{
		statement.NewTablePair("t1", "t2"): {join},
	}

	paths := planner.EnumerateAccessPaths(tbl, stmt)
	require.Len(t, paths, 2)

	p := paths[1]
	require.Equal(t, []*expr.Comparison{eqA}, p.IndexExprs)
	require.Empty(t, p.OtherExprs)
	require.Equal(t, []expr.Expr{join}, p.JoinExprs)
}

// every filter of the statement lands in exactly one slot of each
// produced path, not counting the equality echo into the stop
// condition; these filters produce no strict-bound re-filter
func TestFilterCoverage(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_ab", "a", "b")

	filters := []expr.Expr{
		expr.NewComparison(expr.Eq, col("t1", "a", 0, types.TypeInteger), integer(5)),
		expr.NewComparison(expr.Gt, col("t1", "b", 1, types.TypeInteger), integer(7)),
		expr.NewComparison(expr.Eq, col("t1", "doc", 2, types.TypeText), text("x")),
	}

	contains := func(f expr.Expr, exprs ...expr.Expr) bool {
		for _, e := range exprs {
			if e == f {
				return true
			}
		}
		return false
	}

	for _, p := range planner.EnumerateAccessPaths(tbl, selectStmt(filters...)) {
		var asKeys []expr.Expr
		for _, c := range p.IndexExprs {
			asKeys = append(asKeys, c)
		}
		for _, c := range p.EndExprs {
			asKeys = append(asKeys, c)
		}

		for _, f := range filters {
			slots := 0
			if contains(f, asKeys...) {
				slots++
			}
			if contains(f, p.OtherExprs...) {
				slots++
			}
			if contains(f, p.JoinExprs...) {
				slots++
			}
			require.Equal(t, 1, slots, "filter %v in path %v", f, p)
		}
	}
}
