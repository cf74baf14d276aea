package planner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/plan"
	"github.com/elka-projekt/cs-voltdb/internal/planner"
	"github.com/elka-projekt/cs-voltdb/internal/statement"
	"github.com/elka-projekt/cs-voltdb/internal/types"
)

func TestOrderDeterminator(t *testing.T) {
	newStmt := func(items ...statement.OrderBy) *statement.Statement {
		return &statement.Statement{
			Kind:    statement.Select,
			Filters: map[string][]expr.Expr{},
			OrderBy: items,
		}
	}

	orderA := func(asc bool) statement.OrderBy {
		return statement.OrderBy{Expr: col("t1", "a", 0, types.TypeInteger), Asc: asc}
	}
	orderB := func(asc bool) statement.OrderBy {
		return statement.OrderBy{Expr: col("t1", "b", 1, types.TypeInteger), Asc: asc}
	}

	tests := []struct {
		name  string
		items []statement.OrderBy
		want  plan.SortDirection
	}{
		{"no order by", nil, plan.SortNone},
		{"single ascending", []statement.OrderBy{orderA(true)}, plan.SortAscending},
		{"single descending", []statement.OrderBy{orderA(false)}, plan.SortDescending},
		{"full key ascending", []statement.OrderBy{orderA(true), orderB(true)}, plan.SortAscending},
		{"mixed directions", []statement.OrderBy{orderA(true), orderB(false)}, plan.SortNone},
		{"wrong leading column", []statement.OrderBy{orderB(true)}, plan.SortNone},
		{"wrong second column", []statement.OrderBy{orderA(true), orderA(true)}, plan.SortNone},
		{"more items than key components", []statement.OrderBy{orderA(true), orderB(true), {Expr: col("t1", "doc", 2, types.TypeText), Asc: true}}, plan.SortNone},
		{"other table", []statement.OrderBy{{Expr: col("t2", "a", 0, types.TypeInteger), Asc: true}}, plan.SortNone},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tbl := testTable(t)
			addTreeIndex(t, tbl, "ix_ab", "a", "b")

			paths := planner.EnumerateAccessPaths(tbl, newStmt(test.items...))
			if test.want == plan.SortNone {
				// an index path without keys or ordering is dropped
				for _, p := range paths {
					require.Equal(t, plan.SortNone, p.Sort)
				}
				return
			}

			require.Len(t, paths, 2)
			require.Equal(t, test.want, paths[1].Sort)
		})
	}
}

func TestOrderDeterminatorIgnoresNonSelect(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	stmt := statement.Statement{
		Kind:    statement.Delete,
		Filters: map[string][]expr.Expr{},
		OrderBy: []statement.OrderBy{{Expr: col("t1", "a", 0, types.TypeInteger), Asc: true}},
	}

	paths := planner.EnumerateAccessPaths(tbl, &stmt)
	require.Len(t, paths, 1)
	require.True(t, paths[0].IsSequential())
}

func TestOrderDeterminatorExpressionIndex(t *testing.T) {
	tbl := testTable(t)

	exprs, err := expr.EncodeList([]expr.Expr{
		&expr.Call{
			Name: "lower",
			Args: []expr.Expr{col("t1", "doc", 2, types.TypeText), integer(1)},
			Tp:   types.TypeText,
		},
	})
	require.NoError(t, err)
	require.NoError(t, tbl.AddIndex(&catalog.Index{
		Name:            "ix_lower",
		Type:            catalog.BalancedTree,
		Columns:         []*catalog.Column{tbl.Column("doc")},
		ExpressionsJSON: exprs,
	}))

	param := expr.Parameter{Index: 0, Original: integer(1)}
	stmt := statement.Statement{
		Kind:    statement.Select,
		Filters: map[string][]expr.Expr{},
		OrderBy: []statement.OrderBy{{
			Expr: &expr.Call{
				Name: "lower",
				Args: []expr.Expr{col("t1", "doc", 2, types.TypeText), &param},
				Tp:   types.TypeText,
			},
			Asc: true,
		}},
	}

	paths := planner.EnumerateAccessPaths(tbl, &stmt)
	require.Len(t, paths, 2)

	// the ordering claim carries the bindings its match required
	p := paths[1]
	require.Equal(t, plan.SortAscending, p.Sort)
	require.Equal(t, []*expr.Parameter{&param}, p.Bindings)
}
