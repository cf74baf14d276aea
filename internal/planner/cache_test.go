package planner_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/planner"
	"github.com/elka-projekt/cs-voltdb/internal/types"
)

func TestCachePaths(t *testing.T) {
	tbl := testTable(t)
	addTreeIndex(t, tbl, "ix_a", "a")

	eqA := expr.NewComparison(expr.Eq, col("t1", "a", 0, types.TypeInteger), integer(5))
	stmt := selectStmt(eqA)

	c := planner.NewCache()

	first := c.Paths("q1", tbl, stmt)
	require.Len(t, first, 2)

	// concurrent requests share one enumeration
	results := make([][]*planner.AccessPath, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Paths("q1", tbl, stmt)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.Same(t, first[0], got[0])
	}

	c.Invalidate("q1")
	fresh := c.Paths("q1", tbl, stmt)
	require.Len(t, fresh, 2)
}

func TestReusable(t *testing.T) {
	eqParam := expr.Parameter{Index: 0, Original: integer(1)}
	likeParam := expr.Parameter{
		Index:    1,
		Original: &expr.Constant{Value: types.NewTextValue("foo%"), PrefixPattern: true},
	}

	path := planner.AccessPath{
		Bindings: []*expr.Parameter{&eqParam, &likeParam},
	}

	tests := []struct {
		name   string
		params []types.Value
		want   bool
	}{
		{"same values", []types.Value{types.NewIntegerValue(1), types.NewTextValue("bar%")}, true},
		{"widened bound value", []types.Value{types.NewBigintValue(1), types.NewTextValue("x%")}, true},
		{"changed bound value", []types.Value{types.NewIntegerValue(2), types.NewTextValue("bar%")}, false},
		{"pattern lost its prefix", []types.Value{types.NewIntegerValue(1), types.NewTextValue("%bar")}, false},
		{"pattern no longer text", []types.Value{types.NewIntegerValue(1), types.NewIntegerValue(3)}, false},
		{"missing parameter", []types.Value{types.NewIntegerValue(1)}, false},
		{"no parameters", nil, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, planner.Reusable(&path, test.params))
		})
	}

	t.Run("no bindings always reusable", func(t *testing.T) {
		require.True(t, planner.Reusable(&planner.AccessPath{}, nil))
	})
}
