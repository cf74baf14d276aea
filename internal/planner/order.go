package planner

import (
	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/plan"
	"github.com/elka-projekt/cs-voltdb/internal/statement"
)

// determineIndexOrdering decides whether the index's key order can
// satisfy the statement's ORDER BY and tentatively tags the path with
// the matching sort direction. Descending is only a claim at this
// point; bound reconciliation may still withdraw it.
//
// Every ORDER BY item must share the first item's direction and match
// the key component at its position: a column reference for a simple
// index, a structural binding for an expression index. Bindings the
// expression matches require are accumulated into bindings; any
// failure zeroes the accumulator and resets the direction.
func determineIndexOrdering(tbl *catalog.Table, keyCount int, keyCols []*catalog.Column, keyExprs []expr.Expr, stmt *statement.Statement, path *AccessPath, bindings *[]*expr.Parameter) {
	if stmt.Kind != statement.Select {
		return
	}

	m := len(stmt.OrderBy)
	if m == 0 || m > keyCount {
		return
	}

	asc := stmt.OrderBy[0].Asc
	if asc {
		path.Sort = plan.SortAscending
	} else {
		path.Sort = plan.SortDescending
	}

	var acc []*expr.Parameter
	for i, item := range stmt.OrderBy {
		if item.Asc != asc {
			*bindings = nil
			path.Sort = plan.SortNone
			return
		}

		if keyExprs != nil {
			bs, ok := expr.BindingsTo(item.Expr, keyExprs[i])
			if !ok {
				*bindings = nil
				path.Sort = plan.SortNone
				return
			}
			acc = append(acc, bs...)
			continue
		}

		tv, ok := item.Expr.(*expr.TupleValue)
		if !ok || tv.Table != tbl.Name || tv.ColumnName != keyCols[i].Name {
			*bindings = nil
			path.Sort = plan.SortNone
			return
		}
	}

	*bindings = append(*bindings, acc...)
}
