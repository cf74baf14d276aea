package planner

import (
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// normalizeComparison rewrites f so that the side usable against the
// key component described by coveringExpr (expression index) or
// coveringColumn (simple index) ends up on the left, reversing the
// comparator when the match is on the right. The other side must be
// independent of the scanned table: a comparison between two columns
// of the same table can never position an index.
//
// It returns the normalized comparison, the parameter bindings the
// match requires, and whether f is usable at all. The returned
// comparison is f itself when no rewrite was needed, or a fresh node
// sharing f's operands.
func normalizeComparison(f *expr.Comparison, table string, coveringExpr expr.Expr, coveringColumn int) (*expr.Comparison, []*expr.Parameter, bool) {
	if bindings, ok := matchKeyComponent(f.Left, table, coveringExpr, coveringColumn); ok {
		if expr.RefersTo(f.Right, table) {
			return nil, nil, false
		}
		if !exactlyRepresentable(f.Left, f.Right) {
			return nil, nil, false
		}
		return f, bindings, true
	}

	if bindings, ok := matchKeyComponent(f.Right, table, coveringExpr, coveringColumn); ok {
		if expr.RefersTo(f.Left, table) {
			return nil, nil, false
		}
		r := f.Reversed()
		if !exactlyRepresentable(r.Left, r.Right) {
			return nil, nil, false
		}
		return r, bindings, true
	}

	return nil, nil, false
}

// matchKeyComponent decides whether e reads the indexed key component.
// For a simple index the expression must be a reference to the key
// column of the scanned table; for an expression index it must bind
// structurally to the indexed expression.
func matchKeyComponent(e expr.Expr, table string, coveringExpr expr.Expr, coveringColumn int) ([]*expr.Parameter, bool) {
	if coveringExpr != nil {
		return expr.BindingsTo(e, coveringExpr)
	}

	tv, ok := e.(*expr.TupleValue)
	if !ok || tv.Table != table || tv.ColumnIndex != coveringColumn {
		return nil, false
	}

	return expr.NoBindings, true
}

// exactlyRepresentable rejects comparisons whose comparand cannot be
// represented exactly in the indexed type. Positioning an index
// through a lossy cast would let distinct comparands collide on the
// same key.
func exactlyRepresentable(indexed, other expr.Expr) bool {
	it := indexed.Type()
	ot := other.Type()

	// untyped operands are typed by the executor against the key
	if it == types.TypeAny || ot == types.TypeAny {
		return true
	}

	return it.CanExactlyRepresent(ot)
}
