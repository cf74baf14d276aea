package planner

import (
	"github.com/elka-projekt/cs-voltdb/internal/expr"
)

// An IndexableExpression is the transient result of matching one
// statement filter against one index key component: the normalized
// comparison plus the parameter bindings required for a cached plan
// built from it to stay valid.
type IndexableExpression struct {
	Comparison *expr.Comparison
	Bindings   []*expr.Parameter

	// the statement filter the comparison was derived from
	original expr.Expr
}

// Original returns the statement filter this match consumed.
func (ie *IndexableExpression) Original() expr.Expr {
	return ie.original
}

// likePattern returns the prefix-pattern constant of a LIKE match,
// looking through a bound parameter.
func (ie *IndexableExpression) likePattern() *expr.Constant {
	switch r := ie.Comparison.Right.(type) {
	case *expr.Constant:
		return r
	case *expr.Parameter:
		return r.Original
	}

	return nil
}

// StartKeyComparison returns the comparison that positions the scan at
// its first key. For a LIKE match it is a synthesized GTE bound on the
// pattern prefix; otherwise it is the normalized comparison itself.
func (ie *IndexableExpression) StartKeyComparison() *expr.Comparison {
	if ie.Comparison.Op != expr.Like {
		return ie.Comparison
	}

	lower, _, ok := expr.LikeBounds(ie.likePattern())
	if !ok {
		return nil
	}

	return expr.NewComparison(expr.Gte, ie.Comparison.Left, lower)
}

// EndKeyComparison returns the stop condition a LIKE match derives
// from the next lexicographic value after its prefix, or nil when the
// match is not a LIKE or the prefix admits no upper bound.
func (ie *IndexableExpression) EndKeyComparison() *expr.Comparison {
	if ie.Comparison.Op != expr.Like {
		return nil
	}

	_, upper, ok := expr.LikeBounds(ie.likePattern())
	if !ok || upper == nil {
		return nil
	}

	return expr.NewComparison(expr.Lt, ie.Comparison.Left, upper)
}

// matchIndexable scans filters for the first comparison usable against
// the given key component with one of the target comparators, trying
// them in order. It returns the match and the position of the consumed
// filter, or nil and -1.
//
// A LIKE target additionally constrains the comparand: only a constant
// flagged as a prefix pattern, or a parameter whose invocation value is
// such a constant, can be turned into a key range. In the parameter
// case the parameter joins the match's bindings: the plan is reusable
// only for values that remain prefix patterns.
func matchIndexable(filters []expr.Expr, table string, coveringExpr expr.Expr, coveringColumn int, targets ...expr.Operator) (*IndexableExpression, int) {
	for _, target := range targets {
		for pos, f := range filters {
			c, ok := f.(*expr.Comparison)
			if !ok {
				continue
			}

			norm, bindings, ok := normalizeComparison(c, table, coveringExpr, coveringColumn)
			if !ok || norm.Op != target {
				continue
			}

			if target == expr.Like {
				var ok bool
				bindings, ok = likeBindings(norm, bindings)
				if !ok {
					continue
				}
			}

			return &IndexableExpression{
				Comparison: norm,
				Bindings:   bindings,
				original:   f,
			}, pos
		}
	}

	return nil, -1
}

func likeBindings(norm *expr.Comparison, bindings []*expr.Parameter) ([]*expr.Parameter, bool) {
	switch r := norm.Right.(type) {
	case *expr.Constant:
		return bindings, r.PrefixPattern
	case *expr.Parameter:
		if r.Original == nil || !r.Original.PrefixPattern {
			return nil, false
		}
		out := make([]*expr.Parameter, 0, len(bindings)+1)
		out = append(out, bindings...)
		return append(out, r), true
	}

	return nil, false
}
