package statement

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/elka-projekt/cs-voltdb/internal/expr"
)

// Kind discriminates the statement families the planner handles.
type Kind int

const (
	Select Kind = iota + 1
	Insert
	Update
	Delete
)

// An OrderBy is one ORDER BY item of a SELECT statement.
type OrderBy struct {
	Expr expr.Expr
	Asc  bool
}

// A TablePair identifies an unordered pair of joined tables.
type TablePair struct {
	A, B string
}

// NewTablePair normalizes the pair so that lookups do not depend on
// operand order.
func NewTablePair(a, b string) TablePair {
	if b < a {
		a, b = b, a
	}

	return TablePair{A: a, B: b}
}

// A Statement is the parsed form the planner consumes. Filter and join
// predicate lists are owned by the statement; the planner shares their
// expression trees immutably.
type Statement struct {
	Kind Kind

	// single-table predicates, per table name
	Filters map[string][]expr.Expr

	// join predicates, per unordered table pair
	Joins map[TablePair][]expr.Expr

	// optional projection, per table name
	ScanColumns map[string][]string

	// ORDER BY items, in statement order (SELECT only)
	OrderBy []OrderBy
}

// FiltersFor returns the statement's single-table predicates on the
// given table.
func (s *Statement) FiltersFor(table string) []expr.Expr {
	return s.Filters[table]
}

// JoinFiltersFor returns every join predicate involving the given
// table, walking pairs in deterministic order.
func (s *Statement) JoinFiltersFor(table string) []expr.Expr {
	pairs := maps.Keys(s.Joins)
	slices.SortFunc(pairs, func(a, b TablePair) int {
		if a.A != b.A {
			return cmpString(a.A, b.A)
		}
		return cmpString(a.B, b.B)
	})

	var out []expr.Expr
	for _, p := range pairs {
		if p.A == table || p.B == table {
			out = append(out, s.Joins[p]...)
		}
	}

	return out
}

// ScanColumnsFor returns the statement's projection for the given
// table, or nil when the scan outputs all columns.
func (s *Statement) ScanColumnsFor(table string) []string {
	return s.ScanColumns[table]
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
