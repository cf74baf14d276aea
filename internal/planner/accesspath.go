package planner

import (
	"strings"

	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/plan"
	"github.com/elka-projekt/cs-voltdb/internal/statement"
)

// UseMode discriminates how an access path drives its index.
type UseMode int

const (
	// CoveringUniqueEquality positions the index with equalities on
	// every key component: the scan hits at most one key.
	CoveringUniqueEquality UseMode = iota + 1
	// IndexScan walks a key range of the index.
	IndexScan
)

// An AccessPath is one way of reading the rows of a table: either a
// sequential scan (Index == nil) or a scan of one index, together with
// the decomposition of the statement's filters into search keys, stop
// conditions and residual post-filters.
//
// The path shares the statement's expression trees immutably; the
// builder never mutates a filter in place.
type AccessPath struct {
	Index *catalog.Index

	Lookup plan.LookupType
	Use    UseMode

	// IndexExprs position the scan: the right-hand side of each
	// comparison becomes one search key, in key-component order.
	IndexExprs []*expr.Comparison

	// EndExprs form the scan's stop condition.
	EndExprs []*expr.Comparison

	// OtherExprs must be re-checked against every retrieved row.
	OtherExprs []expr.Expr

	// JoinExprs are join predicates folded into the residual filter.
	JoinExprs []expr.Expr

	Sort plan.SortDirection

	// Bindings are the parameters that must keep their planned values
	// for a cached plan built from this path to be reusable.
	Bindings []*expr.Parameter

	// KeyIterate is set when the scan visits more than one key.
	KeyIterate bool
}

// IsSequential reports whether the path reads the table without an
// index.
func (p *AccessPath) IsSequential() bool {
	return p.Index == nil
}

func (p *AccessPath) String() string {
	var s strings.Builder

	if p.IsSequential() {
		s.WriteString("sequential")
	} else {
		s.WriteString("index ")
		s.WriteString(p.Index.Name)
	}

	s.WriteString(" {keys: [")
	for i, e := range p.IndexExprs {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(e.String())
	}
	s.WriteString("], end: [")
	for i, e := range p.EndExprs {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(e.String())
	}
	s.WriteString("], other: [")
	for i, e := range append(append([]expr.Expr{}, p.OtherExprs...), p.JoinExprs...) {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(e.String())
	}
	s.WriteString("]")
	if !p.IsSequential() {
		s.WriteString(", lookup: ")
		s.WriteString(p.Lookup.String())
	}
	if p.Sort != plan.SortNone {
		s.WriteString(", sort: ")
		s.WriteString(p.Sort.String())
	}
	s.WriteString("}")

	return s.String()
}

// EnumerateAccessPaths produces every viable access path for reading
// the given table: the naive sequential scan first, then one path per
// usable index, in index-name order. Ranking the paths is the caller's
// concern; the list is never empty.
func EnumerateAccessPaths(tbl *catalog.Table, stmt *statement.Statement) []*AccessPath {
	paths := []*AccessPath{buildSequentialPath(tbl, stmt)}

	for _, name := range tbl.ListIndexes() {
		if p := buildIndexAccessPath(tbl, tbl.Indexes[name], stmt); p != nil {
			paths = append(paths, p)
		}
	}

	return paths
}

// buildSequentialPath assembles the fallback path: every filter
// becomes a post-filter.
func buildSequentialPath(tbl *catalog.Table, stmt *statement.Statement) *AccessPath {
	return &AccessPath{
		OtherExprs: append([]expr.Expr(nil), stmt.FiltersFor(tbl.Name)...),
		JoinExprs:  append([]expr.Expr(nil), stmt.JoinFiltersFor(tbl.Name)...),
	}
}

// buildIndexAccessPath assembles the access path reading tbl through
// idx, or returns nil when the index cannot serve the statement. All
// failure modes degrade to nil: a malformed expression payload, a type
// mismatch, or simply no filter touching the key.
func buildIndexAccessPath(tbl *catalog.Table, idx *catalog.Index, stmt *statement.Statement) *AccessPath {
	b := pathBuilder{
		tbl:  tbl,
		idx:  idx,
		stmt: stmt,
	}

	return b.build()
}

type pathBuilder struct {
	tbl  *catalog.Table
	idx  *catalog.Index
	stmt *statement.Statement

	// key component descriptors; exactly one of the two is set
	keyExprs []expr.Expr
	keyCols  []*catalog.Column

	// working filter set, and which of its members are join predicates
	working []expr.Expr
	isJoin  map[expr.Expr]bool
}

func (b *pathBuilder) keyCount() int {
	if b.keyExprs != nil {
		return len(b.keyExprs)
	}

	return len(b.keyCols)
}

// component returns the descriptors of key component c: the indexed
// expression for an expression index, the key column ordinal otherwise.
func (b *pathBuilder) component(c int) (expr.Expr, int) {
	if b.keyExprs != nil {
		return b.keyExprs[c], -1
	}

	return nil, b.keyCols[c].Index
}

func (b *pathBuilder) consume(pos int) {
	b.working = append(b.working[:pos], b.working[pos+1:]...)
}

func (b *pathBuilder) build() *AccessPath {
	if b.idx.IsExpressionIndex() {
		keyExprs, err := expr.DecodeList([]byte(b.idx.ExpressionsJSON))
		if err != nil || len(keyExprs) == 0 {
			// malformed payload: the candidate index is skipped,
			// never fatal to the statement
			return nil
		}
		b.keyExprs = keyExprs
	} else {
		b.keyCols = b.idx.Columns
	}
	k := b.keyCount()

	singles := b.stmt.FiltersFor(b.tbl.Name)
	joins := b.stmt.JoinFiltersFor(b.tbl.Name)
	b.working = make([]expr.Expr, 0, len(singles)+len(joins))
	b.working = append(b.working, singles...)
	b.working = append(b.working, joins...)
	b.isJoin = make(map[expr.Expr]bool, len(joins))
	for _, j := range joins {
		b.isJoin[j] = true
	}

	path := AccessPath{
		Index:  b.idx,
		Use:    CoveringUniqueEquality,
		Lookup: plan.LookupEq,
	}

	// an unordered index can never provide an ordering
	var orderBindings []*expr.Parameter
	if b.idx.Type.Scannable() {
		determineIndexOrdering(b.tbl, k, b.keyCols, b.keyExprs, b.stmt, &path, &orderBindings)
	}

	// equality prefix: walk key components left to right, consuming
	// one equality filter per component, stopping at the first gap
	c := 0
	for c < k {
		ce, col := b.component(c)
		ie, pos := matchIndexable(b.working, b.tbl.Name, ce, col, expr.Eq)
		if ie == nil {
			break
		}

		path.IndexExprs = append(path.IndexExprs, ie.Comparison)
		path.EndExprs = append(path.EndExprs, ie.Comparison)
		path.Bindings = append(path.Bindings, ie.Bindings...)
		b.consume(pos)
		c++
	}

	if c == k {
		// the key is fully covered by equalities
		b.drain(&path)
		b.commitOrdering(&path, orderBindings)
		return &path
	}

	if !b.idx.Type.Scannable() {
		// a hash index cannot be walked: anything short of full
		// equality coverage is unacceptable
		return nil
	}

	// range bound at the first unconstrained component
	var start, end *expr.Comparison
	ce, col := b.component(c)

	if ie, pos := matchIndexable(b.working, b.tbl.Name, ce, col, expr.Like); ie != nil && ie.StartKeyComparison() != nil {
		// a single prefix-pattern filter bounds the scan on both
		// sides; no further range filter is considered
		start = ie.StartKeyComparison()
		end = ie.EndKeyComparison()
		path.Bindings = append(path.Bindings, ie.Bindings...)
		b.consume(pos)
	} else {
		if ie, pos := matchIndexable(b.working, b.tbl.Name, ce, col, expr.Gt, expr.Gte); ie != nil {
			start = ie.Comparison
			path.Bindings = append(path.Bindings, ie.Bindings...)
			b.consume(pos)
		}
		if ie, pos := matchIndexable(b.working, b.tbl.Name, ce, col, expr.Lt, expr.Lte); ie != nil {
			end = ie.Comparison
			path.Bindings = append(path.Bindings, ie.Bindings...)
			b.consume(pos)
		}
	}

	// reverse-scan reconciliation: a descending claim survives only
	// when at most one bound remains to play the roles the backward
	// walk needs. Equality echoes would require a stop condition at the
	// high end, which a reverse scan cannot honor.
	if path.Sort == plan.SortDescending {
		switch {
		case len(path.EndExprs) > 0:
			path.Sort = plan.SortNone
		case start != nil && end != nil:
			path.Sort = plan.SortNone
		case start != nil:
			// walk from the high end backward until the lower
			// bound fails
			start, end = nil, start
		}
		// an upper bound alone initializes the reverse scan at its
		// first key and stays where it is
	}

	if start != nil {
		path.IndexExprs = append(path.IndexExprs, start)
		if start.Op == expr.Gt {
			path.Lookup = plan.LookupGt
		} else {
			path.Lookup = plan.LookupGte
		}
		path.Use = IndexScan
	}

	if end != nil {
		path.EndExprs = append(path.EndExprs, end)
		path.Use = IndexScan
		if path.Lookup == plan.LookupEq {
			// any non-equality lookup enables the multi-key walk
			path.Lookup = plan.LookupGte
		}
	}

	if len(path.IndexExprs) == 0 && len(path.EndExprs) == 0 && path.Sort == plan.SortNone {
		// nothing positions the scan and no ordering is gained
		return nil
	}

	if len(path.IndexExprs) < k {
		if path.Use == CoveringUniqueEquality {
			// ordering-only path: no bound was applied
			path.Use = IndexScan
			path.Lookup = plan.LookupGte
		} else if path.Lookup == plan.LookupGt && start != nil {
			// a strict scan on a prefix of the key would also
			// visit compound keys whose prefix equals the bound
			// but whose tail is non-null; re-filtering after the
			// scan discards them
			path.OtherExprs = append(path.OtherExprs, start)
		}
	}

	b.drain(&path)
	b.commitOrdering(&path, orderBindings)

	return &path
}

// drain moves every unconsumed filter into the path's residual lists.
func (b *pathBuilder) drain(path *AccessPath) {
	for _, f := range b.working {
		if b.isJoin[f] {
			path.JoinExprs = append(path.JoinExprs, f)
		} else {
			path.OtherExprs = append(path.OtherExprs, f)
		}
	}
	b.working = nil
}

// commitOrdering attaches the order determinator's bindings when the
// ordering claim survived, and derives the key-iteration flag.
func (b *pathBuilder) commitOrdering(path *AccessPath, orderBindings []*expr.Parameter) {
	if path.Sort != plan.SortNone {
		path.Bindings = append(path.Bindings, orderBindings...)
	}
	path.KeyIterate = path.Lookup != plan.LookupEq
}
