package expr

import (
	"fmt"
	"strings"

	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// An Expr is a node of a filter or index-key expression tree.
//
// Expressions are immutable once built: planner transformations such as
// comparator reversal or LIKE bound synthesis allocate fresh nodes that
// reference the original operands.
type Expr interface {
	Type() types.Type
	String() string
}

// A TupleValue references one column of a table's rows.
type TupleValue struct {
	Table       string
	ColumnIndex int
	ColumnName  string
	Tp          types.Type
}

func (t *TupleValue) Type() types.Type {
	return t.Tp
}

func (t *TupleValue) String() string {
	return t.ColumnName
}

// A Constant is a literal value. PrefixPattern is set by the parser on
// text constants used as LIKE patterns whose wildcards form a trailing
// '%' run after a literal prefix, making the pattern convertible to a
// key range.
type Constant struct {
	Value         types.Value
	PrefixPattern bool
}

func (c *Constant) Type() types.Type {
	return c.Value.Type()
}

func (c *Constant) String() string {
	return c.Value.String()
}

// A Parameter is a placeholder in a parameterized statement. When the
// statement was planned from a concrete invocation, Original holds the
// constant the placeholder stood for.
type Parameter struct {
	Index    int
	Original *Constant
	Tp       types.Type
}

func (p *Parameter) Type() types.Type {
	if p.Original != nil {
		return p.Original.Type()
	}

	return p.Tp
}

func (p *Parameter) String() string {
	return "?"
}

// A Call is any non-comparison compound expression: arithmetic,
// concatenation, logical connectives and function applications.
type Call struct {
	Name string
	Args []Expr
	Tp   types.Type
}

func (c *Call) Type() types.Type {
	return c.Tp
}

func (c *Call) String() string {
	if len(c.Args) == 2 {
		switch c.Name {
		case "AND", "OR", "+", "-", "*", "/", "%", "||":
			return fmt.Sprintf("%v %s %v", c.Args[0], c.Name, c.Args[1])
		}
	}

	var s strings.Builder
	s.WriteString(c.Name)
	s.WriteRune('(')
	for i, a := range c.Args {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(a.String())
	}
	s.WriteRune(')')

	return s.String()
}

// And combines two expressions with the logical AND connective.
func And(a, b Expr) Expr {
	return &Call{Name: "AND", Args: []Expr{a, b}, Tp: types.TypeBoolean}
}

// Conjunction folds a list of expressions into a single AND tree.
// It returns nil for an empty list.
func Conjunction(exprs []Expr) Expr {
	var out Expr
	for _, e := range exprs {
		if out == nil {
			out = e
			continue
		}
		out = And(out, e)
	}

	return out
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}

	switch aa := a.(type) {
	case *TupleValue:
		bb, ok := b.(*TupleValue)
		return ok && aa.Table == bb.Table && aa.ColumnIndex == bb.ColumnIndex && aa.ColumnName == bb.ColumnName
	case *Constant:
		bb, ok := b.(*Constant)
		return ok && aa.PrefixPattern == bb.PrefixPattern && types.IsEqual(aa.Value, bb.Value)
	case *Parameter:
		bb, ok := b.(*Parameter)
		return ok && aa.Index == bb.Index
	case *Comparison:
		bb, ok := b.(*Comparison)
		return ok && aa.Op == bb.Op && Equal(aa.Left, bb.Left) && Equal(aa.Right, bb.Right)
	case *Call:
		bb, ok := b.(*Call)
		if !ok || aa.Name != bb.Name || len(aa.Args) != len(bb.Args) {
			return false
		}
		for i := range aa.Args {
			if !Equal(aa.Args[i], bb.Args[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// TupleValues collects every column reference of the tree rooted at e,
// in depth-first order.
func TupleValues(e Expr) []*TupleValue {
	var out []*TupleValue

	var walk func(Expr)
	walk = func(e Expr) {
		switch ee := e.(type) {
		case *TupleValue:
			out = append(out, ee)
		case *Comparison:
			walk(ee.Left)
			walk(ee.Right)
		case *Call:
			for _, a := range ee.Args {
				walk(a)
			}
		}
	}
	walk(e)

	return out
}

// RefersTo reports whether any column reference under e belongs to the
// named table. Tables are compared by name: aliased self-joins are not
// supported.
func RefersTo(e Expr, table string) bool {
	for _, tv := range TupleValues(e) {
		if tv.Table == table {
			return true
		}
	}

	return false
}
