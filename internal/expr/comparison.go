package expr

import (
	"fmt"

	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// An Operator is a comparison operator usable in a filter.
type Operator int

const (
	Eq Operator = iota + 1
	Gt
	Gte
	Lt
	Lte
	Like
)

func (op Operator) String() string {
	switch op {
	case Eq:
		return "="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Like:
		return "LIKE"
	}

	panic(fmt.Sprintf("unknown operator %d", int(op)))
}

// ParseOperator returns the operator rendered by Operator.String.
func ParseOperator(s string) (Operator, bool) {
	for op := Eq; op <= Like; op++ {
		if op.String() == s {
			return op, true
		}
	}

	return 0, false
}

// Reverse returns the operator obtained by swapping the operands of a
// comparison: a < b holds exactly when b > a. Equality and LIKE are
// their own reverse.
func (op Operator) Reverse() Operator {
	switch op {
	case Gt:
		return Lt
	case Gte:
		return Lte
	case Lt:
		return Gt
	case Lte:
		return Gte
	default:
		return op
	}
}

// A Comparison applies a comparison operator to two operands.
type Comparison struct {
	Op    Operator
	Left  Expr
	Right Expr
}

// NewComparison builds a comparison node.
func NewComparison(op Operator, left, right Expr) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right}
}

func (c *Comparison) Type() types.Type {
	return types.TypeBoolean
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%v %v %v", c.Left, c.Op, c.Right)
}

// Reversed returns a fresh comparison with swapped operands and the
// reversed operator. The operands themselves are shared, not copied.
func (c *Comparison) Reversed() *Comparison {
	return &Comparison{
		Op:    c.Op.Reverse(),
		Left:  c.Right,
		Right: c.Left,
	}
}
