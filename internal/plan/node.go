package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
)

// SortDirection is the ordering a scan promises to deliver.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

func (d SortDirection) String() string {
	switch d {
	case SortNone:
		return "none"
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	}

	panic(fmt.Sprintf("unknown sort direction %d", int(d)))
}

// LookupType is the operator used to position an index scan at its
// first key.
type LookupType int

const (
	LookupEq LookupType = iota + 1
	LookupGt
	LookupGte
)

func (t LookupType) String() string {
	switch t {
	case LookupEq:
		return "="
	case LookupGt:
		return ">"
	case LookupGte:
		return ">="
	}

	panic(fmt.Sprintf("unknown lookup type %d", int(t)))
}

// A Node is one node of a scan plan tree. String renders a stable
// one-line form used by tests and the explainer.
type Node interface {
	Schema() []*catalog.Column
	String() string
}

// A SeqScanNode reads every row of a table and applies an optional
// predicate.
type SeqScanNode struct {
	Table        string
	Predicate    expr.Expr
	ScanColumns  []string
	OutputSchema []*catalog.Column
}

func (n *SeqScanNode) Schema() []*catalog.Column {
	return n.OutputSchema
}

func (n *SeqScanNode) String() string {
	var s strings.Builder

	s.WriteString("table.Scan(")
	s.WriteString(strconv.Quote(n.Table))
	if n.Predicate != nil {
		fmt.Fprintf(&s, ", filter: %v", n.Predicate)
	}
	s.WriteRune(')')

	return s.String()
}

// An IndexScanNode positions an index at its search keys and walks it,
// stopping at EndPredicate and post-filtering with Predicate.
type IndexScanNode struct {
	Table string
	Index string

	// SearchKeys are the values the scan positions at, one per
	// constrained key component, in key order.
	SearchKeys []expr.Expr
	Lookup     LookupType
	Sort       SortDirection
	KeyIterate bool

	// Bindings are the parameter constraints under which a cached
	// plan built from this node stays valid.
	Bindings []*expr.Parameter

	EndPredicate expr.Expr
	Predicate    expr.Expr

	ScanColumns  []string
	OutputSchema []*catalog.Column
}

func (n *IndexScanNode) Schema() []*catalog.Column {
	return n.OutputSchema
}

func (n *IndexScanNode) String() string {
	var s strings.Builder

	s.WriteString("index.Scan(")
	s.WriteString(strconv.Quote(n.Index))
	s.WriteString(", ")
	s.WriteString(strconv.Quote(n.Table))

	s.WriteString(", keys: [")
	for i, k := range n.SearchKeys {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(k.String())
	}
	s.WriteRune(']')

	fmt.Fprintf(&s, ", lookup: %v", n.Lookup)
	if n.EndPredicate != nil {
		fmt.Fprintf(&s, ", end: %v", n.EndPredicate)
	}
	if n.Predicate != nil {
		fmt.Fprintf(&s, ", filter: %v", n.Predicate)
	}
	if n.Sort == SortDescending {
		s.WriteString(", reverse")
	}
	s.WriteRune(')')

	return s.String()
}

// A SendNode ships its child's rows to the coordinating site.
type SendNode struct {
	Child          Node
	MultiPartition bool
}

func (n *SendNode) Schema() []*catalog.Column {
	return n.Child.Schema()
}

func (n *SendNode) String() string {
	if n.MultiPartition {
		return fmt.Sprintf("exchange.Send(%v, multipartition)", n.Child)
	}

	return fmt.Sprintf("exchange.Send(%v)", n.Child)
}

// A ReceiveNode collects rows from the send node below it. It carries
// its own copy of the scan's output schema so the coordinator can be
// planned without the child.
type ReceiveNode struct {
	Send         *SendNode
	OutputSchema []*catalog.Column
}

func (n *ReceiveNode) Schema() []*catalog.Column {
	return n.OutputSchema
}

func (n *ReceiveNode) String() string {
	return fmt.Sprintf("exchange.Receive(%v)", n.Send)
}
