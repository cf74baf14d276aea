package catalog

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// A Column describes one column of a table.
type Column struct {
	Name  string
	Index int
	Type  types.Type
}

// IndexType discriminates the physical structure backing an index.
type IndexType int

const (
	// Hash indexes support point lookups only.
	Hash IndexType = iota + 1
	// BalancedTree indexes keep their keys ordered.
	BalancedTree
)

func (t IndexType) String() string {
	switch t {
	case Hash:
		return "hash"
	case BalancedTree:
		return "tree"
	}

	panic(fmt.Sprintf("unknown index type %d", int(t)))
}

// ParseIndexType returns the index type named by s.
func ParseIndexType(s string) (IndexType, bool) {
	switch s {
	case "hash":
		return Hash, true
	case "tree":
		return BalancedTree, true
	}

	return 0, false
}

// Scannable reports whether the index's physical order supports range
// iteration. Range and ordered scans are only sound on such indexes.
func (t IndexType) Scannable() bool {
	return t == BalancedTree
}

// An Index describes one index of a table.
//
// Simple indexes key on a list of columns. Expression indexes key on
// arbitrary expressions, carried as a serialized list in ExpressionsJSON;
// Columns then lists the columns those expressions reference.
type Index struct {
	Name            string
	Type            IndexType
	Unique          bool
	Columns         []*Column
	ExpressionsJSON string
}

// IsExpressionIndex reports whether the index keys on expressions
// rather than raw columns.
func (i *Index) IsExpressionIndex() bool {
	return i.ExpressionsJSON != ""
}

func (i *Index) String() string {
	var s strings.Builder

	s.WriteString("CREATE ")
	if i.Unique {
		s.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&s, "INDEX %s USING %s (", i.Name, i.Type)
	for j, c := range i.Columns {
		if j > 0 {
			s.WriteString(", ")
		}
		s.WriteString(c.Name)
	}
	s.WriteRune(')')

	return s.String()
}

// A Table describes a table: its ordered columns and its indexes.
type Table struct {
	Name    string
	Columns []*Column
	Indexes map[string]*Index
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// ListIndexes returns the table's index names in ascending order, so
// that access-path enumeration is reproducible across runs.
func (t *Table) ListIndexes() []string {
	names := maps.Keys(t.Indexes)
	slices.Sort(names)
	return names
}

// AddIndex registers an index on the table.
func (t *Table) AddIndex(idx *Index) error {
	if _, ok := t.Indexes[idx.Name]; ok {
		return errors.Errorf("index %q already exists on table %q", idx.Name, t.Name)
	}
	if t.Indexes == nil {
		t.Indexes = make(map[string]*Index)
	}
	t.Indexes[idx.Name] = idx

	return nil
}

// A Catalog is an immutable snapshot of the schema visible to the
// planner. All reads are memory lookups.
type Catalog struct {
	tables map[string]*Table
}

func New() *Catalog {
	return &Catalog{
		tables: make(map[string]*Table),
	}
}

// AddTable registers a table. Column ordinals are assigned from the
// declaration order.
func (c *Catalog) AddTable(t *Table) error {
	if _, ok := c.tables[t.Name]; ok {
		return errors.Errorf("table %q already exists", t.Name)
	}

	for i, col := range t.Columns {
		col.Index = i
	}
	if t.Indexes == nil {
		t.Indexes = make(map[string]*Index)
	}
	c.tables[t.Name] = t

	return nil
}

// Table returns the named table.
func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, errors.Errorf("table %q does not exist", name)
	}

	return t, nil
}

// ListTables returns the catalog's table names in ascending order.
func (c *Catalog) ListTables() []string {
	names := maps.Keys(c.tables)
	slices.Sort(names)
	return names
}
