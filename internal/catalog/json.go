package catalog

import (
	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// FromJSON builds a catalog snapshot from its serialized description:
//
//	{"tables": [{
//	    "name": "t",
//	    "columns": [{"name": "a", "type": "integer"}, ...],
//	    "indexes": [{"name": "t_a_idx", "type": "tree",
//	                 "columns": ["a"], "expressions": "..."}, ...]
//	}]}
func FromJSON(data []byte) (*Catalog, error) {
	c := New()
	var ierr error

	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}
		if err != nil {
			ierr = err
			return
		}

		t, err := tableFromJSON(value)
		if err != nil {
			ierr = err
			return
		}
		ierr = c.AddTable(t)
	}, "tables")
	if err != nil {
		return nil, errors.Wrap(err, "malformed catalog")
	}
	if ierr != nil {
		return nil, ierr
	}

	return c, nil
}

func tableFromJSON(data []byte) (*Table, error) {
	name, err := jsonparser.GetString(data, "name")
	if err != nil {
		return nil, errors.Wrap(err, "table has no name")
	}

	t := Table{Name: name, Indexes: make(map[string]*Index)}
	var ierr error

	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}

		cname, err := jsonparser.GetString(value, "name")
		if err != nil {
			ierr = errors.Wrap(err, "column has no name")
			return
		}
		tname, err := jsonparser.GetString(value, "type")
		if err != nil {
			ierr = errors.Wrapf(err, "column %q has no type", cname)
			return
		}
		tp, ok := types.ParseType(tname)
		if !ok {
			ierr = errors.Errorf("column %q has unknown type %q", cname, tname)
			return
		}
		t.Columns = append(t.Columns, &Column{Name: cname, Type: tp})
	}, "columns")
	if err != nil {
		return nil, errors.Wrapf(err, "table %q has no columns", name)
	}
	if ierr != nil {
		return nil, ierr
	}

	for i, col := range t.Columns {
		col.Index = i
	}

	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}

		idx, err := indexFromJSON(&t, value)
		if err != nil {
			ierr = err
			return
		}
		ierr = t.AddIndex(idx)
	}, "indexes")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, errors.Wrapf(err, "malformed indexes for table %q", name)
	}
	if ierr != nil {
		return nil, ierr
	}

	return &t, nil
}

func indexFromJSON(t *Table, data []byte) (*Index, error) {
	name, err := jsonparser.GetString(data, "name")
	if err != nil {
		return nil, errors.Wrap(err, "index has no name")
	}
	tname, err := jsonparser.GetString(data, "type")
	if err != nil {
		return nil, errors.Wrapf(err, "index %q has no type", name)
	}
	tp, ok := ParseIndexType(tname)
	if !ok {
		return nil, errors.Errorf("index %q has unknown type %q", name, tname)
	}

	idx := Index{Name: name, Type: tp}
	idx.Unique, _ = jsonparser.GetBoolean(data, "unique")
	if exprs, err := jsonparser.GetString(data, "expressions"); err == nil {
		idx.ExpressionsJSON = exprs
	}

	var ierr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}

		col := t.Column(string(value))
		if col == nil {
			ierr = errors.Errorf("index %q references unknown column %q", name, string(value))
			return
		}
		idx.Columns = append(idx.Columns, col)
	}, "columns")
	if err != nil {
		return nil, errors.Wrapf(err, "index %q has no columns", name)
	}
	if ierr != nil {
		return nil, ierr
	}

	return &idx, nil
}
