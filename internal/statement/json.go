package statement

import (
	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	"github.com/elka-projekt/cs-voltdb/internal/expr"
)

// FromJSON builds a statement from its serialized description:
//
//	{"kind": "select",
//	 "filters": {"t": [<expr>, ...]},
//	 "joins": [{"tables": ["t", "u"], "predicates": [<expr>, ...]}],
//	 "scan_columns": {"t": ["a", "b"]},
//	 "order_by": [{"expr": <expr>, "asc": true}]}
func FromJSON(data []byte) (*Statement, error) {
	s := Statement{
		Filters:     make(map[string][]expr.Expr),
		Joins:       make(map[TablePair][]expr.Expr),
		ScanColumns: make(map[string][]string),
	}

	kind, err := jsonparser.GetString(data, "kind")
	if err != nil {
		return nil, errors.Wrap(err, "statement has no kind")
	}
	switch kind {
	case "select":
		s.Kind = Select
	case "insert":
		s.Kind = Insert
	case "update":
		s.Kind = Update
	case "delete":
		s.Kind = Delete
	default:
		return nil, errors.Errorf("unknown statement kind %q", kind)
	}

	var ierr error
	err = jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
		filters, err := expr.DecodeList(value)
		if err != nil {
			return errors.Wrapf(err, "malformed filters for table %q", string(key))
		}
		s.Filters[string(key)] = filters
		return nil
	}, "filters")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, err
	}

	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}

		var names []string
		_, aerr := jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, o int, e error) {
			names = append(names, string(v))
		}, "tables")
		if aerr != nil || len(names) != 2 {
			ierr = errors.New("join entry must name exactly two tables")
			return
		}

		preds, _, _, perr := jsonparser.Get(value, "predicates")
		if perr != nil {
			ierr = errors.Wrap(perr, "join entry has no predicates")
			return
		}
		list, derr := expr.DecodeList(preds)
		if derr != nil {
			ierr = derr
			return
		}

		pair := NewTablePair(names[0], names[1])
		s.Joins[pair] = append(s.Joins[pair], list...)
	}, "joins")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, err
	}
	if ierr != nil {
		return nil, ierr
	}

	err = jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
		var cols []string
		_, aerr := jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, o int, e error) {
			cols = append(cols, string(v))
		})
		if aerr != nil {
			return errors.Wrapf(aerr, "malformed scan columns for table %q", string(key))
		}
		s.ScanColumns[string(key)] = cols
		return nil
	}, "scan_columns")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, err
	}

	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}

		raw, _, _, gerr := jsonparser.Get(value, "expr")
		if gerr != nil {
			ierr = errors.Wrap(gerr, "order by item has no expression")
			return
		}
		e, derr := expr.Decode(raw)
		if derr != nil {
			ierr = derr
			return
		}
		asc, _ := jsonparser.GetBoolean(value, "asc")
		s.OrderBy = append(s.OrderBy, OrderBy{Expr: e, Asc: asc})
	}, "order_by")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, err
	}
	if ierr != nil {
		return nil, ierr
	}

	return &s, nil
}
