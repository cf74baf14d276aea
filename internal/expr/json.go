package expr

import (
	"encoding/json"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// Expression trees cross component boundaries in a JSON form: the
// catalog stores the key expressions of an expression index as a
// serialized list, and the offline tooling describes statements the
// same way. Each node is an object whose "kind" selects the variant.

// DecodeList parses a serialized expression list.
func DecodeList(data []byte) ([]Expr, error) {
	var out []Expr
	var ierr error

	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}
		if err != nil {
			ierr = err
			return
		}

		e, err := Decode(value)
		if err != nil {
			ierr = err
			return
		}
		out = append(out, e)
	})
	if err != nil {
		return nil, errors.Wrap(err, "malformed expression list")
	}
	if ierr != nil {
		return nil, ierr
	}

	return out, nil
}

// Decode parses a single serialized expression node.
func Decode(data []byte) (Expr, error) {
	kind, err := jsonparser.GetString(data, "kind")
	if err != nil {
		return nil, errors.Wrap(err, "expression node has no kind")
	}

	switch kind {
	case "column":
		table, _ := jsonparser.GetString(data, "table")
		name, err := jsonparser.GetString(data, "name")
		if err != nil {
			return nil, errors.Wrap(err, "column node has no name")
		}
		idx, err := jsonparser.GetInt(data, "column")
		if err != nil {
			return nil, errors.Wrap(err, "column node has no ordinal")
		}
		tp, err := decodeType(data)
		if err != nil {
			return nil, err
		}
		return &TupleValue{Table: table, ColumnIndex: int(idx), ColumnName: name, Tp: tp}, nil

	case "constant":
		return decodeConstant(data)

	case "param":
		idx, err := jsonparser.GetInt(data, "index")
		if err != nil {
			return nil, errors.Wrap(err, "param node has no index")
		}
		p := Parameter{Index: int(idx)}
		if orig, dt, _, err := jsonparser.Get(data, "original"); err == nil && dt == jsonparser.Object {
			c, err := decodeConstant(orig)
			if err != nil {
				return nil, err
			}
			p.Original = c
		}
		if tp, err := decodeType(data); err == nil {
			p.Tp = tp
		}
		return &p, nil

	case "comparison":
		opName, err := jsonparser.GetString(data, "op")
		if err != nil {
			return nil, errors.Wrap(err, "comparison node has no op")
		}
		op, ok := ParseOperator(opName)
		if !ok {
			return nil, errors.Errorf("unknown comparison operator %q", opName)
		}
		left, _, _, err := jsonparser.Get(data, "left")
		if err != nil {
			return nil, errors.Wrap(err, "comparison node has no left operand")
		}
		right, _, _, err := jsonparser.Get(data, "right")
		if err != nil {
			return nil, errors.Wrap(err, "comparison node has no right operand")
		}
		l, err := Decode(left)
		if err != nil {
			return nil, err
		}
		r, err := Decode(right)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: op, Left: l, Right: r}, nil

	case "call":
		name, err := jsonparser.GetString(data, "name")
		if err != nil {
			return nil, errors.Wrap(err, "call node has no name")
		}
		tp, err := decodeType(data)
		if err != nil {
			return nil, err
		}
		args, _, _, err := jsonparser.Get(data, "args")
		if err != nil {
			return nil, errors.Wrap(err, "call node has no args")
		}
		list, err := DecodeList(args)
		if err != nil {
			return nil, err
		}
		return &Call{Name: name, Args: list, Tp: tp}, nil
	}

	return nil, errors.Errorf("unknown expression kind %q", kind)
}

func decodeType(data []byte) (types.Type, error) {
	name, err := jsonparser.GetString(data, "type")
	if err != nil {
		return types.TypeAny, errors.Wrap(err, "expression node has no type")
	}

	tp, ok := types.ParseType(name)
	if !ok {
		return types.TypeAny, errors.Errorf("unknown type %q", name)
	}

	return tp, nil
}

func decodeConstant(data []byte) (*Constant, error) {
	tp, err := decodeType(data)
	if err != nil {
		return nil, err
	}

	var raw string
	if tp != types.TypeNull {
		raw, err = jsonparser.GetString(data, "value")
		if err != nil {
			return nil, errors.Wrap(err, "constant node has no value")
		}
	}

	v, err := types.ParseValue(tp, raw)
	if err != nil {
		return nil, err
	}

	prefix, _ := jsonparser.GetBoolean(data, "prefix")
	return &Constant{Value: v, PrefixPattern: prefix}, nil
}

type jsonNode struct {
	Kind     string          `json:"kind"`
	Table    string          `json:"table,omitempty"`
	Column   *int            `json:"column,omitempty"`
	Name     string          `json:"name,omitempty"`
	Type     string          `json:"type,omitempty"`
	Value    string          `json:"value,omitempty"`
	Prefix   bool            `json:"prefix,omitempty"`
	Index    *int            `json:"index,omitempty"`
	Original *jsonNode       `json:"original,omitempty"`
	Op       string          `json:"op,omitempty"`
	Left     *jsonNode       `json:"left,omitempty"`
	Right    *jsonNode       `json:"right,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// EncodeList serializes an expression list to its JSON form.
func EncodeList(exprs []Expr) (string, error) {
	nodes := make([]*jsonNode, len(exprs))
	for i, e := range exprs {
		n, err := encode(e)
		if err != nil {
			return "", err
		}
		nodes[i] = n
	}

	data, err := json.Marshal(nodes)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func encode(e Expr) (*jsonNode, error) {
	switch ee := e.(type) {
	case *TupleValue:
		idx := ee.ColumnIndex
		return &jsonNode{
			Kind:   "column",
			Table:  ee.Table,
			Column: &idx,
			Name:   ee.ColumnName,
			Type:   ee.Tp.String(),
		}, nil

	case *Constant:
		return encodeConstant(ee), nil

	case *Parameter:
		idx := ee.Index
		n := jsonNode{Kind: "param", Index: &idx, Type: ee.Tp.String()}
		if ee.Original != nil {
			n.Original = encodeConstant(ee.Original)
		}
		return &n, nil

	case *Comparison:
		l, err := encode(ee.Left)
		if err != nil {
			return nil, err
		}
		r, err := encode(ee.Right)
		if err != nil {
			return nil, err
		}
		return &jsonNode{Kind: "comparison", Op: ee.Op.String(), Left: l, Right: r}, nil

	case *Call:
		args, err := EncodeList(ee.Args)
		if err != nil {
			return nil, err
		}
		return &jsonNode{
			Kind: "call",
			Name: ee.Name,
			Type: ee.Tp.String(),
			Args: json.RawMessage(args),
		}, nil
	}

	return nil, errors.Errorf("cannot encode expression %v", e)
}

func encodeConstant(c *Constant) *jsonNode {
	n := jsonNode{
		Kind:   "constant",
		Type:   c.Value.Type().String(),
		Prefix: c.PrefixPattern,
	}

	if c.Value.Type() != types.TypeNull {
		n.Value = literal(c.Value)
	}

	return &n
}

// literal renders a value in the form ParseValue accepts back.
func literal(v types.Value) string {
	switch v.Type() {
	case types.TypeText:
		return types.AsString(v)
	case types.TypeBytea:
		return string(v.V().([]byte))
	case types.TypeTimestamp:
		s := v.String()
		return s[1 : len(s)-1]
	default:
		return v.String()
	}
}
