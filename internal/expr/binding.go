package expr

// NoBindings is the shared empty binding list. It is returned whenever a
// match succeeds without constraining any parameter. Callers must never
// append to it in place; a caller that accumulates bindings allocates a
// fresh slice.
var NoBindings = []*Parameter{}

// BindingsTo structurally matches e against an indexed key expression.
//
// It returns the list of parameters of e that must keep their original
// values for the match to stay valid, or ok=false when e does not match
// indexed at all. A match that constrains nothing returns NoBindings,
// not nil, so that callers can distinguish "no match" from "match with
// no binding required".
func BindingsTo(e, indexed Expr) ([]*Parameter, bool) {
	switch ie := indexed.(type) {
	case *TupleValue:
		tv, ok := e.(*TupleValue)
		if !ok || tv.Table != ie.Table || tv.ColumnIndex != ie.ColumnIndex {
			return nil, false
		}
		return NoBindings, true

	case *Constant:
		switch ee := e.(type) {
		case *Constant:
			if !Equal(ee, ie) {
				return nil, false
			}
			return NoBindings, true
		case *Parameter:
			// a parameter can stand in for an indexed constant as
			// long as its invocation value matches; the parameter
			// becomes a binding of the resulting plan.
			if ee.Original == nil || !Equal(ee.Original, ie) {
				return nil, false
			}
			return []*Parameter{ee}, true
		}
		return nil, false

	case *Comparison:
		c, ok := e.(*Comparison)
		if !ok || c.Op != ie.Op {
			return nil, false
		}
		left, ok := BindingsTo(c.Left, ie.Left)
		if !ok {
			return nil, false
		}
		right, ok := BindingsTo(c.Right, ie.Right)
		if !ok {
			return nil, false
		}
		return merge(left, right), true

	case *Call:
		c, ok := e.(*Call)
		if !ok || c.Name != ie.Name || len(c.Args) != len(ie.Args) {
			return nil, false
		}
		bindings := NoBindings
		for i := range c.Args {
			b, ok := BindingsTo(c.Args[i], ie.Args[i])
			if !ok {
				return nil, false
			}
			bindings = merge(bindings, b)
		}
		return bindings, true
	}

	return nil, false
}

func merge(a, b []*Parameter) []*Parameter {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}

	out := make([]*Parameter, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
