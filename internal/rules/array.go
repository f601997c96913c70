package rules

import (
	"github.com/benzoXdev/deobfusps/internal/traverse"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// ParseArrayLiteral builds a Sequence from a comma-joined array literal:
// `A , B` combines a left Scalar or Sequence with a right Scalar.
type ParseArrayLiteral struct{}

func (ParseArrayLiteral) Enter(*MNode, traverse.Flow) error { return nil }

func (ParseArrayLiteral) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "array_literal_expression" || view.ChildCount() < 3 {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	rightScalar, rightIsScalar := right.(value.Scalar)
	if !rightIsScalar {
		return nil
	}
	switch lv := left.(type) {
	case value.Scalar:
		n.Set(value.Sequence{lv, rightScalar})
	case value.Sequence:
		n.Set(append(append(value.Sequence{}, lv...), rightScalar))
	}
	return nil
}

// ParseRange folds the `..` range operator into an ascending inclusive
// Sequence of integers when both sides coerce to Int.
type ParseRange struct{}

func (ParseRange) Enter(*MNode, traverse.Flow) error { return nil }

func (ParseRange) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "range_expression" || view.ChildCount() < 3 {
		return nil
	}
	left, ok1 := n.DataOf(view.Child(0))
	right, ok2 := n.DataOf(view.Child(2))
	if !ok1 || !ok2 {
		return nil
	}
	ls, lok := left.(value.Scalar)
	rs, rok := right.(value.Scalar)
	if !lok || !rok {
		return nil
	}
	from, fok := value.AsInt(ls)
	to, tok := value.AsInt(rs)
	if !fok || !tok {
		return nil
	}
	seq := make(value.Sequence, 0, to-from+1)
	for i := from; i <= to; i++ {
		seq = append(seq, value.Int(i))
	}
	n.Set(seq)
	return nil
}

// ComputeArrayExpr folds `@(stmts)`: Sequences flatten, Scalars append,
// empty statements are skipped, and any unresolved statement aborts the
// whole fold.
type ComputeArrayExpr struct{}

func (ComputeArrayExpr) Enter(*MNode, traverse.Flow) error { return nil }

func (ComputeArrayExpr) Leave(n *MNode, _ traverse.Flow) error {
	view := n.View()
	if view.Kind() != "array_expression" {
		return nil
	}
	statements := view.NamedChild("statements")
	if statements == nil {
		n.Set(value.Sequence{})
		return nil
	}

	var out value.Sequence
	for i := 0; i < statements.ChildCount(); i++ {
		stmt := statements.Child(i)
		if stmt.Kind() == "empty_statement" {
			continue
		}
		v, ok := n.DataOf(stmt)
		if !ok {
			return nil
		}
		switch sv := v.(type) {
		case value.Sequence:
			out = append(out, sv...)
		case value.Scalar:
			out = append(out, sv)
		default:
			return nil
		}
	}
	n.Set(out)
	return nil
}
